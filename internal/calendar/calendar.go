// Package calendar 提供交易日历：交易日判断、开收盘时间、下一交易日。
package calendar

import "time"

// Calendar 是调度器与策略依赖的交易日历接口。
type Calendar interface {
	// IsTradingDay 判断 t 所在日期是否为交易日。
	IsTradingDay(t time.Time) bool
	// OpenTime 返回 d 所在日期的开盘时间（09:30）。
	OpenTime(d time.Time) time.Time
	// CloseTime 返回 d 所在日期的收盘时间（15:00）。
	CloseTime(d time.Time) time.Time
	// IsTradingTime 判断 t 是否处于连续竞价时段（09:30-11:30, 13:00-15:00）。
	IsTradingTime(t time.Time) bool
	// NextTradingDay 返回 d 之后的第一个交易日（日期，零点）。
	NextTradingDay(d time.Time) time.Time
	// Authoritative 为 false 时表示节假日表缺失或未覆盖查询年份，
	// 日历退化为"仅按周一至周五"的近似答案。
	Authoritative() bool
}
