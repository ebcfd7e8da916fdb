// Package market 定义日线行情数据源接口与数据类型。
package market

import (
	"context"
	"time"
)

// Bar 是一根日线。PctChg 为当日涨跌幅（百分比，如 9.98）。
type Bar struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	PreClose float64
	Volume   float64
	Amount   float64
	PctChg   float64
}

// Source 提供某只股票在日期区间内的日线数据，按日期升序返回。
// 实现应自行剔除缺失或无法解析的行，而不是返回错误。
type Source interface {
	DailyBars(ctx context.Context, code string, start, end time.Time) ([]Bar, error)
}
