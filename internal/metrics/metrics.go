// Package metrics 注册系统运行指标，经 /metrics 以 Prometheus 文本格式暴露：
//   - pyramid_orders_placed_total      已受理委托数
//   - pyramid_orders_failed_total      本地校验失败或被柜台拒绝的委托数
//   - pyramid_reconnects_total         交易会话重连次数
//   - pyramid_executor_connected       会话连接状态（0/1）
//   - pyramid_scheduler_ticks_total    调度器 tick 次数
//   - pyramid_pending_captured_total   收盘前捕获的未成交委托数
//   - pyramid_pending_resubmitted_total 开盘后重新申报的委托数
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pyramid_orders_placed_total",
		Help: "Orders accepted by the brokerage endpoint",
	})

	OrdersFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pyramid_orders_failed_total",
		Help: "Orders failed locally or rejected by the endpoint",
	})

	Reconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pyramid_reconnects_total",
		Help: "Trading session reconnect attempts",
	})

	Connected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pyramid_executor_connected",
		Help: "Trading session connectivity (0/1)",
	})

	SchedulerTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pyramid_scheduler_ticks_total",
		Help: "Pending-order scheduler ticks",
	})

	PendingCaptured = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pyramid_pending_captured_total",
		Help: "Unfilled orders captured near market close",
	})

	PendingResubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pyramid_pending_resubmitted_total",
		Help: "Pending orders resubmitted after market open",
	})
)

func init() {
	prometheus.MustRegister(
		OrdersPlaced,
		OrdersFailed,
		Reconnects,
		Connected,
		SchedulerTicks,
		PendingCaptured,
		PendingResubmitted,
	)
}
