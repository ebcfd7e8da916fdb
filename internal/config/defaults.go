package config

// 默认参数与原始策略保持一致：
// 60 个自然日回看、9.5% 涨停阈值（实际涨停可能略小于 10%）、
// 0.5-0.618 区间 5 单 7 成仓 + 0.618-0.7 区间 3 单 3 成仓。
func (c *Config) applyDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = ":5000"
	}
	if c.Strategy.LookbackDays <= 0 {
		c.Strategy.LookbackDays = 60
	}
	if c.Strategy.SpikeThreshold <= 0 {
		c.Strategy.SpikeThreshold = 9.5
	}
	if len(c.Strategy.Stages) == 0 {
		c.Strategy.Stages = []StageConfig{
			{FibStart: 0.500, FibEnd: 0.618, PositionRatio: 0.70, OrderCount: 5},
			{FibStart: 0.618, FibEnd: 0.700, PositionRatio: 0.30, OrderCount: 3},
		}
	}
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = "http://127.0.0.1:8300"
	}
	if c.Market.TimeoutSeconds <= 0 {
		c.Market.TimeoutSeconds = 15
	}
	if c.Trader.TimeoutSeconds <= 0 {
		c.Trader.TimeoutSeconds = 15
	}
	// 未配置任何交易网关等价于显式选择模拟模式
	if c.Trader.GatewayURL == "" {
		c.Trader.Mock = true
	}
	if c.Trader.LotSize <= 0 {
		c.Trader.LotSize = 100
	}
	if c.Scheduler.IntervalSeconds <= 0 {
		c.Scheduler.IntervalSeconds = 60
	}
	if c.Scheduler.PendingOrdersPath == "" {
		c.Scheduler.PendingOrdersPath = "data/pending_orders.json"
	}
	if c.Scheduler.CheckLeadMinutes <= 0 {
		c.Scheduler.CheckLeadMinutes = 3
	}
	if c.Scheduler.CheckDebounceSeconds <= 0 {
		c.Scheduler.CheckDebounceSeconds = 60
	}
	if c.Scheduler.ReloadDelayMinutes <= 0 {
		c.Scheduler.ReloadDelayMinutes = 3
	}
	if c.Scheduler.ReloadWindowMinutes <= 0 {
		c.Scheduler.ReloadWindowMinutes = 10
	}
	if c.Storage.LedgerPath == "" {
		c.Storage.LedgerPath = "data/ledger.db"
	}
}
