package config

// Config 是整个系统的主配置载体。
type Config struct {
	App       AppConfig       `toml:"app"`
	Strategy  StrategyConfig  `toml:"strategy"`
	Market    MarketConfig    `toml:"market"`
	Calendar  CalendarConfig  `toml:"calendar"`
	Trader    TraderConfig    `toml:"trader"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Storage   StorageConfig   `toml:"storage"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
}

// StrategyConfig 控制涨停识别与金字塔分批参数。
// Stages 的比例与单数是策略仅有的两个可调参数，改配置即可生效。
type StrategyConfig struct {
	LookbackDays   int           `toml:"lookback_days"`
	SpikeThreshold float64       `toml:"spike_threshold"`
	Stages         []StageConfig `toml:"stages"`
}

// StageConfig 描述一个建仓阶段：回调区间、仓位占比、分单数。
type StageConfig struct {
	FibStart      float64 `toml:"fib_start"`
	FibEnd        float64 `toml:"fib_end"`
	PositionRatio float64 `toml:"position_ratio"`
	OrderCount    int     `toml:"order_count"`
}

// MarketConfig 描述行情数据网关的访问方式。
type MarketConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type CalendarConfig struct {
	HolidayFile string `toml:"holiday_file"`
	Watch       bool   `toml:"watch"`
}

// TraderConfig 描述交易网关的访问方式与模拟开关。
// Mock 为显式配置项：true 使用进程内模拟实现，false 连接 QMT 网关。
type TraderConfig struct {
	Mock           bool   `toml:"mock"`
	GatewayURL     string `toml:"gateway_url"`
	WSURL          string `toml:"ws_url"`
	Token          string `toml:"token"`
	AccountID      string `toml:"account_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	LotSize        int    `toml:"lot_size"`
}

type SchedulerConfig struct {
	IntervalSeconds      int    `toml:"interval_seconds"`
	PendingOrdersPath    string `toml:"pending_orders_path"`
	CheckLeadMinutes     int    `toml:"check_lead_minutes"`
	CheckDebounceSeconds int    `toml:"check_debounce_seconds"`
	// 重报窗口为开盘后第 delay 到第 window 分钟，两者都从开盘时刻起算
	ReloadDelayMinutes   int    `toml:"reload_delay_minutes"`
	ReloadWindowMinutes  int    `toml:"reload_window_minutes"`
}

type StorageConfig struct {
	LedgerPath string `toml:"ledger_path"`
}
