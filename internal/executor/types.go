// Package executor 封装交易执行：连接管理、下单/撤单/查询、批量下单与
// 模拟模式替换。连接故障自动重连一次；委托被柜台拒绝时原样透出，不重试。
package executor

import "time"

// Direction 是买卖方向。本系统只使用限价买入。
type Direction string

const (
	DirBuy  Direction = "buy"
	DirSell Direction = "sell"
)

// OrderStatus 是委托状态。
type OrderStatus string

const (
	StatusSubmitted  OrderStatus = "submitted"
	StatusPartFilled OrderStatus = "part_filled"
	StatusFilled     OrderStatus = "filled"
	StatusCanceled   OrderStatus = "canceled"
	StatusRejected   OrderStatus = "rejected"
	StatusUnknown    OrderStatus = "unknown"
)

// OrderRequest 是一笔限价委托。Volume 必须是正的一手倍数，调用方自行取整。
type OrderRequest struct {
	Stock     string    `json:"stock_code"`
	Price     float64   `json:"price"`
	Volume    int       `json:"volume"`
	Direction Direction `json:"direction"`
}

// OrderResult 是单笔下单结果。Success=false 且无 error 时，
// Message 为柜台的拒绝原因。
type OrderResult struct {
	OrderID string `json:"order_id"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CancelResult 是撤单结果。
type CancelResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BatchOrder 是批量下单的输入：以金额而非股数表达，股数由执行器换算。
type BatchOrder struct {
	Stock  string  `json:"stock_code"`
	Price  float64 `json:"price"`
	Amount float64 `json:"amount"`
}

// BatchResult 是批量下单中单笔订单的独立结果。
type BatchResult struct {
	Order   BatchOrder `json:"order"`
	Success bool       `json:"success"`
	OrderID string     `json:"order_id,omitempty"`
	Volume  int        `json:"volume,omitempty"`
	Message string     `json:"message"`
}

// Asset 是账户资金快照。
type Asset struct {
	AccountID   string  `json:"account_id"`
	Cash        float64 `json:"cash"`
	Frozen      float64 `json:"frozen"`
	MarketValue float64 `json:"market_value"`
	Total       float64 `json:"total"`
}

// Order 是柜台回报的委托。
type Order struct {
	OrderID  string      `json:"order_id"`
	Stock    string      `json:"stock_code"`
	Price    float64     `json:"price"`
	Volume   int         `json:"volume"`
	Traded   int         `json:"traded"`
	Status   OrderStatus `json:"status"`
	SubmitAt time.Time   `json:"submit_at"`
}

// Unfilled 判断委托是否仍有未成交部分（已报或部成）。
func (o Order) Unfilled() bool {
	return o.Status == StatusSubmitted || o.Status == StatusPartFilled
}

// Remaining 返回未成交股数。
func (o Order) Remaining() int {
	if o.Traded >= o.Volume {
		return 0
	}
	return o.Volume - o.Traded
}

// Trade 是一笔成交。
type Trade struct {
	TradeID  string    `json:"trade_id"`
	OrderID  string    `json:"order_id"`
	Stock    string    `json:"stock_code"`
	Price    float64   `json:"price"`
	Volume   int       `json:"volume"`
	TradedAt time.Time `json:"traded_at"`
}

// Position 是一笔持仓。
type Position struct {
	Stock       string  `json:"stock_code"`
	Volume      int     `json:"volume"`
	Available   int     `json:"available"`
	AvgPrice    float64 `json:"avg_price"`
	MarketValue float64 `json:"market_value"`
}

// State 是执行器的连接状态快照，仅由 Trader 自身修改。
type State struct {
	Connected     bool      `json:"connected"`
	Mock          bool      `json:"mock"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}
