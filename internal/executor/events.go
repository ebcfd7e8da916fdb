package executor

import "time"

// EventType 枚举柜台主推的通知类型。
type EventType string

const (
	EventDisconnect    EventType = "disconnect"
	EventOrderUpdate   EventType = "order_update"
	EventTradeUpdate   EventType = "trade_update"
	EventOrderError    EventType = "order_error"
	EventCancelError   EventType = "cancel_error"
	EventAsyncAck      EventType = "async_ack"
	EventAccountStatus EventType = "account_status"
)

// Event 是解码后的柜台推送。所有推送都是单向通知：
// 执行器只转发，绝不阻塞等待消费者。
type Event struct {
	Type    EventType   `json:"type"`
	At      time.Time   `json:"at"`
	Stock   string      `json:"stock_code,omitempty"`
	OrderID string      `json:"order_id,omitempty"`
	Seq     int64       `json:"seq,omitempty"`
	Status  OrderStatus `json:"status,omitempty"`
	ErrorID int         `json:"error_id,omitempty"`
	Message string      `json:"message,omitempty"`
}
