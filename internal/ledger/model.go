package ledger

import (
	"time"

	"pyramid/internal/strategy"

	"gorm.io/datatypes"
)

// planRecordModel 是 plan_records 表的 gorm 模型。
// ID 由微秒级时间戳渲染而来，可按字典序排序。
type planRecordModel struct {
	ID          string    `gorm:"primaryKey;size:20"`
	CreatedAt   time.Time `gorm:"index"`
	Stock       string    `gorm:"index;size:16"`
	TotalAmount float64
	Data        datatypes.JSON
}

func (planRecordModel) TableName() string { return "plan_records" }

// Record 是对外暴露的台账记录。
type Record struct {
	ID        string             `json:"order_id"`
	Timestamp time.Time          `json:"timestamp"`
	Plan      strategy.OrderPlan `json:"data"`
}

// Statistics 是台账的全量统计。
type Statistics struct {
	TotalOrders  int64      `json:"total_orders"`
	TotalStocks  int64      `json:"total_stocks"`
	TotalAmount  float64    `json:"total_amount"`
	FirstOrderAt *time.Time `json:"first_order_date"`
	LastOrderAt  *time.Time `json:"last_order_date"`
}
