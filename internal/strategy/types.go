// Package strategy 实现斐波那契回调金字塔建仓策略：
// 定位最近一次涨停、计算回调位、按阶段生成限价买入订单计划。
package strategy

import "time"

// PriceLevel 是一个命名回调位：ratio ∈ {0.382, 0.500, 0.618, 0.700, 0.786}，
// price = high − (high−low)×ratio。给定 (high, low) 后不可变。
type PriceLevel struct {
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
}

// SpikeWindow 描述一次合格的涨停及其后的价格区间。
type SpikeWindow struct {
	Code        string    `json:"stock_code"`
	SpikeDate   time.Time `json:"limit_up_date"`
	SpikeClose  float64   `json:"limit_up_price"`
	High        float64   `json:"highest_price"`
	Low         float64   `json:"lowest_price"`
	LatestClose float64   `json:"current_price"`
}

// PlannedOrder 是计划中的一笔限价买入，仅由 BuildPlan 创建，不可变。
type PlannedOrder struct {
	Stage       int     `json:"stage"`
	Seq         int     `json:"order_no"`
	Price       float64 `json:"price"`
	Amount      float64 `json:"amount"`
	Percentage  float64 `json:"percentage"`
	Description string  `json:"description"`
}

// StageSummary 汇总单个阶段的订单数与金额。
type StageSummary struct {
	Stage      int     `json:"stage"`
	OrderCount int     `json:"order_count"`
	Amount     float64 `json:"amount"`
}

// PlanSummary 是整个计划的汇总信息。
type PlanSummary struct {
	TotalOrders int            `json:"total_orders"`
	Stages      []StageSummary `json:"stages"`
}

// OrderPlan 是一次完整的建仓计划。
type OrderPlan struct {
	Code        string         `json:"stock_code"`
	TotalAmount float64        `json:"total_amount"`
	Window      SpikeWindow    `json:"limit_up_info"`
	Levels      []PriceLevel   `json:"fibonacci_levels"`
	Orders      []PlannedOrder `json:"orders"`
	Summary     PlanSummary    `json:"summary"`
}
