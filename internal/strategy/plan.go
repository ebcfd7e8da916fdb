package strategy

import (
	"errors"
	"fmt"

	"pyramid/internal/config"
	"pyramid/internal/pkg/stock"

	"github.com/shopspring/decimal"
)

// ErrInvalidCapital 表示总金额非法（≤ 0）。
var ErrInvalidCapital = errors.New("total capital must be positive")

// BuildPlan 将总金额按阶段配置拆分为限价买入订单计划。
// 每个阶段把 PositionRatio 份额平均分到 OrderCount 个价位上，
// 价位在 level(FibStart) 与 level(FibEnd) 之间线性插值（含端点）。
// 价格与金额均四舍五入到分。
func BuildPlan(code string, total float64, win SpikeWindow, levels []PriceLevel, stages []config.StageConfig) (OrderPlan, error) {
	if total <= 0 {
		return OrderPlan{}, fmt.Errorf("总金额 %.2f 非法: %w", total, ErrInvalidCapital)
	}
	if len(stages) == 0 {
		return OrderPlan{}, errors.New("stage config is empty")
	}

	plan := OrderPlan{
		Code:        code,
		TotalAmount: total,
		Window:      win,
		Levels:      levels,
	}

	for si, st := range stages {
		startPrice, ok := LevelPrice(levels, st.FibStart)
		if !ok {
			return OrderPlan{}, fmt.Errorf("回调位 %.3f 不存在", st.FibStart)
		}
		endPrice, ok := LevelPrice(levels, st.FibEnd)
		if !ok {
			return OrderPlan{}, fmt.Errorf("回调位 %.3f 不存在", st.FibEnd)
		}

		stageNo := si + 1
		stageAmount := total * st.PositionRatio
		perOrder := round2(stageAmount / float64(st.OrderCount))
		percentage := round2(st.PositionRatio / float64(st.OrderCount) * 100)

		var stageTotal float64
		for i := 0; i < st.OrderCount; i++ {
			price := interpolate(startPrice, endPrice, i, st.OrderCount)
			ratio := interpolate(st.FibStart, st.FibEnd, i, st.OrderCount)
			order := PlannedOrder{
				Stage:      stageNo,
				Seq:        i + 1,
				Price:      round2(price),
				Amount:     perOrder,
				Percentage: percentage,
				Description: fmt.Sprintf("第%d阶段 第%d单 (%.3f回调位, %s)",
					stageNo, i+1, ratio, stock.RiskLabel(ratio)),
			}
			plan.Orders = append(plan.Orders, order)
			stageTotal += order.Amount
		}
		plan.Summary.Stages = append(plan.Summary.Stages, StageSummary{
			Stage:      stageNo,
			OrderCount: st.OrderCount,
			Amount:     round2(stageTotal),
		})
	}
	plan.Summary.TotalOrders = len(plan.Orders)
	return plan, nil
}

// interpolate 返回 [start, end] 间 count 个等距点中的第 i 个（含端点）。
func interpolate(start, end float64, i, count int) float64 {
	if count <= 1 {
		return start
	}
	step := (end - start) / float64(count-1)
	return start + step*float64(i)
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
