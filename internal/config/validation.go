package config

import (
	"fmt"
	"math"
)

func validate(c *Config) error {
	if c.Strategy.SpikeThreshold >= 100 {
		return fmt.Errorf("strategy.spike_threshold=%.2f 超出合理范围", c.Strategy.SpikeThreshold)
	}
	var ratioSum float64
	for i, st := range c.Strategy.Stages {
		if st.OrderCount <= 0 {
			return fmt.Errorf("strategy.stages[%d].order_count 必须大于 0", i)
		}
		if st.PositionRatio <= 0 || st.PositionRatio > 1 {
			return fmt.Errorf("strategy.stages[%d].position_ratio 必须在 (0,1] 之间", i)
		}
		if st.FibStart < 0 || st.FibEnd < st.FibStart {
			return fmt.Errorf("strategy.stages[%d] 回调区间非法: [%.3f, %.3f]", i, st.FibStart, st.FibEnd)
		}
		ratioSum += st.PositionRatio
	}
	if math.Abs(ratioSum-1) > 1e-9 {
		return fmt.Errorf("strategy.stages 仓位占比之和必须为 1，当前为 %.4f", ratioSum)
	}
	if !c.Trader.Mock && c.Trader.GatewayURL == "" {
		return fmt.Errorf("trader.mock=false 时必须配置 trader.gateway_url")
	}
	if c.Trader.LotSize%100 != 0 {
		return fmt.Errorf("trader.lot_size 必须为 100 的倍数")
	}
	if c.Scheduler.ReloadWindowMinutes <= c.Scheduler.ReloadDelayMinutes {
		return fmt.Errorf("scheduler.reload_window_minutes=%d 必须大于 reload_delay_minutes=%d",
			c.Scheduler.ReloadWindowMinutes, c.Scheduler.ReloadDelayMinutes)
	}
	return nil
}
