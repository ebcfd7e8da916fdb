package strategy

import (
	"testing"

	"pyramid/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultStages() []config.StageConfig {
	return []config.StageConfig{
		{FibStart: 0.500, FibEnd: 0.618, PositionRatio: 0.70, OrderCount: 5},
		{FibStart: 0.618, FibEnd: 0.700, PositionRatio: 0.30, OrderCount: 3},
	}
}

func TestBuildPlanShape(t *testing.T) {
	levels := ComputeLevels(100, 80)
	plan, err := BuildPlan("sh.600000", 100000, SpikeWindow{Code: "sh.600000"}, levels, defaultStages())
	require.NoError(t, err)

	require.Len(t, plan.Orders, 8)
	assert.Equal(t, 8, plan.Summary.TotalOrders)

	stage1 := plan.Orders[:5]
	stage2 := plan.Orders[5:]

	// 第一阶段：90.00 → 87.64，步长 (90.00−87.64)/4 = 0.59
	wantS1 := []float64{90.00, 89.41, 88.82, 88.23, 87.64}
	var sum1 float64
	for i, o := range stage1 {
		assert.Equal(t, 1, o.Stage)
		assert.Equal(t, i+1, o.Seq)
		assert.InDelta(t, wantS1[i], o.Price, 1e-9)
		assert.InDelta(t, 14.0, o.Percentage, 1e-9)
		sum1 += o.Amount
	}
	assert.InDelta(t, 70000.00, sum1, 0.05)

	// 第二阶段：87.64 → 86.00，步长 (87.64−86.00)/2 = 0.82
	wantS2 := []float64{87.64, 86.82, 86.00}
	var sum2 float64
	for i, o := range stage2 {
		assert.Equal(t, 2, o.Stage)
		assert.Equal(t, i+1, o.Seq)
		assert.InDelta(t, wantS2[i], o.Price, 1e-9)
		assert.InDelta(t, 10.0, o.Percentage, 1e-9)
		sum2 += o.Amount
	}
	assert.InDelta(t, 30000.00, sum2, 0.05)

	require.Len(t, plan.Summary.Stages, 2)
	assert.InDelta(t, 70000.00, plan.Summary.Stages[0].Amount, 0.05)
	assert.InDelta(t, 30000.00, plan.Summary.Stages[1].Amount, 0.05)
}

func TestBuildPlanOrderCountInvariant(t *testing.T) {
	levels := ComputeLevels(55.5, 43.21)
	for _, total := range []float64{0.01, 1, 333.33, 100000, 98765432.1} {
		plan, err := BuildPlan("sz.000001", total, SpikeWindow{}, levels, defaultStages())
		require.NoError(t, err)
		assert.Len(t, plan.Orders, 8, "total=%v", total)
	}
}

func TestBuildPlanInvalidCapital(t *testing.T) {
	levels := ComputeLevels(100, 80)
	_, err := BuildPlan("sh.600000", 0, SpikeWindow{}, levels, defaultStages())
	assert.ErrorIs(t, err, ErrInvalidCapital)

	_, err = BuildPlan("sh.600000", -5, SpikeWindow{}, levels, defaultStages())
	assert.ErrorIs(t, err, ErrInvalidCapital)
}

func TestBuildPlanConfigurableStages(t *testing.T) {
	levels := ComputeLevels(100, 80)
	stages := []config.StageConfig{
		{FibStart: 0.382, FibEnd: 0.500, PositionRatio: 0.5, OrderCount: 2},
		{FibStart: 0.500, FibEnd: 0.618, PositionRatio: 0.5, OrderCount: 4},
	}
	plan, err := BuildPlan("sh.600000", 10000, SpikeWindow{}, levels, stages)
	require.NoError(t, err)
	assert.Len(t, plan.Orders, 6)
	assert.InDelta(t, 92.36, plan.Orders[0].Price, 1e-9)
	assert.InDelta(t, 2500.00, plan.Orders[0].Amount, 1e-9)
}

func TestBuildPlanSingleOrderStage(t *testing.T) {
	levels := ComputeLevels(100, 80)
	stages := []config.StageConfig{
		{FibStart: 0.500, FibEnd: 0.618, PositionRatio: 1.0, OrderCount: 1},
	}
	plan, err := BuildPlan("sh.600000", 5000, SpikeWindow{}, levels, stages)
	require.NoError(t, err)
	require.Len(t, plan.Orders, 1)
	assert.InDelta(t, 90.00, plan.Orders[0].Price, 1e-9) // 单张订单取区间起点
}
