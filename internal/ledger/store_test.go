package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pyramid/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePlan(code string, total float64) strategy.OrderPlan {
	levels := strategy.ComputeLevels(100, 80)
	return strategy.OrderPlan{
		Code:        code,
		TotalAmount: total,
		Levels:      levels,
		Orders: []strategy.PlannedOrder{
			{Stage: 1, Seq: 1, Price: 90.00, Amount: total / 2, Percentage: 50},
			{Stage: 2, Seq: 1, Price: 87.64, Amount: total / 2, Percentage: 50},
		},
		Summary: strategy.PlanSummary{TotalOrders: 2},
	}
}

func TestSaveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plan := samplePlan("sh.600000", 100000)
	id, err := s.Save(ctx, plan)
	require.NoError(t, err)
	require.Len(t, id, 20)

	rec, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, plan, rec.Plan)
	assert.Equal(t, id, rec.ID)
}

func TestSaveCollisionRetries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// 固定时钟强制撞号，Save 应顺延微秒重试而不是覆盖。
	fixed := time.Date(2026, 8, 31, 10, 0, 0, 123456000, time.Local)
	s.nowFn = func() time.Time { return fixed }

	id1, err := s.Save(ctx, samplePlan("sh.600000", 1000))
	require.NoError(t, err)
	id2, err := s.Save(ctx, samplePlan("sh.600000", 2000))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	all, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, samplePlan("sh.600000", 100000))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
}

func TestGetRecentOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local)
	var ids []string
	for i := 0; i < 5; i++ {
		tick := base.Add(time.Duration(i) * time.Second)
		s.nowFn = func() time.Time { return tick }
		id, err := s.Save(ctx, samplePlan("sh.600000", float64(1000*(i+1))))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	recent, err := s.GetRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, ids[4], recent[0].ID)
	assert.Equal(t, ids[3], recent[1].ID)
	assert.Equal(t, ids[2], recent[2].ID)
}

func TestGetByStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, samplePlan("sh.600000", 1000))
	require.NoError(t, err)
	_, err = s.Save(ctx, samplePlan("sz.000001", 2000))
	require.NoError(t, err)
	_, err = s.Save(ctx, samplePlan("sh.600000", 3000))
	require.NoError(t, err)

	recs, err := s.GetByStock(ctx, "sh.600000")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, "sh.600000", r.Plan.Code)
	}
}

func TestGetStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalOrders)
	assert.Nil(t, empty.FirstOrderAt)

	_, err = s.Save(ctx, samplePlan("sh.600000", 100000))
	require.NoError(t, err)
	_, err = s.Save(ctx, samplePlan("sz.000001", 50000))
	require.NoError(t, err)

	stats, err := s.GetStatistics(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalOrders)
	assert.EqualValues(t, 2, stats.TotalStocks)
	assert.InDelta(t, 150000, stats.TotalAmount, 1e-6)
	require.NotNil(t, stats.FirstOrderAt)
	require.NotNil(t, stats.LastOrderAt)
	assert.False(t, stats.LastOrderAt.Before(*stats.FirstOrderAt))
}
