package strategy

import (
	"context"
	"testing"
	"time"

	"pyramid/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	bars []market.Bar
	err  error
}

func (s *stubSource) DailyBars(ctx context.Context, code string, start, end time.Time) ([]market.Bar, error) {
	return s.bars, s.err
}

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.Local)
}

func TestComputeLevels(t *testing.T) {
	levels := ComputeLevels(100, 80)
	require.Len(t, levels, 5)

	p500, ok := LevelPrice(levels, 0.500)
	require.True(t, ok)
	assert.InDelta(t, 90.00, p500, 1e-9)

	p618, ok := LevelPrice(levels, 0.618)
	require.True(t, ok)
	assert.InDelta(t, 87.64, p618, 1e-9)

	p700, ok := LevelPrice(levels, 0.700)
	require.True(t, ok)
	assert.InDelta(t, 86.00, p700, 1e-9)

	p382, ok := LevelPrice(levels, 0.382)
	require.True(t, ok)
	assert.InDelta(t, 92.36, p382, 1e-9)
}

func TestFindSpikeWindow(t *testing.T) {
	src := &stubSource{bars: []market.Bar{
		{Date: day(3), High: 10.5, Low: 9.8, Close: 10.2, PctChg: 2.0},
		{Date: day(4), High: 11.3, Low: 10.1, Close: 11.22, PctChg: 10.0}, // 涨停
		{Date: day(5), High: 12.3, Low: 11.0, Close: 12.1, PctChg: 7.8},
		{Date: day(6), High: 12.0, Low: 10.6, Close: 10.9, PctChg: -9.9},
	}}

	win, err := FindSpikeWindow(context.Background(), src, "sh.600000", 60, 9.5)
	require.NoError(t, err)
	assert.Equal(t, day(4), win.SpikeDate)
	assert.Equal(t, 11.22, win.SpikeClose)
	assert.Equal(t, 12.3, win.High) // 涨停日之后的最高价
	assert.Equal(t, 10.1, win.Low)  // 含涨停日当日最低价
	assert.Equal(t, 10.9, win.LatestClose)
}

func TestFindSpikeWindowPicksLatest(t *testing.T) {
	src := &stubSource{bars: []market.Bar{
		{Date: day(3), High: 10, Low: 9, Close: 10, PctChg: 10.0},
		{Date: day(4), High: 11, Low: 10, Close: 11, PctChg: 10.0},
		{Date: day(5), High: 11.5, Low: 10.8, Close: 11.2, PctChg: 1.8},
	}}

	win, err := FindSpikeWindow(context.Background(), src, "sh.600000", 60, 9.5)
	require.NoError(t, err)
	assert.Equal(t, day(4), win.SpikeDate)
}

func TestFindSpikeWindowNoSpike(t *testing.T) {
	src := &stubSource{bars: []market.Bar{
		{Date: day(3), High: 10.5, Low: 9.8, Close: 10.2, PctChg: 2.0},
	}}
	_, err := FindSpikeWindow(context.Background(), src, "sh.600000", 60, 9.5)
	assert.ErrorIs(t, err, ErrNoSpike)

	empty := &stubSource{}
	_, err = FindSpikeWindow(context.Background(), empty, "sh.600000", 60, 9.5)
	assert.ErrorIs(t, err, ErrNoSpike)
}
