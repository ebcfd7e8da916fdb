package calendar

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHolidayFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holidays.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWeekdayFallback(t *testing.T) {
	c, err := NewCN("")
	require.NoError(t, err)

	mon := time.Date(2026, 8, 31, 10, 0, 0, 0, time.Local) // 周一
	sat := time.Date(2026, 8, 29, 10, 0, 0, 0, time.Local)
	assert.True(t, c.IsTradingDay(mon))
	assert.False(t, c.IsTradingDay(sat))
	assert.False(t, c.Authoritative())
}

func TestHolidayTable(t *testing.T) {
	path := writeHolidayFile(t, `
holidays:
  - 2026-10-01
  - 2026-10-02
workdays:
  - 2026-09-26
`)
	c, err := NewCN(path)
	require.NoError(t, err)

	holiday := time.Date(2026, 10, 1, 10, 0, 0, 0, time.Local) // 周四，国庆
	makeup := time.Date(2026, 9, 26, 10, 0, 0, 0, time.Local)  // 周六，调休补班
	assert.False(t, c.IsTradingDay(holiday))
	assert.True(t, c.IsTradingDay(makeup))

	// 10-01(四) 10-02(五) 休市，10-03/04 周末 ⇒ 下一交易日为 10-05 周一
	next := c.NextTradingDay(time.Date(2026, 9, 30, 0, 0, 0, 0, time.Local))
	assert.Equal(t, time.Date(2026, 10, 5, 0, 0, 0, 0, time.Local), next)
}

func TestSessionTimes(t *testing.T) {
	c, err := NewCN("")
	require.NoError(t, err)

	d := time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2026, 8, 31, 9, 30, 0, 0, time.Local), c.OpenTime(d))
	assert.Equal(t, time.Date(2026, 8, 31, 15, 0, 0, 0, time.Local), c.CloseTime(d))

	assert.True(t, c.IsTradingTime(time.Date(2026, 8, 31, 10, 15, 0, 0, time.Local)))
	assert.False(t, c.IsTradingTime(time.Date(2026, 8, 31, 12, 0, 0, 0, time.Local))) // 午休
	assert.True(t, c.IsTradingTime(time.Date(2026, 8, 31, 14, 59, 0, 0, time.Local)))
	assert.False(t, c.IsTradingTime(time.Date(2026, 8, 31, 15, 1, 0, 0, time.Local)))
}

func TestBadHolidayFile(t *testing.T) {
	path := writeHolidayFile(t, "holidays:\n  - not-a-date\n")
	_, err := NewCN(path)
	assert.Error(t, err)
}
