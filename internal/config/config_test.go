package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Strategy.LookbackDays)
	assert.Equal(t, 9.5, cfg.Strategy.SpikeThreshold)
	require.Len(t, cfg.Strategy.Stages, 2)
	assert.Equal(t, 5, cfg.Strategy.Stages[0].OrderCount)
	assert.Equal(t, 0.70, cfg.Strategy.Stages[0].PositionRatio)
	assert.Equal(t, 3, cfg.Strategy.Stages[1].OrderCount)
	assert.Equal(t, 100, cfg.Trader.LotSize)
	assert.Equal(t, 60, cfg.Scheduler.IntervalSeconds)
	// 未配置网关时落回模拟模式
	assert.True(t, cfg.Trader.Mock)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  log_level: debug
  http_addr: ":8080"
trader:
  mock: true
  lot_size: 200
strategy:
  lookback_days: 90
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.True(t, cfg.Trader.Mock)
	assert.Equal(t, 200, cfg.Trader.LotSize)
	assert.Equal(t, 90, cfg.Strategy.LookbackDays)
	// 未显式配置的字段仍取默认值
	assert.Equal(t, 9.5, cfg.Strategy.SpikeThreshold)
}

func TestValidateRejectsBadStages(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Strategy.Stages[0].PositionRatio = 0.5 // 0.5 + 0.3 != 1
	assert.Error(t, validate(cfg))

	cfg2 := &Config{}
	cfg2.applyDefaults()
	cfg2.Strategy.Stages[1].OrderCount = 0
	assert.Error(t, validate(cfg2))
}

func TestValidateLiveRequiresGateway(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Trader.Mock = false
	assert.Error(t, validate(cfg))

	cfg.Trader.GatewayURL = "http://127.0.0.1:58610"
	assert.NoError(t, validate(cfg))
}
