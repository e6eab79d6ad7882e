package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.InDelta(t, 100000, cfg.InitialCapital, 1e-9)
	assert.InDelta(t, 0.001, cfg.FeeRate, 1e-9)
	assert.InDelta(t, 0.0002, cfg.Slippage, 1e-9)
	assert.InDelta(t, 0.05, cfg.MinPositionChange, 1e-9)
	assert.InDelta(t, 5000, cfg.MinTradeAmount, 1e-9)
	// 风控默认关闭
	assert.Zero(t, cfg.StopLossPct)
	assert.Zero(t, cfg.TakeProfitPct)
}

func TestConfigValidateFillsRunID(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.RunID)
	assert.Len(t, cfg.RunID, 26) // ulid
}

func TestConfigValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"初始资金为零", func(c *Config) { c.InitialCapital = 0 }},
		{"初始资金为负", func(c *Config) { c.InitialCapital = -1 }},
		{"手续费为负", func(c *Config) { c.FeeRate = -0.001 }},
		{"手续费超界", func(c *Config) { c.FeeRate = 1 }},
		{"滑点为负", func(c *Config) { c.Slippage = -0.1 }},
		{"止损超界", func(c *Config) { c.StopLossPct = 1.5 }},
		{"止盈为负", func(c *Config) { c.TakeProfitPct = -0.1 }},
		{"最大仓位为零", func(c *Config) { c.MaxPosition = 0 }},
		{"最大仓位超界", func(c *Config) { c.MaxPosition = 1.2 }},
		{"最小仓位变化超界", func(c *Config) { c.MinPositionChange = 1 }},
		{"最小成交金额为负", func(c *Config) { c.MinTradeAmount = -1 }},
		{"冷却期为负", func(c *Config) { c.CooldownBars = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

// 显式设置 0 的参数不被默认值覆盖
func TestConfigZeroValuesPreserved(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FeeRate = 0
	cfg.Slippage = 0
	cfg.MinTradeAmount = 0
	cfg.MinPositionChange = 0

	require.NoError(t, cfg.Validate())
	assert.Zero(t, cfg.FeeRate)
	assert.Zero(t, cfg.Slippage)
	assert.Zero(t, cfg.MinTradeAmount)
	assert.Zero(t, cfg.MinPositionChange)
}
