package service

import (
	"testing"
	"time"

	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitParamsDefaults(t *testing.T) {
	req := RunRequest{
		Strategy: "ema_crossover",
		Code:     "BTCUSDT",
		Interval: "1h",
	}

	cfg, strategyParams, err := splitParams(req)
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", cfg.Code)
	assert.Equal(t, "1h", cfg.Interval)
	assert.NotEmpty(t, cfg.RunID)
	assert.InDelta(t, 100000, cfg.InitialCapital, 1e-9)
	assert.InDelta(t, 0.001, cfg.FeeRate, 1e-9)
	assert.Empty(t, strategyParams)
}

func TestSplitParamsEngineKeysConsumed(t *testing.T) {
	req := RunRequest{
		Code:     "BTCUSDT",
		Interval: "1d",
		Params: map[string]any{
			"fee_rate":      0.0,
			"slippage":      0.0,
			"stop_loss_pct": 0.05,
			"cooldown_bars": 3,
			"short":         5,
			"long":          20,
		},
	}

	cfg, strategyParams, err := splitParams(req)
	require.NoError(t, err)

	// 显式传入 0 的引擎参数按 0 生效
	assert.Zero(t, cfg.FeeRate)
	assert.Zero(t, cfg.Slippage)
	assert.InDelta(t, 0.05, cfg.StopLossPct, 1e-9)
	assert.Equal(t, 3, cfg.CooldownBars)

	// 策略参数透传，引擎参数不混入
	assert.Equal(t, map[string]any{"short": 5, "long": 20}, strategyParams)
}

func TestSplitParamsCastFromJSONTypes(t *testing.T) {
	// JSON 反序列化得到的数值是 float64，整型参数也要能解析
	req := RunRequest{
		Code:     "BTCUSDT",
		Interval: "1d",
		Params: map[string]any{
			"initial_capital": "200000",
			"cooldown_bars":   2.0,
		},
	}

	cfg, _, err := splitParams(req)
	require.NoError(t, err)
	assert.InDelta(t, 200000, cfg.InitialCapital, 1e-9)
	assert.Equal(t, 2, cfg.CooldownBars)
}

func TestSplitParamsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"手续费非数值", map[string]any{"fee_rate": "abc"}},
		{"初始资金为负", map[string]any{"initial_capital": -1}},
		{"最大仓位超界", map[string]any{"max_position": 2.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := splitParams(RunRequest{Code: "BTCUSDT", Interval: "1d", Params: tt.params})
			assert.Error(t, err)
		})
	}
}

func TestKlinesToBarsPreservesOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	klines := make([]models.Kline, 3)
	for i := range klines {
		klines[i] = models.Kline{
			Code:     "BTCUSDT",
			Interval: "1h",
			Datetime: start.Add(time.Duration(i) * time.Hour),
			Open:     100 + float64(i),
			High:     100 + float64(i),
			Low:      100 + float64(i),
			Close:    100 + float64(i),
			Volume:   1000,
		}
	}

	bars := klinesToBars(klines)
	require.Len(t, bars, 3)
	assert.Equal(t, "BTCUSDT", bars[0].Code)
	assert.True(t, bars[0].Datetime.Before(bars[1].Datetime))
	assert.InDelta(t, 101, bars[1].Close, 1e-9)
}
