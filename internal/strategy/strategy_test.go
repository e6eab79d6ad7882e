package strategy

import (
	"testing"
	"time"

	"github.com/dushixiang/cfsquant/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBars(prices []float64) []engine.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]engine.Bar, len(prices))
	for i, p := range prices {
		bars[i] = engine.Bar{
			Code:     "BTCUSDT",
			Datetime: start.Add(time.Duration(i) * time.Hour),
			Open:     p, High: p * 1.01, Low: p * 0.99, Close: p,
			Volume: 1000,
		}
	}
	return bars
}

// 先跌后涨的序列，足够多数K线用于指标预热
func trendingBars(n int) []engine.Bar {
	prices := make([]float64, n)
	for i := range prices {
		if i < n/2 {
			prices[i] = 100 - float64(i)*0.5
		} else {
			prices[i] = prices[n/2-1] + float64(i-n/2+1)*1.5
		}
	}
	return makeBars(prices)
}

func TestRegistryNames(t *testing.T) {
	assert.Equal(t, []string{
		"bollinger_mean_reversion",
		"donchian_breakout",
		"ema_crossover",
		"macd_crossover",
		"momentum",
		"rsi_mean_reversion",
	}, Names())
}

func TestRegistryGet(t *testing.T) {
	s, err := Get("ema_crossover")
	require.NoError(t, err)
	assert.Equal(t, "ema_crossover", s.Name())

	_, err = Get("no_such_strategy")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestMergeParamsRejectsUnknownKey(t *testing.T) {
	s, err := Get("momentum")
	require.NoError(t, err)

	_, err = s.Signals(trendingBars(100), map[string]any{"lookbak": 5})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestParamsCastFromStrings(t *testing.T) {
	// 调参网格的参数经过 JSON 往返后可能是字符串或浮点，都要能解析
	s, err := Get("ema_crossover")
	require.NoError(t, err)

	signals, err := s.Signals(trendingBars(200), map[string]any{"short": "5", "long": 20.0})
	require.NoError(t, err)
	assert.NotEmpty(t, signals)
}

func TestInsufficientData(t *testing.T) {
	for _, name := range Names() {
		s, err := Get(name)
		require.NoError(t, err)
		_, err = s.Signals(makeBars([]float64{100, 101, 102}), nil)
		assert.ErrorIs(t, err, ErrInsufficientData, name)
	}
}

// 所有策略在合理长度的序列上都能产出信号，且信号单调递增、目标仓位在 [0,1]
func TestAllStrategiesProduceOrderedSignals(t *testing.T) {
	bars := trendingBars(300)
	for _, name := range Names() {
		s, err := Get(name)
		require.NoError(t, err)

		signals, err := s.Signals(bars, nil)
		require.NoError(t, err, name)

		var last time.Time
		for i, sig := range signals {
			assert.True(t, sig.Datetime.After(last), "%s signal %d out of order", name, i)
			last = sig.Datetime
			assert.GreaterOrEqual(t, sig.TargetPosition, 0.0, name)
			assert.LessOrEqual(t, sig.TargetPosition, 1.0, name)
		}
		// 相邻信号目标仓位必然不同，折叠后不存在重复信号
		for i := 1; i < len(signals); i++ {
			assert.NotEqual(t, signals[i-1].TargetPosition, signals[i].TargetPosition, name)
		}
	}
}

func TestMomentumUptrend(t *testing.T) {
	// 单边上涨，动量策略应在预热后建仓且不再离场
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	bars := makeBars(prices)

	s, err := Get("momentum")
	require.NoError(t, err)
	signals, err := s.Signals(bars, map[string]any{"lookback": 10})
	require.NoError(t, err)

	require.Len(t, signals, 1)
	assert.InDelta(t, 1.0, signals[0].TargetPosition, 1e-9)
	// 决策K线的下一根生效
	assert.Equal(t, bars[11].Datetime, signals[0].Datetime)
}

func TestEmaCrossoverParamOrder(t *testing.T) {
	s, err := Get("ema_crossover")
	require.NoError(t, err)

	_, err = s.Signals(trendingBars(100), map[string]any{"short": 30, "long": 10})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestRsiMeanReversionBounds(t *testing.T) {
	s, err := Get("rsi_mean_reversion")
	require.NoError(t, err)

	_, err = s.Signals(trendingBars(100), map[string]any{"upper": 30, "lower": 70})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestDonchianBreakoutUptrend(t *testing.T) {
	// 持续创新高的序列必然触发通道突破
	prices := make([]float64, 80)
	for i := range prices {
		prices[i] = 100 + float64(i)*2
	}
	s, err := Get("donchian_breakout")
	require.NoError(t, err)

	signals, err := s.Signals(makeBars(prices), map[string]any{"window": 20})
	require.NoError(t, err)
	require.NotEmpty(t, signals)
	assert.InDelta(t, 1.0, signals[0].TargetPosition, 1e-9)
}
