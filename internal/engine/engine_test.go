package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RunID = "test-run"
	cfg.Code = "BTCUSDT"
	cfg.Interval = "1d"
	cfg.Slippage = 0
	cfg.FeeRate = 0
	cfg.MinTradeAmount = 0
	cfg.MinPositionChange = 0.01
	return cfg
}

func makeBars(prices []float64) []Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, len(prices))
	for i, p := range prices {
		bars[i] = Bar{
			Code:     "BTCUSDT",
			Datetime: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:     p, High: p, Low: p, Close: p,
			Volume: 1000,
		}
	}
	return bars
}

func signalAt(bars []Bar, idx int, target float64) Signal {
	return Signal{Datetime: bars[idx].Datetime, TargetPosition: target, Type: "normal"}
}

func runEngine(t *testing.T, cfg Config, bars []Bar, signals []Signal) *RunResult {
	t.Helper()
	result, err := New(zap.NewNop()).Run(context.Background(), cfg, bars, signals)
	require.NoError(t, err)
	return result
}

// 场景A：全程空仓信号，资金纹丝不动
func TestRunFlatSignalNoTrades(t *testing.T) {
	cfg := testConfig()
	cfg.InitialCapital = 100000

	bars := makeBars([]float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100})
	signals := []Signal{signalAt(bars, 0, 0)}

	result := runEngine(t, cfg, bars, signals)

	assert.Empty(t, result.Trades)
	assert.Len(t, result.Equity, 10)
	assert.InDelta(t, 100000, result.FinalCapital, 1e-9)
	assert.InDelta(t, 0, result.Metrics[MetricMaxDrawdown], 1e-12)
}

// 场景B：第2根K线满仓，零费率下买入1000股，现金归零
func TestRunFullInvestmentBuy(t *testing.T) {
	cfg := testConfig()
	cfg.InitialCapital = 100000

	bars := makeBars([]float64{100, 100, 100, 100, 100})
	signals := []Signal{signalAt(bars, 2, 1.0)}

	result := runEngine(t, cfg, bars, signals)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, SideBuy, trade.Side)
	assert.InDelta(t, 1000, trade.Qty, 1e-9)
	assert.InDelta(t, 100, trade.Price, 1e-9)
	assert.InDelta(t, 0, trade.CurrentCash, 1e-9)
	assert.InDelta(t, 1000, trade.CurrentQty, 1e-9)
	assert.InDelta(t, 100000, result.FinalCapital, 1e-6)
}

// 场景C：买入后下跌6%，触发止损强制清仓
func TestRunStopLossForcesExit(t *testing.T) {
	cfg := testConfig()
	cfg.InitialCapital = 100000
	cfg.StopLossPct = 0.05

	bars := makeBars([]float64{100, 100, 100, 94})
	signals := []Signal{signalAt(bars, 1, 1.0)}

	result := runEngine(t, cfg, bars, signals)

	require.Len(t, result.Trades, 2)
	exit := result.Trades[1]
	assert.Equal(t, SideSell, exit.Side)
	assert.Equal(t, string(TriggerStopLoss), exit.TradeType)
	assert.InDelta(t, 0, exit.CurrentQty, 1e-9)
	assert.Negative(t, exit.RealizedPnl)
}

// 场景D：交易金额低于 min_trade_amount 时不产生交易，净值点照常记录
func TestRunDustTradeSuppressed(t *testing.T) {
	cfg := testConfig()
	cfg.InitialCapital = 100000
	cfg.MinTradeAmount = 5000
	cfg.MinPositionChange = 0

	bars := makeBars([]float64{100, 100, 100})
	// 目标仓位 0.002 => 期望交易金额约 $200
	signals := []Signal{signalAt(bars, 1, 0.002)}

	result := runEngine(t, cfg, bars, signals)

	assert.Empty(t, result.Trades)
	assert.Len(t, result.Equity, 3)
}

// 止盈触发：浮盈超过 take_profit_pct 时强制清仓
func TestRunTakeProfitForcesExit(t *testing.T) {
	cfg := testConfig()
	cfg.TakeProfitPct = 0.10

	bars := makeBars([]float64{100, 100, 112})
	signals := []Signal{signalAt(bars, 0, 1.0)}

	result := runEngine(t, cfg, bars, signals)

	require.Len(t, result.Trades, 2)
	exit := result.Trades[1]
	assert.Equal(t, SideSell, exit.Side)
	assert.Equal(t, string(TriggerTakeProfit), exit.TradeType)
	assert.Positive(t, exit.RealizedPnl)
	assert.InDelta(t, 0, exit.CurrentQty, 1e-9)
}

// 最大仓位钳制：目标1.0被压到0.5
func TestRunMaxPositionClamp(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPosition = 0.5

	bars := makeBars([]float64{100, 100, 100})
	signals := []Signal{signalAt(bars, 0, 1.0)}

	result := runEngine(t, cfg, bars, signals)

	require.Len(t, result.Trades, 1)
	assert.InDelta(t, 500, result.Trades[0].Qty, 1e-6)
}

// 冷却期内的新交易被冻结，冷却结束后恢复
func TestRunCooldownBlocksTrade(t *testing.T) {
	cfg := testConfig()
	cfg.CooldownBars = 3

	bars := makeBars([]float64{100, 100, 100, 100, 100, 100, 100, 100})
	signals := []Signal{
		signalAt(bars, 0, 0.5),
		signalAt(bars, 1, 1.0), // 距上次成交仅1根K线，应被冻结
	}

	result := runEngine(t, cfg, bars, signals)

	require.Len(t, result.Trades, 2)
	assert.Equal(t, bars[0].Datetime, result.Trades[0].Datetime)
	// 第二笔要等到冷却期过后
	assert.False(t, result.Trades[1].Datetime.Before(bars[3].Datetime))
	assert.Len(t, result.Equity, len(bars))
}

// 资金不足时买入量被钳制为部分成交，而不是报错
func TestRunInsufficientFundsClamp(t *testing.T) {
	cfg := testConfig()
	cfg.FeeRate = 0.01

	bars := makeBars([]float64{100, 100, 100})
	signals := []Signal{signalAt(bars, 0, 1.0)}

	result := runEngine(t, cfg, bars, signals)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	// amount + fee 恰好耗尽现金：qty = 100000 / (100 * 1.01)
	assert.InDelta(t, 100000/(100*1.01), trade.Qty, 1e-6)
	assert.GreaterOrEqual(t, trade.CurrentCash, 0.0)
}

// 时间戳倒退触发 DataOrderError
func TestRunNonMonotonicBarsFail(t *testing.T) {
	cfg := testConfig()
	bars := makeBars([]float64{100, 100, 100})
	bars[2].Datetime = bars[0].Datetime

	_, err := New(zap.NewNop()).Run(context.Background(), cfg, bars, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataOrder)
}

// 标的不匹配同样属于数据顺序错误
func TestRunInstrumentMismatchFails(t *testing.T) {
	cfg := testConfig()
	bars := makeBars([]float64{100, 100})
	bars[1].Code = "ETHUSDT"

	_, err := New(zap.NewNop()).Run(context.Background(), cfg, bars, nil)
	assert.ErrorIs(t, err, ErrDataOrder)
}

// 坏K线（NaN收盘价）跳过交易但净值点照常输出，净值沿用前值
func TestRunBadBarSkippedNavCarried(t *testing.T) {
	cfg := testConfig()

	bars := makeBars([]float64{100, 100, 100, 100})
	bars[2].Close = math.NaN()
	signals := []Signal{signalAt(bars, 0, 1.0)}

	result := runEngine(t, cfg, bars, signals)

	require.Len(t, result.Equity, 4)
	assert.InDelta(t, result.Equity[1].Nav, result.Equity[2].Nav, 1e-9)
}

// 取消后返回部分结果并标记 aborted
func TestRunCancellation(t *testing.T) {
	cfg := testConfig()
	bars := makeBars([]float64{100, 100, 100})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(zap.NewNop()).Run(ctx, cfg, bars, nil)
	require.ErrorIs(t, err, ErrRunAborted)
	require.NotNil(t, result)
	assert.True(t, result.Aborted)
	assert.Empty(t, result.Equity)
}

// 非法参数在入口处被拒绝
func TestRunInvalidConfigRejected(t *testing.T) {
	cfg := testConfig()
	cfg.FeeRate = -0.1

	_, err := New(zap.NewNop()).Run(context.Background(), cfg, makeBars([]float64{100}), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// 性质测试：净值恒等式、峰值单调、回撤有界、永不做空、现金永不为负、
// 已实现盈亏只在卖出时变化
func TestRunInvariantsOnVolatileSeries(t *testing.T) {
	cfg := testConfig()
	cfg.FeeRate = 0.001
	cfg.Slippage = 0.0002
	cfg.StopLossPct = 0.08
	cfg.TakeProfitPct = 0.12

	prices := []float64{100, 103, 98, 105, 110, 96, 92, 101, 108, 115, 107, 99, 104, 111, 95, 100}
	bars := makeBars(prices)
	signals := []Signal{
		signalAt(bars, 0, 0.8),
		signalAt(bars, 3, 0.3),
		signalAt(bars, 5, 1.0),
		signalAt(bars, 9, 0),
		signalAt(bars, 11, 0.6),
	}

	result := runEngine(t, cfg, bars, signals)
	require.Len(t, result.Equity, len(bars))

	peak := cfg.InitialCapital
	for i, e := range result.Equity {
		assert.GreaterOrEqual(t, e.Drawdown, 0.0, "bar %d", i)
		assert.LessOrEqual(t, e.Drawdown, 1.0, "bar %d", i)
		if e.Nav > peak {
			peak = e.Nav
		}
		// 回撤与峰值自洽
		assert.InDelta(t, (peak-e.Nav)/peak, e.Drawdown, 1e-9, "bar %d", i)
	}

	for i, tr := range result.Trades {
		assert.GreaterOrEqual(t, tr.CurrentQty, 0.0, "trade %d", i)
		assert.GreaterOrEqual(t, tr.CurrentCash, 0.0, "trade %d", i)
		// 净值恒等式：nav = cash + qty * close
		assert.InDelta(t, tr.CurrentCash+tr.CurrentQty*tr.ClosePrice, tr.Nav, 1e-6, "trade %d", i)
		if tr.Side == SideBuy {
			assert.Zero(t, tr.RealizedPnl, "trade %d", i)
		}
	}
}

// 性质测试：同一输入两次运行（不同run id），交易与净值序列逐字节一致
func TestRunDeterminism(t *testing.T) {
	prices := []float64{100, 102, 99, 104, 107, 95, 98, 103, 109, 101}
	bars := makeBars(prices)
	signals := []Signal{
		signalAt(bars, 1, 0.7),
		signalAt(bars, 4, 0.2),
		signalAt(bars, 6, 1.0),
	}

	cfg1 := testConfig()
	cfg1.RunID = "run-a"
	cfg2 := testConfig()
	cfg2.RunID = "run-b"

	r1 := runEngine(t, cfg1, bars, signals)
	r2 := runEngine(t, cfg2, bars, signals)

	assert.Equal(t, r1.Trades, r2.Trades)
	assert.Equal(t, r1.Equity, r2.Equity)
	assert.Equal(t, r1.Metrics, r2.Metrics)
}

// 首条信号之前视为空仓：不会出现未有信号即建仓的情况
func TestRunNoSignalStaysFlat(t *testing.T) {
	cfg := testConfig()
	bars := makeBars([]float64{100, 105, 110})

	result := runEngine(t, cfg, bars, nil)

	assert.Empty(t, result.Trades)
	for _, e := range result.Equity {
		assert.InDelta(t, cfg.InitialCapital, e.Nav, 1e-9)
	}
}
