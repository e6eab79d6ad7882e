package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerBuyWeightedAvgCost(t *testing.T) {
	l := NewLedger(100000)

	filled, fee, err := l.ApplyBuy(100, 100, 0.001, 0)
	require.NoError(t, err)
	assert.InDelta(t, 100, filled, 1e-9)
	assert.InDelta(t, 10, fee, 1e-9)
	assert.InDelta(t, 100, l.AvgPrice(), 1e-9)
	assert.InDelta(t, 100000-10000-10, l.Cash(), 1e-9)

	// 加仓后均价按数量加权
	_, _, err = l.ApplyBuy(100, 120, 0.001, 1)
	require.NoError(t, err)
	assert.InDelta(t, 110, l.AvgPrice(), 1e-9)
	assert.InDelta(t, 200, l.Qty(), 1e-9)
}

func TestLedgerBuyClampedByCash(t *testing.T) {
	l := NewLedger(10000)

	filled, _, err := l.ApplyBuy(500, 100, 0.001, 0)
	require.NoError(t, err)
	// 最大可买量 = cash / (price * (1 + feeRate))
	assert.InDelta(t, 10000/(100*1.001), filled, 1e-9)
	assert.InDelta(t, 0, l.Cash(), 1e-6)
}

func TestLedgerSellRealizedPnl(t *testing.T) {
	l := NewLedger(100000)
	_, _, err := l.ApplyBuy(100, 100, 0, 0)
	require.NoError(t, err)

	filled, fee, pnl, err := l.ApplySell(40, 110, 0.001, 1)
	require.NoError(t, err)
	assert.InDelta(t, 40, filled, 1e-9)
	// 盈亏按均价口径，不扣手续费
	assert.InDelta(t, 40*(110-100), pnl, 1e-9)
	assert.InDelta(t, 40*110*0.001, fee, 1e-9)
	assert.InDelta(t, 60, l.Qty(), 1e-9)
	// 部分卖出不改均价
	assert.InDelta(t, 100, l.AvgPrice(), 1e-9)
}

func TestLedgerSellClampedNoShorting(t *testing.T) {
	l := NewLedger(100000)
	_, _, err := l.ApplyBuy(50, 100, 0, 0)
	require.NoError(t, err)

	filled, _, _, err := l.ApplySell(500, 100, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 50, filled, 1e-9)
	assert.Zero(t, l.Qty())
	// 清仓后均价复位
	assert.Zero(t, l.AvgPrice())
}

func TestLedgerSellFlatIsNoop(t *testing.T) {
	l := NewLedger(100000)

	filled, fee, pnl, err := l.ApplySell(100, 100, 0.001, 0)
	require.NoError(t, err)
	assert.Zero(t, filled)
	assert.Zero(t, fee)
	assert.Zero(t, pnl)
	assert.Zero(t, l.TradeCount())
}

func TestLedgerNavAndPositionRatio(t *testing.T) {
	l := NewLedger(100000)
	_, _, err := l.ApplyBuy(500, 100, 0, 0)
	require.NoError(t, err)

	assert.InDelta(t, 100000, l.Nav(100), 1e-9)
	assert.InDelta(t, 105000, l.Nav(110), 1e-9)
	assert.InDelta(t, 0.5, l.PositionRatio(100), 1e-9)
}

func TestLedgerPeakMonotonic(t *testing.T) {
	l := NewLedger(100000)
	_, _, err := l.ApplyBuy(1000, 100, 0, 0)
	require.NoError(t, err)

	for _, close := range []float64{100, 110, 105, 120, 90} {
		before := l.PeakNav()
		l.MarkBar(close)
		assert.GreaterOrEqual(t, l.PeakNav(), before)
	}
	assert.InDelta(t, 120000, l.PeakNav(), 1e-9)
	assert.InDelta(t, (120000.0-90000.0)/120000.0, l.Drawdown(90), 1e-9)
}

func TestLedgerBarsSinceLastTrade(t *testing.T) {
	l := NewLedger(100000)
	// 从未交易时视为无限远
	assert.Greater(t, l.BarsSinceLastTrade(0), 1<<30)

	_, _, err := l.ApplyBuy(10, 100, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, l.BarsSinceLastTrade(8))
}
