package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func riskBar(close float64) Bar {
	return Bar{Code: "BTCUSDT", Datetime: time.Now(), Open: close, High: close, Low: close, Close: close}
}

func holdingLedger(t *testing.T, qty, price float64) *Ledger {
	t.Helper()
	l := NewLedger(1000000)
	_, _, err := l.ApplyBuy(qty, price, 0, 0)
	require.NoError(t, err)
	return l
}

func TestRiskOverlay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StopLossPct = 0.05
	cfg.TakeProfitPct = 0.10
	cfg.MaxPosition = 0.8
	cfg.CooldownBars = 3

	tests := []struct {
		name       string
		close      float64
		rawTarget  float64
		ledger     *Ledger
		barsSince  int
		wantTarget float64
		wantTag    TriggerTag
	}{
		{
			name:  "止损优先于一切",
			close: 94, rawTarget: 1.0,
			ledger:    holdingLedger(t, 100, 100),
			barsSince: 100,
			wantTag:   TriggerStopLoss, wantTarget: 0,
		},
		{
			name:  "止损边界值恰好触发",
			close: 95, rawTarget: 0.5,
			ledger:    holdingLedger(t, 100, 100),
			barsSince: 100,
			wantTag:   TriggerStopLoss, wantTarget: 0,
		},
		{
			name:  "浮亏未达阈值不触发",
			close: 96, rawTarget: 0.5,
			ledger:    holdingLedger(t, 100, 100),
			barsSince: 100,
			wantTag:   TriggerNormal, wantTarget: 0.5,
		},
		{
			name:  "止盈强制清仓",
			close: 111, rawTarget: 1.0,
			ledger:    holdingLedger(t, 100, 100),
			barsSince: 100,
			wantTag:   TriggerTakeProfit, wantTarget: 0,
		},
		{
			name:  "最大仓位钳制",
			close: 100, rawTarget: 1.0,
			ledger:    NewLedger(100000),
			barsSince: 100,
			wantTag:   TriggerNormal, wantTarget: 0.8,
		},
		{
			name:  "负目标按空仓处理",
			close: 100, rawTarget: -0.3,
			ledger:    NewLedger(100000),
			barsSince: 100,
			wantTag:   TriggerNormal, wantTarget: 0,
		},
		{
			name:  "冷却期内新交易被冻结",
			close: 100, rawTarget: 0.8,
			ledger:    NewLedger(100000),
			barsSince: 1,
			wantTag:   TriggerCooldownBlock, wantTarget: 0,
		},
		{
			name:  "冷却期满恢复交易",
			close: 100, rawTarget: 0.8,
			ledger:    NewLedger(100000),
			barsSince: 3,
			wantTag:   TriggerNormal, wantTarget: 0.8,
		},
		{
			name:  "空仓时止损不生效",
			close: 50, rawTarget: 0.5,
			ledger:    NewLedger(100000),
			barsSince: 100,
			wantTag:   TriggerNormal, wantTarget: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyRiskOverlay(riskBar(tt.close), tt.rawTarget, tt.ledger, tt.barsSince, &cfg)
			assert.Equal(t, tt.wantTag, got.tag)
			assert.InDelta(t, tt.wantTarget, got.target, 1e-9)
		})
	}
}

// 仓位已达目标时冷却期不冻结，因为不会产生新交易
func TestRiskOverlayCooldownIgnoresHolding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CooldownBars = 5
	cfg.MinPositionChange = 0.05

	l := holdingLedger(t, 8000, 100) // 持仓市值 800000 / 净值 1000000 = 0.8

	got := applyRiskOverlay(riskBar(100), 0.8, l, 1, &cfg)
	assert.Equal(t, TriggerNormal, got.tag)
}
