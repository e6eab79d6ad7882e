package engine

import (
	"fmt"
	"math"
)

// 数量比较用的容差，避免浮点残渣导致的假性违规
const qtyEpsilon = 1e-9

// Ledger 回测期间的账本状态，归执行核心独占，只在单协程内变更。
// 不变量：cash >= 0，qty >= 0（只做多），peakNav 单调不减，
// realizedPnl 仅在卖出时变化，avgPrice 仅在买入时重算。
type Ledger struct {
	cash         float64
	qty          float64
	avgPrice     float64
	realizedPnl  float64
	peakNav      float64
	lastTradeBar int
	lastClose    float64
	tradeCount   int
}

// NewLedger 以初始资金创建账本
func NewLedger(initialCapital float64) *Ledger {
	return &Ledger{
		cash:         initialCapital,
		peakNav:      initialCapital,
		lastTradeBar: math.MinInt32,
		lastClose:    0,
	}
}

func (l *Ledger) Cash() float64        { return l.cash }
func (l *Ledger) Qty() float64         { return l.qty }
func (l *Ledger) AvgPrice() float64    { return l.avgPrice }
func (l *Ledger) RealizedPnl() float64 { return l.realizedPnl }
func (l *Ledger) PeakNav() float64     { return l.peakNav }
func (l *Ledger) TradeCount() int      { return l.tradeCount }

// Nav 按给定收盘价计算净值；价格无效时退化为现金加上次估值持仓
func (l *Ledger) Nav(closePrice float64) float64 {
	if math.IsNaN(closePrice) || closePrice <= 0 {
		return l.cash + l.qty*l.lastClose
	}
	return l.cash + l.qty*closePrice
}

// PositionRatio 当前持仓市值占净值的比例
func (l *Ledger) PositionRatio(closePrice float64) float64 {
	nav := l.Nav(closePrice)
	if nav <= 0 || math.IsNaN(closePrice) || closePrice <= 0 {
		return 0
	}
	return l.qty * closePrice / nav
}

// MarkBar 每根有效K线调用一次：记录收盘价并推进净值峰值
func (l *Ledger) MarkBar(closePrice float64) {
	if !math.IsNaN(closePrice) && closePrice > 0 {
		l.lastClose = closePrice
	}
	if nav := l.Nav(l.lastClose); nav > l.peakNav {
		l.peakNav = nav
	}
}

// Drawdown 相对峰值的回撤，取值 [0,1]
func (l *Ledger) Drawdown(closePrice float64) float64 {
	if l.peakNav <= 0 {
		return 0
	}
	dd := (l.peakNav - l.Nav(closePrice)) / l.peakNav
	if dd < 0 {
		return 0
	}
	return dd
}

// BarsSinceLastTrade 距上次成交经过的K线数
func (l *Ledger) BarsSinceLastTrade(barIndex int) int {
	if l.lastTradeBar == math.MinInt32 {
		return math.MaxInt32
	}
	return barIndex - l.lastTradeBar
}

// ApplyBuy 买入 qty（按含滑点的 price 成交）。
// 现金不足时钳制到可买上限（部分成交），返回实际成交数量与手续费。
func (l *Ledger) ApplyBuy(qty, price, feeRate float64, barIndex int) (filledQty, fee float64, err error) {
	if qty <= 0 || price <= 0 {
		return 0, 0, nil
	}

	// 资金钳制：amount + fee <= cash
	maxQty := l.cash / (price * (1 + feeRate))
	if qty > maxQty {
		qty = maxQty
	}
	if qty < qtyEpsilon {
		return 0, 0, nil
	}

	amount := qty * price
	fee = amount * feeRate

	// 加权平均成本
	totalCost := l.avgPrice*l.qty + price*qty
	l.qty += qty
	l.avgPrice = totalCost / l.qty
	l.cash -= amount + fee
	l.lastTradeBar = barIndex
	l.tradeCount++

	if err := l.assertInvariants(); err != nil {
		return qty, fee, err
	}
	return qty, fee, nil
}

// ApplySell 卖出 qty。持仓不足时钳制到当前持仓（绝不做空），
// 返回实际成交数量、手续费与已实现盈亏。持仓清零时均价复位。
func (l *Ledger) ApplySell(qty, price, feeRate float64, barIndex int) (filledQty, fee, realizedPnl float64, err error) {
	if qty <= 0 || price <= 0 {
		return 0, 0, 0, nil
	}

	if qty > l.qty {
		qty = l.qty
	}
	if qty < qtyEpsilon {
		return 0, 0, 0, nil
	}

	amount := qty * price
	fee = amount * feeRate
	realizedPnl = qty * (price - l.avgPrice)

	l.qty -= qty
	l.cash += amount - fee
	l.realizedPnl += realizedPnl
	if l.qty < qtyEpsilon {
		l.qty = 0
		l.avgPrice = 0
	}
	l.lastTradeBar = barIndex
	l.tradeCount++

	if err := l.assertInvariants(); err != nil {
		return qty, fee, realizedPnl, err
	}
	return qty, fee, realizedPnl, nil
}

func (l *Ledger) assertInvariants() error {
	if l.cash < -qtyEpsilon {
		return fmt.Errorf("%w: cash=%v", ErrLedgerInvariant, l.cash)
	}
	if l.qty < -qtyEpsilon {
		return fmt.Errorf("%w: qty=%v", ErrLedgerInvariant, l.qty)
	}
	// 浮点残渣归零
	if l.cash < 0 {
		l.cash = 0
	}
	if l.qty < 0 {
		l.qty = 0
	}
	return nil
}
