package engine

import "math"

// riskDecision 风控层的输出：生效目标仓位与触发标记
type riskDecision struct {
	target float64
	tag    TriggerTag
}

// applyRiskOverlay 在执行前对策略原始目标仓位做风控覆盖。
// 纯函数，规则按顺序匹配，平仓类规则命中即返回：
//  1. 止损：持仓浮亏达到 stop_loss_pct，强制清仓
//  2. 止盈：持仓浮盈达到 take_profit_pct，强制清仓
//  3. 最大仓位钳制
//  4. 冷却期：距上次成交不足 cooldown_bars 且本次会产生新交易，则冻结
func applyRiskOverlay(bar Bar, rawTarget float64, ledger *Ledger, barsSinceLastTrade int, cfg *Config) riskDecision {
	price := bar.Close
	holding := ledger.Qty() > 0 && ledger.AvgPrice() > 0 && !math.IsNaN(price) && price > 0

	if holding && cfg.StopLossPct > 0 {
		lossPct := (ledger.AvgPrice() - price) / ledger.AvgPrice()
		if lossPct >= cfg.StopLossPct {
			return riskDecision{target: 0, tag: TriggerStopLoss}
		}
	}

	if holding && cfg.TakeProfitPct > 0 {
		profitPct := (price - ledger.AvgPrice()) / ledger.AvgPrice()
		if profitPct >= cfg.TakeProfitPct {
			return riskDecision{target: 0, tag: TriggerTakeProfit}
		}
	}

	target := rawTarget
	if target > cfg.MaxPosition {
		target = cfg.MaxPosition
	}
	if target < 0 {
		target = 0
	}

	if cfg.CooldownBars > 0 && barsSinceLastTrade < cfg.CooldownBars {
		// 仅当本次会产生新交易时才冻结，维持仓位不算交易
		if math.Abs(target-ledger.PositionRatio(price)) >= cfg.MinPositionChange {
			return riskDecision{target: ledger.PositionRatio(price), tag: TriggerCooldownBlock}
		}
	}

	return riskDecision{target: target, tag: TriggerNormal}
}
