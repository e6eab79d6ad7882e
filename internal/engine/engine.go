// Package engine 实现回测执行核心：将策略的目标仓位信号逐K线转换为
// 模拟交易，维护账本（现金、持仓、成本、盈亏），并产出交易流水、
// 净值曲线与汇总指标。包内不做任何 I/O，同一输入必然产出同一输出。
package engine

import (
	"context"
	"math"

	"go.uber.org/zap"
)

// Engine 回测执行核心。单次 Run 内严格串行；跨 Run 之间无共享状态，
// 并行调度由上层编排负责。
type Engine struct {
	logger *zap.Logger
}

// New 创建回测引擎
func New(logger *zap.Logger) *Engine {
	return &Engine{logger: logger}
}

// Run 执行一次完整回测。
// bars 与 signals 均要求按时间升序；返回的 RunResult 中交易与净值序列
// 对相同输入完全可复现。ctx 取消时返回 ErrRunAborted，已产出的部分
// 结果仍然有效，由调用方决定如何落库。
func (e *Engine) Run(ctx context.Context, cfg Config, bars []Bar, signals []Signal) (*RunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:  cfg.RunID,
		Trades: make([]Trade, 0, 64),
		Equity: make([]EquityPoint, 0, len(bars)),
	}

	ledger := NewLedger(cfg.InitialCapital)
	cursor := newSignalCursor(signals)

	var lastTime int64 = math.MinInt64

	for i, bar := range bars {
		select {
		case <-ctx.Done():
			result.FinalCapital = ledger.Nav(0)
			result.Metrics = computeMetrics(&cfg, result.Trades, result.Equity)
			result.Aborted = true
			return result, ErrRunAborted
		default:
		}

		// 数据顺序检查：时间严格递增，标的一致
		ts := bar.Datetime.UnixNano()
		if ts <= lastTime {
			return nil, dataOrderError(cfg.Code, bar, "non-monotonic timestamp")
		}
		lastTime = ts
		if bar.Code != "" && cfg.Code != "" && bar.Code != cfg.Code {
			return nil, dataOrderError(cfg.Code, bar, "instrument mismatch")
		}

		// 数据质量检查：坏K线跳过交易，净值沿用前值，但仍记录净值点
		if !barUsable(bar) {
			e.logger.Warn("skipping bar with invalid ohlc",
				zap.String("run_id", cfg.RunID),
				zap.String("code", cfg.Code),
				zap.Time("datetime", bar.Datetime))
			ledger.MarkBar(math.NaN())
			result.Equity = append(result.Equity, EquityPoint{
				Datetime: bar.Datetime,
				Nav:      ledger.Nav(math.NaN()),
				Drawdown: ledger.Drawdown(math.NaN()),
			})
			continue
		}

		price := bar.Close

		// 解析当前生效信号；首条信号之前保持空仓
		rawTarget := 0.0
		signalType := string(TriggerNormal)
		if sig := cursor.Resolve(bar.Datetime); sig != nil {
			rawTarget = sig.TargetPosition
			if sig.Type != "" {
				signalType = sig.Type
			}
		}

		// 风控覆盖
		decision := applyRiskOverlay(bar, rawTarget, ledger, ledger.BarsSinceLastTrade(i), &cfg)

		if decision.tag == TriggerCooldownBlock {
			e.appendEquity(result, ledger, bar)
			continue
		}

		// 目标仓位 -> 期望交易量
		navBefore := ledger.Nav(price)
		desiredQty := decision.target * navBefore / price
		deltaQty := desiredQty - ledger.Qty()

		// 过滤尘埃交易
		if math.Abs(deltaQty*price) < cfg.MinTradeAmount ||
			math.Abs(decision.target-ledger.PositionRatio(price)) < cfg.MinPositionChange {
			e.appendEquity(result, ledger, bar)
			continue
		}

		trade, err := e.execute(&cfg, ledger, bar, deltaQty, decision, signalType, i)
		if err != nil {
			return nil, err
		}
		if trade != nil {
			result.Trades = append(result.Trades, *trade)
		}

		e.appendEquity(result, ledger, bar)
	}

	result.FinalCapital = ledger.Nav(0)
	result.Metrics = computeMetrics(&cfg, result.Trades, result.Equity)
	return result, nil
}

// execute 以收盘价加滑点成交，更新账本并生成交易记录。
// 资金或持仓不足时由账本钳制，成交量为钳制后的实际值。
func (e *Engine) execute(cfg *Config, ledger *Ledger, bar Bar, deltaQty float64,
	decision riskDecision, signalType string, barIndex int) (*Trade, error) {

	price := bar.Close
	preAvgPrice := ledger.AvgPrice()

	var (
		side        Side
		execPrice   float64
		filledQty   float64
		fee         float64
		realizedPnl float64
		err         error
	)

	if deltaQty > 0 {
		side = SideBuy
		execPrice = price * (1 + cfg.Slippage)
		filledQty, fee, err = ledger.ApplyBuy(deltaQty, execPrice, cfg.FeeRate, barIndex)
	} else {
		side = SideSell
		execPrice = price * (1 - cfg.Slippage)
		filledQty, fee, realizedPnl, err = ledger.ApplySell(-deltaQty, execPrice, cfg.FeeRate, barIndex)
	}
	if err != nil {
		return nil, err
	}
	if filledQty < qtyEpsilon {
		// 钳制后无可成交量（例如现金耗尽），等同于跳过
		e.logger.Debug("trade fully clamped away",
			zap.String("run_id", cfg.RunID),
			zap.Time("datetime", bar.Datetime),
			zap.Float64("desired_delta_qty", deltaQty))
		return nil, nil
	}

	tradeType := signalType
	if decision.tag != TriggerNormal {
		tradeType = string(decision.tag)
	}

	ledger.MarkBar(price)

	trade := &Trade{
		Datetime:        bar.Datetime,
		Code:            cfg.Code,
		Side:            side,
		TradeType:       tradeType,
		Price:           execPrice,
		Qty:             filledQty,
		Amount:          filledQty * execPrice,
		Fee:             fee,
		AvgPrice:        preAvgPrice,
		ClosePrice:      price,
		Nav:             ledger.Nav(price),
		RealizedPnl:     realizedPnl,
		CurrentQty:      ledger.Qty(),
		CurrentAvgPrice: ledger.AvgPrice(),
		CurrentCash:     ledger.Cash(),
		Drawdown:        ledger.Drawdown(price),
	}

	e.logger.Debug("trade executed",
		zap.String("run_id", cfg.RunID),
		zap.Time("datetime", bar.Datetime),
		zap.String("side", string(side)),
		zap.String("trade_type", tradeType),
		zap.Float64("price", execPrice),
		zap.Float64("qty", filledQty),
		zap.Float64("nav", trade.Nav))

	return trade, nil
}

// appendEquity 每根有效K线收束时记录一个净值点
func (e *Engine) appendEquity(result *RunResult, ledger *Ledger, bar Bar) {
	ledger.MarkBar(bar.Close)
	result.Equity = append(result.Equity, EquityPoint{
		Datetime: bar.Datetime,
		Nav:      ledger.Nav(bar.Close),
		Drawdown: ledger.Drawdown(bar.Close),
	})
}

// barUsable 关键价格字段存在且为正
func barUsable(bar Bar) bool {
	for _, v := range [...]float64{bar.Open, bar.High, bar.Low, bar.Close} {
		if math.IsNaN(v) || v <= 0 {
			return false
		}
	}
	return true
}

func dataOrderError(code string, bar Bar, reason string) error {
	return &DataOrderError{Code: code, Bar: bar, Reason: reason}
}
