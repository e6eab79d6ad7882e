package strategy

import (
	"fmt"

	"github.com/dushixiang/cfsquant/internal/engine"
	"github.com/dushixiang/cfsquant/pkg/ta"
)

// rsiMeanReversion RSI均值回归：超卖买入，超买卖出，区间内维持原仓位
type rsiMeanReversion struct{}

func (s *rsiMeanReversion) Name() string {
	return "rsi_mean_reversion"
}

func (s *rsiMeanReversion) DefaultParams() map[string]any {
	return map[string]any{
		"window": 14,
		"upper":  70.0,
		"lower":  30.0,
	}
}

func (s *rsiMeanReversion) Signals(bars []engine.Bar, params map[string]any) ([]engine.Signal, error) {
	p, err := mergeParams(s.DefaultParams(), params)
	if err != nil {
		return nil, err
	}
	window, err := intParam(p, "window")
	if err != nil {
		return nil, err
	}
	upper, err := floatParam(p, "upper")
	if err != nil {
		return nil, err
	}
	lower, err := floatParam(p, "lower")
	if err != nil {
		return nil, err
	}
	if lower >= upper {
		return nil, fmt.Errorf("%w: lower(%v) must be less than upper(%v)", ErrInvalidParams, lower, upper)
	}
	if len(bars) <= window+1 {
		return nil, fmt.Errorf("%w: need more than %d bars, got %d", ErrInsufficientData, window+1, len(bars))
	}

	closes := extractCloses(bars)
	rsi := ta.RSI(closes, window)

	// 预热期内指标无效，状态从预热结束后开始累积
	targets := make([]float64, len(bars))
	current := 0.0
	for i := window; i < len(bars); i++ {
		switch {
		case rsi[i] < lower:
			current = 1
		case rsi[i] > upper:
			current = 0
		}
		targets[i] = current
	}
	return emitTargets(bars, targets, window), nil
}
