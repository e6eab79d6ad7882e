package strategy

import (
	"fmt"

	"github.com/dushixiang/cfsquant/internal/engine"
	"github.com/dushixiang/cfsquant/pkg/ta"
)

// macdCrossover MACD策略：macd线在信号线之上时持仓，否则空仓
type macdCrossover struct{}

func (s *macdCrossover) Name() string {
	return "macd_crossover"
}

func (s *macdCrossover) DefaultParams() map[string]any {
	return map[string]any{
		"fast":   12,
		"slow":   26,
		"signal": 9,
	}
}

func (s *macdCrossover) Signals(bars []engine.Bar, params map[string]any) ([]engine.Signal, error) {
	p, err := mergeParams(s.DefaultParams(), params)
	if err != nil {
		return nil, err
	}
	fast, err := intParam(p, "fast")
	if err != nil {
		return nil, err
	}
	slow, err := intParam(p, "slow")
	if err != nil {
		return nil, err
	}
	signalPeriod, err := intParam(p, "signal")
	if err != nil {
		return nil, err
	}
	if fast >= slow {
		return nil, fmt.Errorf("%w: fast(%d) must be less than slow(%d)", ErrInvalidParams, fast, slow)
	}
	warmup := slow + signalPeriod
	if len(bars) <= warmup+1 {
		return nil, fmt.Errorf("%w: need more than %d bars, got %d", ErrInsufficientData, warmup+1, len(bars))
	}

	closes := extractCloses(bars)
	macd, signalLine, _ := ta.MACD(closes, fast, slow, signalPeriod)

	targets := make([]float64, len(bars))
	for i := range bars {
		if macd[i] > signalLine[i] {
			targets[i] = 1
		}
	}
	return emitTargets(bars, targets, warmup), nil
}
