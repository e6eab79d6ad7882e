package strategy

import (
	"fmt"

	"github.com/dushixiang/cfsquant/internal/engine"
	"github.com/dushixiang/cfsquant/pkg/ta"
)

// emaCrossover 双均线策略：短期EMA在长期EMA之上时持仓，否则空仓
type emaCrossover struct{}

func (s *emaCrossover) Name() string {
	return "ema_crossover"
}

func (s *emaCrossover) DefaultParams() map[string]any {
	return map[string]any{
		"short": 12,
		"long":  26,
	}
}

func (s *emaCrossover) Signals(bars []engine.Bar, params map[string]any) ([]engine.Signal, error) {
	p, err := mergeParams(s.DefaultParams(), params)
	if err != nil {
		return nil, err
	}
	short, err := intParam(p, "short")
	if err != nil {
		return nil, err
	}
	long, err := intParam(p, "long")
	if err != nil {
		return nil, err
	}
	if short >= long {
		return nil, fmt.Errorf("%w: short(%d) must be less than long(%d)", ErrInvalidParams, short, long)
	}
	if len(bars) <= long+1 {
		return nil, fmt.Errorf("%w: need more than %d bars, got %d", ErrInsufficientData, long+1, len(bars))
	}

	closes := extractCloses(bars)
	emaShort := ta.EMA(closes, short)
	emaLong := ta.EMA(closes, long)

	targets := make([]float64, len(bars))
	for i := range bars {
		if emaShort[i] > emaLong[i] {
			targets[i] = 1
		}
	}
	return emitTargets(bars, targets, long), nil
}
