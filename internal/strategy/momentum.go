package strategy

import (
	"fmt"

	"github.com/dushixiang/cfsquant/internal/engine"
)

// momentum 简单动量策略：收盘价高于 lookback 根之前的收盘价时持仓
type momentum struct{}

func (s *momentum) Name() string {
	return "momentum"
}

func (s *momentum) DefaultParams() map[string]any {
	return map[string]any{
		"lookback": 10,
	}
}

func (s *momentum) Signals(bars []engine.Bar, params map[string]any) ([]engine.Signal, error) {
	p, err := mergeParams(s.DefaultParams(), params)
	if err != nil {
		return nil, err
	}
	lookback, err := intParam(p, "lookback")
	if err != nil {
		return nil, err
	}
	if len(bars) <= lookback+1 {
		return nil, fmt.Errorf("%w: need more than %d bars, got %d", ErrInsufficientData, lookback+1, len(bars))
	}

	closes := extractCloses(bars)
	targets := make([]float64, len(bars))
	for i := lookback; i < len(bars); i++ {
		if closes[i] > closes[i-lookback] {
			targets[i] = 1
		}
	}
	return emitTargets(bars, targets, lookback), nil
}
