package strategy

import (
	"fmt"

	"github.com/dushixiang/cfsquant/internal/engine"
	"github.com/dushixiang/cfsquant/pkg/ta"
)

// bollingerMeanReversion 布林带均值回归：收盘价跌破下轨买入，突破上轨卖出
type bollingerMeanReversion struct{}

func (s *bollingerMeanReversion) Name() string {
	return "bollinger_mean_reversion"
}

func (s *bollingerMeanReversion) DefaultParams() map[string]any {
	return map[string]any{
		"window":  20,
		"num_std": 2.0,
	}
}

func (s *bollingerMeanReversion) Signals(bars []engine.Bar, params map[string]any) ([]engine.Signal, error) {
	p, err := mergeParams(s.DefaultParams(), params)
	if err != nil {
		return nil, err
	}
	window, err := intParam(p, "window")
	if err != nil {
		return nil, err
	}
	numStd, err := floatParam(p, "num_std")
	if err != nil {
		return nil, err
	}
	if numStd <= 0 {
		return nil, fmt.Errorf("%w: num_std must be positive, got %v", ErrInvalidParams, numStd)
	}
	if len(bars) <= window+1 {
		return nil, fmt.Errorf("%w: need more than %d bars, got %d", ErrInsufficientData, window+1, len(bars))
	}

	closes := extractCloses(bars)
	upper, _, lower := ta.BBands(closes, window, numStd)

	targets := make([]float64, len(bars))
	current := 0.0
	for i := window; i < len(bars); i++ {
		switch {
		case closes[i] < lower[i]:
			current = 1
		case closes[i] > upper[i]:
			current = 0
		}
		targets[i] = current
	}
	return emitTargets(bars, targets, window), nil
}
