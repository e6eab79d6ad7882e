package strategy

import (
	"fmt"

	"github.com/dushixiang/cfsquant/internal/engine"
	"github.com/dushixiang/cfsquant/pkg/ta"
)

// donchianBreakout 唐奇安通道突破：收盘价突破前 window 根K线最高价做多，
// 跌破前 window 根K线最低价离场
type donchianBreakout struct{}

func (s *donchianBreakout) Name() string {
	return "donchian_breakout"
}

func (s *donchianBreakout) DefaultParams() map[string]any {
	return map[string]any{
		"window": 20,
	}
}

func (s *donchianBreakout) Signals(bars []engine.Bar, params map[string]any) ([]engine.Signal, error) {
	p, err := mergeParams(s.DefaultParams(), params)
	if err != nil {
		return nil, err
	}
	window, err := intParam(p, "window")
	if err != nil {
		return nil, err
	}
	if len(bars) <= window+1 {
		return nil, fmt.Errorf("%w: need more than %d bars, got %d", ErrInsufficientData, window+1, len(bars))
	}

	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}

	// 通道上下轨不含当前K线，突破判定用前一窗口
	targets := make([]float64, len(bars))
	current := 0.0
	for i := window; i < len(bars); i++ {
		upper := ta.Highest(highs[:i], window)
		lower := ta.Lowest(lows[:i], window)
		switch {
		case bars[i].Close > upper:
			current = 1
		case bars[i].Close < lower:
			current = 0
		}
		targets[i] = current
	}
	return emitTargets(bars, targets, window), nil
}
