// Package strategy 提供内置交易策略：每个策略从K线序列计算目标仓位信号，
// 交给回测引擎执行。策略只产出信号，不关心资金与成交。
package strategy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dushixiang/cfsquant/internal/engine"
	"github.com/spf13/cast"
)

var (
	// ErrUnknownStrategy 策略名称未注册
	ErrUnknownStrategy = errors.New("strategy: unknown strategy")

	// ErrInvalidParams 策略参数非法
	ErrInvalidParams = errors.New("strategy: invalid params")

	// ErrInsufficientData K线数量不足以完成指标预热
	ErrInsufficientData = errors.New("strategy: insufficient data")
)

// Strategy 交易策略
type Strategy interface {
	// Name 注册名，同时作为 API 与数据库中的策略标识
	Name() string
	// DefaultParams 默认参数，调用方可部分覆盖
	DefaultParams() map[string]any
	// Signals 从K线序列产出目标仓位信号，bars 要求按时间升序。
	// 信号在决策K线的下一根生效，避免使用未来数据。
	Signals(bars []engine.Bar, params map[string]any) ([]engine.Signal, error)
}

var registry = make(map[string]Strategy)

func register(s Strategy) {
	registry[s.Name()] = s
}

func init() {
	register(&emaCrossover{})
	register(&macdCrossover{})
	register(&rsiMeanReversion{})
	register(&bollingerMeanReversion{})
	register(&donchianBreakout{})
	register(&momentum{})
}

// Get 按名称查找策略
func Get(name string) (Strategy, error) {
	s, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Names 全部已注册的策略名，字典序
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// mergeParams 默认参数与覆盖参数合并，未知参数直接拒绝
func mergeParams(defaults, overrides map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		if _, ok := defaults[k]; !ok {
			return nil, fmt.Errorf("%w: unknown param %q", ErrInvalidParams, k)
		}
		merged[k] = v
	}
	return merged, nil
}

func intParam(params map[string]any, key string) (int, error) {
	v, err := cast.ToIntE(params[key])
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidParams, key, params[key])
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidParams, key, v)
	}
	return v, nil
}

func floatParam(params map[string]any, key string) (float64, error) {
	v, err := cast.ToFloat64E(params[key])
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidParams, key, params[key])
	}
	return v, nil
}

func extractCloses(bars []engine.Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// emitTargets 把逐K线的目标仓位序列折叠成信号：仅在目标变化时产出一条，
// 且在决策K线的下一根生效。targets[i] 为依据第 i 根K线计算的目标仓位。
func emitTargets(bars []engine.Bar, targets []float64, warmup int) []engine.Signal {
	signals := make([]engine.Signal, 0, 16)
	current := 0.0
	for i := warmup; i < len(bars)-1; i++ {
		if targets[i] == current {
			continue
		}
		current = targets[i]
		signals = append(signals, engine.Signal{
			Datetime:       bars[i+1].Datetime,
			TargetPosition: current,
			Strength:       1,
			Type:           "normal",
		})
	}
	return signals
}
