package engine

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Config 单次回测的全部参数。
// 从 DefaultConfig 出发按需覆盖；显式设置 0 即为 0（例如零手续费回测），
// StopLossPct/TakeProfitPct 为 0 表示关闭对应风控。
type Config struct {
	RunID    string `json:"run_id"`
	Code     string `json:"code"`
	Interval string `json:"interval"`

	InitialCapital float64 `json:"initial_capital"`
	FeeRate        float64 `json:"fee_rate"`
	Slippage       float64 `json:"slippage"`

	StopLossPct       float64 `json:"stop_loss_pct"`
	TakeProfitPct     float64 `json:"take_profit_pct"`
	MaxPosition       float64 `json:"max_position"`
	MinPositionChange float64 `json:"min_position_change"`
	MinTradeAmount    float64 `json:"min_trade_amount"`
	CooldownBars      int     `json:"cooldown_bars"`
}

// DefaultConfig 默认回测参数，与原有实盘手续费口径一致
func DefaultConfig() Config {
	return Config{
		Interval:          "1m",
		InitialCapital:    100000.0,
		FeeRate:           0.001,
		Slippage:          0.0002,
		StopLossPct:       0, // 关闭
		TakeProfitPct:     0, // 关闭
		MaxPosition:       1.0,
		MinPositionChange: 0.05,
		MinTradeAmount:    5000.0,
		CooldownBars:      0,
	}
}

// Validate 在回测开始前校验一次，拒绝无意义的参数组合。
// RunID 为空时在此补齐。
func (c *Config) Validate() error {
	if c.RunID == "" {
		c.RunID = ulid.Make().String()
	}
	if c.Interval == "" {
		c.Interval = "1m"
	}
	if c.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial_capital must be positive, got %v", ErrInvalidConfig, c.InitialCapital)
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		return fmt.Errorf("%w: fee_rate must be in [0,1), got %v", ErrInvalidConfig, c.FeeRate)
	}
	if c.Slippage < 0 || c.Slippage >= 1 {
		return fmt.Errorf("%w: slippage must be in [0,1), got %v", ErrInvalidConfig, c.Slippage)
	}
	if c.StopLossPct < 0 || c.StopLossPct >= 1 {
		return fmt.Errorf("%w: stop_loss_pct must be in [0,1), got %v", ErrInvalidConfig, c.StopLossPct)
	}
	if c.TakeProfitPct < 0 {
		return fmt.Errorf("%w: take_profit_pct must be non-negative, got %v", ErrInvalidConfig, c.TakeProfitPct)
	}
	if c.MaxPosition <= 0 || c.MaxPosition > 1 {
		return fmt.Errorf("%w: max_position must be in (0,1], got %v", ErrInvalidConfig, c.MaxPosition)
	}
	if c.MinPositionChange < 0 || c.MinPositionChange >= 1 {
		return fmt.Errorf("%w: min_position_change must be in [0,1), got %v", ErrInvalidConfig, c.MinPositionChange)
	}
	if c.MinTradeAmount < 0 {
		return fmt.Errorf("%w: min_trade_amount must be non-negative, got %v", ErrInvalidConfig, c.MinTradeAmount)
	}
	if c.CooldownBars < 0 {
		return fmt.Errorf("%w: cooldown_bars must be non-negative, got %v", ErrInvalidConfig, c.CooldownBars)
	}
	return nil
}
