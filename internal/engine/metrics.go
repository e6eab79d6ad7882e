package engine

import (
	"math"
	"time"
)

// 指标名称，对应 metrics 表的 metric_name 列
const (
	MetricFinalCapital = "final_capital"
	MetricFinalReturn  = "final_return"
	MetricMaxDrawdown  = "max_drawdown"
	MetricSharpe       = "sharpe"
	MetricWinRate      = "win_rate"
	MetricTradeCount   = "trade_count"
	MetricTotalFee     = "total_fee"
	MetricTotalProfit  = "total_profit"
)

// annualizationFactor 根据K线周期推算年化因子（每年K线数）。
// 加密市场全年无休，按自然时间折算；日线沿用 252 个交易日的惯例。
func annualizationFactor(interval string) float64 {
	switch interval {
	case "1d", "1D":
		return 252
	}
	dur := intervalDuration(interval)
	if dur <= 0 {
		return 252
	}
	return float64(365*24*time.Hour) / float64(dur)
}

func intervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "2h":
		return 2 * time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	}
	return 0
}

// computeMetrics 在回测结束后由完整的交易与净值序列一次性计算汇总指标
func computeMetrics(cfg *Config, trades []Trade, equity []EquityPoint) map[string]float64 {
	m := make(map[string]float64, 8)

	finalCapital := cfg.InitialCapital
	if len(equity) > 0 {
		finalCapital = equity[len(equity)-1].Nav
	}
	m[MetricFinalCapital] = finalCapital
	m[MetricFinalReturn] = (finalCapital - cfg.InitialCapital) / cfg.InitialCapital

	maxDD := 0.0
	for _, e := range equity {
		if e.Drawdown > maxDD {
			maxDD = e.Drawdown
		}
	}
	m[MetricMaxDrawdown] = maxDD

	m[MetricSharpe] = sharpeRatio(equity, annualizationFactor(cfg.Interval))

	var totalFee, totalProfit float64
	var sells, wins int
	for _, t := range trades {
		totalFee += t.Fee
		if t.Side == SideSell {
			sells++
			totalProfit += t.RealizedPnl
			if t.RealizedPnl > 0 {
				wins++
			}
		}
	}
	m[MetricTradeCount] = float64(len(trades))
	m[MetricTotalFee] = totalFee
	m[MetricTotalProfit] = totalProfit
	if sells > 0 {
		m[MetricWinRate] = float64(wins) / float64(sells)
	} else {
		m[MetricWinRate] = 0
	}

	return m
}

// sharpeRatio 逐K线收益率的夏普比率；样本不足或波动为零时返回 0
func sharpeRatio(equity []EquityPoint, annualFactor float64) float64 {
	if len(equity) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Nav
		if prev <= 0 {
			continue
		}
		returns = append(returns, (equity[i].Nav-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(annualFactor)
}
