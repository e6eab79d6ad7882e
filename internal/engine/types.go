package engine

import "time"

// Side 交易方向
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TriggerTag 风控触发标记，写入交易记录的 trade_type 字段
type TriggerTag string

const (
	TriggerNormal        TriggerTag = "normal"
	TriggerStopLoss      TriggerTag = "stop_loss"
	TriggerTakeProfit    TriggerTag = "take_profit"
	TriggerCooldownBlock TriggerTag = "cooldown_block"
)

// Bar 单根K线，由外部数据源提供，时间戳严格递增
type Bar struct {
	Code     string    `json:"code"`
	Datetime time.Time `json:"datetime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Signal 策略信号：目标仓位为净值的比例，取值 [0,1]
type Signal struct {
	Datetime       time.Time      `json:"datetime"`
	TargetPosition float64        `json:"target_position"`
	Strength       float64        `json:"strength"`
	Type           string         `json:"signal_type"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Trade 一笔已执行订单的完整快照，落库后不再修改
type Trade struct {
	Datetime        time.Time `json:"datetime"`
	Code            string    `json:"code"`
	Side            Side      `json:"side"`
	TradeType       string    `json:"trade_type"`
	Price           float64   `json:"price"`     // 含滑点的成交价
	Qty             float64   `json:"qty"`       // 成交数量，恒为正
	Amount          float64   `json:"amount"`    // 成交金额
	Fee             float64   `json:"fee"`       // 手续费
	AvgPrice        float64   `json:"avg_price"` // 成交前持仓均价
	ClosePrice      float64   `json:"close_price"`
	Nav             float64   `json:"nav"`
	RealizedPnl     float64   `json:"realized_pnl"` // 仅卖出时非零
	CurrentQty      float64   `json:"current_qty"`
	CurrentAvgPrice float64   `json:"current_avg_price"`
	CurrentCash     float64   `json:"current_cash"`
	Drawdown        float64   `json:"drawdown"`
}

// EquityPoint 净值曲线上的一个点，每根K线恰好一条
type EquityPoint struct {
	Datetime time.Time `json:"datetime"`
	Nav      float64   `json:"nav"`
	Drawdown float64   `json:"drawdown"`
}

// RunResult 一次回测的完整输出
type RunResult struct {
	RunID        string             `json:"run_id"`
	FinalCapital float64            `json:"final_capital"`
	Trades       []Trade            `json:"trades"`
	Equity       []EquityPoint      `json:"equity"`
	Metrics      map[string]float64 `json:"metrics"`
	Aborted      bool               `json:"aborted"`
}
