package models

import (
	"time"
)

// Trade 回测成交记录，回测过程中逐笔写入，落库后不再修改
type Trade struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID           string    `gorm:"type:varchar(26);not null;index" json:"run_id"` // 所属回测
	Datetime        time.Time `gorm:"not null;index" json:"datetime"`                // 成交时间（K线时间）
	Code            string    `gorm:"type:varchar(20);not null" json:"code"`         // 交易对
	Side            string    `gorm:"type:varchar(10);not null" json:"side"`         // buy/sell
	TradeType       string    `gorm:"type:varchar(20);not null" json:"trade_type"`   // normal/stop_loss/take_profit
	Price           float64   `gorm:"type:decimal(20,8);not null" json:"price"`      // 含滑点的成交价
	Qty             float64   `gorm:"type:decimal(20,8);not null" json:"qty"`        // 成交数量
	Amount          float64   `gorm:"type:decimal(20,8)" json:"amount"`              // 成交金额
	Fee             float64   `gorm:"type:decimal(20,8)" json:"fee"`                 // 手续费
	AvgPrice        float64   `gorm:"type:decimal(20,8)" json:"avg_price"`           // 成交前持仓均价
	ClosePrice      float64   `gorm:"type:decimal(20,8)" json:"close_price"`         // 当根收盘价
	Nav             float64   `gorm:"type:decimal(20,8)" json:"nav"`                 // 成交后净值
	RealizedPnl     float64   `gorm:"type:decimal(20,8)" json:"realized_pnl"`        // 已实现盈亏（仅卖出）
	CurrentQty      float64   `gorm:"type:decimal(20,8)" json:"current_qty"`         // 成交后持仓数量
	CurrentAvgPrice float64   `gorm:"type:decimal(20,8)" json:"current_avg_price"`   // 成交后持仓均价
	CurrentCash     float64   `gorm:"type:decimal(20,8)" json:"current_cash"`        // 成交后现金
	Drawdown        float64   `gorm:"type:decimal(20,8)" json:"drawdown"`            // 成交后回撤
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (Trade) TableName() string {
	return "trades"
}
