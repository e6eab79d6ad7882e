package models

import (
	"time"
)

// EquityPoint 净值曲线采样点，每根K线一条
type EquityPoint struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID    string    `gorm:"type:varchar(26);not null;index" json:"run_id"` // 所属回测
	Datetime time.Time `gorm:"not null" json:"datetime"`                      // K线时间
	Nav      float64   `gorm:"type:decimal(20,8);not null" json:"nav"`        // 净值
	Drawdown float64   `gorm:"type:decimal(20,8)" json:"drawdown"`            // 相对峰值回撤
}

// TableName 指定表名
func (EquityPoint) TableName() string {
	return "equity_curve"
}
