package models

import (
	"time"
)

// Kline 本地K线缓存，按 (code, interval, datetime) 唯一
type Kline struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Code     string    `gorm:"type:varchar(20);not null;uniqueIndex:uk_kline" json:"code"`     // 交易对
	Interval string    `gorm:"type:varchar(10);not null;uniqueIndex:uk_kline" json:"interval"` // K线周期
	Datetime time.Time `gorm:"not null;uniqueIndex:uk_kline" json:"datetime"`                  // 开盘时间
	Open     float64   `gorm:"type:decimal(20,8);not null" json:"open"`
	High     float64   `gorm:"type:decimal(20,8);not null" json:"high"`
	Low      float64   `gorm:"type:decimal(20,8);not null" json:"low"`
	Close    float64   `gorm:"type:decimal(20,8);not null" json:"close"`
	Volume   float64   `gorm:"type:decimal(30,8)" json:"volume"`
}

// TableName 指定表名
func (Kline) TableName() string {
	return "klines"
}
