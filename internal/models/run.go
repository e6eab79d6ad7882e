package models

import (
	"time"

	"gorm.io/datatypes"
)

// RunStatus 回测运行状态
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"  // 运行中
	RunStatusFinished RunStatus = "finished" // 已完成
	RunStatusFailed   RunStatus = "failed"   // 失败
	RunStatusAborted  RunStatus = "aborted"  // 被取消
)

// Run 一次回测运行的汇总记录
type Run struct {
	ID             string            `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Strategy       string            `gorm:"type:varchar(50);not null;index" json:"strategy"`           // 策略名称
	Code           string            `gorm:"type:varchar(20);not null;index" json:"code"`               // 交易对
	Interval       string            `gorm:"type:varchar(10);not null" json:"interval"`                 // K线周期
	StartTime      time.Time         `gorm:"not null" json:"start_time"`                                // 回测起点
	EndTime        time.Time         `gorm:"not null" json:"end_time"`                                  // 回测终点
	InitialCapital float64           `gorm:"type:decimal(20,8);not null" json:"initial_capital"`        // 初始资金
	FinalCapital   float64           `gorm:"type:decimal(20,8)" json:"final_capital"`                   // 期末净值
	FinalReturn    float64           `gorm:"type:decimal(20,8)" json:"final_return"`                    // 总收益率
	MaxDrawdown    float64           `gorm:"type:decimal(20,8)" json:"max_drawdown"`                    // 最大回撤
	Sharpe         float64           `gorm:"type:decimal(20,8)" json:"sharpe"`                          // 夏普比率
	WinRate        float64           `gorm:"type:decimal(20,8)" json:"win_rate"`                        // 胜率
	TradeCount     int               `json:"trade_count"`                                               // 交易笔数
	TotalFee       float64           `gorm:"type:decimal(20,8)" json:"total_fee"`                       // 累计手续费
	TotalProfit    float64           `gorm:"type:decimal(20,8)" json:"total_profit"`                    // 累计已实现盈亏
	Params         datatypes.JSONMap `json:"params"`                                                    // 本次运行的完整参数
	Status         RunStatus         `gorm:"type:varchar(20);not null;default:'running'" json:"status"` // 运行状态
	Error          string            `gorm:"type:text" json:"error"`                                    // 失败原因
	FinishedAt     *time.Time        `json:"finished_at,omitempty"`                                     // 结束时间
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (Run) TableName() string {
	return "runs"
}

// IsTerminal 是否已进入终态
func (r *Run) IsTerminal() bool {
	return r.Status != RunStatusRunning
}
