package models

import (
	"time"

	"gorm.io/datatypes"
)

// TuningStatus 调参任务状态
type TuningStatus string

const (
	TuningStatusPending  TuningStatus = "pending"  // 排队中
	TuningStatusRunning  TuningStatus = "running"  // 运行中
	TuningStatusFinished TuningStatus = "finished" // 已完成
	TuningStatusError    TuningStatus = "error"    // 失败
)

// TuningTask 参数网格搜索任务
type TuningTask struct {
	ID         string            `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Strategy   string            `gorm:"type:varchar(50);not null;index" json:"strategy"`           // 策略名称
	Code       string            `gorm:"type:varchar(20);not null" json:"code"`                     // 交易对
	Interval   string            `gorm:"type:varchar(10);not null" json:"interval"`                 // K线周期
	StartTime  time.Time         `gorm:"not null" json:"start_time"`                                // 回测起点
	EndTime    time.Time         `gorm:"not null" json:"end_time"`                                  // 回测终点
	BaseParams datatypes.JSONMap `json:"base_params"`                                               // 所有组合共享的固定参数
	ParamGrid  datatypes.JSONMap `json:"param_grid"`                                                // 参数名 -> 候选值列表
	Status     TuningStatus      `gorm:"type:varchar(20);not null;default:'pending'" json:"status"` // 任务状态
	Total      int               `json:"total"`                                                     // 组合总数
	Progress   int               `json:"progress"`                                                  // 已完成组合数
	BestRunID  string            `gorm:"type:varchar(26)" json:"best_run_id"`                       // 最优组合对应的回测
	Error      string            `gorm:"type:text" json:"error"`                                    // 失败原因
	FinishedAt *time.Time        `json:"finished_at,omitempty"`                                     // 结束时间
	CreatedAt  time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (TuningTask) TableName() string {
	return "tuning_tasks"
}

// IsTerminal 是否已进入终态
func (t *TuningTask) IsTerminal() bool {
	return t.Status == TuningStatusFinished || t.Status == TuningStatusError
}

// TuningResult 单个参数组合的回测结果摘要
type TuningResult struct {
	ID          uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID      string            `gorm:"type:varchar(26);not null;index" json:"task_id"` // 所属任务
	RunID       string            `gorm:"type:varchar(26);not null" json:"run_id"`        // 对应的回测
	Params      datatypes.JSONMap `json:"params"`                                         // 本组合的覆盖参数
	FinalReturn float64           `gorm:"type:decimal(20,8)" json:"final_return"`         // 总收益率
	MaxDrawdown float64           `gorm:"type:decimal(20,8)" json:"max_drawdown"`         // 最大回撤
	Sharpe      float64           `gorm:"type:decimal(20,8)" json:"sharpe"`               // 夏普比率
	WinRate     float64           `gorm:"type:decimal(20,8)" json:"win_rate"`             // 胜率
	TradeCount  int               `json:"trade_count"`                                    // 交易笔数
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (TuningResult) TableName() string {
	return "tuning_results"
}
