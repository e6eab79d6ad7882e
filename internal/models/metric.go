package models

// Metric 回测汇总指标，一行一个指标
type Metric struct {
	ID    uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID string  `gorm:"type:varchar(26);not null;uniqueIndex:uk_metric_run_name" json:"run_id"`
	Name  string  `gorm:"type:varchar(50);not null;uniqueIndex:uk_metric_run_name" json:"name"` // 指标名
	Value float64 `gorm:"type:decimal(20,8)" json:"value"`                                      // 指标值
}

// TableName 指定表名
func (Metric) TableName() string {
	return "metrics"
}
