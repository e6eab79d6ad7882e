package repo

import (
	"context"

	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewMetricRepo(db *gorm.DB) *MetricRepo {
	return &MetricRepo{
		Repository: orz.NewRepository[models.Metric, uint64](db),
	}
}

type MetricRepo struct {
	orz.Repository[models.Metric, uint64]
}

// CreateInBatches 批量写入指标
func (r MetricRepo) CreateInBatches(ctx context.Context, metrics []models.Metric) error {
	if len(metrics) == 0 {
		return nil
	}
	return r.GetDB(ctx).CreateInBatches(metrics, 100).Error
}

// FindByRunId 查询一次回测的全部指标
func (r MetricRepo) FindByRunId(ctx context.Context, runId string) ([]models.Metric, error) {
	var metrics []models.Metric
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("run_id = ?", runId).
		Order("name ASC").
		Find(&metrics).Error
	return metrics, err
}

// DeleteByRunId 删除一次回测的全部指标
func (r MetricRepo) DeleteByRunId(ctx context.Context, runId string) error {
	return r.GetDB(ctx).
		Where("run_id = ?", runId).
		Delete(&models.Metric{}).Error
}
