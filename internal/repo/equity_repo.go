package repo

import (
	"context"

	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewEquityRepo(db *gorm.DB) *EquityRepo {
	return &EquityRepo{
		Repository: orz.NewRepository[models.EquityPoint, uint64](db),
	}
}

type EquityRepo struct {
	orz.Repository[models.EquityPoint, uint64]
}

// CreateInBatches 批量写入净值点
func (r EquityRepo) CreateInBatches(ctx context.Context, points []models.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}
	return r.GetDB(ctx).CreateInBatches(points, 1000).Error
}

// FindByRunId 查询一次回测的净值曲线，按时间升序
func (r EquityRepo) FindByRunId(ctx context.Context, runId string) ([]models.EquityPoint, error) {
	var points []models.EquityPoint
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("run_id = ?", runId).
		Order("datetime ASC").
		Find(&points).Error
	return points, err
}

// DeleteByRunId 删除一次回测的净值曲线
func (r EquityRepo) DeleteByRunId(ctx context.Context, runId string) error {
	return r.GetDB(ctx).
		Where("run_id = ?", runId).
		Delete(&models.EquityPoint{}).Error
}
