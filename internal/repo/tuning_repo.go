package repo

import (
	"context"
	"time"

	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewTuningTaskRepo(db *gorm.DB) *TuningTaskRepo {
	return &TuningTaskRepo{
		Repository: orz.NewRepository[models.TuningTask, string](db),
	}
}

type TuningTaskRepo struct {
	orz.Repository[models.TuningTask, string]
}

// FindPage 分页查询任务列表，按创建时间倒序
func (r TuningTaskRepo) FindPage(ctx context.Context, pageIndex, pageSize int, status string) ([]models.TuningTask, int64, error) {
	db := r.GetDB(ctx).Table(r.GetTableName())
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []models.TuningTask
	err := db.Order("created_at DESC").
		Offset((pageIndex - 1) * pageSize).
		Limit(pageSize).
		Find(&tasks).Error
	return tasks, total, err
}

// FindByStatus 按状态查询任务
func (r TuningTaskRepo) FindByStatus(ctx context.Context, status models.TuningStatus) ([]models.TuningTask, error) {
	var tasks []models.TuningTask
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

// UpdateProgress 更新任务进度
func (r TuningTaskRepo) UpdateProgress(ctx context.Context, id string, progress int) error {
	return r.GetDB(ctx).Table(r.GetTableName()).
		Where("id = ?", id).
		Update("progress", progress).Error
}

// Finish 标记任务终态
func (r TuningTaskRepo) Finish(ctx context.Context, id string, status models.TuningStatus, bestRunId, errMsg string) error {
	now := time.Now()
	return r.GetDB(ctx).Table(r.GetTableName()).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      status,
			"best_run_id": bestRunId,
			"error":       errMsg,
			"finished_at": &now,
		}).Error
}

func NewTuningResultRepo(db *gorm.DB) *TuningResultRepo {
	return &TuningResultRepo{
		Repository: orz.NewRepository[models.TuningResult, uint64](db),
	}
}

type TuningResultRepo struct {
	orz.Repository[models.TuningResult, uint64]
}

// FindByTaskId 查询任务的全部结果，按收益率倒序
func (r TuningResultRepo) FindByTaskId(ctx context.Context, taskId string) ([]models.TuningResult, error) {
	var results []models.TuningResult
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("task_id = ?", taskId).
		Order("final_return DESC").
		Find(&results).Error
	return results, err
}

// DeleteByTaskId 删除任务的全部结果
func (r TuningResultRepo) DeleteByTaskId(ctx context.Context, taskId string) error {
	return r.GetDB(ctx).
		Where("task_id = ?", taskId).
		Delete(&models.TuningResult{}).Error
}
