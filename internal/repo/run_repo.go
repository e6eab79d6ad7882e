package repo

import (
	"context"
	"time"

	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewRunRepo(db *gorm.DB) *RunRepo {
	return &RunRepo{
		Repository: orz.NewRepository[models.Run, string](db),
	}
}

type RunRepo struct {
	orz.Repository[models.Run, string]
}

// FindPage 分页查询回测列表，按创建时间倒序
func (r RunRepo) FindPage(ctx context.Context, pageIndex, pageSize int, strategy, code, status string) ([]models.Run, int64, error) {
	db := r.GetDB(ctx).Table(r.GetTableName())
	if strategy != "" {
		db = db.Where("strategy = ?", strategy)
	}
	if code != "" {
		db = db.Where("code = ?", code)
	}
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var runs []models.Run
	err := db.Order("created_at DESC").
		Offset((pageIndex - 1) * pageSize).
		Limit(pageSize).
		Find(&runs).Error
	return runs, total, err
}

// FindByStatus 按状态查询
func (r RunRepo) FindByStatus(ctx context.Context, status models.RunStatus) ([]models.Run, error) {
	var runs []models.Run
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("status = ?", status).
		Find(&runs).Error
	return runs, err
}

// Finish 标记终态并写入汇总字段
func (r RunRepo) Finish(ctx context.Context, id string, status models.RunStatus, fields map[string]any) error {
	now := time.Now()
	updates := map[string]any{
		"status":      status,
		"finished_at": &now,
	}
	for k, v := range fields {
		updates[k] = v
	}
	return r.GetDB(ctx).Table(r.GetTableName()).
		Where("id = ?", id).
		Updates(updates).Error
}
