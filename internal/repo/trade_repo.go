package repo

import (
	"context"

	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewTradeRepo(db *gorm.DB) *TradeRepo {
	return &TradeRepo{
		Repository: orz.NewRepository[models.Trade, uint64](db),
	}
}

type TradeRepo struct {
	orz.Repository[models.Trade, uint64]
}

// CreateInBatches 批量写入成交记录
func (r TradeRepo) CreateInBatches(ctx context.Context, trades []models.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	return r.GetDB(ctx).CreateInBatches(trades, 500).Error
}

// FindByRunId 查询一次回测的全部成交，按时间升序
func (r TradeRepo) FindByRunId(ctx context.Context, runId string) ([]models.Trade, error) {
	var trades []models.Trade
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("run_id = ?", runId).
		Order("datetime ASC").
		Find(&trades).Error
	return trades, err
}

// DeleteByRunId 删除一次回测的全部成交
func (r TradeRepo) DeleteByRunId(ctx context.Context, runId string) error {
	return r.GetDB(ctx).
		Where("run_id = ?", runId).
		Delete(&models.Trade{}).Error
}
