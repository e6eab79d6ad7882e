package repo

import (
	"context"
	"errors"
	"time"

	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func NewKlineRepo(db *gorm.DB) *KlineRepo {
	return &KlineRepo{
		Repository: orz.NewRepository[models.Kline, uint64](db),
	}
}

type KlineRepo struct {
	orz.Repository[models.Kline, uint64]
}

// UpsertBatch 批量落库K线，按 (code, interval, datetime) 冲突时更新价格字段。
// 交易所会修正尚未收盘的K线，重复拉取以最新数据为准。
func (r KlineRepo) UpsertBatch(ctx context.Context, klines []models.Kline) error {
	if len(klines) == 0 {
		return nil
	}
	return r.GetDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}, {Name: "interval"}, {Name: "datetime"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).CreateInBatches(klines, 500).Error
}

// FindRange 查询区间内的K线，按时间升序
func (r KlineRepo) FindRange(ctx context.Context, code, interval string, start, end time.Time) ([]models.Kline, error) {
	var klines []models.Kline
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("code = ? AND `interval` = ? AND datetime >= ? AND datetime <= ?", code, interval, start, end).
		Order("datetime ASC").
		Find(&klines).Error
	return klines, err
}

// FindLatestDatetime 查询某交易对某周期最新一根K线的时间，
// 无数据时返回零值时间
func (r KlineRepo) FindLatestDatetime(ctx context.Context, code, interval string) (time.Time, error) {
	var kline models.Kline
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("code = ? AND `interval` = ?", code, interval).
		Order("datetime DESC").
		First(&kline).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return kline.Datetime, nil
}

// CountRange 统计区间内的K线数量
func (r KlineRepo) CountRange(ctx context.Context, code, interval string, start, end time.Time) (int64, error) {
	var count int64
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("code = ? AND `interval` = ? AND datetime >= ? AND datetime <= ?", code, interval, start, end).
		Count(&count).Error
	return count, err
}

// FindCodes 查询已缓存的全部交易对与周期组合
func (r KlineRepo) FindCodes(ctx context.Context) ([]models.Kline, error) {
	var rows []models.Kline
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Distinct("code", "`interval`").
		Find(&rows).Error
	return rows, err
}
