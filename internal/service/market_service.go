package service

import (
	"context"
	"time"

	"github.com/dushixiang/cfsquant/internal/config"
	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/dushixiang/cfsquant/internal/repo"
	"github.com/dushixiang/cfsquant/internal/xe"
	"github.com/dushixiang/cfsquant/pkg/exchange"
	"github.com/go-orz/orz"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 单次最多拉取的K线数量，超出区间时翻页
const klineFetchLimit = 1000

var supportedIntervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
}

// MarketService K线数据同步与查询服务
type MarketService struct {
	logger *zap.Logger

	*orz.Service

	conf          config.MarketConf
	binanceClient *exchange.BinanceClient
	klineRepo     *repo.KlineRepo
}

// NewMarketService 创建市场数据服务
func NewMarketService(db *gorm.DB, conf config.MarketConf,
	binanceClient *exchange.BinanceClient, logger *zap.Logger) *MarketService {
	return &MarketService{
		logger:        logger,
		Service:       orz.NewService(db),
		conf:          conf,
		binanceClient: binanceClient,
		klineRepo:     repo.NewKlineRepo(db),
	}
}

// SyncAll 同步配置中全部交易对与周期的K线，由定时任务驱动
func (s *MarketService) SyncAll(ctx context.Context) {
	for _, code := range s.conf.Codes {
		for _, interval := range s.conf.Intervals {
			if err := s.SyncKlines(ctx, code, interval); err != nil {
				s.logger.Error("failed to sync klines",
					zap.String("code", code),
					zap.String("interval", interval),
					zap.Error(err))
			}
		}
	}
}

// SyncKlines 增量同步某交易对某周期的K线：从本地最新一根开始向后补齐。
// 最新一根会被重复拉取一次，未收盘K线的修正以交易所数据为准。
func (s *MarketService) SyncKlines(ctx context.Context, code, interval string) error {
	step, ok := supportedIntervals[interval]
	if !ok {
		return xe.ErrUnknownInterval
	}

	latest, err := s.klineRepo.FindLatestDatetime(ctx, code, interval)
	if err != nil {
		return err
	}

	start := latest
	if start.IsZero() {
		// 首次同步只回补最近一段，历史数据通过 Backfill 拉取
		start = time.Now().Add(-time.Duration(klineFetchLimit) * step)
	}

	synced := 0
	for {
		klines, err := s.binanceClient.GetKlinesRange(ctx, code, interval, start, time.Now(), klineFetchLimit)
		if err != nil {
			return err
		}
		if len(klines) == 0 {
			break
		}

		if err := s.saveKlines(ctx, code, interval, klines); err != nil {
			return err
		}
		synced += len(klines)

		if len(klines) < klineFetchLimit {
			break
		}
		start = klines[len(klines)-1].OpenTime.Add(step)
	}

	if synced > 0 {
		s.logger.Info("klines synced",
			zap.String("code", code),
			zap.String("interval", interval),
			zap.Int("count", synced))
	}
	return nil
}

// Backfill 回补指定区间的历史K线
func (s *MarketService) Backfill(ctx context.Context, code, interval string, start, end time.Time) (int, error) {
	step, ok := supportedIntervals[interval]
	if !ok {
		return 0, xe.ErrUnknownInterval
	}

	total := 0
	cursor := start
	for cursor.Before(end) {
		klines, err := s.binanceClient.GetKlinesRange(ctx, code, interval, cursor, end, klineFetchLimit)
		if err != nil {
			return total, err
		}
		if len(klines) == 0 {
			break
		}

		if err := s.saveKlines(ctx, code, interval, klines); err != nil {
			return total, err
		}
		total += len(klines)

		if len(klines) < klineFetchLimit {
			break
		}
		cursor = klines[len(klines)-1].OpenTime.Add(step)
	}
	return total, nil
}

func (s *MarketService) saveKlines(ctx context.Context, code, interval string, klines []*exchange.Kline) error {
	rows := make([]models.Kline, 0, len(klines))
	for _, k := range klines {
		rows = append(rows, models.Kline{
			Code:     code,
			Interval: interval,
			Datetime: k.OpenTime,
			Open:     k.Open,
			High:     k.High,
			Low:      k.Low,
			Close:    k.Close,
			Volume:   k.Volume,
		})
	}
	return s.klineRepo.UpsertBatch(ctx, rows)
}

// Candles 查询本地缓存的K线
func (s *MarketService) Candles(ctx context.Context, code, interval string, start, end time.Time) ([]models.Kline, error) {
	if _, ok := supportedIntervals[interval]; !ok {
		return nil, xe.ErrUnknownInterval
	}
	return s.klineRepo.FindRange(ctx, code, interval, start, end)
}

// CurrentPrice 查询最新价格
func (s *MarketService) CurrentPrice(ctx context.Context, code string) (float64, error) {
	return s.binanceClient.GetCurrentPrice(ctx, code)
}
