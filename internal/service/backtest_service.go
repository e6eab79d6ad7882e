package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dushixiang/cfsquant/internal/config"
	"github.com/dushixiang/cfsquant/internal/engine"
	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/dushixiang/cfsquant/internal/repo"
	"github.com/dushixiang/cfsquant/internal/strategy"
	"github.com/dushixiang/cfsquant/internal/telegram"
	"github.com/dushixiang/cfsquant/internal/xe"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 回测参数中归执行引擎消费的键，其余键透传给策略
var engineParamKeys = map[string]struct{}{
	"initial_capital":     {},
	"fee_rate":            {},
	"slippage":            {},
	"stop_loss_pct":       {},
	"take_profit_pct":     {},
	"max_position":        {},
	"min_position_change": {},
	"min_trade_amount":    {},
	"cooldown_bars":       {},
}

// BacktestService 回测编排服务：取数、跑策略、执行引擎、落库
type BacktestService struct {
	logger *zap.Logger

	*orz.Service

	conf       config.BacktestConf
	runRepo    *repo.RunRepo
	tradeRepo  *repo.TradeRepo
	equityRepo *repo.EquityRepo
	metricRepo *repo.MetricRepo
	klineRepo  *repo.KlineRepo
	engine     *engine.Engine
	tg         *telegram.Telegram

	// 并发上限与运行中回测的取消句柄
	sem     chan struct{}
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewBacktestService 创建回测服务
func NewBacktestService(db *gorm.DB, conf config.BacktestConf,
	tg *telegram.Telegram, logger *zap.Logger) *BacktestService {
	return &BacktestService{
		logger:     logger,
		Service:    orz.NewService(db),
		conf:       conf,
		tg:         tg,
		runRepo:    repo.NewRunRepo(db),
		tradeRepo:  repo.NewTradeRepo(db),
		equityRepo: repo.NewEquityRepo(db),
		metricRepo: repo.NewMetricRepo(db),
		klineRepo:  repo.NewKlineRepo(db),
		engine:     engine.New(logger),
		sem:        make(chan struct{}, conf.MaxConcurrent),
		cancels:    make(map[string]context.CancelFunc),
	}
}

// RunRequest 一次回测请求
type RunRequest struct {
	Strategy string         `json:"strategy"`
	Code     string         `json:"code"`
	Interval string         `json:"interval"`
	Start    time.Time      `json:"start"`
	End      time.Time      `json:"end"`
	Params   map[string]any `json:"params"`
}

// RunResultView 回测结果详情
type RunResultView struct {
	Run     models.Run           `json:"run"`
	Metrics map[string]float64   `json:"metrics"`
	Equity  []models.EquityPoint `json:"equity"`
	Trades  []models.Trade       `json:"trades"`
}

// Run 同步执行一次回测并落库，返回终态的运行记录
func (s *BacktestService) Run(ctx context.Context, req RunRequest) (*models.Run, error) {
	bars, err := s.loadBars(ctx, req)
	if err != nil {
		return nil, err
	}
	run, runErr := s.RunWithBars(ctx, req, bars)
	if run != nil {
		s.tg.Notify(fmt.Sprintf("回测完成 %s\n策略: %s %s %s\n状态: %s\n收益率: %.2f%%\n最大回撤: %.2f%%\n交易次数: %d",
			run.ID, run.Strategy, run.Code, run.Interval, run.Status,
			run.FinalReturn*100, run.MaxDrawdown*100, run.TradeCount))
	}
	return run, runErr
}

// RunWithBars 在给定K线上执行回测，调参任务复用已加载的数据时走这里
func (s *BacktestService) RunWithBars(ctx context.Context, req RunRequest, bars []engine.Bar) (*models.Run, error) {
	st, err := strategy.Get(req.Strategy)
	if err != nil {
		return nil, xe.ErrUnknownStrategy
	}

	cfg, strategyParams, err := splitParams(req)
	if err != nil {
		return nil, err
	}

	signals, err := st.Signals(bars, strategyParams)
	if err != nil {
		if errors.Is(err, strategy.ErrInvalidParams) {
			return nil, xe.ErrInvalidParams
		}
		return nil, err
	}

	run := &models.Run{
		ID:             cfg.RunID,
		Strategy:       req.Strategy,
		Code:           req.Code,
		Interval:       req.Interval,
		StartTime:      req.Start,
		EndTime:        req.End,
		InitialCapital: cfg.InitialCapital,
		Params:         datatypes.JSONMap(req.Params),
		Status:         models.RunStatusRunning,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}

	// 并发上限与超时控制，取消句柄登记后才可中止
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(s.conf.TimeoutHours)*time.Hour)
	s.registerCancel(run.ID, cancel)
	defer s.unregisterCancel(run.ID)

	s.logger.Info("backtest started",
		zap.String("run_id", run.ID),
		zap.String("strategy", req.Strategy),
		zap.String("code", req.Code),
		zap.Int("bars", len(bars)),
		zap.Int("signals", len(signals)))

	result, runErr := s.engine.Run(runCtx, cfg, bars, signals)
	return s.finalize(ctx, run, result, runErr)
}

// finalize 持久化回测产物并把运行记录推进到终态。
// 引擎被取消时部分结果仍然落库，状态置为 aborted。
func (s *BacktestService) finalize(ctx context.Context, run *models.Run, result *engine.RunResult, runErr error) (*models.Run, error) {
	status := models.RunStatusFinished
	errMsg := ""
	switch {
	case runErr == nil:
	case errors.Is(runErr, engine.ErrRunAborted):
		status = models.RunStatusAborted
		errMsg = runErr.Error()
	default:
		status = models.RunStatusFailed
		errMsg = runErr.Error()
	}

	if result == nil {
		if err := s.runRepo.Finish(ctx, run.ID, status, map[string]any{"error": errMsg}); err != nil {
			s.logger.Error("failed to finalize run", zap.String("run_id", run.ID), zap.Error(err))
		}
		run.Status = status
		run.Error = errMsg
		return run, runErr
	}

	err := s.Transaction(ctx, func(ctx context.Context) error {
		if err := s.tradeRepo.CreateInBatches(ctx, tradeRows(run, result.Trades)); err != nil {
			return err
		}
		if err := s.equityRepo.CreateInBatches(ctx, equityRows(run.ID, result.Equity)); err != nil {
			return err
		}
		if err := s.metricRepo.CreateInBatches(ctx, metricRows(run.ID, result.Metrics)); err != nil {
			return err
		}
		return s.runRepo.Finish(ctx, run.ID, status, map[string]any{
			"final_capital": result.Metrics[engine.MetricFinalCapital],
			"final_return":  result.Metrics[engine.MetricFinalReturn],
			"max_drawdown":  result.Metrics[engine.MetricMaxDrawdown],
			"sharpe":        result.Metrics[engine.MetricSharpe],
			"win_rate":      result.Metrics[engine.MetricWinRate],
			"trade_count":   int(result.Metrics[engine.MetricTradeCount]),
			"total_fee":     result.Metrics[engine.MetricTotalFee],
			"total_profit":  result.Metrics[engine.MetricTotalProfit],
			"error":         errMsg,
		})
	})
	if err != nil {
		s.logger.Error("failed to persist backtest result", zap.String("run_id", run.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("backtest finished",
		zap.String("run_id", run.ID),
		zap.String("status", string(status)),
		zap.Float64("final_capital", result.Metrics[engine.MetricFinalCapital]),
		zap.Int("trades", len(result.Trades)))

	finished, err := s.runRepo.FindById(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return &finished, runErr
}

// Abort 中止运行中的回测
func (s *BacktestService) Abort(runId string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[runId]
	s.mu.Unlock()
	if !ok {
		return xe.ErrCurrentNotAllowed
	}
	cancel()
	return nil
}

// GetResult 查询回测结果详情
func (s *BacktestService) GetResult(ctx context.Context, runId string) (*RunResultView, error) {
	run, err := s.runRepo.FindById(ctx, runId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrNotFound
		}
		return nil, err
	}

	metrics, err := s.metricRepo.FindByRunId(ctx, runId)
	if err != nil {
		return nil, err
	}
	equity, err := s.equityRepo.FindByRunId(ctx, runId)
	if err != nil {
		return nil, err
	}
	trades, err := s.tradeRepo.FindByRunId(ctx, runId)
	if err != nil {
		return nil, err
	}

	metricMap := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		metricMap[m.Name] = m.Value
	}

	return &RunResultView{
		Run:     run,
		Metrics: metricMap,
		Equity:  equity,
		Trades:  trades,
	}, nil
}

// Page 分页查询回测列表
func (s *BacktestService) Page(ctx context.Context, pageIndex, pageSize int, strategyName, code, status string) ([]models.Run, int64, error) {
	return s.runRepo.FindPage(ctx, pageIndex, pageSize, strategyName, code, status)
}

// Delete 删除回测及其全部产物
func (s *BacktestService) Delete(ctx context.Context, runId string) error {
	run, err := s.runRepo.FindById(ctx, runId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return xe.ErrNotFound
		}
		return err
	}
	if !run.IsTerminal() {
		return xe.ErrCurrentNotAllowed
	}

	return s.Transaction(ctx, func(ctx context.Context) error {
		if err := s.tradeRepo.DeleteByRunId(ctx, runId); err != nil {
			return err
		}
		if err := s.equityRepo.DeleteByRunId(ctx, runId); err != nil {
			return err
		}
		if err := s.metricRepo.DeleteByRunId(ctx, runId); err != nil {
			return err
		}
		return s.runRepo.DeleteById(ctx, runId)
	})
}

// RecoverStale 把启动时仍处于 running 状态的回测标记为失败，
// 进程重启后不会有人再接手这些运行
func (s *BacktestService) RecoverStale(ctx context.Context) error {
	runs, err := s.runRepo.FindByStatus(ctx, models.RunStatusRunning)
	if err != nil {
		return err
	}
	for _, run := range runs {
		err := s.runRepo.Finish(ctx, run.ID, models.RunStatusFailed, map[string]any{
			"error": "interrupted by restart",
		})
		if err != nil {
			return err
		}
		s.logger.Warn("stale run marked as failed", zap.String("run_id", run.ID))
	}
	return nil
}

func (s *BacktestService) loadBars(ctx context.Context, req RunRequest) ([]engine.Bar, error) {
	klines, err := s.klineRepo.FindRange(ctx, req.Code, req.Interval, req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if len(klines) == 0 {
		return nil, xe.ErrNoKlineData
	}
	return klinesToBars(klines), nil
}

func klinesToBars(klines []models.Kline) []engine.Bar {
	bars := make([]engine.Bar, len(klines))
	for i, k := range klines {
		bars[i] = engine.Bar{
			Code:     k.Code,
			Datetime: k.Datetime,
			Open:     k.Open,
			High:     k.High,
			Low:      k.Low,
			Close:    k.Close,
			Volume:   k.Volume,
		}
	}
	return bars
}

// splitParams 把请求参数拆成引擎配置与策略参数两部分
func splitParams(req RunRequest) (engine.Config, map[string]any, error) {
	cfg := engine.DefaultConfig()
	cfg.RunID = ulid.Make().String()
	cfg.Code = req.Code
	cfg.Interval = req.Interval

	strategyParams := make(map[string]any)
	for key, value := range req.Params {
		if _, ok := engineParamKeys[key]; !ok {
			strategyParams[key] = value
			continue
		}
		if err := applyEngineParam(&cfg, key, value); err != nil {
			return cfg, nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, nil, xe.ErrInvalidParams
	}
	return cfg, strategyParams, nil
}

func applyEngineParam(cfg *engine.Config, key string, value any) error {
	if key == "cooldown_bars" {
		v, err := cast.ToIntE(value)
		if err != nil {
			return fmt.Errorf("%v: %s=%v", xe.ErrInvalidParams, key, value)
		}
		cfg.CooldownBars = v
		return nil
	}

	v, err := cast.ToFloat64E(value)
	if err != nil {
		return fmt.Errorf("%v: %s=%v", xe.ErrInvalidParams, key, value)
	}
	switch key {
	case "initial_capital":
		cfg.InitialCapital = v
	case "fee_rate":
		cfg.FeeRate = v
	case "slippage":
		cfg.Slippage = v
	case "stop_loss_pct":
		cfg.StopLossPct = v
	case "take_profit_pct":
		cfg.TakeProfitPct = v
	case "max_position":
		cfg.MaxPosition = v
	case "min_position_change":
		cfg.MinPositionChange = v
	case "min_trade_amount":
		cfg.MinTradeAmount = v
	}
	return nil
}

func tradeRows(run *models.Run, trades []engine.Trade) []models.Trade {
	rows := make([]models.Trade, len(trades))
	for i, t := range trades {
		rows[i] = models.Trade{
			RunID:           run.ID,
			Datetime:        t.Datetime,
			Code:            t.Code,
			Side:            string(t.Side),
			TradeType:       t.TradeType,
			Price:           t.Price,
			Qty:             t.Qty,
			Amount:          t.Amount,
			Fee:             t.Fee,
			AvgPrice:        t.AvgPrice,
			ClosePrice:      t.ClosePrice,
			Nav:             t.Nav,
			RealizedPnl:     t.RealizedPnl,
			CurrentQty:      t.CurrentQty,
			CurrentAvgPrice: t.CurrentAvgPrice,
			CurrentCash:     t.CurrentCash,
			Drawdown:        t.Drawdown,
		}
	}
	return rows
}

func equityRows(runId string, points []engine.EquityPoint) []models.EquityPoint {
	rows := make([]models.EquityPoint, len(points))
	for i, p := range points {
		rows[i] = models.EquityPoint{
			RunID:    runId,
			Datetime: p.Datetime,
			Nav:      p.Nav,
			Drawdown: p.Drawdown,
		}
	}
	return rows
}

func metricRows(runId string, metrics map[string]float64) []models.Metric {
	names := []string{
		engine.MetricFinalCapital,
		engine.MetricFinalReturn,
		engine.MetricMaxDrawdown,
		engine.MetricSharpe,
		engine.MetricWinRate,
		engine.MetricTradeCount,
		engine.MetricTotalFee,
		engine.MetricTotalProfit,
	}
	rows := make([]models.Metric, 0, len(names))
	for _, name := range names {
		value, ok := metrics[name]
		if !ok {
			continue
		}
		rows = append(rows, models.Metric{
			RunID: runId,
			Name:  name,
			Value: value,
		})
	}
	return rows
}

func (s *BacktestService) registerCancel(runId string, cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancels[runId] = cancel
	s.mu.Unlock()
}

func (s *BacktestService) unregisterCancel(runId string) {
	s.mu.Lock()
	delete(s.cancels, runId)
	s.mu.Unlock()
}
