package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dushixiang/cfsquant/internal/config"
	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/dushixiang/cfsquant/internal/repo"
	"github.com/dushixiang/cfsquant/internal/strategy"
	"github.com/dushixiang/cfsquant/internal/telegram"
	"github.com/dushixiang/cfsquant/internal/xe"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TuningService 参数网格搜索：对同一份K线数据跑完全部参数组合，
// 每个组合产生一次独立的回测运行
type TuningService struct {
	logger *zap.Logger

	*orz.Service

	conf       config.TuningConf
	taskRepo   *repo.TuningTaskRepo
	resultRepo *repo.TuningResultRepo
	backtest   *BacktestService
	tg         *telegram.Telegram
}

// NewTuningService 创建调参服务
func NewTuningService(db *gorm.DB, conf config.TuningConf,
	backtest *BacktestService, tg *telegram.Telegram, logger *zap.Logger) *TuningService {
	return &TuningService{
		logger:     logger,
		Service:    orz.NewService(db),
		conf:       conf,
		taskRepo:   repo.NewTuningTaskRepo(db),
		resultRepo: repo.NewTuningResultRepo(db),
		backtest:   backtest,
		tg:         tg,
	}
}

// TuningRequest 调参任务请求
type TuningRequest struct {
	Strategy   string           `json:"strategy"`
	Code       string           `json:"code"`
	Interval   string           `json:"interval"`
	Start      time.Time        `json:"start"`
	End        time.Time        `json:"end"`
	BaseParams map[string]any   `json:"base_params"` // 所有组合共享的固定参数
	ParamGrid  map[string][]any `json:"param_grid"`  // 参数名 -> 候选值列表
}

// TaskView 任务详情
type TaskView struct {
	Task    models.TuningTask     `json:"task"`
	Results []models.TuningResult `json:"results"`
}

// Create 创建并异步启动调参任务
func (s *TuningService) Create(ctx context.Context, req TuningRequest) (*models.TuningTask, error) {
	if _, err := strategy.Get(req.Strategy); err != nil {
		return nil, xe.ErrUnknownStrategy
	}
	if len(req.ParamGrid) == 0 {
		return nil, xe.ErrEmptyParamGrid
	}

	combos := expandGrid(req.ParamGrid)
	if len(combos) > s.conf.MaxCombinations {
		return nil, xe.ErrGridTooLarge
	}

	grid := make(datatypes.JSONMap, len(req.ParamGrid))
	for k, v := range req.ParamGrid {
		grid[k] = v
	}

	task := &models.TuningTask{
		ID:         ulid.Make().String(),
		Strategy:   req.Strategy,
		Code:       req.Code,
		Interval:   req.Interval,
		StartTime:  req.Start,
		EndTime:    req.End,
		BaseParams: datatypes.JSONMap(req.BaseParams),
		ParamGrid:  grid,
		Status:     models.TuningStatusPending,
		Total:      len(combos),
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	// 任务在后台执行，生命周期不跟随请求
	go s.execute(context.Background(), task, req, combos)

	return task, nil
}

// execute 顺序执行全部参数组合，连续失败超过阈值则中断任务
func (s *TuningService) execute(ctx context.Context, task *models.TuningTask, req TuningRequest, combos []map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.conf.TimeoutHours)*time.Hour)
	defer cancel()

	if err := s.taskRepo.UpdateById(ctx, &models.TuningTask{ID: task.ID, Status: models.TuningStatusRunning}); err != nil {
		s.logger.Error("failed to mark tuning task running", zap.String("task_id", task.ID), zap.Error(err))
		return
	}

	s.logger.Info("tuning task started",
		zap.String("task_id", task.ID),
		zap.String("strategy", task.Strategy),
		zap.Int("combinations", len(combos)))

	bars, err := s.backtest.loadBars(ctx, RunRequest{
		Code: task.Code, Interval: task.Interval, Start: task.StartTime, End: task.EndTime,
	})
	if err != nil {
		s.fail(task.ID, err)
		return
	}

	var (
		progress    int
		consecutive int
		bestRunId   string
		bestReturn  float64
		hasBest     bool
	)

	for _, combo := range combos {
		if ctx.Err() != nil {
			s.fail(task.ID, fmt.Errorf("task timeout after %dh", s.conf.TimeoutHours))
			return
		}
		if consecutive >= s.conf.MaxFailures {
			s.fail(task.ID, fmt.Errorf("aborted after %d consecutive failures", consecutive))
			return
		}

		params := make(map[string]any, len(task.BaseParams)+len(combo))
		for k, v := range task.BaseParams {
			params[k] = v
		}
		for k, v := range combo {
			params[k] = v
		}

		run, err := s.backtest.RunWithBars(ctx, RunRequest{
			Strategy: task.Strategy,
			Code:     task.Code,
			Interval: task.Interval,
			Start:    task.StartTime,
			End:      task.EndTime,
			Params:   params,
		}, bars)
		if err != nil {
			consecutive++
			s.logger.Error("tuning combination failed",
				zap.String("task_id", task.ID),
				zap.Any("params", combo),
				zap.Int("consecutive_failures", consecutive),
				zap.Error(err))
			continue
		}
		consecutive = 0

		result := &models.TuningResult{
			TaskID:      task.ID,
			RunID:       run.ID,
			Params:      datatypes.JSONMap(combo),
			FinalReturn: run.FinalReturn,
			MaxDrawdown: run.MaxDrawdown,
			Sharpe:      run.Sharpe,
			WinRate:     run.WinRate,
			TradeCount:  run.TradeCount,
		}
		if err := s.resultRepo.Create(ctx, result); err != nil {
			s.logger.Error("failed to save tuning result",
				zap.String("task_id", task.ID), zap.Error(err))
		}

		if !hasBest || run.FinalReturn > bestReturn {
			hasBest = true
			bestReturn = run.FinalReturn
			bestRunId = run.ID
		}

		progress++
		if err := s.taskRepo.UpdateProgress(ctx, task.ID, progress); err != nil {
			s.logger.Warn("failed to update tuning progress",
				zap.String("task_id", task.ID), zap.Error(err))
		}
	}

	if err := s.taskRepo.Finish(ctx, task.ID, models.TuningStatusFinished, bestRunId, ""); err != nil {
		s.logger.Error("failed to finish tuning task", zap.String("task_id", task.ID), zap.Error(err))
		return
	}
	s.logger.Info("tuning task finished",
		zap.String("task_id", task.ID),
		zap.Int("completed", progress),
		zap.String("best_run_id", bestRunId))

	s.tg.Notify(fmt.Sprintf("调参任务完成 %s\n策略: %s %s %s\n组合: %d/%d\n最优收益率: %.2f%%\n最优回测: %s",
		task.ID, task.Strategy, task.Code, task.Interval,
		progress, len(combos), bestReturn*100, bestRunId))
}

func (s *TuningService) fail(taskId string, cause error) {
	s.logger.Error("tuning task failed", zap.String("task_id", taskId), zap.Error(cause))
	err := s.taskRepo.Finish(context.Background(), taskId, models.TuningStatusError, "", cause.Error())
	if err != nil {
		s.logger.Error("failed to mark tuning task error", zap.String("task_id", taskId), zap.Error(err))
	}
}

// Get 查询任务详情与全部组合结果
func (s *TuningService) Get(ctx context.Context, taskId string) (*TaskView, error) {
	task, err := s.taskRepo.FindById(ctx, taskId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrNotFound
		}
		return nil, err
	}
	results, err := s.resultRepo.FindByTaskId(ctx, taskId)
	if err != nil {
		return nil, err
	}
	return &TaskView{Task: task, Results: results}, nil
}

// Page 分页查询任务列表
func (s *TuningService) Page(ctx context.Context, pageIndex, pageSize int, status string) ([]models.TuningTask, int64, error) {
	return s.taskRepo.FindPage(ctx, pageIndex, pageSize, status)
}

// Delete 删除已结束的任务及其结果，组合产生的回测运行保留
func (s *TuningService) Delete(ctx context.Context, taskId string) error {
	task, err := s.taskRepo.FindById(ctx, taskId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return xe.ErrNotFound
		}
		return err
	}
	if !task.IsTerminal() {
		return xe.ErrTaskNotTerminal
	}

	return s.Transaction(ctx, func(ctx context.Context) error {
		if err := s.resultRepo.DeleteByTaskId(ctx, taskId); err != nil {
			return err
		}
		return s.taskRepo.DeleteById(ctx, taskId)
	})
}

// RecoverStale 启动时把 pending/running 状态的任务标记为失败
func (s *TuningService) RecoverStale(ctx context.Context) error {
	for _, status := range []models.TuningStatus{models.TuningStatusPending, models.TuningStatusRunning} {
		tasks, err := s.taskRepo.FindByStatus(ctx, status)
		if err != nil {
			return err
		}
		for _, task := range tasks {
			err := s.taskRepo.Finish(ctx, task.ID, models.TuningStatusError, "", "interrupted by restart")
			if err != nil {
				return err
			}
			s.logger.Warn("stale tuning task marked as error", zap.String("task_id", task.ID))
		}
	}
	return nil
}

// expandGrid 按参数名字典序展开笛卡尔积，组合顺序确定可复现
func expandGrid(grid map[string][]any) []map[string]any {
	keys := make([]string, 0, len(grid))
	for k := range grid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []map[string]any{{}}
	for _, key := range keys {
		values := grid[key]
		if len(values) == 0 {
			continue
		}
		next := make([]map[string]any, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, value := range values {
				merged := make(map[string]any, len(combo)+1)
				for k, v := range combo {
					merged[k] = v
				}
				merged[key] = value
				next = append(next, merged)
			}
		}
		combos = next
	}
	return combos
}
