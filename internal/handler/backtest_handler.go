package handler

import (
	"net/http"
	"time"

	"github.com/dushixiang/cfsquant/internal/service"
	"github.com/dushixiang/cfsquant/internal/strategy"
	"github.com/dushixiang/cfsquant/internal/xe"
	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// BacktestHandler 回测HTTP处理器
type BacktestHandler struct {
	logger          *zap.Logger
	backtestService *service.BacktestService
}

// NewBacktestHandler 创建回测处理器
func NewBacktestHandler(logger *zap.Logger, backtestService *service.BacktestService) *BacktestHandler {
	return &BacktestHandler{
		logger:          logger,
		backtestService: backtestService,
	}
}

// BacktestRequest 回测请求体
type BacktestRequest struct {
	Strategy string         `json:"strategy" validate:"required"`
	Code     string         `json:"code" validate:"required"`
	Interval string         `json:"interval" validate:"required"`
	Start    string         `json:"start" validate:"required"`
	End      string         `json:"end" validate:"required"`
	Params   map[string]any `json:"params"`
}

// Run 执行回测
// POST /api/backtest
func (h *BacktestHandler) Run(c echo.Context) error {
	ctx := c.Request().Context()

	var req BacktestRequest
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return xe.ErrInvalidParams
	}

	start, err := parseTime(req.Start)
	if err != nil {
		return xe.ErrInvalidParams
	}
	end, err := parseTime(req.End)
	if err != nil {
		return xe.ErrInvalidParams
	}
	if !start.Before(end) {
		return xe.ErrInvalidParams
	}

	run, err := h.backtestService.Run(ctx, service.RunRequest{
		Strategy: req.Strategy,
		Code:     req.Code,
		Interval: req.Interval,
		Start:    start,
		End:      end,
		Params:   req.Params,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orz.Map{
		"backtest_id": run.ID,
		"status":      run.Status,
	})
}

// Results 查询回测结果详情
// GET /api/backtest/:id/results
func (h *BacktestHandler) Results(c echo.Context) error {
	ctx := c.Request().Context()

	view, err := h.backtestService.GetResult(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Runs 分页查询回测列表
// GET /api/backtest/runs
func (h *BacktestHandler) Runs(c echo.Context) error {
	ctx := c.Request().Context()

	pageIndex := cast.ToInt(c.QueryParam("pageIndex"))
	pageSize := cast.ToInt(c.QueryParam("pageSize"))
	if pageIndex <= 0 {
		pageIndex = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}

	runs, total, err := h.backtestService.Page(ctx, pageIndex, pageSize,
		c.QueryParam("strategy"), c.QueryParam("code"), c.QueryParam("status"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orz.Map{
		"items": runs,
		"total": total,
	})
}

// Abort 中止运行中的回测
// POST /api/backtest/:id/abort
func (h *BacktestHandler) Abort(c echo.Context) error {
	if err := h.backtestService.Abort(c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orz.Map{"status": "aborting"})
}

// Delete 删除回测及其产物
// DELETE /api/backtest/:id
func (h *BacktestHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.backtestService.Delete(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orz.Map{"status": "deleted"})
}

// Strategies 列出全部内置策略及其默认参数
// GET /api/strategies
func (h *BacktestHandler) Strategies(c echo.Context) error {
	rows := make([]orz.Map, 0)
	for _, name := range strategy.Names() {
		s, err := strategy.Get(name)
		if err != nil {
			continue
		}
		rows = append(rows, orz.Map{
			"name":           s.Name(),
			"default_params": s.DefaultParams(),
		})
	}
	return c.JSON(http.StatusOK, orz.Map{"rows": rows})
}

// parseTime 解析请求中的时间，兼容 RFC3339 与常见日期格式
func parseTime(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func (h *BacktestHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/strategies", h.Strategies)

	backtest := g.Group("/backtest")
	backtest.POST("", h.Run)
	backtest.GET("/runs", h.Runs)
	backtest.GET("/:id/results", h.Results)
	backtest.POST("/:id/abort", h.Abort)
	backtest.DELETE("/:id", h.Delete)
}
