package handler

import (
	"net/http"

	"github.com/dushixiang/cfsquant/internal/service"
	"github.com/dushixiang/cfsquant/internal/xe"
	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// TuningHandler 调参任务HTTP处理器
type TuningHandler struct {
	logger        *zap.Logger
	tuningService *service.TuningService
}

// NewTuningHandler 创建调参处理器
func NewTuningHandler(logger *zap.Logger, tuningService *service.TuningService) *TuningHandler {
	return &TuningHandler{
		logger:        logger,
		tuningService: tuningService,
	}
}

// TuningCreateRequest 创建调参任务请求体
type TuningCreateRequest struct {
	Strategy   string           `json:"strategy" validate:"required"`
	Code       string           `json:"code" validate:"required"`
	Interval   string           `json:"interval" validate:"required"`
	Start      string           `json:"start" validate:"required"`
	End        string           `json:"end" validate:"required"`
	BaseParams map[string]any   `json:"base_params"`
	ParamGrid  map[string][]any `json:"param_grid" validate:"required"`
}

// Create 创建并启动调参任务
// POST /api/tuning
func (h *TuningHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req TuningCreateRequest
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

	task, err := h.tuningService.Create(ctx, service.TuningRequest{
		Strategy:   req.Strategy,
		Code:       req.Code,
		Interval:   req.Interval,
		Start:      start,
		End:        end,
		BaseParams: req.BaseParams,
		ParamGrid:  req.ParamGrid,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orz.Map{
		"task_id": task.ID,
		"total":   task.Total,
		"status":  task.Status,
	})
}

// List 分页查询任务列表
// GET /api/tuning
func (h *TuningHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	pageIndex := cast.ToInt(c.QueryParam("pageIndex"))
	pageSize := cast.ToInt(c.QueryParam("pageSize"))
	if pageIndex <= 0 {
		pageIndex = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}

	tasks, total, err := h.tuningService.Page(ctx, pageIndex, pageSize, c.QueryParam("status"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orz.Map{
		"items": tasks,
		"total": total,
	})
}

// Get 查询任务详情与全部组合结果
// GET /api/tuning/:id
func (h *TuningHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	view, err := h.tuningService.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Delete 删除已结束的任务
// DELETE /api/tuning/:id
func (h *TuningHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.tuningService.Delete(ctx, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orz.Map{"status": "deleted"})
}

func (h *TuningHandler) RegisterRoutes(g *echo.Group) {
	tuning := g.Group("/tuning")
	tuning.POST("", h.Create)
	tuning.GET("", h.List)
	tuning.GET("/:id", h.Get)
	tuning.DELETE("/:id", h.Delete)
}
