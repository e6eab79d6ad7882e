package handler

import (
	"context"
	"net/http"

	"github.com/dushixiang/cfsquant/internal/service"
	"github.com/dushixiang/cfsquant/internal/xe"
	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MarketHandler 行情数据HTTP处理器
type MarketHandler struct {
	logger        *zap.Logger
	marketService *service.MarketService
}

// NewMarketHandler 创建行情处理器
func NewMarketHandler(logger *zap.Logger, marketService *service.MarketService) *MarketHandler {
	return &MarketHandler{
		logger:        logger,
		marketService: marketService,
	}
}

// Candles 查询本地K线
// GET /api/market/candles
func (h *MarketHandler) Candles(c echo.Context) error {
	ctx := c.Request().Context()

	code := c.QueryParam("code")
	interval := c.QueryParam("interval")
	if code == "" || interval == "" {
		return xe.ErrInvalidParams
	}

	start, err := parseTime(c.QueryParam("start"))
	if err != nil {
		return xe.ErrInvalidParams
	}
	end, err := parseTime(c.QueryParam("end"))
	if err != nil {
		return xe.ErrInvalidParams
	}

	klines, err := h.marketService.Candles(ctx, code, interval, start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orz.Map{
		"items": klines,
		"total": len(klines),
	})
}

// Price 查询最新价格
// GET /api/market/price
func (h *MarketHandler) Price(c echo.Context) error {
	ctx := c.Request().Context()

	code := c.QueryParam("code")
	if code == "" {
		return xe.ErrInvalidParams
	}

	price, err := h.marketService.CurrentPrice(ctx, code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orz.Map{
		"code":  code,
		"price": price,
	})
}

// BackfillRequest 历史K线回补请求体
type BackfillRequest struct {
	Code     string `json:"code" validate:"required"`
	Interval string `json:"interval" validate:"required"`
	Start    string `json:"start" validate:"required"`
	End      string `json:"end" validate:"required"`
}

// Backfill 回补历史K线
// POST /api/market/backfill
func (h *MarketHandler) Backfill(c echo.Context) error {
	ctx := c.Request().Context()

	var req BackfillRequest
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

	count, err := h.marketService.Backfill(ctx, req.Code, req.Interval, start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orz.Map{"synced": count})
}

// Sync 立即触发一轮增量同步，同步在后台进行，不跟随请求生命周期
// POST /api/market/sync
func (h *MarketHandler) Sync(c echo.Context) error {
	go h.marketService.SyncAll(context.Background())
	return c.JSON(http.StatusOK, orz.Map{"status": "syncing"})
}

func (h *MarketHandler) RegisterRoutes(g *echo.Group) {
	market := g.Group("/market")
	market.GET("/candles", h.Candles)
	market.GET("/price", h.Price)
	market.POST("/backfill", h.Backfill)
	market.POST("/sync", h.Sync)
}
