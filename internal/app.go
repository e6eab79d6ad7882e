package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dushixiang/cfsquant/internal/config"
	"github.com/dushixiang/cfsquant/internal/handler"
	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/dushixiang/cfsquant/internal/service"
	"github.com/dushixiang/cfsquant/internal/telegram"
	"github.com/dushixiang/cfsquant/pkg/nostd"
	"github.com/dushixiang/cfsquant/web"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewQuantApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewQuantApp() orz.Application {
	return &QuantApp{}
}

var _ orz.Application = (*QuantApp)(nil)

type AppComponents struct {
	BacktestHandler *handler.BacktestHandler
	TuningHandler   *handler.TuningHandler
	MarketHandler   *handler.MarketHandler

	BacktestService *service.BacktestService
	TuningService   *service.TuningService
	MarketService   *service.MarketService

	tg *telegram.Telegram
}

type QuantApp struct {
	components *AppComponents
	conf       *config.Config
	cron       *cron.Cron
}

// GetComponents 获取应用组件
func (r *QuantApp) GetComponents() *AppComponents {
	return r.components
}

func (r *QuantApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}
	conf.Normalize()

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.Run{}, models.Trade{}, models.EquityPoint{}, models.Metric{},
		models.Kline{}, models.TuningTask{}, models.TuningResult{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().RequestURI
			if strings.HasPrefix(path, "/api") {
				return true
			}
			return false
		},
		Root:       "",
		Index:      "index.html",
		HTML5:      true,
		Browse:     false,
		IgnoreBase: false,
		Filesystem: http.FS(web.Assets()),
	}))

	api := e.Group("/api")
	{
		api.GET("/health", func(c echo.Context) error {
			return c.JSON(http.StatusOK, orz.Map{"status": "ok"})
		})
		r.components.BacktestHandler.RegisterRoutes(api)
		r.components.TuningHandler.RegisterRoutes(api)
		r.components.MarketHandler.RegisterRoutes(api)
	}

	return nil
}

func (r *QuantApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("cfsquant Backtest System Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	ctx := context.Background()

	// 上次进程异常退出时遗留的 running 记录推进到终态
	if err := components.BacktestService.RecoverStale(ctx); err != nil {
		return fmt.Errorf("failed to recover stale runs: %v", err)
	}
	if err := components.TuningService.RecoverStale(ctx); err != nil {
		return fmt.Errorf("failed to recover stale tuning tasks: %v", err)
	}

	if r.conf.Market.Enabled {
		c := cron.New()
		_, err := c.AddFunc(r.conf.Market.Cron, func() {
			components.MarketService.SyncAll(context.Background())
		})
		if err != nil {
			return fmt.Errorf("invalid market sync cron %q: %v", r.conf.Market.Cron, err)
		}
		c.Start()
		r.cron = c
		logger.Info("market sync scheduled",
			zap.String("cron", r.conf.Market.Cron),
			zap.Strings("codes", r.conf.Market.Codes),
			zap.Strings("intervals", r.conf.Market.Intervals))

		go components.MarketService.SyncAll(context.Background())
	}

	if components.tg != nil {
		go components.tg.Start()
	}

	return nil
}
