//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/dushixiang/cfsquant/pkg/exchange"
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dushixiang/cfsquant/internal/config"
	"github.com/dushixiang/cfsquant/internal/handler"
	"github.com/dushixiang/cfsquant/internal/service"
	"github.com/dushixiang/cfsquant/internal/telegram"
)

var (
	handlerSet = wire.NewSet(
		handler.NewBacktestHandler,
		handler.NewTuningHandler,
		handler.NewMarketHandler,
	)

	serviceSet = wire.NewSet(
		provideBinanceClient,
		provideMarketConf,
		provideBacktestConf,
		provideTuningConf,
		service.NewMarketService,
		service.NewBacktestService,
		service.NewTuningService,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		serviceSet,
		provideTelegram,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}

// provideTelegram provides telegram instance
func provideTelegram(logger *zap.Logger, conf *config.Config) *telegram.Telegram {
	if !conf.Telegram.Enabled {
		return nil
	}

	tg, err := telegram.NewTelegram(logger, conf.Telegram.Token, conf.Telegram.ChatID)
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}

// provideBinanceClient provides Binance client
func provideBinanceClient(conf *config.Config, logger *zap.Logger) *exchange.BinanceClient {
	client := exchange.NewBinanceClient(
		conf.Binance.APIKey,
		conf.Binance.Secret,
		conf.Binance.ProxyURL,
		conf.Binance.Testnet,
	)

	logger.Info("Binance client initialized",
		zap.Bool("testnet", conf.Binance.Testnet),
		zap.Bool("has_credentials", conf.Binance.APIKey != "" && conf.Binance.Secret != ""),
	)
	return client
}

func provideMarketConf(conf *config.Config) config.MarketConf {
	return conf.Market
}

func provideBacktestConf(conf *config.Config) config.BacktestConf {
	return conf.Backtest
}

func provideTuningConf(conf *config.Config) config.TuningConf {
	return conf.Tuning
}
