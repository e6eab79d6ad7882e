package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/dushixiang/cfsquant/internal/config"
	"github.com/dushixiang/cfsquant/internal/models"
	"github.com/dushixiang/cfsquant/internal/service"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	dbFile       string
	strategyName string
	code         string
	interval     string
	startStr     string
	endStr       string
	paramsJSON   string
)

var rootCmd = &cobra.Command{
	Use:   "backtest",
	Short: "对本地K线数据执行一次回测并打印结果",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&dbFile, "db", "cfsquant.db", "sqlite 数据库文件路径")
	rootCmd.Flags().StringVar(&strategyName, "strategy", "", "策略名称")
	rootCmd.Flags().StringVar(&code, "code", "", "交易对，如 BTCUSDT")
	rootCmd.Flags().StringVar(&interval, "interval", "1h", "K线周期")
	rootCmd.Flags().StringVar(&startStr, "start", "", "回测起点")
	rootCmd.Flags().StringVar(&endStr, "end", "", "回测终点")
	rootCmd.Flags().StringVar(&paramsJSON, "params", "{}", "参数 JSON，引擎参数与策略参数混在一起传")

	_ = rootCmd.MarkFlagRequired("strategy")
	_ = rootCmd.MarkFlagRequired("code")
	_ = rootCmd.MarkFlagRequired("start")
	_ = rootCmd.MarkFlagRequired("end")
}

func run() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	start, err := parseTime(startStr)
	if err != nil {
		return fmt.Errorf("invalid start time: %v", err)
	}
	end, err := parseTime(endStr)
	if err != nil {
		return fmt.Errorf("invalid end time: %v", err)
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return fmt.Errorf("invalid params json: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(dbFile), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(
		models.Run{}, models.Trade{}, models.EquityPoint{}, models.Metric{}, models.Kline{},
	); err != nil {
		return fmt.Errorf("database auto migrate failed: %v", err)
	}

	conf := config.BacktestConf{MaxConcurrent: 1, TimeoutHours: 12}
	backtest := service.NewBacktestService(db, conf, nil, logger)

	run, err := backtest.Run(context.Background(), service.RunRequest{
		Strategy: strategyName,
		Code:     code,
		Interval: interval,
		Start:    start,
		End:      end,
		Params:   params,
	})
	if err != nil {
		return err
	}

	fmt.Printf("回测完成: %s\n", run.ID)
	fmt.Printf("  状态:       %s\n", run.Status)
	fmt.Printf("  期末净值:   %.2f\n", run.FinalCapital)
	fmt.Printf("  总收益率:   %.2f%%\n", run.FinalReturn*100)
	fmt.Printf("  最大回撤:   %.2f%%\n", run.MaxDrawdown*100)
	fmt.Printf("  夏普比率:   %.4f\n", run.Sharpe)
	fmt.Printf("  胜率:       %.2f%%\n", run.WinRate*100)
	fmt.Printf("  交易笔数:   %d\n", run.TradeCount)
	fmt.Printf("  累计手续费: %.2f\n", run.TotalFee)
	return nil
}

func parseTime(value string) (time.Time, error) {
	layouts := []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}
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

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
