package config

type Config struct {
	Telegram TelegramConf `json:"telegram"`
	Binance  BinanceConf  `json:"binance"`
	Market   MarketConf   `json:"market"`
	Backtest BacktestConf `json:"backtest"`
	Tuning   TuningConf   `json:"tuning"`
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
}

type BinanceConf struct {
	APIKey   string `json:"api_key"`
	Secret   string `json:"secret"`
	ProxyURL string `json:"proxy_url"` // 代理地址，例如: http://127.0.0.1:7890
	Testnet  bool   `json:"testnet"`   // 是否使用测试网
}

type MarketConf struct {
	Enabled   bool     `json:"enabled"`   // 是否启用K线定时同步
	Codes     []string `json:"codes"`     // 同步的交易对，如 ["BTCUSDT", "ETHUSDT"]
	Intervals []string `json:"intervals"` // 同步的K线周期，如 ["1m", "1h", "1d"]
	Cron      string   `json:"cron"`      // 同步周期的 cron 表达式，默认每分钟
}

type BacktestConf struct {
	MaxConcurrent int `json:"max_concurrent"` // 同时运行的回测数上限，默认2
	TimeoutHours  int `json:"timeout_hours"`  // 单次回测超时时间（小时），默认12
}

type TuningConf struct {
	MaxCombinations int `json:"max_combinations"` // 单个任务的参数组合数上限，默认500
	MaxFailures     int `json:"max_failures"`     // 连续失败中断阈值，默认5
	TimeoutHours    int `json:"timeout_hours"`    // 任务超时时间（小时），默认12
}

// Normalize 填充默认值
func (c *Config) Normalize() {
	if c.Market.Cron == "" {
		c.Market.Cron = "@every 1m"
	}
	if c.Backtest.MaxConcurrent <= 0 {
		c.Backtest.MaxConcurrent = 2
	}
	if c.Backtest.TimeoutHours <= 0 {
		c.Backtest.TimeoutHours = 12
	}
	if c.Tuning.MaxCombinations <= 0 {
		c.Tuning.MaxCombinations = 500
	}
	if c.Tuning.MaxFailures <= 0 {
		c.Tuning.MaxFailures = 5
	}
	if c.Tuning.TimeoutHours <= 0 {
		c.Tuning.TimeoutHours = 12
	}
}
