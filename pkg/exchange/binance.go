package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
)

// BinanceClient Binance期货API客户端，仅用于行情数据
type BinanceClient struct {
	client *futures.Client
}

// NewBinanceClient 创建Binance客户端
func NewBinanceClient(apiKey, secretKey, proxyURL string, testnet bool) *BinanceClient {
	var client *futures.Client
	if proxyURL != "" {
		client = futures.NewProxiedClient(apiKey, secretKey, proxyURL)
	} else {
		client = futures.NewClient(apiKey, secretKey)
	}

	if testnet {
		futures.UseTestnet = true
	}

	return &BinanceClient{client: client}
}

// Kline K线数据
type Kline struct {
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// GetKlines 获取最近 limit 根K线
func (b *BinanceClient) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*Kline, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}
	return convertKlines(klines), nil
}

// GetKlinesRange 按时间区间获取K线，单次最多1500根，调用方负责翻页
func (b *BinanceClient) GetKlinesRange(ctx context.Context, symbol string, interval string, start, end time.Time, limit int) ([]*Kline, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}
	return convertKlines(klines), nil
}

// GetCurrentPrice 获取最新标记价格
func (b *BinanceClient) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get price: %w", err)
	}
	if len(prices) == 0 {
		return 0, fmt.Errorf("no price data for %s", symbol)
	}
	price, _ := strconv.ParseFloat(prices[0].Price, 64)
	return price, nil
}

func convertKlines(klines []*futures.Kline) []*Kline {
	result := make([]*Kline, 0, len(klines))
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		result = append(result, &Kline{
			OpenTime:  time.Unix(k.OpenTime/1000, 0),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			CloseTime: time.Unix(k.CloseTime/1000, 0),
		})
	}
	return result
}
