package ta

import (
	"github.com/markcheno/go-talib"
)

// SMA 简单移动平均
func SMA(values []float64, period int) []float64 {
	return talib.Sma(values, period)
}

// EMA 指数移动平均
func EMA(values []float64, period int) []float64 {
	return talib.Ema(values, period)
}

// RSI 相对强弱指标
func RSI(values []float64, period int) []float64 {
	return talib.Rsi(values, period)
}

// MACD 返回 macd线、信号线、柱
func MACD(values []float64, fast, slow, signal int) ([]float64, []float64, []float64) {
	return talib.Macd(values, fast, slow, signal)
}

// ATR 真实波幅均值
func ATR(high, low, close []float64, period int) []float64 {
	return talib.Atr(high, low, close, period)
}

// BBands 布林带，返回上轨、中轨、下轨
func BBands(values []float64, period int, numStd float64) ([]float64, []float64, []float64) {
	return talib.BBands(values, period, numStd, numStd, talib.SMA)
}

// StdDev 滚动标准差
func StdDev(values []float64, period int, numStd float64) []float64 {
	return talib.StdDev(values, period, numStd)
}
