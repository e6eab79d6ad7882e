package engine

import "time"

// signalCursor 按时间顺序消费信号序列。
// Resolve 返回时间戳 <= 当前K线的最新一条信号；首条信号之前视为空仓。
type signalCursor struct {
	signals []Signal
	idx     int
	active  *Signal
}

func newSignalCursor(signals []Signal) *signalCursor {
	return &signalCursor{signals: signals, idx: 0}
}

// Resolve 推进游标到 barTime，返回当前生效的信号（可能为 nil）
func (c *signalCursor) Resolve(barTime time.Time) *Signal {
	for c.idx < len(c.signals) && !c.signals[c.idx].Datetime.After(barTime) {
		c.active = &c.signals[c.idx]
		c.idx++
	}
	return c.active
}
