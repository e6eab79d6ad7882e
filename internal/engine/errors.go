package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig 回测参数非法，开跑前即拒绝
	ErrInvalidConfig = errors.New("engine: invalid config")

	// ErrDataOrder K线时间戳非严格递增或标的不匹配，回测终止
	ErrDataOrder = errors.New("engine: bar data out of order")

	// ErrLedgerInvariant 账本出现负现金或负持仓。
	// 所有交易量都已做过资金/持仓钳制，出现该错误意味着程序逻辑缺陷，
	// 因此作为断言上抛而不做任何恢复。
	ErrLedgerInvariant = errors.New("engine: ledger invariant violated")

	// ErrRunAborted 回测被上层取消，已产生的交易与净值记录仍然有效
	ErrRunAborted = errors.New("engine: run aborted")
)

// DataOrderError 携带出错K线上下文的数据顺序错误
type DataOrderError struct {
	Code   string
	Bar    Bar
	Reason string
}

func (e *DataOrderError) Error() string {
	return fmt.Sprintf("%v: %s (code=%s bar_code=%s datetime=%s)",
		ErrDataOrder, e.Reason, e.Code, e.Bar.Code, e.Bar.Datetime)
}

func (e *DataOrderError) Unwrap() error { return ErrDataOrder }
