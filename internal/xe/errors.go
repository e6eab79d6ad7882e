package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams     = orz.NewError(10400, "参数无效")
	ErrNotFound          = orz.NewError(10404, "数据不存在")
	ErrCurrentNotAllowed = orz.NewError(10004, "当前不允许操作")

	ErrUnknownStrategy = orz.NewError(10100, "策略不存在")
	ErrNoKlineData     = orz.NewError(10101, "指定区间内没有K线数据")
	ErrTaskNotTerminal = orz.NewError(10102, "任务尚未结束，不能删除")
	ErrEmptyParamGrid  = orz.NewError(10103, "参数网格不能为空")
	ErrGridTooLarge    = orz.NewError(10104, "参数组合数量超过上限")
	ErrUnknownInterval = orz.NewError(10105, "不支持的K线周期")
)
