package stock

import (
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
)

// 库存同步领域错误定义
var (
	// ErrInvalidEvent 订单状态事件不合法
	ErrInvalidEvent = apperrors.New(apperrors.ErrCodeInvalidEvent, "订单状态事件不合法")

	// ErrSyncFailed 同步失败，事务已回滚
	ErrSyncFailed = apperrors.New(apperrors.ErrCodeStockSyncFailed, "对侧库存同步失败")

	// ErrOrderLocked 同一订单正在被处理
	ErrOrderLocked = apperrors.New(apperrors.ErrCodeOrderLocked, "订单正在处理中")
)
