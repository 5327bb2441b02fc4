package mirror

import (
	"github.com/xiebiao/compactstock/internal/domain/stock"
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
)

// Outcome 处理结果分类（指标标签）
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"   // 已调整并提交
	OutcomeNoAction Outcome = "no_action" // 无需处理
	OutcomeInvalid  Outcome = "invalid"   // 事件不合法
	OutcomeFailed   Outcome = "failed"    // 失败，已回滚
	OutcomeLocked   Outcome = "locked"    // 同一订单正在处理
)

// Result 一次事件处理的结果
type Result struct {
	Outcome     Outcome
	Action      stock.Action
	Adjustments []stock.Adjustment
	Err         error
}

// Applied 是否已调整并提交
func (r *Result) Applied() bool {
	return r != nil && r.Outcome == OutcomeApplied
}

func (r *Result) fail(err error) {
	r.Outcome = OutcomeFailed
	r.Adjustments = nil
	r.Err = apperrors.WithCode(err, apperrors.ErrCodeStockSyncFailed, "对侧库存同步失败")
}
