package stock

// StatusID 订单状态ID（宿主平台order_state表主键）
type StatusID int

const (
	StatusPaymentAccepted StatusID = 2 // 已付款
	StatusProcessing      StatusID = 3 // 备货中
	StatusShipped         StatusID = 4 // 已发货
	StatusCancelled       StatusID = 6 // 已取消
	StatusRefunded        StatusID = 7 // 已退款
	StatusPaymentError    StatusID = 8 // 付款失败
)

var (
	// ReducingStatuses 进入这些状态时扣减对侧库存
	ReducingStatuses = []StatusID{StatusPaymentAccepted, StatusProcessing, StatusShipped}

	// RestoringStatuses 进入这些状态时归还对侧库存
	RestoringStatuses = []StatusID{StatusCancelled, StatusRefunded, StatusPaymentError}
)

// IsReducing 是否为扣减状态
func (s StatusID) IsReducing() bool {
	return contains(ReducingStatuses, s)
}

// IsRestoring 是否为归还状态
func (s StatusID) IsRestoring() bool {
	return contains(RestoringStatuses, s)
}

func contains(set []StatusID, s StatusID) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Action 本次状态变更需要执行的库存动作
type Action int

const (
	ActionNone Action = iota
	ActionReduce
	ActionRestore
)

// String 实现Stringer接口（日志、指标标签）
func (a Action) String() string {
	switch a {
	case ActionReduce:
		return "reduce"
	case ActionRestore:
		return "restore"
	default:
		return "none"
	}
}

// Delta 将购买数量换算成对侧库存的变化量
func (a Action) Delta(quantity int) int {
	switch a {
	case ActionReduce:
		return -quantity
	case ActionRestore:
		return quantity
	default:
		return 0
	}
}

// Decide 根据新状态和历史扣减记录数决定动作
//
// 规则：
// 1. 新状态属于扣减集合，且历史上从未进入过扣减状态 → 扣减（每个订单最多一次）
// 2. 新状态属于归还集合，且历史上进入过扣减状态 → 归还
// 3. 其他情况不处理
//
// priorReductionCount 只统计宿主order_history表中已有的记录，
// 本次状态尚未写入历史表。
func Decide(newStatus StatusID, priorReductionCount int64) Action {
	switch {
	case newStatus.IsReducing() && priorReductionCount == 0:
		return ActionReduce
	case newStatus.IsRestoring() && priorReductionCount > 0:
		return ActionRestore
	default:
		return ActionNone
	}
}
