package mirror

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/xiebiao/compactstock/internal/domain/stock"
	"github.com/xiebiao/compactstock/pkg/metrics"
	"github.com/xiebiao/compactstock/pkg/tracing"
)

const tracerName = "compactstock/mirror"

// AdjustmentNotifier 调整提交后的通知（可选）
type AdjustmentNotifier interface {
	PublishAdjusted(ctx context.Context, orderID int64, status stock.StatusID, action stock.Action, adjustments []stock.Adjustment) error
}

// Option 可选配置
type Option func(*Handler)

// WithOrderLocker 启用订单级互斥锁
func WithOrderLocker(locker stock.OrderLocker) Option {
	return func(h *Handler) {
		h.locker = locker
	}
}

// WithNotifier 提交后发布调整事件
func WithNotifier(notifier AdjustmentNotifier) Option {
	return func(h *Handler) {
		h.notifier = notifier
	}
}

// WithDiagnostics 输出逐步诊断日志和库存不足告警
func WithDiagnostics(enabled bool) Option {
	return func(h *Handler) {
		h.diagnostics = enabled
	}
}

// Handler 对侧组合库存同步
//
// 处理流程：
//  1. 校验事件（非法事件不发任何查询）
//  2. 统计订单历史中的扣减状态记录数，决定扣减/归还/不处理
//  3. 读取订单明细，一次查询过滤出目标分类的商品
//  4. 在同一个事务里逐条明细：查对侧组合 → 读库存（仅用于告警）→ 相对更新
//  5. 任意一步数据库错误都回滚整单
//
// 所有失败都在内部吸收，Handle只返回是否已提交了调整
type Handler struct {
	history   stock.HistoryReader
	orders    stock.OrderReader
	catalog   stock.CatalogReader
	txManager stock.TxManager

	locker      stock.OrderLocker
	notifier    AdjustmentNotifier
	diagnostics bool

	logger *zap.Logger
	diag   *zap.Logger // 关闭诊断时为Nop
}

// NewHandler 创建库存同步处理器
func NewHandler(
	history stock.HistoryReader,
	orders stock.OrderReader,
	catalog stock.CatalogReader,
	txManager stock.TxManager,
	logger *zap.Logger,
	opts ...Option,
) *Handler {
	h := &Handler{
		history:   history,
		orders:    orders,
		catalog:   catalog,
		txManager: txManager,
		logger:    logger.Named("mirror"),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.diag = zap.NewNop()
	if h.diagnostics {
		h.diag = h.logger.Named("diagnostics")
	}
	return h
}

// Handle 处理订单状态变更，返回true表示已调整并提交
func (h *Handler) Handle(ctx context.Context, evt *stock.StatusChangeEvent) bool {
	return h.Execute(ctx, evt).Applied()
}

// Execute 处理订单状态变更并返回详细结果
func (h *Handler) Execute(ctx context.Context, evt *stock.StatusChangeEvent) (res *Result) {
	start := time.Now()
	res = &Result{Outcome: OutcomeNoAction}

	ctx, span := tracing.StartSpan(ctx, tracerName, "mirror.HandleOrderStatus")

	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomeFailed
			res.Adjustments = nil
			res.Err = fmt.Errorf("panic: %v", r)
			h.logger.Error("库存同步异常", zap.Any("panic", r), zap.Stack("stack"))
		}

		span.SetAttributes(
			attribute.String("mirror.action", res.Action.String()),
			attribute.String("mirror.outcome", string(res.Outcome)),
			attribute.Int("mirror.adjustments", len(res.Adjustments)),
		)
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
		}
		span.End()

		metrics.RecordMirrorEvent(res.Action.String(), string(res.Outcome), time.Since(start).Seconds())
		if res.Applied() {
			metrics.RecordAdjustments(res.Action.String(), len(res.Adjustments))
		}
	}()

	if err := evt.Validate(); err != nil {
		res.Outcome = OutcomeInvalid
		return res
	}
	span.SetAttributes(
		attribute.Int64("order.id", evt.OrderID),
		attribute.Int("order.status", int(evt.NewStatus.ID)),
	)

	log := h.logger.With(zap.Int64("order_id", evt.OrderID), zap.Int("status", int(evt.NewStatus.ID)))
	diag := h.diag.With(zap.Int64("order_id", evt.OrderID), zap.Int("status", int(evt.NewStatus.ID)))

	if h.locker != nil {
		unlock, acquired, err := h.locker.TryLock(ctx, evt.OrderID)
		if err != nil {
			res.fail(err)
			log.Error("获取订单锁失败", zap.Error(err))
			return res
		}
		if !acquired {
			res.Outcome = OutcomeLocked
			res.Err = stock.ErrOrderLocked
			log.Warn("订单正在被另一请求处理，跳过")
			return res
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				log.Warn("释放订单锁失败", zap.Error(err))
			}
		}()
	}

	h.run(ctx, evt, res, log, diag)

	if res.Applied() && h.notifier != nil {
		if err := h.notifier.PublishAdjusted(ctx, evt.OrderID, evt.NewStatus.ID, res.Action, res.Adjustments); err != nil {
			log.Warn("发布库存调整事件失败", zap.Error(err))
		}
	}
	return res
}

// run 决策和事务部分
func (h *Handler) run(ctx context.Context, evt *stock.StatusChangeEvent, res *Result, log, diag *zap.Logger) {
	prior, err := h.history.CountByStatuses(ctx, evt.OrderID, stock.ReducingStatuses)
	if err != nil {
		res.fail(err)
		log.Error("查询订单历史失败", zap.Error(err))
		return
	}

	res.Action = stock.Decide(evt.NewStatus.ID, prior)
	diag.Info("状态判定", zap.Int64("prior_reductions", prior), zap.Stringer("action", res.Action))
	if res.Action == stock.ActionNone {
		return
	}

	items, err := h.orders.ListLineItems(ctx, evt.OrderID)
	if err != nil {
		res.fail(err)
		log.Error("查询订单明细失败", zap.Error(err))
		return
	}
	if len(items) == 0 {
		diag.Info("订单没有明细")
		return
	}

	productIDs := stock.DistinctProductIDs(items)
	if len(productIDs) == 0 {
		diag.Info("订单明细没有有效商品")
		return
	}

	inCategory, err := h.catalog.FilterInCategory(ctx, productIDs, stock.TargetCategoryID)
	if err != nil {
		res.fail(err)
		log.Error("查询商品分类失败", zap.Error(err))
		return
	}

	targets := make([]stock.LineItem, 0, len(items))
	for _, it := range items {
		if inCategory[it.ProductID] {
			targets = append(targets, it)
		}
	}
	if len(targets) == 0 {
		diag.Info("订单中没有目标分类的商品", zap.Int64s("products", productIDs))
		return
	}

	var adjustments []stock.Adjustment
	err = h.txManager.Transaction(ctx, func(ctx context.Context, tx stock.Tx) error {
		adjustments = adjustments[:0]
		for _, it := range targets {
			adj, ok, err := h.mirrorItem(ctx, tx, res.Action, it, log, diag)
			if err != nil {
				return err
			}
			if ok {
				adjustments = append(adjustments, adj)
			}
		}
		return nil
	})
	if err != nil {
		res.fail(err)
		log.Error("对侧库存同步失败，已回滚", zap.Stringer("action", res.Action), zap.Error(err))
		return
	}

	if len(adjustments) == 0 {
		diag.Info("没有可调整的对侧组合")
		return
	}

	res.Outcome = OutcomeApplied
	res.Adjustments = adjustments
	log.Info("对侧库存已同步",
		zap.Stringer("action", res.Action),
		zap.Int("adjustments", len(adjustments)),
	)
}

// mirrorItem 调整单条明细对应的对侧组合
// ok=false表示该明细被跳过（数据不完整、没有对侧组合、库存记录不存在）
func (h *Handler) mirrorItem(ctx context.Context, tx stock.Tx, action stock.Action, it stock.LineItem, log, diag *zap.Logger) (stock.Adjustment, bool, error) {
	if !it.Valid() {
		diag.Info("明细数据不完整，跳过",
			zap.Int64("product_id", it.ProductID),
			zap.Int64("variant_id", it.VariantID),
			zap.Int("quantity", it.Quantity),
		)
		return stock.Adjustment{}, false, nil
	}

	sibling, found, err := tx.Variants().FindSibling(ctx, it.ProductID, it.VariantID, stock.BoxAttributes)
	if err != nil {
		return stock.Adjustment{}, false, err
	}
	if !found {
		diag.Info("没有对侧组合，跳过", zap.Int64("product_id", it.ProductID), zap.Int64("variant_id", it.VariantID))
		return stock.Adjustment{}, false, nil
	}

	before, known, err := tx.Levels().CurrentQuantity(ctx, it.ProductID, sibling)
	if err != nil {
		return stock.Adjustment{}, false, err
	}

	adj := stock.Adjustment{
		ProductID:          it.ProductID,
		PurchasedVariantID: it.VariantID,
		SiblingVariantID:   sibling,
		Delta:              action.Delta(it.Quantity),
		QuantityBefore:     before,
	}

	if action == stock.ActionReduce && known && before < it.Quantity {
		metrics.RecordLowStock()
		diag.Warn("对侧组合库存不足，库存将为负",
			zap.Int64("product_id", it.ProductID),
			zap.Int64("sibling_id", sibling),
			zap.Int("current", before),
			zap.Int("requested", it.Quantity),
		)
	}

	affected, err := tx.Levels().Adjust(ctx, it.ProductID, sibling, adj.Delta)
	if err != nil {
		return stock.Adjustment{}, false, err
	}
	if affected == 0 {
		log.Warn("对侧组合没有库存记录，未调整", zap.Int64("product_id", it.ProductID), zap.Int64("sibling_id", sibling))
		return stock.Adjustment{}, false, nil
	}

	diag.Info("对侧库存已调整",
		zap.Int64("product_id", it.ProductID),
		zap.Int64("sibling_id", sibling),
		zap.Int("delta", adj.Delta),
		zap.Int("before", adj.QuantityBefore),
		zap.Int("after", adj.QuantityAfter()),
	)
	return adj, true, nil
}
