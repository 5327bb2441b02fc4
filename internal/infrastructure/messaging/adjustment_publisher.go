package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/compactstock/internal/domain/stock"
	"github.com/xiebiao/compactstock/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
)

// MessagePublisher 消息发布能力（*mq.Publisher实现）
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, message interface{}) error
}

// SiblingAdjustedEvent 对侧库存已调整事件
type SiblingAdjustedEvent struct {
	EventID     string             `json:"event_id"`
	OrderID     int64              `json:"id_order"`
	Status      stock.StatusID     `json:"id_order_state"`
	Action      string             `json:"action"`
	Adjustments []stock.Adjustment `json:"adjustments"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// AdjustmentPublisher 在事务提交后广播调整结果
// 经过熔断器：RabbitMQ故障时快速失败，不拖慢钩子响应
type AdjustmentPublisher struct {
	publisher  MessagePublisher
	breaker    *circuitbreaker.CircuitBreaker
	routingKey string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewAdjustmentPublisher 创建调整事件发布者
func NewAdjustmentPublisher(publisher MessagePublisher, breaker *circuitbreaker.CircuitBreaker, routingKey string, logger *zap.Logger) *AdjustmentPublisher {
	breaker.SetStateChangeCallback(func(name string, from, to circuitbreaker.State) {
		logger.Warn("熔断器状态变化",
			zap.String("breaker", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	})

	return &AdjustmentPublisher{
		publisher:  publisher,
		breaker:    breaker,
		routingKey: routingKey,
		timeout:    3 * time.Second,
		logger:     logger,
	}
}

// PublishAdjusted 发布一次已提交的调整
func (p *AdjustmentPublisher) PublishAdjusted(ctx context.Context, orderID int64, status stock.StatusID, action stock.Action, adjustments []stock.Adjustment) error {
	evt := SiblingAdjustedEvent{
		EventID:     uuid.NewString(),
		OrderID:     orderID,
		Status:      status,
		Action:      action.String(),
		Adjustments: adjustments,
		OccurredAt:  time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.breaker.Execute(func() error {
		return p.publisher.Publish(ctx, p.routingKey, evt)
	})
	if err != nil {
		return apperrors.WithCode(err, apperrors.ErrCodeMQError, "发布库存调整事件失败")
	}

	p.logger.Debug("库存调整事件已发布",
		zap.String("event_id", evt.EventID),
		zap.Int64("order_id", orderID),
		zap.Int("adjustments", len(adjustments)),
	)
	return nil
}
