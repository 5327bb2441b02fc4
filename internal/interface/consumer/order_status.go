package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/xiebiao/compactstock/internal/domain/stock"
	"github.com/xiebiao/compactstock/internal/interface/http/dto"
	"github.com/xiebiao/compactstock/pkg/mq"
)

// StatusChangeHandler 订单状态变更处理（mirror.Handler实现）
type StatusChangeHandler interface {
	Handle(ctx context.Context, evt *stock.StatusChangeEvent) bool
}

// OrderStatusListener 订阅 order.status.updated
// 消息体与HTTP钩子相同：{"id_order":12,"newOrderStatus":{"id":2}}
type OrderStatusListener struct {
	mirror StatusChangeHandler
	logger *zap.Logger
}

func NewOrderStatusListener(mirror StatusChangeHandler, logger *zap.Logger) *OrderStatusListener {
	return &OrderStatusListener{
		mirror: mirror,
		logger: logger.Named("consumer"),
	}
}

// HandleMessage 解码并处理一条消息
// 消息体无法解码时返回错误，由mq.Consumer拒绝且不重新入队；处理器的失败已在内部吸收，消息照常确认
//
// 处理器使用不可取消的ctx：停机时已取出的消息要处理完再确认，否则事务被取消回滚后消息仍会被Ack
func (l *OrderStatusListener) HandleMessage(ctx context.Context, body []byte) error {
	var req dto.OrderStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return fmt.Errorf("解析订单状态事件失败: %w", err)
	}
	evt := req.ToEvent()

	applied := l.mirror.Handle(context.WithoutCancel(ctx), evt)

	l.logger.Debug("订单状态事件已处理",
		zap.Int64("order_id", evt.OrderID),
		zap.Bool("applied", applied),
	)
	return nil
}

// Run 阻塞消费直到ctx取消，正在处理的消息会先处理完
func (l *OrderStatusListener) Run(ctx context.Context, consumer *mq.Consumer) error {
	l.logger.Info("订阅订单状态事件", zap.String("queue", consumer.Queue()))
	return consumer.Consume(ctx, l.HandleMessage)
}
