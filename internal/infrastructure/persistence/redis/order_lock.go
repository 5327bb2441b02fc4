package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/compactstock/internal/domain/stock"
	apperrors "github.com/xiebiao/compactstock/pkg/errors"
)

// releaseScript 只删除自己持有的锁（值等于token时才DEL）
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OrderLock 基于Redis的订单级互斥锁
// SET key token NX PX ttl 加锁；Lua脚本比较token后删除
// ttl兜底：进程崩溃时锁自动过期
type OrderLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOrderLock 创建订单锁
func NewOrderLock(client *redis.Client, ttl time.Duration) *OrderLock {
	return &OrderLock{client: client, ttl: ttl}
}

var _ stock.OrderLocker = (*OrderLock)(nil)

func orderLockKey(orderID int64) string {
	return fmt.Sprintf("compactstock:order:%d", orderID)
}

// TryLock 尝试加锁，不等待
// acquired=false表示锁被其他处理持有
func (l *OrderLock) TryLock(ctx context.Context, orderID int64) (func(context.Context) error, bool, error) {
	key := orderLockKey(orderID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, apperrors.WithCode(err, apperrors.ErrCodeRedisError, "获取订单锁失败")
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return apperrors.WithCode(err, apperrors.ErrCodeRedisError, "释放订单锁失败")
		}
		return nil
	}
	return unlock, true, nil
}
