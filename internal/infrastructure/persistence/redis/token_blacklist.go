package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/compactstock/pkg/errors"
)

// TokenBlacklist JWT吊销名单
// 设计说明：
// 1. JWT是无状态的，吊销只能靠服务端名单
// 2. Key：compactstock:blacklist:{jti}，过期时间等于Token剩余有效期，到期自动清理
type TokenBlacklist struct {
	client *redis.Client
}

// NewTokenBlacklist 创建吊销名单
func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

func blacklistKey(tokenID string) string {
	return "compactstock:blacklist:" + tokenID
}

// Revoke 吊销Token
// ttl<=0时Token已过期，无需记录
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, blacklistKey(tokenID), "revoked", ttl).Err(); err != nil {
		return apperrors.WithCode(err, apperrors.ErrCodeRedisError, "添加Token到黑名单失败")
	}
	return nil
}

// IsRevoked 检查Token是否已吊销
func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	exists, err := b.client.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		return false, apperrors.WithCode(err, apperrors.ErrCodeRedisError, "检查黑名单失败")
	}
	return exists > 0, nil
}
