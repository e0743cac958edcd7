package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist 令牌黑名单，以令牌ID为键
type Blacklist interface {
	// Add 将令牌加入黑名单，过期后自动移除
	Add(ctx context.Context, tokenID string, expireAt time.Time) error

	// IsBlacklisted 检查令牌是否在黑名单中
	IsBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

// Redis键前缀
const blacklistKeyPrefix = "jwt:blacklist:"

// RedisBlacklist Redis令牌黑名单
type RedisBlacklist struct {
	client *redis.Client
}

// NewRedisBlacklist 创建Redis令牌黑名单
func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{client: client}
}

// Add 将令牌加入黑名单
func (b *RedisBlacklist) Add(ctx context.Context, tokenID string, expireAt time.Time) error {
	duration := time.Until(expireAt)
	if duration <= 0 {
		return nil // 已过期的令牌无需添加
	}
	if err := b.client.Set(ctx, blacklistKeyPrefix+tokenID, "1", duration).Err(); err != nil {
		return fmt.Errorf("添加令牌到黑名单失败: %w", err)
	}
	return nil
}

// IsBlacklisted 检查令牌是否在黑名单中
func (b *RedisBlacklist) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
