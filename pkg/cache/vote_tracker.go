package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// VoteTracker 记录用户对评论的点赞状态
type VoteTracker interface {
	// MarkLiked 记录点赞，用户此前未点赞时返回 true
	MarkLiked(ctx context.Context, commentID int64, userID string) (bool, error)
	// UnmarkLiked 取消点赞记录，用户此前已点赞时返回 true
	UnmarkLiked(ctx context.Context, commentID int64, userID string) (bool, error)
	// HasLiked 用户是否已点赞
	HasLiked(ctx context.Context, commentID int64, userID string) (bool, error)
	// Forget 删除评论的全部点赞记录
	Forget(ctx context.Context, commentIDs ...int64) error
}

// RedisVoteTracker 每条评论一个Redis集合
type RedisVoteTracker struct {
	client *redis.Client
}

// NewRedisVoteTracker 创建点赞记录
func NewRedisVoteTracker(client *redis.Client) *RedisVoteTracker {
	return &RedisVoteTracker{client: client}
}

// MarkLiked 记录点赞
func (t *RedisVoteTracker) MarkLiked(ctx context.Context, commentID int64, userID string) (bool, error) {
	key := likersKey(commentID)
	var added *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.SAdd(ctx, key, userID)
		pipe.Expire(ctx, key, LikersExpiration)
		return nil
	})
	if err != nil {
		return false, err
	}
	return added.Val() == 1, nil
}

// UnmarkLiked 取消点赞记录
func (t *RedisVoteTracker) UnmarkLiked(ctx context.Context, commentID int64, userID string) (bool, error) {
	removed, err := t.client.SRem(ctx, likersKey(commentID), userID).Result()
	if err != nil {
		return false, err
	}
	return removed == 1, nil
}

// HasLiked 用户是否已点赞
func (t *RedisVoteTracker) HasLiked(ctx context.Context, commentID int64, userID string) (bool, error) {
	return t.client.SIsMember(ctx, likersKey(commentID), userID).Result()
}

// Forget 删除点赞记录
func (t *RedisVoteTracker) Forget(ctx context.Context, commentIDs ...int64) error {
	if len(commentIDs) == 0 {
		return nil
	}
	keys := make([]string, len(commentIDs))
	for i, id := range commentIDs {
		keys[i] = likersKey(id)
	}
	return t.client.Del(ctx, keys...).Err()
}
