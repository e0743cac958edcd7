package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// ExistenceChecker 影评存在性查询
type ExistenceChecker interface {
	Exists(ctx context.Context, reviewID int64) (bool, error)
}

// ReviewIDSource 提供全部影评ID
type ReviewIDSource interface {
	ReviewIDs(ctx context.Context) ([]int64, error)
}

// ReviewAnchorCache 在影评存在性查询前加一层布隆过滤器
//
// 影评由其他服务创建，过滤器可能落后于数据库，因此过滤器判定不存在时仍查询下游确认，
// 确认存在的影评写回过滤器。同一影评的并发查询合并为一次。
type ReviewAnchorCache struct {
	next   ExistenceChecker
	filter BloomFilter
	group  singleflight.Group
	ready  atomic.Bool
	misses atomic.Int64
}

// NewReviewAnchorCache 创建影评存在性缓存
func NewReviewAnchorCache(next ExistenceChecker, filter BloomFilter) *ReviewAnchorCache {
	return &ReviewAnchorCache{
		next:   next,
		filter: filter,
	}
}

// Exists 影评是否存在
func (c *ReviewAnchorCache) Exists(ctx context.Context, reviewID int64) (bool, error) {
	key := strconv.FormatInt(reviewID, 10)

	stale := false
	if c.ready.Load() {
		maybe, err := c.filter.Test(ctx, key)
		if err != nil {
			return false, fmt.Errorf("check bloom filter failed: %w", err)
		}
		stale = !maybe
	}

	// 合并后的查询不随首个调用方取消
	lookupCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		return c.next.Exists(lookupCtx, reviewID)
	})
	if err != nil {
		return false, err
	}
	found := v.(bool)

	if stale && found {
		c.misses.Add(1)
		if err := c.filter.Add(ctx, key); err != nil {
			return true, fmt.Errorf("add review to bloom filter failed: %w", err)
		}
	}
	return found, nil
}

// Misses 过滤器判定不存在但数据库中存在的次数，用于评估重建间隔
func (c *ReviewAnchorCache) Misses() int64 {
	return c.misses.Load()
}

// Add 记录新建的影评
func (c *ReviewAnchorCache) Add(ctx context.Context, reviewID int64) error {
	return c.filter.Add(ctx, strconv.FormatInt(reviewID, 10))
}

// Load 从Redis恢复上次保存的过滤器，返回是否已就绪
func (c *ReviewAnchorCache) Load(ctx context.Context) (bool, error) {
	loaded, err := c.filter.LoadFromRedis(ctx)
	if err != nil {
		return false, err
	}
	if loaded {
		c.ready.Store(true)
	}
	return loaded, nil
}

// Warm 用全部影评ID重建过滤器并保存，返回写入的ID数量
func (c *ReviewAnchorCache) Warm(ctx context.Context, source ReviewIDSource) (int, error) {
	ids, err := source.ReviewIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list review ids failed: %w", err)
	}

	elements := make([]string, len(ids))
	for i, id := range ids {
		elements[i] = strconv.FormatInt(id, 10)
	}
	if err := c.filter.Rebuild(ctx, elements); err != nil {
		return 0, fmt.Errorf("rebuild bloom filter failed: %w", err)
	}
	c.ready.Store(true)

	if err := c.filter.SaveToRedis(ctx); err != nil {
		return len(ids), fmt.Errorf("save bloom filter failed: %w", err)
	}
	return len(ids), nil
}

// Ready 过滤器是否已就绪
func (c *ReviewAnchorCache) Ready() bool {
	return c.ready.Load()
}
