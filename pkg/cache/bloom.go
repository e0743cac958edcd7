package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/redis/go-redis/v9"
)

// BloomFilter 布隆过滤器接口
type BloomFilter interface {
	// Add 添加元素
	Add(ctx context.Context, element string) error

	// Test 测试元素是否可能存在
	Test(ctx context.Context, element string) (bool, error)

	// Rebuild 用给定元素构建新过滤器并整体替换，替换前旧过滤器继续服务
	Rebuild(ctx context.Context, elements []string) error

	// SaveToRedis 保存到Redis
	SaveToRedis(ctx context.Context) error

	// LoadFromRedis 从Redis加载，Redis中没有数据时返回 false
	LoadFromRedis(ctx context.Context) (bool, error)
}

// RedisBloomFilter 内存布隆过滤器，可选地持久化到Redis
type RedisBloomFilter struct {
	filter    *bloom.BloomFilter
	redisKey  string
	client    *redis.Client
	mutex     sync.RWMutex
	capacity  uint    // 预期元素数量
	errorRate float64 // 误判率
}

// NewRedisBloomFilter 创建布隆过滤器，client 为 nil 时不做持久化
func NewRedisBloomFilter(client *redis.Client, redisKey string, capacity uint, errorRate float64) *RedisBloomFilter {
	return &RedisBloomFilter{
		filter:    bloom.NewWithEstimates(capacity, errorRate),
		redisKey:  redisKey,
		client:    client,
		capacity:  capacity,
		errorRate: errorRate,
	}
}

// Add 添加元素
func (bf *RedisBloomFilter) Add(ctx context.Context, element string) error {
	bf.mutex.Lock()
	defer bf.mutex.Unlock()

	bf.filter.AddString(element)
	return nil
}

// Test 测试元素是否可能存在
func (bf *RedisBloomFilter) Test(ctx context.Context, element string) (bool, error) {
	bf.mutex.RLock()
	defer bf.mutex.RUnlock()

	return bf.filter.TestString(element), nil
}

// Rebuild 重建布隆过滤器
func (bf *RedisBloomFilter) Rebuild(ctx context.Context, elements []string) error {
	capacity := bf.capacity
	if n := uint(len(elements)); n > capacity {
		capacity = n
	}
	filter := bloom.NewWithEstimates(capacity, bf.errorRate)
	for _, element := range elements {
		filter.AddString(element)
	}

	bf.mutex.Lock()
	bf.filter = filter
	bf.mutex.Unlock()
	return nil
}

// SaveToRedis 保存布隆过滤器到Redis
func (bf *RedisBloomFilter) SaveToRedis(ctx context.Context) error {
	if bf.client == nil {
		return nil
	}

	bf.mutex.RLock()
	data, err := bf.filter.GobEncode()
	bf.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("encode bloom filter failed: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return bf.client.Set(ctx, bf.redisKey, encoded, BloomFilterExpiration).Err()
}

// LoadFromRedis 从Redis加载布隆过滤器
func (bf *RedisBloomFilter) LoadFromRedis(ctx context.Context) (bool, error) {
	if bf.client == nil {
		return false, nil
	}

	encoded, err := bf.client.Get(ctx, bf.redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get bloom filter from redis failed: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false, fmt.Errorf("decode bloom filter data failed: %w", err)
	}

	filter := &bloom.BloomFilter{}
	if err := filter.GobDecode(data); err != nil {
		return false, fmt.Errorf("decode bloom filter failed: %w", err)
	}

	bf.mutex.Lock()
	bf.filter = filter
	bf.mutex.Unlock()
	return true, nil
}
