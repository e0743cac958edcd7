package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nsxzhou1114/movie-review-api/internal/config"
	"github.com/nsxzhou1114/movie-review-api/internal/database"
	"github.com/nsxzhou1114/movie-review-api/internal/logger"
	"github.com/nsxzhou1114/movie-review-api/internal/model"
	"github.com/nsxzhou1114/movie-review-api/internal/repository"
	"github.com/nsxzhou1114/movie-review-api/internal/service"
	"github.com/nsxzhou1114/movie-review-api/pkg/auth"
	"github.com/nsxzhou1114/movie-review-api/pkg/cache"
	"github.com/nsxzhou1114/movie-review-api/pkg/idgen"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// components 服务依赖的组件
type components struct {
	db       *gorm.DB
	redis    *redis.Client
	reviews  *repository.GormReviewAnchor
	anchors  *cache.ReviewAnchorCache
	comments *service.ReviewCommentService
	votes    *cache.RedisVoteTracker
	tokens   *auth.TokenManager
}

// initializeSystem 初始化配置与日志
func initializeSystem() error {
	if err := config.Init(configPath); err != nil {
		return fmt.Errorf("配置初始化失败: %v", err)
	}
	if err := logger.Init(); err != nil {
		return fmt.Errorf("日志初始化失败: %v", err)
	}
	return nil
}

// openDB 连接MySQL并初始化数据库表
func openDB() (*gorm.DB, error) {
	db := database.GetDB()
	if err := model.InitTables(db); err != nil {
		return nil, fmt.Errorf("初始化数据库表失败: %v", err)
	}
	return db, nil
}

// newAnchorCache 创建带布隆过滤器的影评存在性缓存
func newAnchorCache(reviews *repository.GormReviewAnchor, rdb *redis.Client, cfg *config.CacheConfig) *cache.ReviewAnchorCache {
	filter := cache.NewRedisBloomFilter(rdb, cache.BloomFilterReviewKey, cfg.BloomCapacity, cfg.BloomErrorRate)
	return cache.NewReviewAnchorCache(reviews, filter)
}

// newTokenManager 按配置创建令牌管理器
func newTokenManager(rdb *redis.Client, cfg *config.JWTConfig) *auth.TokenManager {
	expire := time.Duration(cfg.AccessExpireSeconds) * time.Second
	return auth.NewTokenManager(cfg.SecretKey, cfg.Issuer, expire, auth.NewRedisBlacklist(rdb))
}

// buildComponents 组装评论服务
func buildComponents(ctx context.Context) (*components, error) {
	cfg := config.GetConfig()
	log := logger.GetSugaredLogger()

	db, err := openDB()
	if err != nil {
		return nil, err
	}
	rdb := database.GetRedis()

	ids, err := idgen.New(cfg.Snowflake.Epoch, cfg.Snowflake.Node)
	if err != nil {
		return nil, err
	}

	reviews := repository.NewGormReviewAnchor(db)
	anchors := newAnchorCache(reviews, rdb, &cfg.Cache)
	loaded, err := anchors.Load(ctx)
	if err != nil {
		log.Warnf("加载影评布隆过滤器失败: %v", err)
	}
	if !loaded {
		n, err := anchors.Warm(ctx, reviews)
		if err != nil {
			log.Warnf("预热影评布隆过滤器失败: %v", err)
		} else {
			log.Infof("预热影评布隆过滤器完成: count=%d", n)
		}
	}

	filter := service.NewTextFilter()
	if n, err := filter.LoadWordsFile(cfg.Comment.SensitiveWordsFile, log); err != nil {
		return nil, fmt.Errorf("加载敏感词失败: %v", err)
	} else if n > 0 {
		log.Infof("加载敏感词完成: count=%d", n)
	}

	policy, err := service.ParseDeletePolicy(cfg.Comment.DeletePolicy)
	if err != nil {
		return nil, err
	}

	store := repository.NewGormReviewCommentStore(db, ids)
	comments := service.NewReviewCommentService(store, anchors, filter,
		service.WithDeletePolicy(policy, cfg.Comment.TombstoneContent),
		service.WithLogger(log),
	)

	return &components{
		db:       db,
		redis:    rdb,
		reviews:  reviews,
		anchors:  anchors,
		comments: comments,
		votes:    cache.NewRedisVoteTracker(rdb),
		tokens:   newTokenManager(rdb, &cfg.JWT),
	}, nil
}
