package task

import (
	"context"
	"fmt"
	"time"

	"github.com/nsxzhou1114/movie-review-api/pkg/cache"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 常用表达式（带秒）
// "0 */5 * * * *"  每隔5分钟
// "0 0 * * * *"    每小时的开始
// "0 0 0 * * *"    每天凌晨

// rebuildTimeout 单次重建布隆过滤器的超时时间
const rebuildTimeout = 2 * time.Minute

// Scheduler 定时任务调度器
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.SugaredLogger
}

// NewScheduler 创建定时任务调度器，表达式按UTC解析
func NewScheduler(log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		logger: log,
	}
}

// AddBloomRebuild 注册影评布隆过滤器的定时重建任务
func (s *Scheduler) AddBloomRebuild(spec string, anchors *cache.ReviewAnchorCache, source cache.ReviewIDSource) error {
	job := BloomRebuildJob(anchors, source, s.logger)
	if _, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), rebuildTimeout)
		defer cancel()
		job(ctx)
	}); err != nil {
		return fmt.Errorf("注册布隆过滤器重建任务失败: %w", err)
	}
	return nil
}

// Start 启动调度器
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop 停止调度器并等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("等待定时任务结束超时")
	}
}

// BloomRebuildJob 返回重建影评布隆过滤器的任务函数
func BloomRebuildJob(anchors *cache.ReviewAnchorCache, source cache.ReviewIDSource, log *zap.SugaredLogger) func(ctx context.Context) {
	return func(ctx context.Context) {
		start := time.Now()
		n, err := anchors.Warm(ctx, source)
		if err != nil {
			log.Errorf("重建影评布隆过滤器失败: %v", err)
			return
		}
		log.Infof("重建影评布隆过滤器完成: count=%d, cost=%s", n, time.Since(start))
	}
}
