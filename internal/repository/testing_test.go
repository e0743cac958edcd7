package repository

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/nsxzhou1114/movie-review-api/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接独立，限制为单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, model.InitTables(db))
	return db
}

type seqIDs struct {
	n int64
}

func (s *seqIDs) NextID() int64 {
	return atomic.AddInt64(&s.n, 1)
}

type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func newTestStore(t *testing.T, step time.Duration) (*GormReviewCommentStore, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	clock := &stepClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), step: step}
	return NewGormReviewCommentStore(db, &seqIDs{}, WithClock(clock.Now)), db
}
