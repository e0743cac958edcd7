package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nsxzhou1114/movie-review-api/internal/apperr"
	"github.com/nsxzhou1114/movie-review-api/internal/model"
	"gorm.io/gorm"
)

// ReviewCommentStore 评论存储原语，不校验评论树结构
type ReviewCommentStore interface {
	Save(ctx context.Context, comment *model.ReviewComment) (*model.ReviewComment, error)
	FindByID(ctx context.Context, id int64) (*model.ReviewComment, bool, error)
	FindParentsByReview(ctx context.Context, reviewID int64, offset, limit int, order model.ReviewCommentSortOrder) ([]model.ReviewComment, error)
	FindChildren(ctx context.Context, groupID int64, offset, limit int) ([]model.ReviewComment, error)
	// UpdateContent 修改内容并置 updated=true；commentRef 非空时同时改写引用
	UpdateContent(ctx context.Context, id int64, content string, commentRef *int64) (*model.ReviewComment, bool, error)
	// AddLike 原子地调整点赞数，结果小于0时截断为0
	AddLike(ctx context.Context, id int64, delta int) (*model.ReviewComment, bool, error)
	// DeleteByID 删除评论，父评论连同其子评论一起删除
	DeleteByID(ctx context.Context, id int64) (int64, error)
	// DeleteTree 与 DeleteByID 相同，返回被删除的评论ID
	DeleteTree(ctx context.Context, id int64) ([]int64, error)
	// Tombstone 保留评论但替换内容，updated 置为 false
	Tombstone(ctx context.Context, id int64, notice string) (*model.ReviewComment, bool, error)
	CountParentsByReview(ctx context.Context, reviewID int64) (int64, error)
	CountChildren(ctx context.Context, groupID int64) (int64, error)
}

// IDGenerator 评论ID生成器
type IDGenerator interface {
	NextID() int64
}

// GormReviewCommentStore 基于gorm的评论存储
type GormReviewCommentStore struct {
	db  *gorm.DB
	ids IDGenerator
	now func() time.Time
}

// StoreOption 存储可选项
type StoreOption func(*GormReviewCommentStore)

// WithClock 替换时钟，测试中用于构造相同时间戳
func WithClock(now func() time.Time) StoreOption {
	return func(s *GormReviewCommentStore) {
		s.now = now
	}
}

// NewGormReviewCommentStore 创建评论存储
func NewGormReviewCommentStore(db *gorm.DB, ids IDGenerator, opts ...StoreOption) *GormReviewCommentStore {
	s := &GormReviewCommentStore{
		db:  db,
		ids: ids,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func checkPage(offset, limit int) error {
	if offset < 0 {
		return apperr.InvalidArgument("offset must not be negative, got %d", offset)
	}
	if limit <= 0 {
		return apperr.InvalidArgument("limit must be positive, got %d", limit)
	}
	return nil
}

// Save 分配评论ID与创建时间后写入
func (s *GormReviewCommentStore) Save(ctx context.Context, comment *model.ReviewComment) (*model.ReviewComment, error) {
	saved := *comment
	saved.CommentID = s.ids.NextID()
	// 与 MySQL datetime(3) 精度保持一致，读回的时间与返回值相等
	saved.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	if err := s.db.WithContext(ctx).Create(&saved).Error; err != nil {
		return nil, apperr.StorageFault("save review comment", err)
	}
	return &saved, nil
}

// FindByID 根据ID查询评论
func (s *GormReviewCommentStore) FindByID(ctx context.Context, id int64) (*model.ReviewComment, bool, error) {
	return findByID(s.db.WithContext(ctx), id)
}

func findByID(tx *gorm.DB, id int64) (*model.ReviewComment, bool, error) {
	var comment model.ReviewComment
	if err := tx.Where("comment_id = ?", id).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, apperr.StorageFault("find review comment", err)
	}
	return &comment, true, nil
}

// FindParentsByReview 分页查询影评下的父评论
func (s *GormReviewCommentStore) FindParentsByReview(ctx context.Context, reviewID int64, offset, limit int, order model.ReviewCommentSortOrder) ([]model.ReviewComment, error) {
	if err := checkPage(offset, limit); err != nil {
		return nil, err
	}

	var orderBy string
	switch order {
	case model.SortLatest:
		orderBy = "created_at DESC, comment_id DESC"
	case model.SortLike:
		orderBy = "likes DESC, comment_id DESC"
	default:
		return nil, apperr.InvalidArgument("unknown sort order %q", order)
	}

	comments := make([]model.ReviewComment, 0, limit)
	if err := s.db.WithContext(ctx).
		Where("review_id = ? AND group_id IS NULL", reviewID).
		Order(orderBy).
		Offset(offset).
		Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, apperr.StorageFault("find parent review comments", err)
	}
	return comments, nil
}

// FindChildren 按对话顺序分页查询子评论
func (s *GormReviewCommentStore) FindChildren(ctx context.Context, groupID int64, offset, limit int) ([]model.ReviewComment, error) {
	if err := checkPage(offset, limit); err != nil {
		return nil, err
	}

	comments := make([]model.ReviewComment, 0, limit)
	if err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at ASC, comment_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, apperr.StorageFault("find child review comments", err)
	}
	return comments, nil
}

// UpdateContent 修改评论内容
func (s *GormReviewCommentStore) UpdateContent(ctx context.Context, id int64, content string, commentRef *int64) (*model.ReviewComment, bool, error) {
	updates := map[string]interface{}{
		"content": content,
		"updated": true,
	}
	if commentRef != nil {
		updates["comment_ref"] = *commentRef
	}
	return s.updateAndReload(ctx, id, "update review comment", func(tx *gorm.DB) error {
		return tx.Model(&model.ReviewComment{}).Where("comment_id = ?", id).Updates(updates).Error
	})
}

// AddLike 调整点赞数，只接受 ±1
func (s *GormReviewCommentStore) AddLike(ctx context.Context, id int64, delta int) (*model.ReviewComment, bool, error) {
	if delta != 1 && delta != -1 {
		return nil, false, apperr.InvalidArgument("like delta must be +1 or -1, got %d", delta)
	}
	return s.updateAndReload(ctx, id, "add review comment like", func(tx *gorm.DB) error {
		return tx.Model(&model.ReviewComment{}).
			Where("comment_id = ?", id).
			UpdateColumn("likes", gorm.Expr("CASE WHEN likes + ? < 0 THEN 0 ELSE likes + ? END", delta, delta)).
			Error
	})
}

// Tombstone 将评论替换为删除提示
func (s *GormReviewCommentStore) Tombstone(ctx context.Context, id int64, notice string) (*model.ReviewComment, bool, error) {
	return s.updateAndReload(ctx, id, "tombstone review comment", func(tx *gorm.DB) error {
		return tx.Model(&model.ReviewComment{}).
			Where("comment_id = ?", id).
			Updates(map[string]interface{}{"content": notice, "updated": false}).
			Error
	})
}

// updateAndReload 在同一事务内确认存在、执行更新并读回
func (s *GormReviewCommentStore) updateAndReload(ctx context.Context, id int64, op string, update func(tx *gorm.DB) error) (*model.ReviewComment, bool, error) {
	var (
		result *model.ReviewComment
		found  bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if _, found, err = findByID(tx, id); err != nil || !found {
			return err
		}
		if err := update(tx); err != nil {
			return apperr.StorageFault(op, err)
		}
		result, found, err = findByID(tx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, apperr.ErrStorageFault) {
			return nil, false, err
		}
		return nil, false, apperr.StorageFault(op, err)
	}
	return result, found, nil
}

// DeleteByID 删除评论；目标是父评论时在同一事务内删除其全部子评论
func (s *GormReviewCommentStore) DeleteByID(ctx context.Context, id int64) (int64, error) {
	removed, err := s.DeleteTree(ctx, id)
	return int64(len(removed)), err
}

// DeleteTree 删除评论及其子评论，返回被删除的ID，子评论在前
func (s *GormReviewCommentStore) DeleteTree(ctx context.Context, id int64) ([]int64, error) {
	var removed []int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var childIDs []int64
		if err := tx.Model(&model.ReviewComment{}).
			Where("group_id = ?", id).
			Pluck("comment_id", &childIDs).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", id).Delete(&model.ReviewComment{}).Error; err != nil {
			return err
		}
		self := tx.Where("comment_id = ?", id).Delete(&model.ReviewComment{})
		if self.Error != nil {
			return self.Error
		}
		removed = childIDs
		if self.RowsAffected > 0 {
			removed = append(removed, id)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.StorageFault("delete review comment", err)
	}
	return removed, nil
}

// CountParentsByReview 统计影评下父评论数量
func (s *GormReviewCommentStore) CountParentsByReview(ctx context.Context, reviewID int64) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.ReviewComment{}).
		Where("review_id = ? AND group_id IS NULL", reviewID).
		Count(&total).Error; err != nil {
		return 0, apperr.StorageFault("count parent review comments", err)
	}
	return total, nil
}

// CountChildren 统计父评论下子评论数量
func (s *GormReviewCommentStore) CountChildren(ctx context.Context, groupID int64) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.ReviewComment{}).
		Where("group_id = ?", groupID).
		Count(&total).Error; err != nil {
		return 0, apperr.StorageFault("count child review comments", err)
	}
	return total, nil
}
