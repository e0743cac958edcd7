package repository

import (
	"context"

	"github.com/nsxzhou1114/movie-review-api/internal/apperr"
	"github.com/nsxzhou1114/movie-review-api/internal/model"
	"gorm.io/gorm"
)

// ReviewAnchor 判断影评是否存在
type ReviewAnchor interface {
	Exists(ctx context.Context, reviewID int64) (bool, error)
}

// ReviewIDSource 列出全部影评ID，用于预热布隆过滤器
type ReviewIDSource interface {
	ReviewIDs(ctx context.Context) ([]int64, error)
}

// GormReviewAnchor 基于影评表的存在性检查
type GormReviewAnchor struct {
	db *gorm.DB
}

// NewGormReviewAnchor 创建影评存在性检查
func NewGormReviewAnchor(db *gorm.DB) *GormReviewAnchor {
	return &GormReviewAnchor{db: db}
}

// Exists 影评是否存在
func (a *GormReviewAnchor) Exists(ctx context.Context, reviewID int64) (bool, error) {
	var count int64
	if err := a.db.WithContext(ctx).Model(&model.Review{}).
		Where("review_id = ?", reviewID).
		Count(&count).Error; err != nil {
		return false, apperr.StorageFault("check review existence", err)
	}
	return count > 0, nil
}

// ReviewIDs 获取全部影评ID
func (a *GormReviewAnchor) ReviewIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := a.db.WithContext(ctx).Model(&model.Review{}).Pluck("review_id", &ids).Error; err != nil {
		return nil, apperr.StorageFault("list review ids", err)
	}
	return ids, nil
}
