package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/nsxzhou1114/movie-review-api/internal/apperr"
	"github.com/nsxzhou1114/movie-review-api/internal/model"
	"github.com/nsxzhou1114/movie-review-api/internal/repository"
	"go.uber.org/zap"
)

// DeletePolicy 父评论删除策略
type DeletePolicy string

const (
	// DeleteCascade 删除父评论时一并删除其子评论
	DeleteCascade DeletePolicy = "cascade"
	// DeleteTombstone 有子评论的父评论保留为删除提示，子评论不受影响
	DeleteTombstone DeletePolicy = "tombstone"
)

// ParseDeletePolicy 解析删除策略，空字符串视为 cascade
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch DeletePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", DeleteCascade:
		return DeleteCascade, nil
	case DeleteTombstone:
		return DeleteTombstone, nil
	default:
		return "", fmt.Errorf("unknown delete policy %q", s)
	}
}

// ReviewCommentService 影评评论服务
type ReviewCommentService struct {
	store     repository.ReviewCommentStore
	anchor    repository.ReviewAnchor
	filter    ContentFilter
	policy    DeletePolicy
	tombstone string
	logger    *zap.SugaredLogger
}

// Option 服务可选项
type Option func(*ReviewCommentService)

// WithDeletePolicy 设置删除策略与删除提示文本
func WithDeletePolicy(policy DeletePolicy, tombstone string) Option {
	return func(s *ReviewCommentService) {
		s.policy = policy
		s.tombstone = tombstone
	}
}

// WithLogger 设置日志
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *ReviewCommentService) {
		s.logger = log
	}
}

// NewReviewCommentService 创建影评评论服务
func NewReviewCommentService(store repository.ReviewCommentStore, anchor repository.ReviewAnchor, filter ContentFilter, opts ...Option) *ReviewCommentService {
	s := &ReviewCommentService{
		store:     store,
		anchor:    anchor,
		filter:    filter,
		policy:    DeleteCascade,
		tombstone: "This comment has been deleted.",
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// pageOffset 页码换算为偏移量
func pageOffset(page, pageSize int) (int, error) {
	if page < 0 {
		return 0, apperr.InvalidArgument("page must not be negative, got %d", page)
	}
	if pageSize <= 0 {
		return 0, apperr.InvalidArgument("page size must be positive, got %d", pageSize)
	}
	if page > math.MaxInt32/pageSize {
		return 0, apperr.InvalidArgument("page %d out of range", page)
	}
	return page * pageSize, nil
}

func (s *ReviewCommentService) requireReview(ctx context.Context, reviewID int64) error {
	ok, err := s.anchor.Exists(ctx, reviewID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NoReviewFound(reviewID)
	}
	return nil
}

func (s *ReviewCommentService) requireComment(ctx context.Context, commentID int64) (*model.ReviewComment, error) {
	comment, found, err := s.store.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.NoReviewCommentFound(commentID)
	}
	return comment, nil
}

// requireGroup 查找影评下的父评论
func (s *ReviewCommentService) requireGroup(ctx context.Context, reviewID, groupID int64) (*model.ReviewComment, error) {
	group, err := s.requireComment(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.IsParent() || group.ReviewID != reviewID {
		return nil, apperr.NoReviewCommentFound(groupID)
	}
	return group, nil
}

func (s *ReviewCommentService) cleanContent(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", apperr.InvalidArgument("content must not be blank")
	}
	cleaned := s.filter.Clean(content)
	if strings.TrimSpace(cleaned) == "" {
		return "", apperr.InvalidArgument("content must not be blank")
	}
	return cleaned, nil
}

// GetParents 分页获取影评下的父评论
func (s *ReviewCommentService) GetParents(ctx context.Context, reviewID int64, order model.ReviewCommentSortOrder, page, pageSize int) ([]model.ReviewComment, error) {
	offset, err := pageOffset(page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.ListParents(ctx, reviewID, order, offset, pageSize)
}

// ListParents 按偏移量获取父评论
func (s *ReviewCommentService) ListParents(ctx context.Context, reviewID int64, order model.ReviewCommentSortOrder, offset, limit int) ([]model.ReviewComment, error) {
	if err := s.requireReview(ctx, reviewID); err != nil {
		return nil, err
	}
	return s.store.FindParentsByReview(ctx, reviewID, offset, limit, order)
}

// GetChildren 分页获取父评论下的子评论
func (s *ReviewCommentService) GetChildren(ctx context.Context, reviewID, groupID int64, page, pageSize int) ([]model.ReviewComment, error) {
	offset, err := pageOffset(page, pageSize)
	if err != nil {
		return nil, err
	}
	return s.ListChildren(ctx, reviewID, groupID, offset, pageSize)
}

// ListChildren 按偏移量获取子评论
func (s *ReviewCommentService) ListChildren(ctx context.Context, reviewID, groupID int64, offset, limit int) ([]model.ReviewComment, error) {
	if err := s.requireReview(ctx, reviewID); err != nil {
		return nil, err
	}
	if _, err := s.requireGroup(ctx, reviewID, groupID); err != nil {
		return nil, err
	}
	return s.store.FindChildren(ctx, groupID, offset, limit)
}

// CountParents 统计影评下父评论数量
func (s *ReviewCommentService) CountParents(ctx context.Context, reviewID int64) (int64, error) {
	if err := s.requireReview(ctx, reviewID); err != nil {
		return 0, err
	}
	return s.store.CountParentsByReview(ctx, reviewID)
}

// CountChildren 统计父评论下子评论数量
func (s *ReviewCommentService) CountChildren(ctx context.Context, reviewID, groupID int64) (int64, error) {
	if err := s.requireReview(ctx, reviewID); err != nil {
		return 0, err
	}
	if _, err := s.requireGroup(ctx, reviewID, groupID); err != nil {
		return 0, err
	}
	return s.store.CountChildren(ctx, groupID)
}

// AddParent 发表父评论
func (s *ReviewCommentService) AddParent(ctx context.Context, reviewID int64, authorID uuid.UUID, draft model.ReviewCommentDraft) (*model.ReviewComment, error) {
	if err := s.requireReview(ctx, reviewID); err != nil {
		return nil, err
	}
	content, err := s.cleanContent(draft.Content)
	if err != nil {
		return nil, err
	}

	saved, err := s.store.Save(ctx, &model.ReviewComment{
		ReviewID: reviewID,
		AuthorID: authorID,
		Content:  content,
	})
	if err != nil {
		s.logger.Errorf("保存父评论失败: review_id=%d, err=%v", reviewID, err)
		return nil, err
	}
	s.logger.Infof("发表父评论: review_id=%d, comment_id=%d", reviewID, saved.CommentID)
	return saved, nil
}

// AddChild 回复父评论，draft.CommentRef 可指向同组的另一条子评论
func (s *ReviewCommentService) AddChild(ctx context.Context, reviewID, groupID int64, authorID uuid.UUID, draft model.ReviewCommentDraft) (*model.ReviewComment, error) {
	if err := s.requireReview(ctx, reviewID); err != nil {
		return nil, err
	}
	if _, err := s.requireGroup(ctx, reviewID, groupID); err != nil {
		return nil, err
	}
	content, err := s.cleanContent(draft.Content)
	if err != nil {
		return nil, err
	}

	ref := groupID
	if draft.CommentRef != nil && *draft.CommentRef != groupID {
		if err := s.requireSibling(ctx, groupID, *draft.CommentRef); err != nil {
			return nil, err
		}
		ref = *draft.CommentRef
	}

	group := groupID
	saved, err := s.store.Save(ctx, &model.ReviewComment{
		ReviewID:   reviewID,
		AuthorID:   authorID,
		Content:    content,
		GroupID:    &group,
		CommentRef: &ref,
	})
	if err != nil {
		s.logger.Errorf("保存子评论失败: review_id=%d, group_id=%d, err=%v", reviewID, groupID, err)
		return nil, err
	}
	s.logger.Infof("回复评论: review_id=%d, group_id=%d, comment_id=%d", reviewID, groupID, saved.CommentID)
	return saved, nil
}

// requireSibling 引用必须是同组的子评论
func (s *ReviewCommentService) requireSibling(ctx context.Context, groupID, refID int64) error {
	ref, err := s.requireComment(ctx, refID)
	if err != nil {
		return err
	}
	if ref.GroupID == nil || *ref.GroupID != groupID {
		return apperr.NoReviewCommentFound(refID)
	}
	return nil
}

// Edit 修改评论内容，refID 非空时改写子评论的引用
func (s *ReviewCommentService) Edit(ctx context.Context, commentID int64, refID *int64, content string) (*model.ReviewComment, error) {
	cleaned, err := s.cleanContent(content)
	if err != nil {
		return nil, err
	}
	comment, err := s.requireComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if refID != nil {
		ref, err := s.requireComment(ctx, *refID)
		if err != nil {
			return nil, err
		}
		if comment.IsParent() {
			return nil, apperr.InvalidArgument("parent comment %d cannot reference another comment", commentID)
		}
		if ref.CommentID == commentID {
			return nil, apperr.InvalidArgument("comment %d cannot reference itself", commentID)
		}
		// 引用可以是父评论本身或同组的子评论
		if ref.CommentID != *comment.GroupID && (ref.GroupID == nil || *ref.GroupID != *comment.GroupID) {
			return nil, apperr.NoReviewCommentFound(*refID)
		}
	}

	updated, found, err := s.store.UpdateContent(ctx, commentID, cleaned, refID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.NoReviewCommentFound(commentID)
	}
	return updated, nil
}

// Delete 删除评论，父评论按配置的策略处理，返回被删除的评论ID
func (s *ReviewCommentService) Delete(ctx context.Context, commentID int64) ([]int64, error) {
	comment, err := s.requireComment(ctx, commentID)
	if err != nil {
		return nil, err
	}

	if s.policy == DeleteTombstone && comment.IsParent() {
		replies, err := s.store.CountChildren(ctx, commentID)
		if err != nil {
			return nil, err
		}
		if replies > 0 {
			if _, found, err := s.store.Tombstone(ctx, commentID, s.tombstone); err != nil {
				return nil, err
			} else if !found {
				return nil, apperr.NoReviewCommentFound(commentID)
			}
			s.logger.Infof("父评论保留为删除提示: comment_id=%d, replies=%d", commentID, replies)
			return nil, nil
		}
	}

	removed, err := s.store.DeleteTree(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return nil, apperr.NoReviewCommentFound(commentID)
	}
	s.logger.Infof("删除评论: comment_id=%d, deleted=%d", commentID, len(removed))
	return removed, nil
}

// Like 点赞
func (s *ReviewCommentService) Like(ctx context.Context, commentID int64) (*model.ReviewComment, error) {
	return s.addLike(ctx, commentID, 1)
}

// Unlike 取消点赞，点赞数不会小于0
func (s *ReviewCommentService) Unlike(ctx context.Context, commentID int64) (*model.ReviewComment, error) {
	return s.addLike(ctx, commentID, -1)
}

func (s *ReviewCommentService) addLike(ctx context.Context, commentID int64, delta int) (*model.ReviewComment, error) {
	comment, found, err := s.store.AddLike(ctx, commentID, delta)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperr.NoReviewCommentFound(commentID)
	}
	return comment, nil
}

// GetComment 获取影评下的一条评论
func (s *ReviewCommentService) GetComment(ctx context.Context, reviewID, commentID int64) (*model.ReviewComment, error) {
	comment, err := s.requireComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.ReviewID != reviewID {
		return nil, apperr.NoReviewCommentFound(commentID)
	}
	return comment, nil
}

// DoesUserOwnComment 用户是否为评论作者
func (s *ReviewCommentService) DoesUserOwnComment(ctx context.Context, reviewID, commentID int64, userID uuid.UUID) (bool, error) {
	comment, err := s.GetComment(ctx, reviewID, commentID)
	if err != nil {
		return false, err
	}
	return comment.AuthorID == userID, nil
}
