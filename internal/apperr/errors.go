// Package apperr 定义评论核心对外暴露的错误类型。
//
// 所有错误都包装其中一个哨兵错误，调用方使用 errors.Is 判断类别。
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNoReviewFound 影评不存在
	ErrNoReviewFound = errors.New("review not found")
	// ErrNoReviewCommentFound 评论不存在，或 groupId 指向的不是父评论
	ErrNoReviewCommentFound = errors.New("review comment not found")
	// ErrInvalidArgument 参数非法：空内容、分页参数越界、跨分组引用等
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorageFault 存储层故障，原样上抛，不在核心内重试
	ErrStorageFault = errors.New("storage fault")
	// ErrNotCommentOwner 非评论作者，由展示层在调用核心前检查
	ErrNotCommentOwner = errors.New("not comment owner")
)

// NoReviewFound 构造影评不存在错误
func NoReviewFound(reviewID int64) error {
	return fmt.Errorf("%w: review_id=%d", ErrNoReviewFound, reviewID)
}

// NoReviewCommentFound 构造评论不存在错误
func NoReviewCommentFound(commentID int64) error {
	return fmt.Errorf("%w: comment_id=%d", ErrNoReviewCommentFound, commentID)
}

// InvalidArgument 构造参数错误
func InvalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// StorageFault 包装存储层错误，保留原始错误链
func StorageFault(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageFault, err)
}
