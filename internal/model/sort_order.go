package model

import (
	"fmt"
	"strings"
)

// ReviewCommentSortOrder 父评论排序方式
type ReviewCommentSortOrder string

const (
	// SortLatest 最新：created_at 降序，comment_id 降序
	SortLatest ReviewCommentSortOrder = "LATEST"
	// SortLike 点赞最多：likes 降序，comment_id 降序
	SortLike ReviewCommentSortOrder = "LIKE"
)

// ParseSortOrder 解析排序参数，空字符串视为 LATEST
func ParseSortOrder(s string) (ReviewCommentSortOrder, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(SortLatest):
		return SortLatest, nil
	case string(SortLike):
		return SortLike, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}
