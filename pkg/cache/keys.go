package cache

import (
	"fmt"
	"time"
)

// 缓存键名
const (
	// 影评存在性布隆过滤器
	BloomFilterReviewKey = "bloom:review:exists"
	// 评论点赞用户集合
	ReviewCommentLikersKey = "review_comment:likers:%d"
)

// 缓存过期时间
const (
	BloomFilterExpiration = 24 * time.Hour
	// 点赞集合在最后一次操作后保留30天
	LikersExpiration = 30 * 24 * time.Hour
)

func likersKey(commentID int64) string {
	return fmt.Sprintf(ReviewCommentLikersKey, commentID)
}
