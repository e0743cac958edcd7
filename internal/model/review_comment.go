package model

import (
	"time"

	"github.com/google/uuid"
)

// ReviewComment 影评评论模型
//
// 评论树只有两层：GroupID 为空的是父评论，否则是挂在 GroupID 对应父评论下的子评论。
// GroupID 与 CommentRef 同时为空或同时不为空。
type ReviewComment struct {
	CommentID  int64     `gorm:"column:comment_id;primaryKey;autoIncrement:false;index:idx_review_group_created,priority:4;index:idx_review_group_likes,priority:4;index:idx_group_created,priority:3" json:"comment_id"`
	ReviewID   int64     `gorm:"column:review_id;not null;index:idx_review_group_created,priority:1;index:idx_review_group_likes,priority:1" json:"review_id"`
	AuthorID   uuid.UUID `gorm:"column:author_id;type:char(36);not null" json:"author_id"`
	Content    string    `gorm:"column:content;type:text;not null" json:"content"`
	GroupID    *int64    `gorm:"column:group_id;index:idx_review_group_created,priority:2;index:idx_review_group_likes,priority:2;index:idx_group_created,priority:1" json:"group_id"`
	CommentRef *int64    `gorm:"column:comment_ref" json:"comment_ref"`
	Likes      int       `gorm:"column:likes;not null;default:0;index:idx_review_group_likes,priority:3" json:"likes"`
	CreatedAt  time.Time `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_review_group_created,priority:3;index:idx_group_created,priority:2" json:"created_at"`
	Updated    bool      `gorm:"column:updated;not null;default:false" json:"updated"`
}

// TableName 指定表名
func (ReviewComment) TableName() string {
	return "review_comment"
}

// IsParent 是否为父评论
func (c *ReviewComment) IsParent() bool {
	return c.GroupID == nil
}

// ReviewCommentDraft 客户端提交的评论草稿
//
// 除 Content 和 CommentRef 外的字段都会在服务层被规范化丢弃。
type ReviewCommentDraft struct {
	CommentID  int64
	Content    string
	GroupID    *int64
	CommentRef *int64
	Likes      int
	CreatedAt  time.Time
	Updated    bool
}
