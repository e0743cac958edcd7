package model

import (
	"time"

	"github.com/google/uuid"
)

// Review 影评模型，评论服务只用它判断影评是否存在
type Review struct {
	ReviewID  int64     `gorm:"column:review_id;primaryKey" json:"review_id"`
	MovieID   string    `gorm:"column:movie_id;type:varchar(50);not null;index" json:"movie_id"`
	UserID    uuid.UUID `gorm:"column:user_id;type:char(36);not null;index" json:"user_id"`
	Title     string    `gorm:"column:title;type:varchar(50);not null" json:"title"`
	Content   string    `gorm:"column:content;type:longtext" json:"content"`
	Likes     int       `gorm:"column:likes;not null;default:0" json:"likes"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName 指定表名
func (Review) TableName() string {
	return "review"
}
