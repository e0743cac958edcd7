package dto

import (
	"github.com/nsxzhou1114/movie-review-api/internal/model"
)

// 评论ID由雪花算法生成，超出 JavaScript 安全整数范围，序列化为字符串

// ReviewCommentCreateRequest 发表评论请求，GroupID 为空时发表父评论
type ReviewCommentCreateRequest struct {
	Content    string `json:"content" binding:"required,max=2000"`
	GroupID    *int64 `json:"group_id,string"`
	CommentRef *int64 `json:"comment_ref,string"`
}

// ReviewCommentUpdateRequest 修改评论请求
type ReviewCommentUpdateRequest struct {
	Content    string `json:"content" binding:"required,max=2000"`
	CommentRef *int64 `json:"comment_ref,string"`
}

// ReviewCommentListRequest 评论列表请求，page 从0开始
type ReviewCommentListRequest struct {
	Sort string `form:"sort" binding:"omitempty"`
	Page int    `form:"page" binding:"omitempty,min=0"`
	Size int    `form:"size" binding:"omitempty,min=1"`
}

// ReviewCommentResponse 评论响应
type ReviewCommentResponse struct {
	CommentID   int64  `json:"comment_id,string"`
	ReviewID    int64  `json:"review_id"`
	AuthorID    string `json:"author_id"`
	Content     string `json:"content"`      // 原文
	ContentHTML string `json:"content_html"` // 转义后的HTML，可直接嵌入页面
	GroupID     *int64 `json:"group_id,string"`
	CommentRef  *int64 `json:"comment_ref,string"`
	Likes       int    `json:"likes"`
	CreatedAt   string `json:"created_at"`
	Updated     bool   `json:"updated"`
}

// CommentPage 分页响应，HasNext 由多读一条判断，不依赖总数
type CommentPage struct {
	Content []ReviewCommentResponse `json:"content"`
	Page    int                     `json:"page"`
	Size    int                     `json:"size"`
	HasNext bool                    `json:"has_next"`
}

// ReviewCommentLikeResponse 点赞切换响应
type ReviewCommentLikeResponse struct {
	Liked   bool                  `json:"liked"`
	Comment ReviewCommentResponse `json:"comment"`
}

// ReviewCommentCountResponse 评论数量响应
type ReviewCommentCountResponse struct {
	Total int64 `json:"total"`
}

const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

// NewReviewCommentResponse 转换评论
func NewReviewCommentResponse(c *model.ReviewComment) ReviewCommentResponse {
	return ReviewCommentResponse{
		CommentID:   c.CommentID,
		ReviewID:    c.ReviewID,
		AuthorID:    c.AuthorID.String(),
		Content:     c.Content,
		ContentHTML: RenderContentHTML(c.Content),
		GroupID:     c.GroupID,
		CommentRef:  c.CommentRef,
		Likes:       c.Likes,
		CreatedAt:   c.CreatedAt.UTC().Format(createdAtLayout),
		Updated:     c.Updated,
	}
}

// NewCommentPage 构造分页响应，records 最多比 size 多一条，多出的一条只用于判断是否有下一页
func NewCommentPage(records []model.ReviewComment, page, size int) CommentPage {
	hasNext := len(records) > size
	if hasNext {
		records = records[:size]
	}

	content := make([]ReviewCommentResponse, 0, len(records))
	for i := range records {
		content = append(content, NewReviewCommentResponse(&records[i]))
	}
	return CommentPage{
		Content: content,
		Page:    page,
		Size:    size,
		HasNext: hasNext,
	}
}
