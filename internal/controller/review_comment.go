package controller

import (
	"errors"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nsxzhou1114/movie-review-api/internal/apperr"
	"github.com/nsxzhou1114/movie-review-api/internal/dto"
	"github.com/nsxzhou1114/movie-review-api/internal/middleware"
	"github.com/nsxzhou1114/movie-review-api/internal/model"
	"github.com/nsxzhou1114/movie-review-api/internal/service"
	"github.com/nsxzhou1114/movie-review-api/pkg/cache"
	"github.com/nsxzhou1114/movie-review-api/pkg/response"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReviewCommentApi 影评评论API控制器
type ReviewCommentApi struct {
	logger          *zap.SugaredLogger
	comments        *service.ReviewCommentService
	votes           cache.VoteTracker
	defaultPageSize int
	maxPageSize     int
}

// NewReviewCommentApi 创建影评评论API控制器
func NewReviewCommentApi(comments *service.ReviewCommentService, votes cache.VoteTracker, defaultPageSize, maxPageSize int, log *zap.SugaredLogger) *ReviewCommentApi {
	return &ReviewCommentApi{
		logger:          log,
		comments:        comments,
		votes:           votes,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// handleError 按错误类别返回响应
func (api *ReviewCommentApi) handleError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNoReviewFound):
		response.NotFound(c, "影评不存在", err)
	case errors.Is(err, apperr.ErrNoReviewCommentFound):
		response.NotFound(c, "评论不存在", err)
	case errors.Is(err, apperr.ErrInvalidArgument):
		response.BadRequest(c, err.Error(), err)
	case errors.Is(err, apperr.ErrNotCommentOwner):
		response.Forbidden(c, "您无权操作该评论", err)
	default:
		api.logger.Errorf("%s失败: %v", action, err)
		response.InternalServerError(c, action+"失败", err)
	}
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "无效的"+name, err)
		return 0, false
	}
	return id, true
}

// pageWindow 校验分页参数并返回偏移量与页大小
func (api *ReviewCommentApi) pageWindow(c *gin.Context, req *dto.ReviewCommentListRequest) (int, int, bool) {
	size := req.Size
	if size == 0 {
		size = api.defaultPageSize
	}
	if size > api.maxPageSize {
		response.BadRequest(c, "每页数量不能超过"+strconv.Itoa(api.maxPageSize), nil)
		return 0, 0, false
	}
	if req.Page > math.MaxInt32/size {
		response.BadRequest(c, "页码超出范围", nil)
		return 0, 0, false
	}
	return req.Page * size, size, true
}

func (api *ReviewCommentApi) requireUser(c *gin.Context) (uuid.UUID, bool) {
	id, exists := middleware.GetUserID(c)
	if !exists {
		response.Unauthorized(c, "需要登录", nil)
		return id, false
	}
	return id, true
}

// ListParents 获取影评下的父评论
func (api *ReviewCommentApi) ListParents(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "reviewId")
	if !ok {
		return
	}

	var req dto.ReviewCommentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, dto.BindErrorMessage(err), err)
		return
	}
	order, err := model.ParseSortOrder(req.Sort)
	if err != nil {
		response.BadRequest(c, "无效的排序方式", err)
		return
	}
	offset, size, ok := api.pageWindow(c, &req)
	if !ok {
		return
	}

	var (
		records []model.ReviewComment
		total   int64
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		records, err = api.comments.ListParents(ctx, reviewID, order, offset, size+1)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = api.comments.CountParents(ctx, reviewID)
		return err
	})
	if err := g.Wait(); err != nil {
		api.handleError(c, "获取评论列表", err)
		return
	}

	response.SuccessPage(c, "获取评论列表成功", dto.NewCommentPage(records, req.Page, size), req.Page, size, total)
}

// ListChildren 获取父评论下的子评论
func (api *ReviewCommentApi) ListChildren(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "reviewId")
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "groupId")
	if !ok {
		return
	}

	var req dto.ReviewCommentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, dto.BindErrorMessage(err), err)
		return
	}
	offset, size, ok := api.pageWindow(c, &req)
	if !ok {
		return
	}

	records, err := api.comments.ListChildren(c.Request.Context(), reviewID, groupID, offset, size+1)
	if err != nil {
		api.handleError(c, "获取回复列表", err)
		return
	}
	response.Success(c, "获取回复列表成功", dto.NewCommentPage(records, req.Page, size))
}

// CountParents 获取影评下父评论数量
func (api *ReviewCommentApi) CountParents(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "reviewId")
	if !ok {
		return
	}

	total, err := api.comments.CountParents(c.Request.Context(), reviewID)
	if err != nil {
		api.handleError(c, "获取评论数量", err)
		return
	}
	response.Success(c, "获取评论数量成功", dto.ReviewCommentCountResponse{Total: total})
}

// CountChildren 获取父评论下回复数量
func (api *ReviewCommentApi) CountChildren(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "reviewId")
	if !ok {
		return
	}
	groupID, ok := parseIDParam(c, "groupId")
	if !ok {
		return
	}

	total, err := api.comments.CountChildren(c.Request.Context(), reviewID, groupID)
	if err != nil {
		api.handleError(c, "获取回复数量", err)
		return
	}
	response.Success(c, "获取回复数量成功", dto.ReviewCommentCountResponse{Total: total})
}

// Create 发表评论，请求中带 group_id 时为回复
func (api *ReviewCommentApi) Create(c *gin.Context) {
	userID, ok := api.requireUser(c)
	if !ok {
		return
	}
	reviewID, ok := parseIDParam(c, "reviewId")
	if !ok {
		return
	}

	var req dto.ReviewCommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, dto.BindErrorMessage(err), err)
		return
	}

	draft := model.ReviewCommentDraft{Content: req.Content, CommentRef: req.CommentRef}
	var (
		comment *model.ReviewComment
		err     error
	)
	if req.GroupID == nil {
		comment, err = api.comments.AddParent(c.Request.Context(), reviewID, userID, draft)
	} else {
		comment, err = api.comments.AddChild(c.Request.Context(), reviewID, *req.GroupID, userID, draft)
	}
	if err != nil {
		api.handleError(c, "发表评论", err)
		return
	}

	response.Success(c, "评论发布成功", dto.NewReviewCommentResponse(comment))
}

// requireOwner 校验当前用户是评论作者
func (api *ReviewCommentApi) requireOwner(c *gin.Context, reviewID, commentID int64) bool {
	userID, ok := api.requireUser(c)
	if !ok {
		return false
	}
	owns, err := api.comments.DoesUserOwnComment(c.Request.Context(), reviewID, commentID, userID)
	if err == nil && !owns {
		err = apperr.ErrNotCommentOwner
	}
	if err != nil {
		api.handleError(c, "校验评论作者", err)
		return false
	}
	return true
}

// Update 修改评论，仅作者可操作
func (api *ReviewCommentApi) Update(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "reviewId")
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "commentId")
	if !ok {
		return
	}

	var req dto.ReviewCommentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, dto.BindErrorMessage(err), err)
		return
	}
	if !api.requireOwner(c, reviewID, commentID) {
		return
	}

	comment, err := api.comments.Edit(c.Request.Context(), commentID, req.CommentRef, req.Content)
	if err != nil {
		api.handleError(c, "修改评论", err)
		return
	}
	response.Success(c, "评论修改成功", dto.NewReviewCommentResponse(comment))
}

// Delete 删除评论，仅作者可操作
func (api *ReviewCommentApi) Delete(c *gin.Context) {
	reviewID, ok := parseIDParam(c, "reviewId")
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "commentId")
	if !ok {
		return
	}
	if !api.requireOwner(c, reviewID, commentID) {
		return
	}

	removed, err := api.comments.Delete(c.Request.Context(), commentID)
	if err != nil {
		api.handleError(c, "删除评论", err)
		return
	}
	if len(removed) > 0 {
		if err := api.votes.Forget(c.Request.Context(), removed...); err != nil {
			api.logger.Warnf("清理评论点赞记录失败: comment_id=%d, err=%v", commentID, err)
		}
	}
	response.Success(c, "评论删除成功", nil)
}

// ToggleLike 切换当前用户对评论的点赞状态
func (api *ReviewCommentApi) ToggleLike(c *gin.Context) {
	userID, ok := api.requireUser(c)
	if !ok {
		return
	}
	reviewID, ok := parseIDParam(c, "reviewId")
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "commentId")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := api.comments.GetComment(ctx, reviewID, commentID); err != nil {
		api.handleError(c, "点赞评论", err)
		return
	}

	voter := userID.String()
	added, err := api.votes.MarkLiked(ctx, commentID, voter)
	if err != nil {
		api.handleError(c, "点赞评论", err)
		return
	}

	var comment *model.ReviewComment
	if added {
		comment, err = api.comments.Like(ctx, commentID)
		if err != nil {
			// 计数失败时撤销点赞记录
			if _, undoErr := api.votes.UnmarkLiked(ctx, commentID, voter); undoErr != nil {
				api.logger.Warnf("撤销点赞记录失败: comment_id=%d, err=%v", commentID, undoErr)
			}
		}
	} else {
		var removed bool
		if removed, err = api.votes.UnmarkLiked(ctx, commentID, voter); err == nil {
			if removed {
				comment, err = api.comments.Unlike(ctx, commentID)
			} else {
				// 并发的另一次切换已取消点赞
				comment, err = api.comments.GetComment(ctx, reviewID, commentID)
			}
		}
	}
	if err != nil {
		api.handleError(c, "点赞评论", err)
		return
	}

	message := "点赞成功"
	if !added {
		message = "已取消点赞"
	}
	response.Success(c, message, dto.ReviewCommentLikeResponse{
		Liked:   added,
		Comment: dto.NewReviewCommentResponse(comment),
	})
}
