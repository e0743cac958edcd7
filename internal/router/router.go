package router

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/movie-review-api/internal/controller"
	"github.com/nsxzhou1114/movie-review-api/internal/middleware"
	"github.com/nsxzhou1114/movie-review-api/pkg/auth"
)

// Setup 设置API路由
func Setup(r *gin.Engine, reviewComments *controller.ReviewCommentApi, tokens *auth.TokenManager) {
	r.Use(middleware.Cors())

	// API 路由组
	api := r.Group("/api")

	// 影评评论相关路由
	setupReviewCommentRoutes(api, reviewComments, tokens)
}

// setupReviewCommentRoutes 设置影评评论相关路由
func setupReviewCommentRoutes(api *gin.RouterGroup, commentApi *controller.ReviewCommentApi, tokens *auth.TokenManager) {
	// 公开路由
	publicRoutes := api.Group("/reviews/:reviewId/comments")
	{
		// 父评论列表
		publicRoutes.GET("", commentApi.ListParents)
		// 父评论数量
		publicRoutes.GET("/count", commentApi.CountParents)
		// 回复列表
		publicRoutes.GET("/:groupId", commentApi.ListChildren)
		// 回复数量
		publicRoutes.GET("/:groupId/count", commentApi.CountChildren)
	}

	// 需要认证的路由
	authRoutes := api.Group("/reviews/:reviewId/comments", middleware.JWTAuth(tokens))
	{
		// 发表评论或回复
		authRoutes.POST("", commentApi.Create)
		// 修改评论
		authRoutes.PATCH("/:commentId", commentApi.Update)
		// 删除评论
		authRoutes.DELETE("/:commentId", commentApi.Delete)
		// 点赞/取消点赞
		authRoutes.PATCH("/:commentId/like", commentApi.ToggleLike)
	}
}
