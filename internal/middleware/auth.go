package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nsxzhou1114/movie-review-api/internal/logger"
	"github.com/nsxzhou1114/movie-review-api/pkg/auth"
	"github.com/nsxzhou1114/movie-review-api/pkg/response"
)

const (
	userIDKey  = "userID"
	tokenIDKey = "tokenID"
)

// JWTAuth JWT认证中间件
func JWTAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从请求头获取token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录", nil)
			c.Abort()
			return
		}

		// 检查格式
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			response.Unauthorized(c, "Authorization格式错误", nil)
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(c.Request.Context(), parts[1])
		if err != nil {
			logger.Warnf("无效的令牌: %v", err)
			response.Unauthorized(c, "无效的令牌", err)
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(tokenIDKey, claims.Id)
		c.Next()
	}
}

// GetUserID 从上下文中获取用户ID
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := userID.(uuid.UUID)
	return id, ok
}
