package handler

import (
	"errors"
	"strings"
	"time"

	"bankcore/internal/infrastructure/cache"
	"bankcore/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ContextKeyUserID 认证中间件解析出的当前用户，后续 handler 由此取发起人。
const ContextKeyUserID = "user_id"

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// AuthMiddleware 把 Bearer 令牌解析为用户 ID。
// 令牌状态在 Redis，口令校验和用户管理属于认证子系统。
func AuthMiddleware(tokenStore *cache.TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Unauthorized(c, "缺少令牌")
			c.Abort()
			return
		}

		userID, err := tokenStore.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, cache.ErrTokenInvalid) {
				response.Unauthorized(c, "令牌无效或已过期")
			} else {
				response.ServerError(c, err.Error())
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// LoggerMiddleware 访问日志中间件
func LoggerMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		if query != "" {
			path = path + "?" + query
		}

		logger.Info().
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Msg("http")
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error().Interface("panic", err).Msg("请求处理 panic")
				c.AbortWithStatusJSON(500, gin.H{
					"code":    500,
					"message": "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
