package middleware

import (
	"net/http"

	"forumhub/internal/auth"
	"forumhub/internal/config"
	"forumhub/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const CheckUserKey = "user"

// AuthRequired 校验 Bearer 令牌并把用户挂到上下文，失败返回 401
func AuthRequired(conn *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := auth.FromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未授权，请先登录"})
			return
		}
		user, err := auth.Authenticate(conn, cfg, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "登录已过期，请重新登录"})
			return
		}
		c.Set(CheckUserKey, user)
		c.Next()
	}
}

// AdminRequired 在 AuthRequired 之后使用，非管理员返回 403
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.MustGet(CheckUserKey).(*models.User)
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "权限不足"})
			return
		}
		c.Next()
	}
}

// OptionalAuth 令牌有效则挂用户，无效或缺失不拦截
func OptionalAuth(conn *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := auth.FromHeader(c.GetHeader("Authorization"))
		if err == nil {
			if user, err := auth.Authenticate(conn, cfg, tokenStr); err == nil {
				c.Set(CheckUserKey, user)
			}
		}
		c.Next()
	}
}

// CurrentUser 返回上下文中的用户，未登录返回 nil
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CheckUserKey); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
