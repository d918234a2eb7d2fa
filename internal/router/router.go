package router

import (
	"forumhub/internal/config"
	"forumhub/internal/handlers"
	"forumhub/internal/middleware"
	"forumhub/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// New 组装路由和全部中间件
func New(db *gorm.DB, cfg *config.Config, cache *utils.Cache) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	}))

	// 上传目录静态托管
	r.Static("/uploads", cfg.UploadDir)

	// Handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	postHandler := handlers.NewPostHandler(db, cache)
	commentHandler := handlers.NewCommentHandler(db, cache)
	notificationHandler := handlers.NewNotificationHandler(db)
	uploadHandler := handlers.NewUploadHandler(cfg)

	// 内容创建接口限频
	limiter := middleware.NewIPRateLimiter(rate.Limit(1), 5)

	required := middleware.AuthRequired(db, cfg)
	optional := middleware.OptionalAuth(db, cfg)
	admin := middleware.AdminRequired()

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", middleware.RateLimit(limiter), authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", required, authHandler.Me)
		}

		users := api.Group("/users")
		{
			users.GET("/:id", userHandler.Profile)
			users.GET("/:id/posts", userHandler.Posts)
			users.PUT("/profile/update", required, userHandler.UpdateProfile)
			users.PUT("/password/change", required, userHandler.ChangePassword)
			users.GET("/admin/list", required, admin, userHandler.AdminList)
		}

		posts := api.Group("/posts")
		{
			posts.GET("", optional, postHandler.List)
			posts.GET("/:id", optional, postHandler.Detail)
			posts.POST("", required, middleware.RateLimit(limiter), postHandler.Create)
			posts.PUT("/:id", required, postHandler.Update)
			posts.DELETE("/:id", required, postHandler.Delete)
			posts.POST("/:id/like", required, postHandler.Like)
		}

		comments := api.Group("/comments")
		{
			comments.GET("/post/:postId", optional, commentHandler.ListByPost)
			comments.POST("", required, middleware.RateLimit(limiter), commentHandler.Create)
			comments.PUT("/:id/feature", required, commentHandler.Feature)
			comments.DELETE("/:id", required, commentHandler.Delete)
			comments.POST("/:id/like", required, commentHandler.Like)
			comments.GET("/admin/list", required, admin, commentHandler.AdminList)
		}

		notifications := api.Group("/notifications")
		notifications.Use(required)
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/read-all", notificationHandler.ReadAll)
			notifications.PUT("/:id/read", notificationHandler.Read)
		}

		upload := api.Group("/upload")
		upload.Use(required)
		{
			upload.POST("/image", uploadHandler.Image)
			upload.POST("/images", uploadHandler.Images)
		}
	}

	return r
}
