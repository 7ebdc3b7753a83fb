package app

import (
	"quiz_duel_backend/docs"
	"quiz_duel_backend/internal/config"
	"quiz_duel_backend/internal/middleware"
	"quiz_duel_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		// 对战模块
		duel := authGroup.Group("/duel")
		{
			duel.GET("/modes", c.duel.GetModes)
			duel.GET("/opponents", c.duel.GetOpponents)
			duel.GET("/leaderboard", c.duel.GetLeaderboard)

			duel.POST("/challenges", c.duel.CreateChallenge)
			duel.GET("/challenges", c.duel.ListChallenges)
			duel.GET("/challenges/:id", c.duel.GetChallenge)
			duel.POST("/challenges/:id/accept", c.duel.AcceptChallenge)
			duel.POST("/challenges/:id/decline", c.duel.DeclineChallenge)
			duel.POST("/challenges/:id/cancel", c.duel.CancelChallenge)
			duel.POST("/challenges/:id/attempt", c.duel.SubmitAttempt)
			duel.POST("/challenges/:id/settle", c.duel.SettleRewards)
		}
	}
}
