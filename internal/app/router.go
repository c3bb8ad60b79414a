package app

import (
	"course_gen_backend/docs"
	"course_gen_backend/internal/config"
	"course_gen_backend/internal/middleware"
	"course_gen_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		authGroup.POST("/courses/generate", c.course.Generate)
		authGroup.GET("/courses", c.course.List)
		authGroup.GET("/courses/:id", c.course.Get)
		authGroup.GET("/courses/:id/status", c.course.Status)
		authGroup.DELETE("/courses/:id/generation", c.course.CancelGeneration)
	}
}
