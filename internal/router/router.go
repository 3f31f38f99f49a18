package router

import (
	"net/http"

	"github.com/dailyquest/internal/config"
	"github.com/dailyquest/internal/handler"
	"github.com/dailyquest/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup 配置 Gin 引擎和路由
func Setup(gdb *gorm.DB, log *logger.Logger, cfg config.AppConfig) (*gin.Engine, *handler.API) {
	gin.SetMode(cfg.GinMode)
	r := gin.New()

	api := handler.NewAPI(gdb, log, cfg)

	r.Use(gin.Recovery())
	r.Use(api.RequestID())
	r.Use(api.RequestLogger())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", api.Register)
			auth.POST("/login", api.Login)
		}

		// 需要认证的业务路由
		authed := v1.Group("")
		authed.Use(api.AuthRequired())
		{
			users := authed.Group("/users")
			{
				users.GET("/me", api.Me)
				users.PUT("/me", api.UpdateMe)
			}

			tasks := authed.Group("/tasks")
			{
				tasks.POST("/habits", api.CreateHabit)
				tasks.POST("/todos", api.CreateTodo)
				tasks.GET("", api.GetTasks)
				tasks.GET("/by-tag/:tagId", api.GetTasksByTag)
				tasks.PUT("/habits/:id", api.UpdateHabit)
				tasks.PUT("/todos/:id", api.UpdateTodo)
				tasks.DELETE("/:id", api.DeleteTask)

				tasks.POST("/:id/complete", api.CompleteTask)
				tasks.POST("/:id/uncomplete", api.UncompleteTask)

				tasks.POST("/:id/tags/:tagId", api.AddTagToTask)
				tasks.DELETE("/:id/tags/:tagId", api.RemoveTagFromTask)
			}

			tags := authed.Group("/tags")
			{
				tags.GET("", api.GetTags)
				tags.POST("", api.CreateTag)
				tags.PUT("/:id", api.UpdateTag)
				tags.DELETE("/:id", api.DeleteTag)
			}

			achievements := authed.Group("/achievements")
			{
				achievements.GET("", api.GetAchievements)
				achievements.GET("/me", api.GetMyAchievements)
			}

			dashboard := authed.Group("/dashboard")
			{
				dashboard.GET("/stats", api.GetDashboardStats)
				dashboard.GET("/history", api.GetCompletionHistory)
			}
		}
	}

	return r, api
}
