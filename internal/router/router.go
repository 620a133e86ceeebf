package router

import (
	"github.com/daytrack/internal/handler"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("daytrack_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 认证入口，无需会话
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", api.Login)
		auth.POST("/otp", api.RequestOneTimeCode)
		auth.POST("/reset", api.ResetPassword)
		auth.GET("/logout", api.Logout)
	}

	// 需要认证的业务路由
	authed := r.Group("/api")
	authed.Use(handler.AuthRequired())
	{
		authed.GET("/checklist", api.GetChecklist)
		authed.GET("/checklist/items", api.ListChecklistItems)
		authed.POST("/checklist/items", api.CreateChecklistItem)
		authed.PUT("/checklist/reorder", api.ReorderChecklistItems)
		authed.PUT("/checklist/items/:id", api.UpdateChecklistItem)
		authed.DELETE("/checklist/items/:id", api.DeleteChecklistItem)
		authed.POST("/checklist/items/:id/log", api.UpsertChecklistLog)

		authed.GET("/stats/definitions", api.ListStatDefinitions)
		authed.POST("/stats/definitions", api.CreateStatDefinition)
		authed.PUT("/stats/definitions/:id", api.UpdateStatDefinition)
		authed.DELETE("/stats/definitions/:id", api.DeleteStatDefinition)
		authed.POST("/stats/values", api.UpsertStatValue)
		authed.POST("/stats/daily", api.SaveDailyStats)
		authed.GET("/stats/summary", api.GetDailySummary)
		authed.GET("/stats/series", api.GetStatSeries)

		authed.GET("/streaks", api.GetStreaks)

		authed.GET("/notes", api.GetNote)
		authed.PUT("/notes", api.UpsertNote)

		authed.GET("/plans", api.ListPlans)
		authed.POST("/plans", api.CreatePlan)
		authed.GET("/plans/:id", api.GetPlan)
		authed.PUT("/plans/:id", api.UpdatePlan)
		authed.DELETE("/plans/:id", api.DeletePlan)
	}

	return r
}
