package server

import (
	"context"
	"net/http"

	_ "taskflow/docs"
	"taskflow/internal/handler"
	"taskflow/internal/middleware"
	"taskflow/internal/model"
	"taskflow/internal/policy"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Deps is everything the router mounts.
type Deps struct {
	Tokens middleware.TokenParser
	Roles  policy.RoleChecker
	Health func(ctx context.Context) error
	Log    *zap.Logger
	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string

	Users         *handler.UserHandler
	Categories    *handler.CategoryHandler
	Tasks         *handler.TaskHandler
	Subtasks      *handler.SubtaskHandler
	Reminders     *handler.ReminderHandler
	Notifications *handler.NotificationHandler
	Analytics     *handler.AnalyticsHandler
	Admin         *handler.AdminHandler
	Realtime      *handler.RealtimeHandler
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Log), middleware.RequestLogger(d.Log), middleware.CORS(d.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		if err := d.Health(c.Request.Context()); err != nil {
			d.Log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public routes
	r.POST("/auth/register", d.Users.Register)
	r.POST("/auth/login", d.Users.Login)

	// Protected routes - require authentication
	authorized := r.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(d.Tokens))
	{
		authorized.GET("/me", d.Users.Me)
		authorized.PUT("/me/profile", d.Users.UpdateProfile)
		authorized.DELETE("/me", d.Users.DeleteMe)

		authorized.GET("/categories", d.Categories.List)
		authorized.POST("/categories", d.Categories.Create)
		authorized.GET("/categories/:id", d.Categories.Get)
		authorized.PUT("/categories/:id", d.Categories.Update)
		authorized.DELETE("/categories/:id", d.Categories.Delete)

		authorized.GET("/tasks", d.Tasks.List)
		authorized.POST("/tasks", d.Tasks.Create)
		authorized.GET("/tasks/:id", d.Tasks.Get)
		authorized.PUT("/tasks/:id", d.Tasks.Update)
		authorized.DELETE("/tasks/:id", d.Tasks.Delete)

		authorized.GET("/tasks/:id/subtasks", d.Subtasks.ListByTask)
		authorized.POST("/tasks/:id/subtasks", d.Subtasks.Create)
		authorized.PUT("/subtasks/:id", d.Subtasks.Update)
		authorized.DELETE("/subtasks/:id", d.Subtasks.Delete)

		authorized.GET("/tasks/:id/reminders", d.Reminders.ListByTask)
		authorized.POST("/tasks/:id/reminders", d.Reminders.Create)
		authorized.GET("/reminders", d.Reminders.Upcoming)
		authorized.PUT("/reminders/:id", d.Reminders.Update)
		authorized.DELETE("/reminders/:id", d.Reminders.Delete)

		authorized.GET("/notifications", d.Notifications.List)
		authorized.POST("/notifications", d.Notifications.Create)
		authorized.PUT("/notifications/:id/read", d.Notifications.MarkRead)
		authorized.POST("/notifications/read-all", d.Notifications.MarkAllRead)
		authorized.DELETE("/notifications/:id", d.Notifications.Delete)

		authorized.GET("/analytics", d.Analytics.List)
		authorized.GET("/analytics/summary", d.Analytics.Summary)
		authorized.POST("/analytics/days", d.Analytics.CreateDay)
		authorized.POST("/analytics/focus", d.Analytics.AddFocus)

		authorized.GET("/realtime", d.Realtime.Stream)

		admin := authorized.Group("/admin")
		admin.Use(middleware.RequireRole(d.Roles, model.RoleAdmin, d.Log))
		{
			admin.GET("/stats", d.Admin.Stats)
			admin.GET("/users", d.Admin.Users)
			admin.POST("/users/:id/promote", d.Admin.Promote)
		}
	}
	return r
}
