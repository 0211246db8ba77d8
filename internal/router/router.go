// Package router assembles the gin engine serving the todos API.
package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ahmaruff/todos-api/internal/activitylog"
	"github.com/ahmaruff/todos-api/internal/config"
	apperrors "github.com/ahmaruff/todos-api/internal/errors"
	"github.com/ahmaruff/todos-api/internal/handlers"
	"github.com/ahmaruff/todos-api/internal/middleware"
	"github.com/ahmaruff/todos-api/internal/repository"
	"github.com/ahmaruff/todos-api/internal/services"
)

// Deps are the collaborators shared by every request.
type Deps struct {
	Config      *config.Config
	DB          *gorm.DB
	ActivityLog *activitylog.Logger
}

// New builds the engine with its middleware chain and routes.
func New(deps Deps) *gin.Engine {
	cfg := deps.Config
	errorHandler := apperrors.NewHandler(deps.ActivityLog)

	todoService := services.NewTodoService(repository.NewTodoRepository(deps.DB), deps.ActivityLog, cfg.ExportDir)
	logService := services.NewLogService(cfg.LogDir)

	indexHandler := handlers.NewIndexHandler(cfg.AppName, cfg.AppVersion)
	logHandler := handlers.NewLogHandler(logService)
	todoHandler := handlers.NewTodoHandler(todoService)

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// the activity logger wraps recovery so panics are logged as 500s
	r.Use(
		middleware.RequestContext(),
		middleware.ActivityLogger(deps.ActivityLog),
		middleware.Recovery(errorHandler),
		middleware.ErrorHandler(errorHandler),
	)
	r.NoRoute(middleware.RouteNotFound)
	r.NoMethod(middleware.MethodNotAllowed)

	api := r.Group("/api")
	{
		api.GET("", indexHandler.Index)
		api.GET("/", indexHandler.Index)
		api.GET("/logs", logHandler.GetLogs)

		todos := api.Group("/todos")
		{
			todos.GET("", todoHandler.ListTodos)
			todos.POST("", todoHandler.CreateTodo)
			todos.GET("/chart", todoHandler.Chart)
			todos.GET("/export", todoHandler.Export)
			todos.GET("/download/:filename", todoHandler.Download)
			todos.GET("/:id", todoHandler.GetTodo)
			todos.PUT("/:id", todoHandler.UpdateTodo)
			todos.DELETE("/:id", todoHandler.DeleteTodo)
		}
	}

	return r
}
