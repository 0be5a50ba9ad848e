package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/killuadb/schemamap/internal/handlers"
	"github.com/killuadb/schemamap/internal/middlewares"
	"github.com/killuadb/schemamap/internal/services"
)

type VisualizerRoutes struct {
	handler  *handlers.VisualizerHandler
	sessions *services.SessionService
}

func NewVisualizerRoutes(handler *handlers.VisualizerHandler, sessions *services.SessionService) *VisualizerRoutes {
	return &VisualizerRoutes{handler: handler, sessions: sessions}
}

func (r *VisualizerRoutes) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/sessions", r.handler.CreateSession)

	session := router.Group("/sessions/:id")
	session.Use(middlewares.LoadSession(r.sessions))
	{
		session.GET("", r.handler.GetSession)
		session.DELETE("", r.handler.DeleteSession)
		session.GET("/scene", r.handler.GetScene)
		session.POST("/events", r.handler.ApplyEvent)
		session.GET("/stream", r.handler.Stream)
		session.POST("/refresh", r.handler.Refresh)
		session.GET("/export.svg", r.handler.ExportSVG)
		session.GET("/export.mmd", r.handler.ExportMermaid)
		session.POST("/layout/reset", r.handler.ResetLayout)
		session.PUT("/layout", r.handler.SaveLayout)
		session.DELETE("/layout", r.handler.DeleteLayout)
		session.POST("/layout/restore", r.handler.RestoreLayout)
	}
}
