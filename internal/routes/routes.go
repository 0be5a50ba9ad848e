package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/killuadb/schemamap/internal/handlers"
	"github.com/killuadb/schemamap/internal/services"
)

func RegisterRoutes(router *gin.Engine, visualizerHandler *handlers.VisualizerHandler, sessions *services.SessionService) {
	api := router.Group("/api/v1")

	visualizerRoutes := NewVisualizerRoutes(visualizerHandler, sessions)
	visualizerRoutes.RegisterRoutes(api)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
