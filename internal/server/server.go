package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/killuadb/schemamap/internal/config"
	"github.com/killuadb/schemamap/internal/handlers"
	"github.com/killuadb/schemamap/internal/middlewares"
	"github.com/killuadb/schemamap/internal/routes"
	"github.com/killuadb/schemamap/internal/services"
	"github.com/killuadb/schemamap/internal/utils"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg config.Config, sessions *services.SessionService, logger *slog.Logger) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	router := gin.New()
	router.Use(middlewares.RequestLogger(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if utils.Contains(cfg.AllowedOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	visualizerHandler := handlers.NewVisualizerHandler(sessions, logger)
	routes.RegisterRoutes(router, visualizerHandler, sessions)

	return router
}

func NewServer(cfg config.Config, sessions *services.SessionService, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     NewRouter(cfg, sessions, logger),
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// Live streams stay open; no write deadline.
		WriteTimeout: 0,
	}
}
