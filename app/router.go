// Package app wires shared HTTP routes for both local and Lambda execution.
package app

import (
	"fmt"
	"net/http"
	"time"

	"example/chessgpt-api/app/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the shared HTTP router for both local and Lambda execution.
func NewRouter(analyzer *Analyzer, cfg *config.Config, engineName string) *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logrus.WithField("panic", recovered).Error("recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprint(recovered)})
	}))
	router.Use(RequestLogger())
	if cfg.Metrics.Enabled {
		router.Use(Metrics())
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", Health(engineName))
	router.POST("/chessgpt", AnalyzePosition(analyzer))
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	return router
}
