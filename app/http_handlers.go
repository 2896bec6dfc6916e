package app

import (
	"errors"
	"io"
	"net/http"

	"example/chessgpt-api/app/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AnalyzePosition handles POST /chessgpt.
func AnalyzePosition(analyzer *Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		resp, err := analyzer.Analyze(c.Request.Context(), req.FEN, req.Prompt)
		if err != nil {
			_ = c.Error(err)
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func statusFor(err error) int {
	var invalid *InvalidPositionError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoMoveFound):
		return http.StatusInternalServerError
	default:
		logrus.WithError(err).Error("analysis failed")
		return http.StatusInternalServerError
	}
}

// Health reports liveness and the name the engine gave during the handshake.
func Health(engineName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "engine": engineName})
	}
}
