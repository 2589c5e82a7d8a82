package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eros-universe/motion-backend/internal/models"
)

func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Message:   "eros universe motion backend is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
