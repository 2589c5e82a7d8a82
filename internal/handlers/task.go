package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eros-universe/motion-backend/internal/kling"
	"github.com/eros-universe/motion-backend/internal/models"
)

// TaskFetcher re-queries upstream task status by identifier.
type TaskFetcher interface {
	GetTask(ctx context.Context, taskID string) (*kling.Task, error)
}

type TaskHandler struct {
	fetcher TaskFetcher
	logger  *slog.Logger
}

func NewTaskHandler(fetcher TaskFetcher, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{fetcher: fetcher, logger: logger}
}

// GetStatus handles GET /api/task/:taskId. The upstream payload is returned
// unmodified; status strings are opaque to this service.
func (h *TaskHandler) GetStatus(c *gin.Context) {
	taskID := c.Param("taskId")

	task, err := h.fetcher.GetTask(c.Request.Context(), taskID)
	if err != nil {
		h.logger.Error("status query failed", "task_id", taskID, "error", err)
		var apiErr *kling.APIError
		if errors.As(err, &apiErr) {
			c.JSON(apiErr.StatusCode, models.ErrorResponse{Error: "status query rejected", Message: apiErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to query task status"})
		return
	}

	c.JSON(http.StatusOK, models.TaskStatusResponse{Success: true, Data: task.Raw})
}
