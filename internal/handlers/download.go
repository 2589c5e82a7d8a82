package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eros-universe/motion-backend/internal/kling"
	"github.com/eros-universe/motion-backend/internal/models"
	"github.com/eros-universe/motion-backend/internal/watermark"
)

// Watermarker turns a finished result video into a local watermarked file.
type Watermarker interface {
	Apply(ctx context.Context, videoURL, taskID string) (string, func(), error)
}

type DownloadHandler struct {
	fetcher   TaskFetcher
	processor Watermarker
	logger    *slog.Logger
}

func NewDownloadHandler(fetcher TaskFetcher, processor Watermarker, logger *slog.Logger) *DownloadHandler {
	return &DownloadHandler{fetcher: fetcher, processor: processor, logger: logger}
}

// Download handles GET /api/download/:taskId: re-checks status, watermarks the
// result, and streams it back as an attachment. Nothing is downloaded or
// processed unless the task has succeeded and carries a result URL.
func (h *DownloadHandler) Download(c *gin.Context) {
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

	if task.Data.TaskStatus != kling.TaskStatusSucceed {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "task not ready",
			Message: fmt.Sprintf("task status is %q", task.Data.TaskStatus),
		})
		return
	}

	var videoURL string
	if task.Data.TaskResult != nil && len(task.Data.TaskResult.Videos) > 0 {
		videoURL = task.Data.TaskResult.Videos[0].URL
	}
	if videoURL == "" {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "no result video"})
		return
	}

	outPath, cleanup, err := h.processor.Apply(c.Request.Context(), videoURL, taskID)
	if err != nil {
		h.logger.Error("watermarking failed", "task_id", taskID, "error", err)
		if errors.Is(err, watermark.ErrLogoMissing) {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "watermark logo not available"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to process video"})
		return
	}
	defer cleanup()

	shortID := taskID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	c.FileAttachment(outPath, fmt.Sprintf("eros-universe-%s.mp4", shortID))
}
