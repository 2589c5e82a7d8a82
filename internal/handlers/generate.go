package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eros-universe/motion-backend/internal/kling"
	"github.com/eros-universe/motion-backend/internal/models"
)

// TaskSubmitter submits a motion-control generation task upstream.
type TaskSubmitter interface {
	CreateMotionTask(ctx context.Context, req kling.MotionTaskRequest) (*kling.MotionTask, error)
}

// ReferenceUploader stages a local file where the generation API can fetch it
// and returns the fetch URL. A nil uploader means the object store is
// disabled; references are inlined as base64 instead.
type ReferenceUploader interface {
	Upload(ctx context.Context, localPath, displayName, contentType string) (string, error)
}

type GenerateHandler struct {
	submitter TaskSubmitter
	uploader  ReferenceUploader
	uploadDir string
	logger    *slog.Logger
}

func NewGenerateHandler(submitter TaskSubmitter, uploader ReferenceUploader, uploadDir string, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		submitter: submitter,
		uploader:  uploader,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// Generate handles POST /api/generate. All validation happens before any file
// is staged remotely or any upstream call is made; uploaded temp files are
// removed on every exit path.
func (h *GenerateHandler) Generate(c *gin.Context) {
	imageFile, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "image file is required"})
		return
	}
	videoFile, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "video file is required"})
		return
	}

	if imageFile.Size > models.MaxImageSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "image too large",
			Message: fmt.Sprintf("image must be at most %d bytes, got %d", models.MaxImageSize, imageFile.Size),
		})
		return
	}
	if videoFile.Size > models.MaxVideoSize {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "video too large",
			Message: fmt.Sprintf("video must be at most %d bytes, got %d", models.MaxVideoSize, videoFile.Size),
		})
		return
	}

	req := models.GenerateRequest{
		Prompt:               c.PostForm("prompt"),
		CharacterOrientation: c.PostForm("character_orientation"),
		Mode:                 c.PostForm("mode"),
		KeepOriginalSound:    c.DefaultPostForm("keep_original_sound", models.SoundKeep),
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid form field", Message: err.Error()})
		return
	}

	imagePath, err := h.saveUpload(c, imageFile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to store upload", Message: err.Error()})
		return
	}
	defer h.removeQuiet(imagePath)

	videoPath, err := h.saveUpload(c, videoFile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to store upload", Message: err.Error()})
		return
	}
	defer h.removeQuiet(videoPath)

	ctx := c.Request.Context()

	imageURL, err := h.stageReference(ctx, imagePath, imageFile)
	if err != nil {
		h.logger.Error("failed to stage image reference", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to stage image"})
		return
	}
	videoURL, err := h.stageReference(ctx, videoPath, videoFile)
	if err != nil {
		h.logger.Error("failed to stage video reference", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to stage video"})
		return
	}

	task, err := h.submitter.CreateMotionTask(ctx, kling.MotionTaskRequest{
		Prompt:               req.Prompt,
		ImageURL:             imageURL,
		VideoURL:             videoURL,
		CharacterOrientation: req.CharacterOrientation,
		Mode:                 req.Mode,
		KeepOriginalSound:    req.KeepOriginalSound,
	})
	if err != nil {
		h.logger.Error("generation submit failed", "error", err)
		var apiErr *kling.APIError
		if errors.As(err, &apiErr) {
			c.JSON(apiErr.StatusCode, models.ErrorResponse{Error: "generation request rejected", Message: apiErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to submit generation task"})
		return
	}

	h.logger.Info("generation task submitted", "task_id", task.TaskID, "status", task.TaskStatus)
	c.JSON(http.StatusOK, models.GenerateResponse{
		Success:        true,
		TaskID:         task.TaskID,
		TaskStatus:     task.TaskStatus,
		CreatedAt:      task.CreatedAt,
		ExternalTaskID: task.RequestID,
	})
}

// saveUpload writes the multipart file under a collision-resistant name so
// concurrent submissions never clash.
func (h *GenerateHandler) saveUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.New(), filepath.Ext(file.Filename))
	path := filepath.Join(h.uploadDir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", file.Filename, err)
	}
	return path, nil
}

// removeQuiet deletes a temp file; failures are logged, never propagated, so
// cleanup cannot mask the primary error.
func (h *GenerateHandler) removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("failed to remove upload", "path", path, "error", err)
	}
}

func (h *GenerateHandler) stageReference(ctx context.Context, path string, file *multipart.FileHeader) (string, error) {
	if h.uploader != nil {
		return h.uploader.Upload(ctx, path, file.Filename, file.Header.Get("Content-Type"))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
