package handlers_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eros-universe/motion-backend/internal/kling"
)

type fakeSubmitter struct {
	calls int
	last  kling.MotionTaskRequest
	task  *kling.MotionTask
	err   error
}

func (f *fakeSubmitter) CreateMotionTask(_ context.Context, req kling.MotionTaskRequest) (*kling.MotionTask, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.task, nil
}

type fakeUploader struct {
	calls int
	url   string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, localPath, displayName, contentType string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

type fakeFetcher struct {
	calls int
	task  *kling.Task
	err   error
}

func (f *fakeFetcher) GetTask(_ context.Context, taskID string) (*kling.Task, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.task, nil
}

type fakeProcessor struct {
	calls     int
	outPath   string
	cleanedUp bool
	err       error
}

func (f *fakeProcessor) Apply(_ context.Context, videoURL, taskID string) (string, func(), error) {
	f.calls++
	if f.err != nil {
		return "", nil, f.err
	}
	return f.outPath, func() { f.cleanedUp = true }, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// multipartBody builds a multipart form with the given file contents and
// plain fields.
func multipartBody(t *testing.T, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, data := range files {
		fw, err := w.CreateFormFile(field, field+".bin")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"prompt":                "walk forward",
		"character_orientation": "image",
		"mode":                  "std",
	}
}
