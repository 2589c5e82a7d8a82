package kling_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eros-universe/motion-backend/internal/kling"
)

func TestClient_CreateMotionTask(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"code":0,"message":"SUCCEED","request_id":"req-1","data":{"task_id":"task-1","task_status":"submitted","created_at":1722000000000}}`)
	}))
	defer srv.Close()

	c := kling.NewClient(srv.URL, "access-key", "secret-key")
	task, err := c.CreateMotionTask(context.Background(), kling.MotionTaskRequest{
		Prompt:               "dance",
		ImageURL:             "https://store.example/image.jpg",
		VideoURL:             "https://store.example/video.mp4",
		CharacterOrientation: "image",
		Mode:                 "std",
		KeepOriginalSound:    "yes",
	})
	require.NoError(t, err)

	assert.Equal(t, "task-1", task.TaskID)
	assert.Equal(t, "submitted", task.TaskStatus)
	assert.Equal(t, int64(1722000000000), task.CreatedAt)
	assert.Equal(t, "req-1", task.RequestID)

	assert.Equal(t, "/v1/videos/motion-control", gotPath)
	assert.True(t, strings.HasPrefix(gotAuth, "Bearer "))
	assert.Equal(t, "https://store.example/image.jpg", gotBody["image_url"])
	assert.Equal(t, "yes", gotBody["keep_original_sound"])
}

func TestClient_CreateMotionTask_StructuredError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"code":1302,"message":"parallel task over resource pack limit","request_id":"req-2"}`)
	}))
	defer srv.Close()

	c := kling.NewClient(srv.URL, "access-key", "secret-key")
	_, err := c.CreateMotionTask(context.Background(), kling.MotionTaskRequest{})
	require.Error(t, err)

	var apiErr *kling.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, 1302, apiErr.Code)
	assert.Equal(t, "parallel task over resource pack limit", apiErr.Message)
}

func TestClient_CreateMotionTask_ErrorCodeOnOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":1000,"message":"auth failed","request_id":"req-3"}`)
	}))
	defer srv.Close()

	c := kling.NewClient(srv.URL, "access-key", "secret-key")
	_, err := c.CreateMotionTask(context.Background(), kling.MotionTaskRequest{})

	var apiErr *kling.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, 1000, apiErr.Code)
}

func TestClient_CreateMotionTask_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := kling.NewClient(srv.URL, "access-key", "secret-key")
	_, err := c.CreateMotionTask(context.Background(), kling.MotionTaskRequest{})
	require.Error(t, err)

	var apiErr *kling.APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestClient_CreateMotionTask_EmptyCredentials(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := kling.NewClient(srv.URL, "", "")
	_, err := c.CreateMotionTask(context.Background(), kling.MotionTaskRequest{})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestClient_GetTask(t *testing.T) {
	data := `{"task_id":"task-9","task_status":"succeed","created_at":1722000000000,"updated_at":1722000600000,"task_result":{"videos":[{"id":"v1","url":"https://cdn.example/v1.mp4","duration":"5"}]}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/videos/motion-control/task-9", r.URL.Path)
		fmt.Fprintf(w, `{"code":0,"message":"SUCCEED","request_id":"req-4","data":%s}`, data)
	}))
	defer srv.Close()

	c := kling.NewClient(srv.URL, "access-key", "secret-key")
	task, err := c.GetTask(context.Background(), "task-9")
	require.NoError(t, err)

	assert.Equal(t, "succeed", task.Data.TaskStatus)
	require.NotNil(t, task.Data.TaskResult)
	require.Len(t, task.Data.TaskResult.Videos, 1)
	assert.Equal(t, "https://cdn.example/v1.mp4", task.Data.TaskResult.Videos[0].URL)

	// the raw payload is preserved byte for byte for passthrough
	assert.JSONEq(t, data, string(task.Raw))
}
