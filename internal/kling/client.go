// Package kling is a minimal client for the Kling AI motion-control API.
// The API is treated as an opaque collaborator: task status strings and the
// status payload are passed through to our own callers unmodified.
package kling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	submitTimeout = 60 * time.Second
	pollTimeout   = 30 * time.Second

	motionControlPath = "/v1/videos/motion-control"
)

// TaskStatusSucceed is the upstream marker for a finished task. Other values
// (submitted, processing, failed) are opaque to this service.
const TaskStatusSucceed = "succeed"

type Client struct {
	baseURL    string
	accessKey  string
	secretKey  string
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(baseURL, accessKey, secretKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		accessKey:  accessKey,
		secretKey:  secretKey,
		httpClient: &http.Client{},
		now:        time.Now,
	}
}

// APIError is a structured error the Kling API returned itself, as opposed to
// a transport failure. Status code and message are passed through to clients
// verbatim because they carry actionable remote-side diagnostics.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kling: api error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

type MotionTaskRequest struct {
	Prompt               string `json:"prompt,omitempty"`
	ImageURL             string `json:"image_url"`
	VideoURL             string `json:"video_url"`
	CharacterOrientation string `json:"character_orientation"`
	Mode                 string `json:"mode"`
	KeepOriginalSound    string `json:"keep_original_sound"`
}

// MotionTask is the slice of the submit response this service keeps: the task
// identifier, its initial status, and the upstream correlation id.
type MotionTask struct {
	TaskID     string
	TaskStatus string
	CreatedAt  int64
	RequestID  string
}

type ResultVideo struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Duration string `json:"duration"`
}

type TaskResult struct {
	Videos []ResultVideo `json:"videos"`
}

type TaskData struct {
	TaskID        string      `json:"task_id"`
	TaskStatus    string      `json:"task_status"`
	TaskStatusMsg string      `json:"task_status_msg,omitempty"`
	CreatedAt     int64       `json:"created_at"`
	UpdatedAt     int64       `json:"updated_at"`
	TaskResult    *TaskResult `json:"task_result,omitempty"`
}

// Task pairs the parsed status payload with the raw bytes so the status
// endpoint can return the upstream payload untouched.
type Task struct {
	Data      TaskData
	Raw       json.RawMessage
	RequestID string
}

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

// CreateMotionTask submits a generation request. Both reference URLs must
// already be reachable by the API; local paths are never sent.
func (c *Client) CreateMotionTask(ctx context.Context, req MotionTaskRequest) (*MotionTask, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	env, err := c.do(ctx, http.MethodPost, motionControlPath, bytes.NewReader(body), submitTimeout)
	if err != nil {
		return nil, err
	}

	var data TaskData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode task data: %w", err)
	}
	if data.TaskID == "" {
		return nil, fmt.Errorf("kling: response contains no task_id")
	}

	return &MotionTask{
		TaskID:     data.TaskID,
		TaskStatus: data.TaskStatus,
		CreatedAt:  data.CreatedAt,
		RequestID:  env.RequestID,
	}, nil
}

// GetTask re-queries the remote status of a task. Nothing is cached locally.
func (c *Client) GetTask(ctx context.Context, taskID string) (*Task, error) {
	env, err := c.do(ctx, http.MethodGet, motionControlPath+"/"+taskID, nil, pollTimeout)
	if err != nil {
		return nil, err
	}

	var data TaskData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode task data: %w", err)
	}

	return &Task{Data: data, Raw: env.Data, RequestID: env.RequestID}, nil
}

// do signs a fresh token, issues the request under a bounded timeout, and
// splits failures into structured APIErrors and plain transport errors.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, timeout time.Duration) (*envelope, error) {
	token, err := SignToken(c.accessKey, c.secretKey, c.now())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, raw)
	}

	if resp.StatusCode != http.StatusOK || env.Code != 0 {
		status := resp.StatusCode
		if status == http.StatusOK {
			// The API reports some failures as code != 0 on HTTP 200.
			status = http.StatusBadGateway
		}
		return nil, &APIError{StatusCode: status, Code: env.Code, Message: env.Message, RequestID: env.RequestID}
	}

	return &env, nil
}
