package models

import "encoding/json"

type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type GenerateResponse struct {
	Success        bool   `json:"success"`
	TaskID         string `json:"task_id"`
	TaskStatus     string `json:"task_status"`
	CreatedAt      int64  `json:"created_at"`
	ExternalTaskID string `json:"external_task_id,omitempty"`
}

// TaskStatusResponse wraps the upstream status payload without reshaping it.
type TaskStatusResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
