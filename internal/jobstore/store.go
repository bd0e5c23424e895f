// Package jobstore persists task state for the scheduler. The progress
// and terminal-state writers are idempotent no-ops when the referenced
// task record does not exist.
package jobstore

import (
	"context"
	"errors"
	"time"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// ErrTaskNotFound is returned by readers when no record exists.
var ErrTaskNotFound = errors.New("task not found")

// TaskRecord is the persisted view of one task.
type TaskRecord struct {
	ID         string                 `json:"id"`
	Kind       models.TaskKind        `json:"kind"`
	Priority   models.TaskPriority    `json:"priority"`
	Status     models.TaskStatus      `json:"status"`
	Percent    int                    `json:"percent"`
	Message    string                 `json:"message,omitempty"`
	Result     map[string]interface{} `json:"result,omitempty"`
	Error      *models.TaskError      `json:"error,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	FinishedAt *time.Time             `json:"finished_at,omitempty"`
}

// Store is the persistence collaborator consumed by the scheduler.
type Store interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*TaskRecord, error)
	UpdateProgress(ctx context.Context, taskID string, percent int, status string) error
	MarkCompleted(ctx context.Context, taskID string, result map[string]interface{}) error
	MarkFailed(ctx context.Context, taskID string, taskErr *models.TaskError) error
}
