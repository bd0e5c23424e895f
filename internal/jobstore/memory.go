package jobstore

import (
	"context"
	"sync"
	"time"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// MemoryStore is an in-memory Store used in development mode and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*TaskRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*TaskRecord)}
}

// CreateTask records a freshly submitted task as queued.
func (s *MemoryStore) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	s.tasks[task.ID] = &TaskRecord{
		ID:        task.ID,
		Kind:      task.Kind,
		Priority:  task.Priority,
		Status:    models.TaskStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// GetTask returns a copy of the stored record.
func (s *MemoryStore) GetTask(ctx context.Context, id string) (*TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	out := *rec
	return &out, nil
}

// UpdateProgress stores the latest percent and status message. Missing
// tasks are a no-op.
func (s *MemoryStore) UpdateProgress(ctx context.Context, taskID string, percent int, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[taskID]
	if !ok {
		return nil
	}
	rec.Status = models.TaskStatusDispatched
	rec.Percent = percent
	rec.Message = status
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCompleted records terminal success. Missing tasks are a no-op.
func (s *MemoryStore) MarkCompleted(ctx context.Context, taskID string, result map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[taskID]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	rec.Status = models.TaskStatusCompleted
	rec.Percent = 100
	rec.Result = result
	rec.UpdatedAt = now
	rec.FinishedAt = &now
	return nil
}

// MarkFailed records terminal failure. Missing tasks are a no-op.
func (s *MemoryStore) MarkFailed(ctx context.Context, taskID string, taskErr *models.TaskError) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[taskID]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	rec.Status = models.TaskStatusFailed
	rec.Error = taskErr
	rec.UpdatedAt = now
	rec.FinishedAt = &now
	return nil
}
