package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and verifies connectivity.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// CreateTask inserts the queued task record.
func (s *PostgresStore) CreateTask(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, kind, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx, query, task.ID, task.Kind, task.Priority, models.TaskStatusQueued, now)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTask reads one task record.
func (s *PostgresStore) GetTask(ctx context.Context, id string) (*TaskRecord, error) {
	query := `
		SELECT id, kind, priority, status, percent, message, result, error_message, error_detail,
		       created_at, updated_at, finished_at
		FROM tasks
		WHERE id = $1
	`

	rec := &TaskRecord{}
	var resultJSON []byte
	var errMessage, errDetail *string

	err := s.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.Kind, &rec.Priority, &rec.Status, &rec.Percent, &rec.Message,
		&resultJSON, &errMessage, &errDetail,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to decode task result: %w", err)
		}
	}
	if errMessage != nil {
		rec.Error = &models.TaskError{Message: *errMessage}
		if errDetail != nil {
			rec.Error.Detail = *errDetail
		}
	}
	return rec, nil
}

// UpdateProgress writes the latest percent and status. Updating a
// missing task affects zero rows and is not an error.
func (s *PostgresStore) UpdateProgress(ctx context.Context, taskID string, percent int, status string) error {
	query := `
		UPDATE tasks
		SET status = $2, percent = $3, message = $4, updated_at = $5
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`
	_, err := s.pool.Exec(ctx, query, taskID, models.TaskStatusDispatched, percent, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// MarkCompleted writes terminal success state with the result payload.
func (s *PostgresStore) MarkCompleted(ctx context.Context, taskID string, result map[string]interface{}) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode task result: %w", err)
	}

	query := `
		UPDATE tasks
		SET status = $2, percent = 100, result = $3, updated_at = $4, finished_at = $4
		WHERE id = $1
	`
	_, err = s.pool.Exec(ctx, query, taskID, models.TaskStatusCompleted, resultJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark task completed: %w", err)
	}
	return nil
}

// MarkFailed writes terminal failure state with the error message.
func (s *PostgresStore) MarkFailed(ctx context.Context, taskID string, taskErr *models.TaskError) error {
	query := `
		UPDATE tasks
		SET status = $2, error_message = $3, error_detail = $4, updated_at = $5, finished_at = $5
		WHERE id = $1
	`
	var message, detail string
	if taskErr != nil {
		message = taskErr.Message
		detail = taskErr.Detail
	}
	_, err := s.pool.Exec(ctx, query, taskID, models.TaskStatusFailed, message, detail, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark task failed: %w", err)
	}
	return nil
}
