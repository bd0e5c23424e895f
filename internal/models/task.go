package models

import "time"

// TaskKind identifies the type of work a task carries.
type TaskKind string

const (
	TaskKindAnalysis   TaskKind = "analysis"
	TaskKindExtraction TaskKind = "extraction"
)

// TaskPriority orders tasks in the scheduler queue.
type TaskPriority string

const (
	PriorityCritical TaskPriority = "critical"
	PriorityHigh     TaskPriority = "high"
	PriorityMedium   TaskPriority = "medium"
	PriorityLow      TaskPriority = "low"
)

// Rank returns the sort rank of a priority; lower ranks dispatch first.
// Unknown priorities sort after low.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// TaskStatus tracks the task lifecycle. Terminal states are never left.
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusDispatched TaskStatus = "dispatched"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task is one unit of schedulable work. Once dispatched, a task is owned
// by exactly one worker until it reports completion or failure.
type Task struct {
	ID        string                 `json:"id"`
	Kind      TaskKind               `json:"kind"`
	Payload   map[string]interface{} `json:"payload"`
	Priority  TaskPriority           `json:"priority"`
	CreatedAt time.Time              `json:"created_at"`
}

// TaskError carries the message and detail of a task-level failure.
type TaskError struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *TaskError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}
