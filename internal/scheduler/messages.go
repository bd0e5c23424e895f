package scheduler

import "github.com/telhawk-systems/telhawk-analyzer/internal/models"

// MessageType discriminates worker-to-scheduler messages.
type MessageType string

const (
	MsgReady     MessageType = "ready"
	MsgStarted   MessageType = "started"
	MsgProgress  MessageType = "progress"
	MsgCompleted MessageType = "completed"
	MsgFailed    MessageType = "failed"

	// msgCrashed is internal: the worker goroutine recovered a panic or
	// exited without reporting and will accept no further tasks.
	msgCrashed MessageType = "crashed"
)

// Message is one unit of the worker → scheduler protocol. Workers never
// touch scheduler state directly; everything flows through these.
type Message struct {
	Type     MessageType            `json:"type"`
	WorkerID int                    `json:"worker_id"`
	TaskID   string                 `json:"task_id,omitempty"`
	Percent  int                    `json:"percent,omitempty"`
	Status   string                 `json:"status,omitempty"`
	Result   map[string]interface{} `json:"result,omitempty"`
	Err      *models.TaskError      `json:"error,omitempty"`
}
