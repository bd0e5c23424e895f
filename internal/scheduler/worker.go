package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
)

// Runner executes one task inside a worker. report forwards progress;
// the returned map becomes the persisted result payload.
type Runner interface {
	Run(ctx context.Context, task *models.Task, report func(percent int, message string)) (map[string]interface{}, error)
}

// worker is one isolated execution unit. It owns no scheduler state and
// communicates exclusively over its inbox and the shared outbound
// channel. A worker executes at most one task at a time.
type worker struct {
	id     int
	inbox  chan *models.Task
	out    chan<- Message
	runner Runner
	quit   chan struct{}
	logger *slog.Logger
}

func newWorker(id int, out chan<- Message, runner Runner, logger *slog.Logger) *worker {
	return &worker{
		id:     id,
		inbox:  make(chan *models.Task, 1),
		out:    out,
		runner: runner,
		quit:   make(chan struct{}),
		logger: logger.With("worker_id", id),
	}
}

// loop runs until quit closes. It announces readiness once and then
// processes inbound tasks one at a time.
func (w *worker) loop(ctx context.Context) {
	w.send(Message{Type: MsgReady, WorkerID: w.id})

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.quit:
			return
		case task := <-w.inbox:
			if task == nil {
				return
			}
			w.execute(ctx, task)
		}
	}
}

// execute runs one task, translating its outcome into protocol messages.
// A panic inside the runner surfaces as a crash message so the scheduler
// can replace this worker.
func (w *worker) execute(ctx context.Context, task *models.Task) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("worker panicked", "task_id", task.ID, "panic", r)
			w.send(Message{
				Type:     msgCrashed,
				WorkerID: w.id,
				TaskID:   task.ID,
				Err: &models.TaskError{
					Message: "worker crashed",
					Detail:  fmt.Sprintf("%v", r),
				},
			})
		}
	}()

	w.send(Message{Type: MsgStarted, WorkerID: w.id, TaskID: task.ID})

	result, err := w.runner.Run(ctx, task, func(percent int, message string) {
		w.send(Message{
			Type:     MsgProgress,
			WorkerID: w.id,
			TaskID:   task.ID,
			Percent:  percent,
			Status:   message,
		})
	})
	if err != nil {
		w.send(Message{
			Type:     MsgFailed,
			WorkerID: w.id,
			TaskID:   task.ID,
			Err:      &models.TaskError{Message: "task failed", Detail: err.Error()},
		})
		return
	}

	w.send(Message{
		Type:     MsgCompleted,
		WorkerID: w.id,
		TaskID:   task.ID,
		Result:   result,
	})
}

func (w *worker) send(msg Message) {
	select {
	case w.out <- msg:
	case <-w.quit:
	}
}

func (w *worker) stop() {
	close(w.quit)
}
