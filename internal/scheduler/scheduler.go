// Package scheduler owns the priority task queue and the worker pool.
// Workers are isolated goroutines that talk to the scheduler only
// through typed messages; the queue and the active-task registry are
// mutated exclusively under the scheduler's lock.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/telhawk-systems/telhawk-analyzer/internal/jobstore"
	"github.com/telhawk-systems/telhawk-analyzer/internal/metrics"
	"github.com/telhawk-systems/telhawk-analyzer/internal/models"
	"github.com/telhawk-systems/telhawk-analyzer/internal/progress"
)

// Config configures the scheduler.
type Config struct {
	// Workers is the pool size. Defaults to GOMAXPROCS-1, minimum 1.
	Workers int
	// DispatchBackoff is the retry interval when no worker is idle.
	DispatchBackoff time.Duration
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	Workers       int      `json:"workers"`
	ActiveWorkers int      `json:"active_workers"`
	QueueLength   int      `json:"queue_length"`
	ActiveTasks   []string `json:"active_tasks"`
	Running       bool     `json:"running"`
}

// Scheduler accepts tasks, dispatches them to idle workers in priority
// order, and persists lifecycle transitions through the job store.
type Scheduler struct {
	mu       sync.Mutex
	cfg      Config
	store    jobstore.Store
	cache    *progress.Cache
	runner   Runner
	logger   *slog.Logger
	queue    []*models.Task
	active   map[int]string // worker slot -> task id
	ready    map[int]bool
	workers  map[int]*worker
	seenIDs  map[string]struct{}
	messages chan Message
	kick     chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// New creates a scheduler. The runner executes tasks inside workers;
// the cache may be nil or disabled.
func New(cfg Config, store jobstore.Store, cache *progress.Cache, runner Runner, logger *slog.Logger) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0) - 1
		if cfg.Workers < 1 {
			cfg.Workers = 1
		}
	}
	if cfg.DispatchBackoff <= 0 {
		cfg.DispatchBackoff = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = progress.NewCache(nil, false)
	}
	return &Scheduler{
		cfg:      cfg,
		store:    store,
		cache:    cache,
		runner:   runner,
		logger:   logger,
		active:   make(map[int]string),
		ready:    make(map[int]bool),
		workers:  make(map[int]*worker),
		seenIDs:  make(map[string]struct{}),
		messages: make(chan Message, 64),
		kick:     make(chan struct{}, 1),
	}
}

// Start spawns the worker pool, the message pump and the dispatch loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})

	for i := 0; i < s.cfg.Workers; i++ {
		s.spawnWorkerLocked(ctx, i)
	}
	s.mu.Unlock()

	s.wg.Add(2)
	go s.pump(ctx)
	go s.dispatchLoop(ctx)

	s.logger.Info("scheduler started", "workers", s.cfg.Workers)
	return nil
}

// Submit enqueues a task and re-sorts the queue by priority, stable with
// respect to enqueue order within a tier. Task IDs must be unique for
// the lifetime of the process.
func (s *Scheduler) Submit(ctx context.Context, task *models.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("task id is required")
	}

	s.mu.Lock()
	if _, dup := s.seenIDs[task.ID]; dup {
		s.mu.Unlock()
		return fmt.Errorf("duplicate task id %s", task.ID)
	}
	s.seenIDs[task.ID] = struct{}{}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	s.queue = append(s.queue, task)
	sort.SliceStable(s.queue, func(i, j int) bool {
		return s.queue[i].Priority.Rank() < s.queue[j].Priority.Rank()
	})
	metrics.QueueDepth.Set(float64(len(s.queue)))
	s.mu.Unlock()

	if err := s.store.CreateTask(ctx, task); err != nil {
		s.logger.Error("failed to persist queued task", "task_id", task.ID, "error", err)
	}
	metrics.TasksSubmitted.WithLabelValues(string(task.Kind), string(task.Priority)).Inc()

	s.kickDispatch()
	return nil
}

// Status returns a snapshot of the pool and queue.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskIDs := make([]string, 0, len(s.active))
	for _, id := range s.active {
		taskIDs = append(taskIDs, id)
	}
	sort.Strings(taskIDs)

	return Status{
		Workers:       len(s.workers),
		ActiveWorkers: len(s.active),
		QueueLength:   len(s.queue),
		ActiveTasks:   taskIDs,
		Running:       s.running,
	}
}

// Shutdown terminates all workers and clears the queue and registry.
// In-flight tasks are abandoned, not failed or requeued.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	for _, w := range s.workers {
		w.stop()
	}
	s.workers = make(map[int]*worker)
	s.ready = make(map[int]bool)
	s.active = make(map[int]string)
	s.queue = nil
	metrics.QueueDepth.Set(0)
	metrics.ActiveWorkers.Set(0)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// spawnWorkerLocked creates and starts the worker for a slot. Caller
// holds the lock.
func (s *Scheduler) spawnWorkerLocked(ctx context.Context, slot int) {
	w := newWorker(slot, s.messages, s.runner, s.logger)
	s.workers[slot] = w
	s.ready[slot] = false
	go w.loop(ctx)
}

func (s *Scheduler) kickDispatch() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// dispatchLoop drains the queue whenever kicked, and retries on a fixed
// backoff while tasks wait for an idle worker.
func (s *Scheduler) dispatchLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.DispatchBackoff)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopChan:
			return
		case <-s.kick:
		case <-ticker.C:
		}
		s.dispatchPending()
	}
}

// dispatchPending pops queued tasks to idle workers until the queue is
// empty or every worker is busy. A failed send returns the task to the
// queue head rather than dropping it.
func (s *Scheduler) dispatchPending() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) > 0 {
		slot, w := s.idleWorkerLocked()
		if w == nil {
			return
		}

		task := s.queue[0]
		s.queue = s.queue[1:]
		s.active[slot] = task.ID

		select {
		case w.inbox <- task:
		default:
			// Send failed; put the task back at the head and retry on
			// the next pass instead of dropping it.
			delete(s.active, slot)
			s.queue = append([]*models.Task{task}, s.queue...)
			metrics.QueueDepth.Set(float64(len(s.queue)))
			return
		}

		metrics.QueueDepth.Set(float64(len(s.queue)))
		metrics.ActiveWorkers.Set(float64(len(s.active)))
	}
}

func (s *Scheduler) idleWorkerLocked() (int, *worker) {
	for slot, w := range s.workers {
		if !s.ready[slot] {
			continue
		}
		if _, busy := s.active[slot]; busy {
			continue
		}
		return slot, w
	}
	return 0, nil
}

// pump applies worker messages to scheduler state and forwards lifecycle
// transitions to the job store.
func (s *Scheduler) pump(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		case msg := <-s.messages:
			s.handleMessage(ctx, msg)
		}
	}
}

func (s *Scheduler) handleMessage(ctx context.Context, msg Message) {
	switch msg.Type {
	case MsgReady:
		s.mu.Lock()
		s.ready[msg.WorkerID] = true
		s.mu.Unlock()
		s.kickDispatch()

	case MsgStarted:
		s.logger.Debug("task started", "task_id", msg.TaskID, "worker_id", msg.WorkerID)
		if err := s.store.UpdateProgress(ctx, msg.TaskID, 0, "started"); err != nil {
			s.logger.Error("failed to persist task start", "task_id", msg.TaskID, "error", err)
		}

	case MsgProgress:
		if err := s.store.UpdateProgress(ctx, msg.TaskID, msg.Percent, msg.Status); err != nil {
			s.logger.Error("failed to persist progress", "task_id", msg.TaskID, "error", err)
		}
		if err := s.cache.Set(ctx, msg.TaskID, msg.Percent, msg.Status); err != nil {
			s.logger.Warn("failed to cache progress", "task_id", msg.TaskID, "error", err)
		}

	case MsgCompleted:
		if err := s.store.MarkCompleted(ctx, msg.TaskID, msg.Result); err != nil {
			s.logger.Error("failed to persist completion", "task_id", msg.TaskID, "error", err)
		}
		if err := s.cache.Delete(ctx, msg.TaskID); err != nil {
			s.logger.Warn("failed to drop progress cache entry", "task_id", msg.TaskID, "error", err)
		}
		metrics.TasksCompleted.Inc()
		s.releaseWorker(msg.WorkerID)

	case MsgFailed:
		if err := s.store.MarkFailed(ctx, msg.TaskID, msg.Err); err != nil {
			s.logger.Error("failed to persist failure", "task_id", msg.TaskID, "error", err)
		}
		metrics.TasksFailed.Inc()
		s.logger.Warn("task failed", "task_id", msg.TaskID, "error", msg.Err)
		s.releaseWorker(msg.WorkerID)

	case msgCrashed:
		s.replaceWorker(ctx, msg)
	}
}

func (s *Scheduler) releaseWorker(slot int) {
	s.mu.Lock()
	delete(s.active, slot)
	metrics.ActiveWorkers.Set(float64(len(s.active)))
	s.mu.Unlock()
	s.kickDispatch()
}

// replaceWorker discards a crashed worker and synchronously creates a
// fresh one at the same slot. The orphaned task is explicitly failed so
// it cannot linger in the registry forever.
func (s *Scheduler) replaceWorker(ctx context.Context, msg Message) {
	s.mu.Lock()
	if old, ok := s.workers[msg.WorkerID]; ok {
		old.stop()
	}
	orphan, hadTask := s.active[msg.WorkerID]
	delete(s.active, msg.WorkerID)
	if s.running {
		s.spawnWorkerLocked(ctx, msg.WorkerID)
	}
	metrics.ActiveWorkers.Set(float64(len(s.active)))
	s.mu.Unlock()

	metrics.WorkerRestarts.Inc()
	s.logger.Error("worker crashed, replaced", "worker_id", msg.WorkerID, "orphaned_task", orphan)

	if hadTask {
		taskErr := msg.Err
		if taskErr == nil {
			taskErr = &models.TaskError{Message: "worker crashed"}
		}
		if err := s.store.MarkFailed(ctx, orphan, taskErr); err != nil {
			s.logger.Error("failed to persist orphaned task failure", "task_id", orphan, "error", err)
		}
		metrics.TasksFailed.Inc()
	}

	s.kickDispatch()
}
