package taskqueue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of fire-and-forget background work, typically a database
// write handed off from the socket hot path.
type Task struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Queue runs tasks on a fixed pool of workers. Enqueue never blocks: when
// the buffer is full the task is dropped and logged, favoring liveness of
// the realtime pipeline over durability of history.
type Queue struct {
	tasks   chan Task
	logger  *zap.Logger
	wg      sync.WaitGroup
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

func New(logger *zap.Logger, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 256
	}
	return &Queue{
		tasks:   make(chan Task, buffer),
		logger:  logger.Named("TaskQueue"),
		timeout: 10 * time.Second,
	}
}

// Start launches the worker goroutines. Workers drain the buffer after ctx
// is cancelled, then exit.
func (q *Queue) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	go func() {
		<-ctx.Done()
		q.mu.Lock()
		q.closed = true
		close(q.tasks)
		q.mu.Unlock()
	}()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for task := range q.tasks {
		q.run(task)
	}
}

func (q *Queue) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("task panicked", zap.String("task", task.Name), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	if err := task.Fn(ctx); err != nil {
		q.logger.Warn("task failed", zap.String("task", task.Name), zap.Error(err))
	}
}

// Enqueue submits a task without blocking. Returns false if the queue is
// full or already shut down.
func (q *Queue) Enqueue(name string, fn func(ctx context.Context) error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.tasks <- Task{Name: name, Fn: fn}:
		return true
	default:
		q.logger.Warn("task queue full, dropping task", zap.String("task", name))
		return false
	}
}

// Wait blocks until all workers have drained and exited. Used on shutdown.
func (q *Queue) Wait() { q.wg.Wait() }
