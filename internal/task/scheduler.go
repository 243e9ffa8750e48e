// Package task runs the best-effort background work scheduled after a
// pipeline completes. Tasks of one request execute sequentially against
// that request's Context; failures are caught, logged, and isolated so
// one task can never abort its siblings or affect the already-sent
// response.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/trailway/trailway/internal/feature"
)

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	// WorkerCount determines how many jobs (one job per request) can be
	// in flight concurrently. Tasks within a job are still sequential.
	WorkerCount int

	// QueueSize is the buffer size of the in-memory job queue.
	QueueSize int
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable
// defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// job is one request's scheduled task list.
type job struct {
	id    uuid.UUID
	route string
	tasks []feature.AsyncTaskDescriptor
	fc    *feature.Context
}

// Scheduler manages background task processing.
type Scheduler struct {
	jobs   chan job
	quit   chan struct{}
	wg     sync.WaitGroup
	config SchedulerConfig
	logger *slog.Logger
}

// NewScheduler creates a Scheduler. Start must be called before jobs
// are processed.
func NewScheduler(config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultSchedulerConfig().WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultSchedulerConfig().QueueSize
	}

	return &Scheduler{
		jobs:   make(chan job, config.QueueSize),
		quit:   make(chan struct{}),
		config: config,
		logger: logger,
	}
}

// Start launches the worker goroutines.
func (s *Scheduler) Start() {
	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop shuts down the scheduler and waits for in-flight jobs to finish.
// Jobs still queued may be abandoned. The quit signal only stops the
// worker loops; tasks already running keep an uncancelled context so
// the wait actually lets them complete.
func (s *Scheduler) Stop() {
	close(s.quit)
	s.wg.Wait()
}

// Schedule enqueues the tasks of one completed request and returns
// immediately. An empty task list is a no-op. When the queue is full the
// job is dropped with a logged error: async work is best-effort and must
// never block the response path.
func (s *Scheduler) Schedule(route string, tasks []feature.AsyncTaskDescriptor, fc *feature.Context) {
	if len(tasks) == 0 {
		return
	}

	j := job{id: uuid.New(), route: route, tasks: tasks, fc: fc}
	select {
	case s.jobs <- j:
		s.logger.Debug("async job scheduled",
			"job_id", j.id,
			"route", route,
			"task_count", len(tasks))
	default:
		s.logger.Error("async job dropped, queue is full",
			"job_id", j.id,
			"route", route,
			"task_count", len(tasks))
	}
}

// worker processes jobs from the queue.
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("starting async worker", "worker_id", id)
	for {
		select {
		case <-s.quit:
			s.logger.Debug("stopping async worker", "worker_id", id)
			return
		case j := <-s.jobs:
			s.processJob(j, id)
		}
	}
}

// processJob runs one job's tasks in descriptor order. A failed task is
// logged and the remaining tasks still run.
func (s *Scheduler) processJob(j job, workerID int) {
	logger := s.logger.With(
		"job_id", j.id,
		"route", j.route,
		"worker_id", workerID,
	)

	for _, td := range j.tasks {
		if err := s.runTask(td, j.fc); err != nil {
			logger.Error("async task failed",
				"task", td.Name,
				"task_order", td.Order,
				"error", err)
			continue
		}
		logger.Debug("async task completed", "task", td.Name)
	}
}

// runTask invokes a single task, converting a panic into an error so a
// panicking task is isolated exactly like a failing one. Tasks get a
// background context: once started they run to completion even while
// Stop is waiting.
func (s *Scheduler) runTask(td feature.AsyncTaskDescriptor, fc *feature.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("async task panicked: %v", rec)
		}
	}()
	return td.Fn(context.Background(), fc)
}
