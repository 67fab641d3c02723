// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/l3montree-dev/issuesync/monitoring"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultLockDuration    = 4 * time.Hour
	DefaultStalledInterval = 30 * time.Second
	DefaultMaxStalledCount = 1

	pollTimeout = time.Second
)

// Handler processes a job. The returned value is stored as the job's return value.
type Handler func(ctx context.Context, job *Job, progress shared.ProgressReporter) (any, error)

type WorkerOptions struct {
	LockDuration    time.Duration
	StalledInterval time.Duration
	MaxStalledCount int
}

func DefaultWorkerOptions() WorkerOptions {
	return WorkerOptions{
		LockDuration:    DefaultLockDuration,
		StalledInterval: DefaultStalledInterval,
		MaxStalledCount: DefaultMaxStalledCount,
	}
}

// Worker processes one job at a time.
type Worker struct {
	queue   *Queue
	client  *redis.Client
	locker  *redislock.Client
	handler Handler
	opts    WorkerOptions

	mu      sync.Mutex
	current string
}

func NewWorker(client *redis.Client, q *Queue, handler Handler, opts WorkerOptions) *Worker {
	return &Worker{
		queue:   q,
		client:  client,
		locker:  redislock.New(client),
		handler: handler,
		opts:    opts,
	}
}

// Run blocks until the context is cancelled. A job which is running at that point
// is finished before Run returns.
func (w *Worker) Run(ctx context.Context) {
	stalledTicker := time.NewTicker(w.opts.StalledInterval)
	defer stalledTicker.Stop()

	// jobs which stalled while no worker was running
	w.checkStalled(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("queue worker stopped", "queue", w.queue.name)
			return
		case <-stalledTicker.C:
			w.checkStalled(ctx)
		default:
		}

		if err := w.queue.promoteDelayed(ctx); err != nil && ctx.Err() == nil {
			slog.Error("could not promote delayed jobs", "err", err)
		}

		if _, err := w.processNext(ctx); err != nil && ctx.Err() == nil {
			slog.Error("could not process job", "err", err)
			// avoid a hot loop while valkey is unavailable
			select {
			case <-ctx.Done():
			case <-time.After(pollTimeout):
			}
		}
	}
}

// processNext takes the next waiting job. It returns false if no job was waiting.
func (w *Worker) processNext(ctx context.Context) (bool, error) {
	id, err := w.client.BLMove(ctx, w.queue.key("wait"), w.queue.key("active"), "RIGHT", "LEFT", pollTimeout).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	lock, err := w.locker.Obtain(ctx, w.queue.lockKey(id), w.opts.LockDuration, nil)
	if err != nil {
		// should never happen, the id was just moved to active by this worker
		return true, fmt.Errorf("could not lock job %s: %w", id, err)
	}

	w.setCurrent(id)
	defer w.setCurrent("")

	// the job runs to completion even if the worker is asked to stop meanwhile
	jobCtx := context.WithoutCancel(ctx)
	defer lock.Release(jobCtx) // nolint: errcheck

	stopRefresh := w.keepLocked(jobCtx, lock)
	defer stopRefresh()

	return true, w.execute(jobCtx, id)
}

func (w *Worker) setCurrent(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = id
}

func (w *Worker) isCurrent(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current == id
}

func (w *Worker) keepLocked(ctx context.Context, lock *redislock.Lock) func() {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(w.opts.LockDuration / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := lock.Refresh(ctx, w.opts.LockDuration, nil); err != nil {
					slog.Warn("could not extend job lock", "key", lock.Key(), "err", err)
				}
			}
		}
	}()
	return cancel
}

func (w *Worker) execute(ctx context.Context, id string) error {
	job, err := w.queue.GetJob(ctx, id)
	if err != nil {
		// drop ids without job document
		w.client.LRem(ctx, w.queue.key("active"), 1, id) // nolint: errcheck
		return err
	}

	now := w.queue.now()
	job.State = StateActive
	job.ProcessedAt = &now
	if err := w.queue.saveJob(ctx, w.client, job); err != nil {
		return err
	}

	slog.Info("processing job", "jobId", job.ID, "job", job.Name, "attempt", job.AttemptsMade+1)
	result, handlerErr := w.runHandler(ctx, job)

	// the handler may have written progress meanwhile
	if latest, err := w.queue.GetJob(ctx, id); err == nil {
		job.Progress = latest.Progress
	}

	if handlerErr == nil {
		return w.complete(ctx, job, result)
	}
	return w.fail(ctx, job, handlerErr)
}

func (w *Worker) runHandler(ctx context.Context, job *Job) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.RecoverAndAlert("job handler panicked", r)
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()
	return w.handler(ctx, job, jobProgress{queue: w.queue, id: job.ID})
}

func (w *Worker) complete(ctx context.Context, job *Job, result any) error {
	if result != nil {
		payload, err := json.Marshal(result)
		if err != nil {
			slog.Warn("could not encode job result", "jobId", job.ID, "err", err)
		} else {
			job.ReturnValue = payload
		}
	}
	now := w.queue.now()
	job.State = StateCompleted
	job.FinishedAt = &now
	monitoring.QueueJobsTotal.WithLabelValues(string(job.Name), "completed").Inc()
	slog.Info("job completed", "jobId", job.ID, "job", job.Name)
	return w.queue.finish(ctx, job, "completed", keepCompleted)
}

func (w *Worker) fail(ctx context.Context, job *Job, cause error) error {
	job.AttemptsMade++
	job.FailedReason = cause.Error()

	if job.canRetry() {
		delay := job.retryDelay()
		job.State = StateDelayed
		monitoring.QueueJobsTotal.WithLabelValues(string(job.Name), "retried").Inc()
		slog.Warn("job failed, retrying", "jobId", job.ID, "job", job.Name, "attempt", job.AttemptsMade, "delay", delay, "err", cause)
		return w.queue.retryLater(ctx, job, delay)
	}

	now := w.queue.now()
	job.State = StateFailed
	job.FinishedAt = &now
	monitoring.QueueJobsTotal.WithLabelValues(string(job.Name), "failed").Inc()
	monitoring.Alert(fmt.Sprintf("job %s (%s) failed", job.ID, job.Name), cause)
	return w.queue.finish(ctx, job, "failed", keepFailed)
}

// checkStalled recovers active jobs whose lock expired. A job that stalls more often
// than MaxStalledCount is failed instead of being run again.
func (w *Worker) checkStalled(ctx context.Context) {
	active, err := w.client.LRange(ctx, w.queue.key("active"), 0, -1).Result()
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("could not list active jobs", "err", err)
		}
		return
	}

	for _, id := range active {
		if w.isCurrent(id) {
			continue
		}
		locked, err := w.client.Exists(ctx, w.queue.lockKey(id)).Result()
		if err != nil || locked > 0 {
			continue
		}

		job, err := w.queue.GetJob(ctx, id)
		if err != nil {
			slog.Warn("dropping stalled job without data", "jobId", id, "err", err)
			w.client.LRem(ctx, w.queue.key("active"), 1, id) // nolint: errcheck
			continue
		}

		job.StalledCount++
		if job.StalledCount > w.opts.MaxStalledCount {
			now := w.queue.now()
			job.State = StateFailed
			job.FailedReason = "job stalled more than allowable limit"
			job.FinishedAt = &now
			monitoring.QueueJobsTotal.WithLabelValues(string(job.Name), "stalled").Inc()
			if err := w.queue.finish(ctx, job, "failed", keepFailed); err != nil {
				slog.Error("could not fail stalled job", "jobId", id, "err", err)
			}
			continue
		}

		slog.Warn("moving stalled job back to waiting", "jobId", id, "job", job.Name)
		job.State = StateWaiting
		_, err = w.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := w.queue.saveJob(ctx, pipe, job); err != nil {
				return err
			}
			pipe.LRem(ctx, w.queue.key("active"), 1, id)
			pipe.RPush(ctx, w.queue.key("wait"), id)
			return nil
		})
		if err != nil {
			slog.Error("could not requeue stalled job", "jobId", id, "err", err)
		}
	}
}
