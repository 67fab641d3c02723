// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueueName = "issue-sync"

	keepCompleted = 100
	keepFailed    = 500
)

var ErrJobNotFound = errors.New("job not found")

// Queue is a durable job queue on top of valkey. Jobs are stored as JSON documents,
// their ids move between the waiting, active, delayed, completed and failed collections.
type Queue struct {
	client redis.UniversalClient
	name   string
	now    func() time.Time
}

var _ shared.JobQueue = &Queue{}

func NewQueue(client redis.UniversalClient, name string) *Queue {
	return &Queue{
		client: client,
		name:   name,
		now:    time.Now,
	}
}

func (q *Queue) key(part string) string {
	return "issuesync:queue:" + q.name + ":" + part
}

func (q *Queue) jobKey(id string) string {
	return q.key("job:" + id)
}

func (q *Queue) lockKey(id string) string {
	return q.key("lock:" + id)
}

// Enqueue stores the job with the retry policy of its name and makes it available to workers.
func (q *Queue) Enqueue(ctx context.Context, name shared.JobName, data shared.SyncJobData) (string, error) {
	policy := PolicyFor(name)
	job := Job{
		ID:          uuid.NewString(),
		Name:        name,
		Data:        data,
		MaxAttempts: policy.Attempts,
		Backoff:     policy.Backoff,
		State:       StateWaiting,
		CreatedAt:   q.now(),
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("could not encode job: %w", err)
	}

	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, q.jobKey(job.ID), payload, 0)
		pipe.LPush(ctx, q.key("wait"), job.ID)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("could not enqueue job: %w", err)
	}
	return job.ID, nil
}

func (q *Queue) GetJob(ctx context.Context, id string) (*Job, error) {
	raw, err := q.client.Get(ctx, q.jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("could not decode job %s: %w", id, err)
	}
	return &job, nil
}

func (q *Queue) saveJob(ctx context.Context, pipe redis.Cmdable, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("could not encode job: %w", err)
	}
	return pipe.Set(ctx, q.jobKey(job.ID), payload, 0).Err()
}

// UpdateProgress persists the progress of a job.
func (q *Queue) UpdateProgress(ctx context.Context, id string, progress shared.JobProgress) error {
	job, err := q.GetJob(ctx, id)
	if err != nil {
		return err
	}
	job.Progress = progress
	return q.saveJob(ctx, q.client, job)
}

type Counts struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Delayed   int64 `json:"delayed"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

func (q *Queue) Counts(ctx context.Context) (Counts, error) {
	var waiting, active, delayed, completed, failed *redis.IntCmd
	_, err := q.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		waiting = pipe.LLen(ctx, q.key("wait"))
		active = pipe.LLen(ctx, q.key("active"))
		delayed = pipe.ZCard(ctx, q.key("delayed"))
		completed = pipe.LLen(ctx, q.key("completed"))
		failed = pipe.LLen(ctx, q.key("failed"))
		return nil
	})
	if err != nil {
		return Counts{}, err
	}
	return Counts{
		Waiting:   waiting.Val(),
		Active:    active.Val(),
		Delayed:   delayed.Val(),
		Completed: completed.Val(),
		Failed:    failed.Val(),
	}, nil
}

// promoteDelayed moves every delayed job whose retry time has come back to waiting.
func (q *Queue) promoteDelayed(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, q.key("delayed"), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", q.now().UnixMilli()),
	}).Result()
	if err != nil {
		return err
	}
	for _, id := range due {
		removed, err := q.client.ZRem(ctx, q.key("delayed"), id).Result()
		if err != nil {
			return err
		}
		// another worker promoted it already
		if removed == 0 {
			continue
		}
		if err := q.setState(ctx, id, StateWaiting); err != nil {
			return err
		}
		if err := q.client.LPush(ctx, q.key("wait"), id).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (q *Queue) setState(ctx context.Context, id string, state JobState) error {
	job, err := q.GetJob(ctx, id)
	if err != nil {
		return err
	}
	job.State = state
	return q.saveJob(ctx, q.client, job)
}

// finish moves the job into a bounded history list. Jobs pushed out of the list are deleted.
func (q *Queue) finish(ctx context.Context, job *Job, list string, keep int64) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := q.saveJob(ctx, pipe, job); err != nil {
			return err
		}
		pipe.LRem(ctx, q.key("active"), 1, job.ID)
		pipe.LPush(ctx, q.key(list), job.ID)
		return nil
	})
	if err != nil {
		return err
	}
	return q.trim(ctx, list, keep)
}

func (q *Queue) trim(ctx context.Context, list string, keep int64) error {
	evicted, err := q.client.LRange(ctx, q.key(list), keep, -1).Result()
	if err != nil || len(evicted) == 0 {
		return err
	}
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LTrim(ctx, q.key(list), 0, keep-1)
		for _, id := range evicted {
			pipe.Del(ctx, q.jobKey(id))
		}
		return nil
	})
	return err
}

// retryLater puts a failed job into the delayed set.
func (q *Queue) retryLater(ctx context.Context, job *Job, delay time.Duration) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := q.saveJob(ctx, pipe, job); err != nil {
			return err
		}
		pipe.LRem(ctx, q.key("active"), 1, job.ID)
		pipe.ZAdd(ctx, q.key("delayed"), redis.Z{
			Score:  float64(q.now().Add(delay).UnixMilli()),
			Member: job.ID,
		})
		return nil
	})
	return err
}

// jobProgress reports progress of a single job to the queue.
type jobProgress struct {
	queue *Queue
	id    string
}

func (p jobProgress) UpdateProgress(ctx context.Context, progress shared.JobProgress) error {
	return p.queue.UpdateProgress(ctx, p.id, progress)
}
