// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package queue

import (
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/l3montree-dev/issuesync/shared"
)

type JobState string

const (
	StateWaiting   JobState = "waiting"
	StateActive    JobState = "active"
	StateDelayed   JobState = "delayed"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
)

type Job struct {
	ID           string             `json:"id"`
	Name         shared.JobName     `json:"name"`
	Data         shared.SyncJobData `json:"data"`
	AttemptsMade int                `json:"attemptsMade"`
	MaxAttempts  int                `json:"maxAttempts"`
	// Backoff is the delay before the first retry. It doubles with every further attempt.
	Backoff      time.Duration      `json:"backoff"`
	Progress     shared.JobProgress `json:"progress"`
	State        JobState           `json:"state"`
	FailedReason string             `json:"failedReason,omitempty"`
	ReturnValue  json.RawMessage    `json:"returnValue,omitempty"`
	StalledCount int                `json:"stalledCount"`

	CreatedAt   time.Time  `json:"createdAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

var retryPolicies = map[shared.JobName]RetryPolicy{
	shared.JobSyncIssues:        {Attempts: 3, Backoff: 5 * time.Second},
	shared.JobSyncProjectIssues: {Attempts: 3, Backoff: 5 * time.Second},
	shared.JobRefreshIssue:      {Attempts: 3, Backoff: 2 * time.Second},
	shared.JobCreateIssue:       {Attempts: 1},
	shared.JobUpdateIssue:       {Attempts: 1},
}

func PolicyFor(name shared.JobName) RetryPolicy {
	if p, ok := retryPolicies[name]; ok {
		return p
	}
	return RetryPolicy{Attempts: 1}
}

// retryDelay returns the delay before the next attempt after attemptsMade failures.
func (j Job) retryDelay() time.Duration {
	if j.Backoff <= 0 {
		return 0
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = j.Backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 24 * time.Hour
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.NextBackOff()
	for i := 1; i < j.AttemptsMade; i++ {
		delay = b.NextBackOff()
	}
	return delay
}

func (j Job) canRetry() bool {
	return j.AttemptsMade < j.MaxAttempts
}
