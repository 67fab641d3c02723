// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package daemons

import (
	"context"
	"log/slog"
	"sync"

	"github.com/l3montree-dev/issuesync/queue"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var errNotImplemented = errors.New("not implemented")

// SyncWorker drains the sync queue and hands every job to the sync service.
type SyncWorker struct {
	client      *redis.Client
	queue       *queue.Queue
	syncService shared.SyncService
	tenants     shared.TenantRouter
	multiTenant bool
	options     queue.WorkerOptions

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSyncWorker(client *redis.Client, q *queue.Queue, syncService shared.SyncService, tenants shared.TenantRouter) *SyncWorker {
	return &SyncWorker{
		client:      client,
		queue:       q,
		syncService: syncService,
		tenants:     tenants,
		multiTenant: shared.IsMultiTenantMode(),
		options:     queue.DefaultWorkerOptions(),
	}
}

// Start launches the worker loop in the background.
func (w *SyncWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.client == nil || w.queue == nil {
		slog.Warn("no valkey connection available, the sync worker will not process any jobs")
		return
	}
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	worker := queue.NewWorker(w.client, w.queue, w.Process, w.options)
	go func() {
		defer close(w.done)
		slog.Info("sync worker started", "concurrency", 1, "lockDuration", w.options.LockDuration)
		worker.Run(ctx)
	}()
}

// Stop waits for the running job to return the loop and disconnects every tenant database.
func (w *SyncWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			slog.Warn("sync worker did not stop in time")
		}
	}

	if w.multiTenant && w.tenants != nil {
		w.tenants.DisconnectAll()
	}
	slog.Info("sync worker stopped")
	return nil
}

// Process executes a single queue job.
func (w *SyncWorker) Process(ctx context.Context, job *queue.Job, progress shared.ProgressReporter) (any, error) {
	data := job.Data

	tenantID := ""
	if data.TenantID != nil {
		tenantID = *data.TenantID
	}
	if w.multiTenant && tenantID == "" {
		return nil, shared.NewConfigurationError("job %s has no tenantId but multi tenant mode is enabled", job.ID)
	}

	db, err := w.tenants.DB(ctx, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "could not resolve database")
	}

	ctx = shared.WithTenant(ctx, tenantID)
	serviceOpts := shared.ServiceOptions{DB: db, TenantID: tenantID}

	logger := slog.With("job", job.ID, "name", job.Name, "integrationId", data.IntegrationID, "tenant", tenantID)
	logger.Info("processing sync job", "attempt", job.AttemptsMade+1)

	switch job.Name {
	case shared.JobSyncIssues:
		return w.syncService.PerformSync(ctx, data.UserID, data.IntegrationID, nil, syncOptions(data), progress, serviceOpts)
	case shared.JobSyncProjectIssues:
		if data.ProjectID == nil || *data.ProjectID == "" {
			return nil, shared.NewConfigurationError("job %s has no projectId", job.ID)
		}
		return w.syncService.PerformSync(ctx, data.UserID, data.IntegrationID, data.ProjectID, syncOptions(data), progress, serviceOpts)
	case shared.JobRefreshIssue:
		if data.IssueID == nil || *data.IssueID == "" {
			return nil, shared.NewConfigurationError("job %s has no issueId", job.ID)
		}
		result := w.syncService.PerformIssueRefresh(ctx, data.UserID, data.IntegrationID, *data.IssueID, serviceOpts)
		if !result.Success {
			// fail the job so the queue retries the refresh
			return result, errors.New(result.Error)
		}
		return result, nil
	case shared.JobCreateIssue, shared.JobUpdateIssue:
		return nil, errors.Wrapf(errNotImplemented, "%s", job.Name)
	}
	return nil, errors.Errorf("unknown job type %s", job.Name)
}

func syncOptions(data shared.SyncJobData) shared.SyncOptions {
	includeMetadata, _ := data.Data["includeMetadata"].(bool)
	return shared.SyncOptions{IncludeMetadata: includeMetadata}
}
