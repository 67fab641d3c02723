// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/integrations/githubint"
	"github.com/l3montree-dev/issuesync/monitoring"
	"github.com/l3montree-dev/issuesync/shared"
	"golang.org/x/sync/errgroup"
)

const (
	syncBatchSize = 50
	batchYield    = 10 * time.Millisecond
)

type syncService struct {
	db                 shared.DB
	queue              shared.JobQueue
	userRepository     shared.UserRepository
	issueStoreFactory  shared.IssueStoreFactory
	integrationManager shared.IntegrationManager
	issueCache         shared.IssueCache
	searchIndexer      shared.SearchIndexer

	yield time.Duration
	now   func() time.Time
}

var _ shared.SyncService = &syncService{}

// NewSyncService accepts a nil queue and a nil search indexer. Enqueueing
// returns no job id then and issues are not indexed.
func NewSyncService(
	db shared.DB,
	queue shared.JobQueue,
	userRepository shared.UserRepository,
	issueStoreFactory shared.IssueStoreFactory,
	integrationManager shared.IntegrationManager,
	issueCache shared.IssueCache,
	searchIndexer shared.SearchIndexer,
) *syncService {
	return &syncService{
		db:                 db,
		queue:              queue,
		userRepository:     userRepository,
		issueStoreFactory:  issueStoreFactory,
		integrationManager: integrationManager,
		issueCache:         issueCache,
		searchIndexer:      searchIndexer,
		yield:              batchYield,
		now:                time.Now,
	}
}

func (s *syncService) enqueue(ctx context.Context, name shared.JobName, data shared.SyncJobData) *string {
	if s.queue == nil {
		slog.Warn("job queue is not available, job not scheduled", "job", name, "integrationId", data.IntegrationID)
		return nil
	}
	if tenantID := shared.TenantFromContext(ctx); tenantID != "" {
		data.TenantID = &tenantID
	}
	id, err := s.queue.Enqueue(ctx, name, data)
	if err != nil {
		slog.Error("could not enqueue job", "job", name, "integrationId", data.IntegrationID, "err", err)
		return nil
	}
	slog.Info("job enqueued", "job", name, "jobId", id, "integrationId", data.IntegrationID)
	return &id
}

func optionsToData(opts shared.SyncOptions) map[string]any {
	return map[string]any{"includeMetadata": opts.IncludeMetadata}
}

func (s *syncService) QueueSync(ctx context.Context, userID string, integrationID uint, opts shared.SyncOptions) *string {
	return s.enqueue(ctx, shared.JobSyncIssues, shared.SyncJobData{
		UserID:        userID,
		IntegrationID: integrationID,
		Action:        shared.SyncActionSync,
		Data:          optionsToData(opts),
	})
}

func (s *syncService) QueueProjectSync(ctx context.Context, userID string, integrationID uint, projectID string, opts shared.SyncOptions) *string {
	return s.enqueue(ctx, shared.JobSyncProjectIssues, shared.SyncJobData{
		UserID:        userID,
		IntegrationID: integrationID,
		ProjectID:     &projectID,
		Action:        shared.SyncActionSync,
		Data:          optionsToData(opts),
	})
}

func toMap(v any) map[string]any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

func (s *syncService) QueueIssueCreate(ctx context.Context, userID string, integrationID uint, data shared.IssueData) *string {
	return s.enqueue(ctx, shared.JobCreateIssue, shared.SyncJobData{
		UserID:        userID,
		IntegrationID: integrationID,
		Action:        shared.SyncActionCreate,
		Data:          toMap(data),
	})
}

func (s *syncService) QueueIssueUpdate(ctx context.Context, userID string, integrationID uint, issueID string, data shared.IssueUpdate) *string {
	return s.enqueue(ctx, shared.JobUpdateIssue, shared.SyncJobData{
		UserID:        userID,
		IntegrationID: integrationID,
		IssueID:       &issueID,
		Action:        shared.SyncActionUpdate,
		Data:          toMap(data),
	})
}

func (s *syncService) QueueIssueRefresh(ctx context.Context, userID string, integrationID uint, issueID string) *string {
	return s.enqueue(ctx, shared.JobRefreshIssue, shared.SyncJobData{
		UserID:        userID,
		IntegrationID: integrationID,
		IssueID:       &issueID,
		Action:        shared.SyncActionRefresh,
	})
}

func (s *syncService) dbFor(opts shared.ServiceOptions) shared.DB {
	if opts.DB != nil {
		return opts.DB
	}
	return s.db
}

// prepare loads the acting user and the integration through the user's scoped store
// and checks that the integration can authenticate.
func (s *syncService) prepare(ctx context.Context, db shared.DB, userID string, integrationID uint) (shared.IssueStore, models.Integration, error) {
	user, err := s.userRepository.FindByID(ctx, db, userID)
	if err != nil {
		return nil, models.Integration{}, fmt.Errorf("could not load user: %w", err)
	}

	store, err := s.issueStoreFactory.ForUser(db, user)
	if err != nil {
		return nil, models.Integration{}, fmt.Errorf("could not create scoped store: %w", err)
	}

	integration, err := store.FindIntegration(ctx, integrationID)
	if err != nil {
		return nil, models.Integration{}, err
	}

	if err := checkAuthentication(integration, s.now()); err != nil {
		return nil, models.Integration{}, err
	}
	return store, integration, nil
}

// checkAuthentication runs once per job. A token expiring during a sync surfaces
// on the provider call.
func checkAuthentication(integration models.Integration, now time.Time) error {
	switch integration.AuthType {
	case models.IntegrationAuthNone:
		return nil
	case models.IntegrationAuthOAuth2:
		auth := integration.LatestActiveAuth()
		if auth == nil {
			return shared.NewAuthenticationError(integration.Provider, "no active user authorization for oauth integration", nil)
		}
		if auth.Expired(now) {
			return shared.NewAuthenticationError(integration.Provider, "access token has expired, please reconnect the integration", nil)
		}
		return nil
	case models.IntegrationAuthAPIKey, models.IntegrationAuthPersonalAccessToken:
		if !integration.HasCredentials() {
			return shared.NewAuthenticationError(integration.Provider, "no credentials stored for integration", nil)
		}
		return nil
	default:
		if integration.LatestActiveAuth() == nil && !integration.HasCredentials() {
			return shared.NewAuthenticationError(integration.Provider, "integration has neither a user authorization nor stored credentials", nil)
		}
		return nil
	}
}

func (s *syncService) PerformSync(ctx context.Context, userID string, integrationID uint, projectID *string, opts shared.SyncOptions, progress shared.ProgressReporter, serviceOpts shared.ServiceOptions) (shared.SyncResult, error) {
	start := s.now()
	db := s.dbFor(serviceOpts)
	result := shared.SyncResult{Errors: []string{}}

	store, integration, err := s.prepare(ctx, db, userID, integrationID)
	if err != nil {
		return result, err
	}

	adapter, err := s.integrationManager.GetAdapter(ctx, db, integrationID)
	if err != nil {
		return result, fmt.Errorf("could not get adapter: %w", err)
	}

	total, err := store.CountIssues(ctx, integrationID, projectID)
	if err != nil {
		return result, fmt.Errorf("could not count issues: %w", err)
	}

	provider := string(integration.Provider)
	processed := 0
	for offset := 0; ; offset += syncBatchSize {
		batch, err := store.ListIssues(ctx, integrationID, projectID, offset, syncBatchSize)
		if err != nil {
			return result, fmt.Errorf("could not list issues: %w", err)
		}

		for _, issue := range batch {
			if err := s.syncOne(ctx, store, db, serviceOpts.TenantID, adapter, integrationID, issue); err != nil {
				result.Errors = append(result.Errors, err.Error())
				monitoring.IssueSyncErrorsAmount.WithLabelValues(provider).Inc()
			} else {
				result.Synced++
				monitoring.IssuesSyncedAmount.WithLabelValues(provider).Inc()
			}
			processed++
			s.reportProgress(ctx, progress, processed, int(total), issue)
		}

		if len(batch) < syncBatchSize {
			break
		}
		if err := s.pause(ctx); err != nil {
			return result, err
		}
	}

	if opts.IncludeMetadata {
		if err := s.syncMetadata(ctx, adapter, integrationID); err != nil {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	monitoring.SyncDuration.WithLabelValues(provider).Observe(s.now().Sub(start).Minutes())
	slog.Info("sync finished", "integrationId", integrationID, "projectId", projectID, "synced", result.Synced, "errors", len(result.Errors))
	return result, nil
}

func (s *syncService) pause(ctx context.Context) error {
	if s.yield <= 0 {
		return nil
	}
	t := time.NewTimer(s.yield)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *syncService) syncOne(ctx context.Context, store shared.IssueStore, db shared.DB, tenantID string, adapter shared.IssueTrackerAdapter, integrationID uint, issue models.Issue) error {
	identifier := issue.ExternalIdentifier()
	if identifier == "" {
		return fmt.Errorf("issue %d has no external identifier", issue.ID)
	}

	synced, err := adapter.SyncIssue(ctx, identifier)
	if err != nil {
		return fmt.Errorf("issue %d (%s): %w", issue.ID, identifier, err)
	}
	if err := synced.Validate(); err != nil {
		return fmt.Errorf("issue %d (%s): %w", issue.ID, identifier, err)
	}

	s.issueCache.SetIssue(ctx, integrationID, synced)

	if err := s.updateExistingIssue(ctx, store, db, tenantID, integrationID, synced); err != nil {
		return fmt.Errorf("issue %d (%s): %w", issue.ID, identifier, err)
	}
	return nil
}

func (s *syncService) reportProgress(ctx context.Context, progress shared.ProgressReporter, current, total int, issue models.Issue) {
	if progress == nil {
		return
	}
	percentage := 100
	if total > 0 {
		percentage = current * 100 / total
	}
	err := progress.UpdateProgress(ctx, shared.JobProgress{
		Current:    current,
		Total:      total,
		Percentage: percentage,
		Message:    fmt.Sprintf("synced issue %s", issue.Name),
	})
	if err != nil {
		slog.Warn("could not report sync progress", "err", err)
	}
}

// syncMetadata is best effort. Every list which could be fetched is cached.
func (s *syncService) syncMetadata(ctx context.Context, adapter shared.IssueTrackerAdapter, integrationID uint) error {
	provider, ok := adapter.(shared.MetadataProvider)
	if !ok {
		return nil
	}

	var (
		g        errgroup.Group
		mu       sync.Mutex
		metadata shared.ProviderMetadata
		projects []shared.ExternalProject
		errs     []error
	)
	record := func(what string, err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, fmt.Errorf("could not fetch %s: %w", what, err))
	}

	g.Go(func() error {
		res, err := provider.GetProjects(ctx)
		if err != nil {
			record("projects", err)
			return nil
		}
		projects = res
		return nil
	})
	g.Go(func() error {
		res, err := provider.GetIssueTypes(ctx, "")
		if err != nil {
			record("issue types", err)
			return nil
		}
		metadata.IssueTypes = res
		return nil
	})
	g.Go(func() error {
		res, err := provider.GetStatuses(ctx, "")
		if err != nil {
			record("statuses", err)
			return nil
		}
		metadata.Statuses = res
		return nil
	})
	g.Go(func() error {
		res, err := provider.GetPriorities(ctx)
		if err != nil {
			record("priorities", err)
			return nil
		}
		metadata.Priorities = res
		return nil
	})
	_ = g.Wait()

	if projects != nil {
		s.issueCache.SetProjects(ctx, integrationID, projects)
	}
	if metadata.IssueTypes != nil || metadata.Statuses != nil || metadata.Priorities != nil {
		s.issueCache.SetMetadata(ctx, integrationID, metadata)
	}

	if len(errs) > 0 {
		return fmt.Errorf("metadata sync: %w", errors.Join(errs...))
	}
	return nil
}

func (s *syncService) PerformIssueRefresh(ctx context.Context, userID string, integrationID uint, externalIssueID string, serviceOpts shared.ServiceOptions) shared.RefreshResult {
	db := s.dbFor(serviceOpts)

	store, integration, err := s.prepare(ctx, db, userID, integrationID)
	if err != nil {
		return shared.RefreshResult{Error: err.Error()}
	}

	adapter, err := s.integrationManager.GetAdapter(ctx, db, integrationID)
	if err != nil {
		return shared.RefreshResult{Error: fmt.Sprintf("could not get adapter: %v", err)}
	}
	if !adapter.Capabilities().SyncIssue {
		return shared.RefreshResult{Error: shared.NewNotSupportedError(integration.Provider, "syncIssue").Error()}
	}

	identifier := externalIssueID
	if integration.Provider == models.ProviderGithub {
		identifier = s.githubIdentifier(ctx, store, integrationID, externalIssueID)
	}

	synced, err := adapter.SyncIssue(ctx, identifier)
	if err != nil {
		return shared.RefreshResult{Error: err.Error()}
	}
	if err := synced.Validate(); err != nil {
		return shared.RefreshResult{Error: err.Error()}
	}

	s.issueCache.SetIssue(ctx, integrationID, synced)

	if err := s.updateExistingIssue(ctx, store, db, serviceOpts.TenantID, integrationID, synced); err != nil {
		return shared.RefreshResult{Error: err.Error()}
	}
	return shared.RefreshResult{Success: true}
}

// githubIdentifier restores the repository of a bare "#123" identifier from the
// cached issue or the issue data stored on the local row.
func (s *syncService) githubIdentifier(ctx context.Context, store shared.IssueStore, integrationID uint, id string) string {
	if cached := s.issueCache.GetIssue(ctx, integrationID, id); cached != nil && len(cached.CustomFields) > 0 {
		return githubint.RewriteIdentifier(id, cached.CustomFields)
	}

	local, err := store.FindIssueByExternalRef(ctx, integrationID, id, id)
	if err != nil || len(local.ExternalData) == 0 {
		return id
	}
	var stored shared.NormalizedIssue
	if err := json.Unmarshal(local.ExternalData, &stored); err != nil {
		slog.Warn("could not parse stored issue data", "issueId", local.ID, "err", err)
		return id
	}
	return githubint.RewriteIdentifier(id, stored.CustomFields)
}

// updateExistingIssue never creates issues. Unknown external issues are an error.
func (s *syncService) updateExistingIssue(ctx context.Context, store shared.IssueStore, db shared.DB, tenantID string, integrationID uint, data shared.NormalizedIssue) error {
	issue, err := store.FindIssueByExternalRef(ctx, integrationID, data.ID, data.Key)
	if err != nil {
		return err
	}

	externalData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("could not encode external data: %w", err)
	}

	now := s.now()
	issue.Title = data.Title
	issue.Description = data.Description
	issue.Status = data.Status
	issue.Priority = data.Priority
	issue.ExternalID = shared.Ptr(data.ID)
	if data.Key != "" {
		issue.ExternalKey = shared.Ptr(data.Key)
	}
	if data.URL != "" {
		issue.ExternalURL = shared.Ptr(data.URL)
	}
	issue.ExternalStatus = shared.Ptr(data.Status)
	issue.ExternalData = externalData
	if data.IssueType != nil {
		issue.IssueTypeID = shared.Ptr(data.IssueType.ID)
		issue.IssueTypeName = shared.Ptr(data.IssueType.Name)
		if data.IssueType.IconURL != "" {
			issue.IssueTypeIconURL = shared.Ptr(data.IssueType.IconURL)
		}
	}
	issue.LastSyncedAt = &now
	issue.UpdatedAt = now

	if err := store.UpdateIssue(ctx, &issue); err != nil {
		return fmt.Errorf("could not update issue: %w", err)
	}

	if s.searchIndexer != nil {
		s.searchIndexer.IndexIssue(ctx, db, tenantID, issue.ID)
	}
	return nil
}
