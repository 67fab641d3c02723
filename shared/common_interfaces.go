// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package shared

import (
	"context"
	"time"

	"github.com/l3montree-dev/issuesync/database/models"
)

type IntegrationRepository interface {
	Read(id uint) (models.Integration, error)
	All() ([]models.Integration, error)
	Save(tx DB, t *models.Integration) error
	// ReadWithActiveAuths loads the integration and its active user auths, newest first.
	ReadWithActiveAuths(ctx context.Context, tx DB, id uint) (models.Integration, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, tx DB, id string) (models.User, error)
}

type IssueRepository interface {
	// ReadWithProjectRefs loads the issue with every association needed to resolve its project.
	ReadWithProjectRefs(ctx context.Context, tx DB, id uint) (models.Issue, error)
	FindByExternalIdentifier(ctx context.Context, tx DB, integrationID uint, identifier string) (models.Issue, error)
	SearchLocal(ctx context.Context, tx DB, integrationID uint, opts SearchOptions) ([]models.Issue, int64, error)
}

// IssueStore is the data access the sync path needs. Implementations may enforce
// row level authorization for the acting user.
type IssueStore interface {
	FindIntegration(ctx context.Context, integrationID uint) (models.Integration, error)
	CountIssues(ctx context.Context, integrationID uint, projectID *string) (int64, error)
	ListIssues(ctx context.Context, integrationID uint, projectID *string, offset, limit int) ([]models.Issue, error)
	// FindIssueByExternalRef matches externalId or externalKey against id or key, scoped to the integration.
	FindIssueByExternalRef(ctx context.Context, integrationID uint, id, key string) (models.Issue, error)
	UpdateIssue(ctx context.Context, issue *models.Issue) error
}

// IssueStoreFactory builds an authorization scoped IssueStore for the acting user.
type IssueStoreFactory interface {
	ForUser(db DB, user models.User) (IssueStore, error)
}

type IntegrationManager interface {
	GetAdapter(ctx context.Context, db DB, integrationID uint) (IssueTrackerAdapter, error)
	ClearAdapter(ctx context.Context, integrationID uint)
	ClearAllAdapters()
	GetCapabilities(ctx context.Context, db DB, integrationID uint) (Capabilities, error)
	ValidateIntegration(ctx context.Context, db DB, integrationID uint) (ValidationResult, error)
}

type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetEx(ctx context.Context, key string, value string, ttl time.Duration) error
	// SetMany writes all entries in one pipelined batch.
	SetMany(ctx context.Context, entries map[string]string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

type CachedIssue struct {
	NormalizedIssue
	CachedAt time.Time `json:"cachedAt"`
}

type CachedIssues struct {
	Issues   []NormalizedIssue `json:"issues"`
	CachedAt time.Time         `json:"cachedAt"`
}

type ProviderMetadata struct {
	IssueTypes []IssueType        `json:"issueTypes,omitempty"`
	Statuses   []ExternalStatus   `json:"statuses,omitempty"`
	Priorities []ExternalPriority `json:"priorities,omitempty"`
	CachedAt   time.Time          `json:"cachedAt"`
}

type CachedProjects struct {
	Projects []ExternalProject `json:"projects"`
	CachedAt time.Time         `json:"cachedAt"`
}

type IssueCache interface {
	GetIssue(ctx context.Context, integrationID uint, issueID string) *CachedIssue
	SetIssue(ctx context.Context, integrationID uint, issue NormalizedIssue)
	GetIssues(ctx context.Context, integrationID uint, projectID string) *CachedIssues
	SetIssues(ctx context.Context, integrationID uint, projectID string, issues []NormalizedIssue)
	GetMetadata(ctx context.Context, integrationID uint) *ProviderMetadata
	SetMetadata(ctx context.Context, integrationID uint, metadata ProviderMetadata)
	GetProjects(ctx context.Context, integrationID uint) *CachedProjects
	SetProjects(ctx context.Context, integrationID uint, projects []ExternalProject)
	InvalidateIssue(ctx context.Context, integrationID uint, issueID string)
	InvalidateIntegration(ctx context.Context, integrationID uint)
	InvalidateProject(ctx context.Context, integrationID uint, projectID string)
	WarmCache(ctx context.Context, integrationID uint, projectID string, fetch func(ctx context.Context) ([]NormalizedIssue, error))
}

type JobName string

const (
	JobSyncIssues        JobName = "sync-issues"
	JobSyncProjectIssues JobName = "sync-project-issues"
	JobRefreshIssue      JobName = "refresh-issue"
	JobCreateIssue       JobName = "create-issue"
	JobUpdateIssue       JobName = "update-issue"
)

type SyncAction string

const (
	SyncActionSync    SyncAction = "sync"
	SyncActionCreate  SyncAction = "create"
	SyncActionUpdate  SyncAction = "update"
	SyncActionRefresh SyncAction = "refresh"
)

// SyncJobData is the payload every sync queue job carries.
type SyncJobData struct {
	UserID        string         `json:"userId"`
	IntegrationID uint           `json:"integrationId"`
	ProjectID     *string        `json:"projectId,omitempty"`
	IssueID       *string        `json:"issueId,omitempty"`
	Action        SyncAction     `json:"action"`
	Data          map[string]any `json:"data,omitempty"`
	TenantID      *string        `json:"tenantId,omitempty"`
}

type JobProgress struct {
	Current    int    `json:"current"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

type ProgressReporter interface {
	UpdateProgress(ctx context.Context, progress JobProgress) error
}

type JobQueue interface {
	Enqueue(ctx context.Context, name JobName, data SyncJobData) (string, error)
}

// SearchIndexer writes a single issue into the tenant's search index. It never
// blocks the caller and never reports failures back.
type SearchIndexer interface {
	IndexIssue(ctx context.Context, db DB, tenantID string, issueID uint)
}

type SyncOptions struct {
	IncludeMetadata bool `json:"includeMetadata,omitempty"`
}

// ServiceOptions selects the database and tenant a sync runs against.
type ServiceOptions struct {
	DB       DB
	TenantID string
}

type SyncResult struct {
	Synced int      `json:"synced"`
	Errors []string `json:"errors"`
}

type RefreshResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type SyncService interface {
	QueueSync(ctx context.Context, userID string, integrationID uint, opts SyncOptions) *string
	QueueProjectSync(ctx context.Context, userID string, integrationID uint, projectID string, opts SyncOptions) *string
	QueueIssueCreate(ctx context.Context, userID string, integrationID uint, data IssueData) *string
	QueueIssueUpdate(ctx context.Context, userID string, integrationID uint, issueID string, data IssueUpdate) *string
	QueueIssueRefresh(ctx context.Context, userID string, integrationID uint, issueID string) *string

	PerformSync(ctx context.Context, userID string, integrationID uint, projectID *string, opts SyncOptions, progress ProgressReporter, serviceOpts ServiceOptions) (SyncResult, error)
	PerformIssueRefresh(ctx context.Context, userID string, integrationID uint, externalIssueID string, serviceOpts ServiceOptions) RefreshResult
}
