// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/l3montree-dev/issuesync/database/models"
)

type ProviderType = models.IntegrationProvider

const (
	ProviderJira        = models.ProviderJira
	ProviderGithub      = models.ProviderGithub
	ProviderAzureDevOps = models.ProviderAzureDevOps
	ProviderSimpleURL   = models.ProviderSimpleURL
)

// Capabilities declares which optional operations an adapter supports.
// It only depends on the adapter type, never on its authentication state.
type Capabilities struct {
	CreateIssue  bool `json:"createIssue"`
	UpdateIssue  bool `json:"updateIssue"`
	LinkIssue    bool `json:"linkIssue"`
	SyncIssue    bool `json:"syncIssue"`
	SearchIssues bool `json:"searchIssues"`
	Webhooks     bool `json:"webhooks"`
	CustomFields bool `json:"customFields"`
	Attachments  bool `json:"attachments"`
}

type AuthType string

const (
	AuthTypeOAuth  AuthType = "oauth"
	AuthTypeAPIKey AuthType = "api_key"
	AuthTypeBasic  AuthType = "basic"
	AuthTypeNone   AuthType = "none"
)

// AuthData is the tagged union handed to Authenticate. Type selects which fields are meaningful.
type AuthData struct {
	Type AuthType `json:"type"`

	// oauth
	AccessToken  string     `json:"accessToken,omitempty"`
	RefreshToken string     `json:"refreshToken,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	Scopes       []string   `json:"scopes,omitempty"`

	// api_key
	APIKey string `json:"apiKey,omitempty"`
	Email  string `json:"email,omitempty"`

	// basic
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`

	BaseURL string `json:"baseUrl,omitempty"`
}

func (a AuthData) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}

type IssueType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IconURL     string `json:"iconUrl,omitempty"`
	Description string `json:"description,omitempty"`
}

type IssueUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// NormalizedIssue is the provider independent issue shape every adapter returns.
type NormalizedIssue struct {
	ID           string         `json:"id"`
	Key          string         `json:"key,omitempty"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Status       string         `json:"status"`
	Priority     string         `json:"priority,omitempty"`
	IssueType    *IssueType     `json:"issueType,omitempty"`
	Assignee     *IssueUser     `json:"assignee,omitempty"`
	Reporter     *IssueUser     `json:"reporter,omitempty"`
	Labels       []string       `json:"labels,omitempty"`
	CustomFields map[string]any `json:"customFields,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	URL          string         `json:"url,omitempty"`
}

// Validate reports a malformed record. id, title and status are mandatory.
func (i NormalizedIssue) Validate() error {
	switch {
	case i.ID == "":
		return fmt.Errorf("malformed issue: missing id")
	case i.Title == "":
		return fmt.Errorf("malformed issue %s: missing title", i.ID)
	case i.Status == "":
		return fmt.Errorf("malformed issue %s: missing status", i.ID)
	}
	return nil
}

type IssueData struct {
	Title        string         `json:"title" validate:"required"`
	Description  string         `json:"description,omitempty"`
	Status       string         `json:"status,omitempty"`
	Priority     string         `json:"priority,omitempty"`
	IssueType    string         `json:"issueType,omitempty"`
	Assignee     string         `json:"assignee,omitempty"`
	Labels       []string       `json:"labels,omitempty"`
	ProjectID    string         `json:"projectId,omitempty"`
	CustomFields map[string]any `json:"customFields,omitempty"`
}

// IssueUpdate only changes the fields which are set.
type IssueUpdate struct {
	Title        *string        `json:"title,omitempty"`
	Description  *string        `json:"description,omitempty"`
	Status       *string        `json:"status,omitempty"`
	Priority     *string        `json:"priority,omitempty"`
	Assignee     *string        `json:"assignee,omitempty"`
	Labels       []string       `json:"labels,omitempty"`
	CustomFields map[string]any `json:"customFields,omitempty"`
}

type SearchOptions struct {
	Query     string   `json:"query,omitempty"`
	ProjectID string   `json:"projectId,omitempty"`
	Status    []string `json:"status,omitempty"`
	Assignee  string   `json:"assignee,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	IssueType string   `json:"issueType,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Offset    int      `json:"offset,omitempty"`
}

func (o SearchOptions) LimitOrDefault(def int) int {
	if o.Limit <= 0 {
		return def
	}
	return o.Limit
}

type SearchResult struct {
	Issues  []NormalizedIssue `json:"issues"`
	Total   int               `json:"total"`
	HasMore bool              `json:"hasMore"`
}

type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func NewValidationResult(errs []string) ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

type ExternalProject struct {
	ID   string `json:"id"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type ExternalStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

type ExternalPriority struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IconURL string `json:"iconUrl,omitempty"`
}

type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	URL      string `json:"url"`
	Size     int    `json:"size"`
}

// AdapterConfig is the integration's stored settings merged onto its identity.
type AdapterConfig struct {
	ID       uint           `json:"id"`
	Name     string         `json:"name"`
	Provider ProviderType   `json:"provider"`
	Settings map[string]any `json:"settings"`

	// LocalDB is the database of the tenant the integration belongs to.
	LocalDB DB `json:"-"`
}

// IssueTrackerAdapter is the contract every provider implementation satisfies.
// Operations whose capability flag is false return a NotSupportedError without
// touching the network.
type IssueTrackerAdapter interface {
	Provider() ProviderType
	Capabilities() Capabilities

	Authenticate(ctx context.Context, auth AuthData) error
	IsAuthenticated(ctx context.Context) bool

	CreateIssue(ctx context.Context, data IssueData) (NormalizedIssue, error)
	UpdateIssue(ctx context.Context, issueID string, data IssueUpdate) (NormalizedIssue, error)
	GetIssue(ctx context.Context, issueID string) (NormalizedIssue, error)
	SearchIssues(ctx context.Context, opts SearchOptions) (SearchResult, error)
	AddComment(ctx context.Context, issueID string, text string) error
	SyncIssue(ctx context.Context, issueID string) (NormalizedIssue, error)
	LinkToTestCase(ctx context.Context, issueID string, testCaseID string, metadata map[string]any) error

	ValidateConfiguration(ctx context.Context) (ValidationResult, error)
}

// MetadataProvider is implemented by adapters which can list provider metadata.
type MetadataProvider interface {
	GetProjects(ctx context.Context) ([]ExternalProject, error)
	GetIssueTypes(ctx context.Context, projectID string) ([]IssueType, error)
	GetStatuses(ctx context.Context, projectID string) ([]ExternalStatus, error)
	GetPriorities(ctx context.Context) ([]ExternalPriority, error)
}

type AttachmentUploader interface {
	UploadAttachment(ctx context.Context, issueID string, fileName string, content []byte) (Attachment, error)
}

type AdapterFactory func(cfg AdapterConfig) (IssueTrackerAdapter, error)
