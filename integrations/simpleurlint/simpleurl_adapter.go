// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package simpleurlint

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/database/repositories"
	"github.com/l3montree-dev/issuesync/integrations/commonint"
	"github.com/l3montree-dev/issuesync/shared"
	"gorm.io/gorm"
)

const (
	Placeholder   = "{issueId}"
	UnknownStatus = "Unknown"
)

var capabilities = shared.Capabilities{
	CreateIssue:  false,
	UpdateIssue:  false,
	LinkIssue:    true,
	SyncIssue:    true,
	SearchIssues: true,
	Webhooks:     false,
	CustomFields: false,
	Attachments:  false,
}

// adapter links to trackers without an api. Issues only exist as urls built from a template
// and as rows in the local database.
type adapter struct {
	cfg     shared.AdapterConfig
	state   commonint.AuthState
	baseURL string
	issues  shared.IssueRepository
}

var _ shared.IssueTrackerAdapter = (*adapter)(nil)

func NewAdapter(cfg shared.AdapterConfig) (shared.IssueTrackerAdapter, error) {
	a := &adapter{
		cfg:     cfg,
		baseURL: commonint.StringSetting(cfg.Settings, "baseUrl"),
	}
	if cfg.LocalDB != nil {
		a.issues = repositories.NewIssueRepository(cfg.LocalDB)
	}
	return a, nil
}

func (a *adapter) Provider() shared.ProviderType {
	return shared.ProviderSimpleURL
}

func (a *adapter) Capabilities() shared.Capabilities {
	return capabilities
}

// Authenticate never talks to the network, there is nothing to authenticate against.
func (a *adapter) Authenticate(ctx context.Context, auth shared.AuthData) error {
	a.state.MarkAuthenticated(nil)
	return nil
}

func (a *adapter) IsAuthenticated(ctx context.Context) bool {
	return a.state.Valid(time.Now())
}

func (a *adapter) IssueURL(issueID string) string {
	return strings.ReplaceAll(a.baseURL, Placeholder, url.PathEscape(issueID))
}

func (a *adapter) CreateIssue(ctx context.Context, data shared.IssueData) (shared.NormalizedIssue, error) {
	return shared.NormalizedIssue{}, shared.NewNotSupportedError(shared.ProviderSimpleURL, "createIssue")
}

func (a *adapter) UpdateIssue(ctx context.Context, issueID string, data shared.IssueUpdate) (shared.NormalizedIssue, error) {
	return shared.NormalizedIssue{}, shared.NewNotSupportedError(shared.ProviderSimpleURL, "updateIssue")
}

// GetIssue synthesizes the issue from the url template. A known local issue contributes its title.
func (a *adapter) GetIssue(ctx context.Context, issueID string) (shared.NormalizedIssue, error) {
	if strings.TrimSpace(issueID) == "" {
		return shared.NormalizedIssue{}, fmt.Errorf("issue id is required")
	}
	if a.baseURL == "" {
		return shared.NormalizedIssue{}, shared.NewConfigurationError("simple url integration has no base url")
	}

	issue := shared.NormalizedIssue{
		ID:     issueID,
		Key:    issueID,
		Title:  issueID,
		Status: UnknownStatus,
		URL:    a.IssueURL(issueID),
	}
	if a.issues != nil {
		local, err := a.issues.FindByExternalIdentifier(ctx, nil, a.cfg.ID, issueID)
		if err == nil {
			issue.Title = shared.FirstNonEmpty(local.Title, issueID)
			issue.Description = local.Description
			issue.CreatedAt = local.CreatedAt
			issue.UpdatedAt = local.UpdatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.NormalizedIssue{}, err
		}
	}
	return issue, nil
}

// SearchIssues reads the local issue table, the tracker itself cannot be queried.
func (a *adapter) SearchIssues(ctx context.Context, opts shared.SearchOptions) (shared.SearchResult, error) {
	if a.issues == nil {
		return shared.SearchResult{}, shared.NewConfigurationError("simple url search requires a database")
	}
	rows, total, err := a.issues.SearchLocal(ctx, nil, a.cfg.ID, opts)
	if err != nil {
		return shared.SearchResult{}, fmt.Errorf("could not search local issues: %w", err)
	}

	issues := make([]shared.NormalizedIssue, 0, len(rows))
	for _, row := range rows {
		issues = append(issues, a.fromLocal(row))
	}
	return shared.SearchResult{
		Issues:  issues,
		Total:   int(total),
		HasMore: int64(opts.Offset+len(issues)) < total,
	}, nil
}

func (a *adapter) fromLocal(row models.Issue) shared.NormalizedIssue {
	id := row.ExternalIdentifier()
	return shared.NormalizedIssue{
		ID:          id,
		Key:         id,
		Title:       row.Title,
		Description: row.Description,
		Status:      shared.FirstNonEmpty(row.Status, UnknownStatus),
		Priority:    row.Priority,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
		URL:         a.IssueURL(id),
	}
}

func (a *adapter) AddComment(ctx context.Context, issueID string, text string) error {
	return shared.NewNotSupportedError(shared.ProviderSimpleURL, "addComment")
}

// SyncIssue has no remote state to pull, it returns the same issue GetIssue builds.
func (a *adapter) SyncIssue(ctx context.Context, issueID string) (shared.NormalizedIssue, error) {
	return a.GetIssue(ctx, issueID)
}

// LinkToTestCase succeeds without any remote call. The tracker has no api, so the
// link between issue and test case is only recorded in the local database by the caller.
func (a *adapter) LinkToTestCase(ctx context.Context, issueID string, testCaseID string, metadata map[string]any) error {
	return nil
}

func (a *adapter) ValidateConfiguration(ctx context.Context) (shared.ValidationResult, error) {
	return shared.NewValidationResult(ValidateTemplate(a.baseURL)), nil
}

// ValidateTemplate checks that the template contains the placeholder and yields a valid url.
func ValidateTemplate(template string) []string {
	if strings.TrimSpace(template) == "" {
		return []string{"base url is required"}
	}
	var errs []string
	if !strings.Contains(template, Placeholder) {
		errs = append(errs, fmt.Sprintf("base url must contain the %s placeholder", Placeholder))
	}
	u, err := url.ParseRequestURI(strings.ReplaceAll(template, Placeholder, "TEST-123"))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, "base url does not produce a valid http(s) url")
	}
	return errs
}
