// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package jiraint

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/l3montree-dev/issuesync/integrations/commonint"
	"github.com/l3montree-dev/issuesync/shared"
)

const defaultIssueType = "Task"

var capabilities = shared.Capabilities{
	CreateIssue:  true,
	UpdateIssue:  true,
	LinkIssue:    true,
	SyncIssue:    true,
	SearchIssues: true,
	Webhooks:     true,
	CustomFields: true,
	Attachments:  true,
}

type adapter struct {
	cfg        shared.AdapterConfig
	exec       *commonint.RequestExecutor
	state      commonint.AuthState
	projectKey string

	mu sync.RWMutex
	// apiBase is the REST root, either the site itself or the api gateway for oauth tokens
	apiBase string
	siteURL string
}

var (
	_ shared.IssueTrackerAdapter = (*adapter)(nil)
	_ shared.MetadataProvider    = (*adapter)(nil)
	_ shared.AttachmentUploader  = (*adapter)(nil)
)

func NewAdapter(cfg shared.AdapterConfig) (shared.IssueTrackerAdapter, error) {
	return newAdapter(cfg, commonint.DefaultExecutorOptions(shared.ProviderJira)), nil
}

func newAdapter(cfg shared.AdapterConfig, opts commonint.ExecutorOptions) *adapter {
	opts.Signer = sign
	return &adapter{
		cfg:        cfg,
		exec:       commonint.NewRequestExecutor(opts),
		projectKey: commonint.StringSetting(cfg.Settings, "projectKey"),
		siteURL:    strings.TrimSuffix(commonint.StringSetting(cfg.Settings, "baseUrl"), "/"),
	}
}

// sign uses basic auth with email and api token for api keys, bearer tokens for oauth.
func sign(req *http.Request, auth shared.AuthData) error {
	if auth.Type == shared.AuthTypeAPIKey {
		req.SetBasicAuth(auth.Email, auth.APIKey)
		return nil
	}
	return commonint.DefaultSigner(req, auth)
}

func (a *adapter) Provider() shared.ProviderType {
	return shared.ProviderJira
}

func (a *adapter) Capabilities() shared.Capabilities {
	return capabilities
}

func (a *adapter) Authenticate(ctx context.Context, auth shared.AuthData) error {
	a.state.Reset()

	switch auth.Type {
	case shared.AuthTypeOAuth:
		if auth.AccessToken == "" {
			return shared.NewAuthenticationError(shared.ProviderJira, "missing access token", nil)
		}
		if auth.Expired(time.Now()) {
			return shared.NewAuthenticationError(shared.ProviderJira, "access token expired", nil)
		}
		a.exec.SetAuth(auth)
		res, err := discoverResource(ctx, a.exec, auth.AccessToken, a.site())
		if err != nil {
			return err
		}
		a.setEndpoints(fmt.Sprintf("%s/ex/jira/%s", atlassianAPIURL, res.ID), res.URL)
	case shared.AuthTypeAPIKey, shared.AuthTypeBasic:
		baseURL := strings.TrimSuffix(shared.FirstNonEmpty(auth.BaseURL, a.site()), "/")
		if baseURL == "" {
			return shared.NewConfigurationError("jira base url is required for api token authentication")
		}
		if auth.Type == shared.AuthTypeAPIKey && (auth.Email == "" || auth.APIKey == "") {
			return shared.NewAuthenticationError(shared.ProviderJira, "email and api token are required", nil)
		}
		a.exec.SetAuth(auth)
		a.setEndpoints(baseURL, baseURL)
	default:
		return shared.NewAuthenticationError(shared.ProviderJira, fmt.Sprintf("unsupported auth type %q", auth.Type), nil)
	}

	var me user
	if err := a.exec.DoJSON(ctx, "authenticate", commonint.Request{Method: http.MethodGet, URL: a.api("/myself")}, &me); err != nil {
		return shared.NewAuthenticationError(shared.ProviderJira, "credential validation failed", err)
	}
	slog.Debug("authenticated against jira", "integrationId", a.cfg.ID, "account", me.AccountID)

	a.state.MarkAuthenticated(auth.ExpiresAt)
	return nil
}

func (a *adapter) setEndpoints(apiBase, siteURL string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.apiBase = apiBase
	a.siteURL = strings.TrimSuffix(siteURL, "/")
}

func (a *adapter) site() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.siteURL
}

func (a *adapter) api(path string) string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.apiBase + "/rest/api/3" + path
}

func (a *adapter) IsAuthenticated(ctx context.Context) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.Valid(time.Now()) && a.apiBase != ""
}

func (a *adapter) requireAuth() error {
	if !a.IsAuthenticated(context.Background()) {
		return shared.NewAuthenticationError(shared.ProviderJira, "adapter is not authenticated", nil)
	}
	return nil
}

func (a *adapter) CreateIssue(ctx context.Context, data shared.IssueData) (shared.NormalizedIssue, error) {
	if err := shared.V.Struct(data); err != nil {
		return shared.NormalizedIssue{}, err
	}
	if err := a.requireAuth(); err != nil {
		return shared.NormalizedIssue{}, err
	}
	projectKey := shared.FirstNonEmpty(data.ProjectID, a.projectKey)
	if projectKey == "" {
		return shared.NormalizedIssue{}, shared.NewConfigurationError("jira project key is required to create an issue")
	}

	fields := map[string]any{
		"project":   map[string]string{"key": projectKey},
		"summary":   data.Title,
		"issuetype": map[string]string{"name": shared.FirstNonEmpty(data.IssueType, defaultIssueType)},
	}
	if data.Description != "" {
		fields["description"] = DescriptionToADF(data.Description)
	}
	if data.Priority != "" {
		fields["priority"] = map[string]string{"name": data.Priority}
	}
	if len(data.Labels) > 0 {
		fields["labels"] = data.Labels
	}
	if data.Assignee != "" {
		fields["assignee"] = map[string]string{"accountId": data.Assignee}
	}
	for k, v := range data.CustomFields {
		fields[k] = v
	}

	var created createIssueResponse
	if err := a.exec.DoJSON(ctx, "create-issue", commonint.Request{
		Method: http.MethodPost,
		URL:    a.api("/issue"),
		Body:   map[string]any{"fields": fields},
	}, &created); err != nil {
		return shared.NormalizedIssue{}, fmt.Errorf("could not create jira issue: %w", err)
	}

	if data.Status != "" {
		if err := a.transition(ctx, created.Key, data.Status); err != nil {
			slog.Warn("could not transition new jira issue", "issue", created.Key, "status", data.Status, "err", err)
		}
	}
	return a.GetIssue(ctx, created.Key)
}

func (a *adapter) UpdateIssue(ctx context.Context, issueID string, data shared.IssueUpdate) (shared.NormalizedIssue, error) {
	if err := a.requireAuth(); err != nil {
		return shared.NormalizedIssue{}, err
	}

	fields := map[string]any{}
	if data.Title != nil {
		fields["summary"] = *data.Title
	}
	if data.Description != nil {
		fields["description"] = DescriptionToADF(*data.Description)
	}
	if data.Priority != nil {
		fields["priority"] = map[string]string{"name": *data.Priority}
	}
	if data.Assignee != nil {
		if *data.Assignee == "" {
			fields["assignee"] = nil
		} else {
			fields["assignee"] = map[string]string{"accountId": *data.Assignee}
		}
	}
	if data.Labels != nil {
		fields["labels"] = data.Labels
	}
	for k, v := range data.CustomFields {
		fields[k] = v
	}

	if len(fields) > 0 {
		if err := a.exec.DoJSON(ctx, "update-issue", commonint.Request{
			Method: http.MethodPut,
			URL:    a.api("/issue/" + url.PathEscape(issueID)),
			Body:   map[string]any{"fields": fields},
		}, nil); err != nil {
			return shared.NormalizedIssue{}, fmt.Errorf("could not update jira issue: %w", err)
		}
	}

	if data.Status != nil {
		if err := a.transition(ctx, issueID, *data.Status); err != nil {
			return shared.NormalizedIssue{}, err
		}
	}
	return a.GetIssue(ctx, issueID)
}

// transition moves the issue into the workflow status with the given name.
func (a *adapter) transition(ctx context.Context, issueID, target string) error {
	var resp transitionsResponse
	if err := a.exec.DoJSON(ctx, "get-transitions", commonint.Request{
		Method: http.MethodGet,
		URL:    a.api("/issue/" + url.PathEscape(issueID) + "/transitions"),
	}, &resp); err != nil {
		return fmt.Errorf("could not fetch transitions: %w", err)
	}

	for _, t := range resp.Transitions {
		if strings.EqualFold(t.To.Name, target) || strings.EqualFold(t.Name, target) {
			return a.exec.DoJSON(ctx, "transition-issue", commonint.Request{
				Method: http.MethodPost,
				URL:    a.api("/issue/" + url.PathEscape(issueID) + "/transitions"),
				Body:   map[string]any{"transition": map[string]string{"id": t.ID}},
			}, nil)
		}
	}
	return fmt.Errorf("no transition of issue %s leads to status %q", issueID, target)
}

func (a *adapter) GetIssue(ctx context.Context, issueID string) (shared.NormalizedIssue, error) {
	if err := a.requireAuth(); err != nil {
		return shared.NormalizedIssue{}, err
	}

	var i issue
	if err := a.exec.DoJSON(ctx, "get-issue", commonint.Request{
		Method: http.MethodGet,
		URL:    a.api("/issue/" + url.PathEscape(issueID) + "?expand=renderedFields"),
	}, &i); err != nil {
		return shared.NormalizedIssue{}, fmt.Errorf("could not fetch jira issue %s: %w", issueID, err)
	}
	return a.normalize(i), nil
}

var searchFields = []string{"summary", "description", "status", "priority", "issuetype", "assignee", "reporter", "labels", "created", "updated"}

func (a *adapter) SearchIssues(ctx context.Context, opts shared.SearchOptions) (shared.SearchResult, error) {
	if err := a.requireAuth(); err != nil {
		return shared.SearchResult{}, err
	}

	limit := opts.LimitOrDefault(50)
	jql := BuildJQL(opts, a.projectKey)

	// the jql endpoint pages with tokens, offsets are skipped client side
	var collected []issue
	token := ""
	isLast := false
	for len(collected) < opts.Offset+limit && !isLast {
		body := map[string]any{
			"jql":        jql,
			"maxResults": min(100, opts.Offset+limit-len(collected)),
			"fields":     searchFields,
		}
		if token != "" {
			body["nextPageToken"] = token
		}
		var resp searchResponse
		if err := a.exec.DoJSON(ctx, "search-issues", commonint.Request{
			Method: http.MethodPost,
			URL:    a.api("/search/jql"),
			Body:   body,
		}, &resp); err != nil {
			return shared.SearchResult{}, fmt.Errorf("could not search jira issues: %w", err)
		}
		collected = append(collected, resp.Issues...)
		token = resp.NextPageToken
		isLast = resp.IsLast || token == "" || len(resp.Issues) == 0
	}

	if opts.Offset >= len(collected) {
		return shared.SearchResult{Issues: []shared.NormalizedIssue{}, Total: len(collected), HasMore: false}, nil
	}
	page := collected[opts.Offset:min(len(collected), opts.Offset+limit)]
	issues := make([]shared.NormalizedIssue, 0, len(page))
	for _, i := range page {
		issues = append(issues, a.normalize(i))
	}
	hasMore := !isLast || len(collected) > opts.Offset+limit
	total := len(collected)
	if hasMore {
		total++
	}
	return shared.SearchResult{Issues: issues, Total: total, HasMore: hasMore}, nil
}

func (a *adapter) AddComment(ctx context.Context, issueID string, text string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	return a.exec.DoJSON(ctx, "add-comment", commonint.Request{
		Method: http.MethodPost,
		URL:    a.api("/issue/" + url.PathEscape(issueID) + "/comment"),
		Body:   map[string]any{"body": DescriptionToADF(text)},
	}, nil)
}

func (a *adapter) SyncIssue(ctx context.Context, issueID string) (shared.NormalizedIssue, error) {
	return a.GetIssue(ctx, issueID)
}

func (a *adapter) LinkToTestCase(ctx context.Context, issueID string, testCaseID string, metadata map[string]any) error {
	return a.AddComment(ctx, issueID, commonint.LinkComment(testCaseID, metadata))
}

func (a *adapter) ValidateConfiguration(ctx context.Context) (shared.ValidationResult, error) {
	var errs []string
	auth, hasAuth := a.exec.Auth()
	if (!hasAuth || auth.Type != shared.AuthTypeOAuth) && a.site() == "" {
		errs = append(errs, "base url is required")
	}
	if !a.IsAuthenticated(ctx) {
		errs = append(errs, "adapter is not authenticated")
		return shared.NewValidationResult(errs), nil
	}

	if err := a.exec.DoJSON(ctx, "validate", commonint.Request{Method: http.MethodGet, URL: a.api("/myself")}, nil); err != nil {
		errs = append(errs, fmt.Sprintf("could not reach jira: %v", err))
	}
	if a.projectKey != "" {
		if err := a.exec.DoJSON(ctx, "validate-project", commonint.Request{
			Method: http.MethodGet,
			URL:    a.api("/project/" + url.PathEscape(a.projectKey)),
		}, nil); err != nil {
			errs = append(errs, fmt.Sprintf("project %s is not accessible: %v", a.projectKey, err))
		}
	}
	return shared.NewValidationResult(errs), nil
}

func (a *adapter) GetProjects(ctx context.Context) ([]shared.ExternalProject, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	var resp projectSearchResponse
	if err := a.exec.DoJSON(ctx, "get-projects", commonint.Request{
		Method: http.MethodGet,
		URL:    a.api("/project/search?maxResults=100"),
	}, &resp); err != nil {
		return nil, err
	}
	projects := make([]shared.ExternalProject, 0, len(resp.Values))
	for _, p := range resp.Values {
		projects = append(projects, shared.ExternalProject{
			ID:   p.ID,
			Key:  p.Key,
			Name: p.Name,
			URL:  a.site() + "/browse/" + p.Key,
		})
	}
	return projects, nil
}

func (a *adapter) GetIssueTypes(ctx context.Context, projectID string) ([]shared.IssueType, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	var types []issueType
	projectID = shared.FirstNonEmpty(projectID, a.projectKey)
	if projectID != "" {
		var p project
		if err := a.exec.DoJSON(ctx, "get-issue-types", commonint.Request{
			Method:    http.MethodGet,
			URL:       a.api("/project/" + url.PathEscape(projectID)),
			Cacheable: true,
		}, &p); err != nil {
			return nil, err
		}
		types = p.IssueTypes
	} else if err := a.exec.DoJSON(ctx, "get-issue-types", commonint.Request{
		Method:    http.MethodGet,
		URL:       a.api("/issuetype"),
		Cacheable: true,
	}, &types); err != nil {
		return nil, err
	}

	out := make([]shared.IssueType, 0, len(types))
	for _, t := range types {
		out = append(out, shared.IssueType{ID: t.ID, Name: t.Name, IconURL: t.IconURL, Description: t.Description})
	}
	return out, nil
}

func (a *adapter) GetStatuses(ctx context.Context, projectID string) ([]shared.ExternalStatus, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	var statuses []status
	projectID = shared.FirstNonEmpty(projectID, a.projectKey)
	if projectID != "" {
		var perType []projectStatuses
		if err := a.exec.DoJSON(ctx, "get-statuses", commonint.Request{
			Method:    http.MethodGet,
			URL:       a.api("/project/" + url.PathEscape(projectID) + "/statuses"),
			Cacheable: true,
		}, &perType); err != nil {
			return nil, err
		}
		// statuses repeat for every issue type of the project
		seen := map[string]bool{}
		for _, t := range perType {
			for _, s := range t.Statuses {
				if !seen[s.ID] {
					seen[s.ID] = true
					statuses = append(statuses, s)
				}
			}
		}
	} else if err := a.exec.DoJSON(ctx, "get-statuses", commonint.Request{
		Method:    http.MethodGet,
		URL:       a.api("/status"),
		Cacheable: true,
	}, &statuses); err != nil {
		return nil, err
	}

	out := make([]shared.ExternalStatus, 0, len(statuses))
	for _, s := range statuses {
		es := shared.ExternalStatus{ID: s.ID, Name: s.Name}
		if s.StatusCategory != nil {
			es.Category = s.StatusCategory.Key
		}
		out = append(out, es)
	}
	return out, nil
}

func (a *adapter) GetPriorities(ctx context.Context) ([]shared.ExternalPriority, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	var priorities []priority
	if err := a.exec.DoJSON(ctx, "get-priorities", commonint.Request{
		Method:    http.MethodGet,
		URL:       a.api("/priority"),
		Cacheable: true,
	}, &priorities); err != nil {
		return nil, err
	}
	out := make([]shared.ExternalPriority, 0, len(priorities))
	for _, p := range priorities {
		out = append(out, shared.ExternalPriority{ID: p.ID, Name: p.Name, IconURL: p.IconURL})
	}
	return out, nil
}

func (a *adapter) UploadAttachment(ctx context.Context, issueID string, fileName string, content []byte) (shared.Attachment, error) {
	if err := a.requireAuth(); err != nil {
		return shared.Attachment{}, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return shared.Attachment{}, err
	}
	if _, err := part.Write(content); err != nil {
		return shared.Attachment{}, err
	}
	if err := w.Close(); err != nil {
		return shared.Attachment{}, err
	}

	var uploaded []attachment
	if err := a.exec.DoJSON(ctx, "upload-attachment", commonint.Request{
		Method:      http.MethodPost,
		URL:         a.api("/issue/" + url.PathEscape(issueID) + "/attachments"),
		RawBody:     buf.Bytes(),
		ContentType: w.FormDataContentType(),
		Headers:     map[string]string{"X-Atlassian-Token": "no-check"},
	}, &uploaded); err != nil {
		return shared.Attachment{}, fmt.Errorf("could not upload attachment: %w", err)
	}
	if len(uploaded) == 0 {
		return shared.Attachment{}, fmt.Errorf("jira returned no attachment")
	}
	return shared.Attachment{ID: uploaded[0].ID, FileName: uploaded[0].Filename, URL: uploaded[0].Content, Size: uploaded[0].Size}, nil
}

func (a *adapter) normalize(i issue) shared.NormalizedIssue {
	n := shared.NormalizedIssue{
		ID:           i.ID,
		Key:          i.Key,
		Title:        i.Fields.Summary,
		Labels:       i.Fields.Labels,
		CustomFields: i.Fields.Custom,
		CreatedAt:    parseJiraTime(i.Fields.Created),
		UpdatedAt:    parseJiraTime(i.Fields.Updated),
		URL:          a.site() + "/browse/" + i.Key,
	}
	if i.RenderedFields != nil && i.RenderedFields.Description != "" {
		n.Description = i.RenderedFields.Description
	} else if i.Fields.Description != nil {
		n.Description = ADFToHTML(*i.Fields.Description)
	}
	if i.Fields.Status != nil {
		n.Status = i.Fields.Status.Name
	}
	if i.Fields.Priority != nil {
		n.Priority = i.Fields.Priority.Name
	}
	if t := i.Fields.IssueType; t != nil {
		n.IssueType = &shared.IssueType{ID: t.ID, Name: t.Name, IconURL: t.IconURL, Description: t.Description}
	}
	if u := i.Fields.Assignee; u != nil {
		n.Assignee = &shared.IssueUser{ID: u.AccountID, Name: u.DisplayName, Email: u.EmailAddress}
	}
	if u := i.Fields.Reporter; u != nil {
		n.Reporter = &shared.IssueUser{ID: u.AccountID, Name: u.DisplayName, Email: u.EmailAddress}
	}
	return n
}
