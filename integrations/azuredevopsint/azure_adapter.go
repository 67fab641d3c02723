// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package azuredevopsint

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/l3montree-dev/issuesync/integrations/commonint"
	"github.com/l3montree-dev/issuesync/shared"
)

const (
	defaultWorkItemType = "Task"
	jsonPatch           = "application/json-patch+json"
	// the work item batch endpoint accepts at most 200 ids
	batchSize = 200
)

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
	cfg          shared.AdapterConfig
	exec         *commonint.RequestExecutor
	state        commonint.AuthState
	orgURL       string
	project      string
	workItemType string
}

var (
	_ shared.IssueTrackerAdapter = (*adapter)(nil)
	_ shared.MetadataProvider    = (*adapter)(nil)
	_ shared.AttachmentUploader  = (*adapter)(nil)
)

func NewAdapter(cfg shared.AdapterConfig) (shared.IssueTrackerAdapter, error) {
	return newAdapter(cfg, commonint.DefaultExecutorOptions(shared.ProviderAzureDevOps)), nil
}

func newAdapter(cfg shared.AdapterConfig, opts commonint.ExecutorOptions) *adapter {
	opts.Signer = sign
	return &adapter{
		cfg:          cfg,
		exec:         commonint.NewRequestExecutor(opts),
		orgURL:       strings.TrimSuffix(shared.FirstNonEmpty(commonint.StringSetting(cfg.Settings, "organizationUrl"), commonint.StringSetting(cfg.Settings, "baseUrl")), "/"),
		project:      commonint.StringSetting(cfg.Settings, "project"),
		workItemType: shared.FirstNonEmpty(commonint.StringSetting(cfg.Settings, "workItemType"), defaultWorkItemType),
	}
}

// sign sends personal access tokens as the password of basic auth with an empty user.
func sign(req *http.Request, auth shared.AuthData) error {
	switch auth.Type {
	case shared.AuthTypeAPIKey, shared.AuthTypeBasic:
		req.SetBasicAuth("", shared.FirstNonEmpty(auth.APIKey, auth.Password, auth.AccessToken))
		return nil
	}
	return commonint.DefaultSigner(req, auth)
}

func (a *adapter) Provider() shared.ProviderType {
	return shared.ProviderAzureDevOps
}

func (a *adapter) Capabilities() shared.Capabilities {
	return capabilities
}

func (a *adapter) endpoint(withProject bool, path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", apiVersion)
	base := a.orgURL
	if withProject && a.project != "" {
		base += "/" + url.PathEscape(a.project)
	}
	return base + "/_apis/" + path + "?" + query.Encode()
}

func (a *adapter) Authenticate(ctx context.Context, auth shared.AuthData) error {
	a.state.Reset()
	if a.orgURL == "" {
		return shared.NewConfigurationError("azure devops organization url is required")
	}
	if shared.FirstNonEmpty(auth.APIKey, auth.Password, auth.AccessToken) == "" {
		return shared.NewAuthenticationError(shared.ProviderAzureDevOps, "missing personal access token", nil)
	}
	if auth.Expired(time.Now()) {
		return shared.NewAuthenticationError(shared.ProviderAzureDevOps, "access token expired", nil)
	}
	a.exec.SetAuth(auth)

	if err := a.exec.DoJSON(ctx, "authenticate", commonint.Request{
		Method: http.MethodGet,
		URL:    a.endpoint(false, "projects", url.Values{"$top": []string{"1"}}),
	}, nil); err != nil {
		return shared.NewAuthenticationError(shared.ProviderAzureDevOps, "credential validation failed", err)
	}
	a.state.MarkAuthenticated(auth.ExpiresAt)
	return nil
}

func (a *adapter) IsAuthenticated(ctx context.Context) bool {
	return a.state.Valid(time.Now())
}

func (a *adapter) requireAuth() error {
	if !a.state.Valid(time.Now()) {
		return shared.NewAuthenticationError(shared.ProviderAzureDevOps, "adapter is not authenticated", nil)
	}
	return nil
}

func parseID(issueID string) (int, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(issueID), "#"))
	if err != nil {
		return 0, fmt.Errorf("invalid work item id %q", issueID)
	}
	return id, nil
}

func (a *adapter) CreateIssue(ctx context.Context, data shared.IssueData) (shared.NormalizedIssue, error) {
	if err := shared.V.Struct(data); err != nil {
		return shared.NormalizedIssue{}, err
	}
	if err := a.requireAuth(); err != nil {
		return shared.NormalizedIssue{}, err
	}
	if a.project == "" && data.ProjectID == "" {
		return shared.NormalizedIssue{}, shared.NewConfigurationError("azure devops project is required to create a work item")
	}

	ops := []PatchOperation{addField(fieldTitle, data.Title)}
	if data.Description != "" {
		ops = append(ops, addField(fieldDescription, data.Description))
	}
	if data.Status != "" {
		ops = append(ops, addField(fieldState, data.Status))
	}
	if p, err := strconv.Atoi(data.Priority); err == nil {
		ops = append(ops, addField(fieldPriority, p))
	}
	if data.Assignee != "" {
		ops = append(ops, addField(fieldAssignedTo, data.Assignee))
	}
	if len(data.Labels) > 0 {
		ops = append(ops, addField(fieldTags, strings.Join(data.Labels, "; ")))
	}
	for k, v := range data.CustomFields {
		ops = append(ops, addField(k, v))
	}

	project := shared.FirstNonEmpty(data.ProjectID, a.project)
	workItemType := shared.FirstNonEmpty(data.IssueType, a.workItemType)
	u := fmt.Sprintf("%s/%s/_apis/wit/workitems/$%s?api-version=%s", a.orgURL, url.PathEscape(project), url.PathEscape(workItemType), apiVersion)

	var created workItem
	if err := a.exec.DoJSON(ctx, "create-issue", commonint.Request{
		Method:      http.MethodPost,
		URL:         u,
		Body:        ops,
		ContentType: jsonPatch,
	}, &created); err != nil {
		return shared.NormalizedIssue{}, fmt.Errorf("could not create work item: %w", err)
	}
	return normalize(created), nil
}

func (a *adapter) patch(ctx context.Context, name string, id int, ops []PatchOperation) (workItem, error) {
	var updated workItem
	err := a.exec.DoJSON(ctx, name, commonint.Request{
		Method:      http.MethodPatch,
		URL:         a.endpoint(false, "wit/workitems/"+strconv.Itoa(id), nil),
		Body:        ops,
		ContentType: jsonPatch,
	}, &updated)
	return updated, err
}

func (a *adapter) UpdateIssue(ctx context.Context, issueID string, data shared.IssueUpdate) (shared.NormalizedIssue, error) {
	if err := a.requireAuth(); err != nil {
		return shared.NormalizedIssue{}, err
	}
	id, err := parseID(issueID)
	if err != nil {
		return shared.NormalizedIssue{}, err
	}

	var ops []PatchOperation
	if data.Title != nil {
		ops = append(ops, addField(fieldTitle, *data.Title))
	}
	if data.Description != nil {
		ops = append(ops, addField(fieldDescription, *data.Description))
	}
	if data.Status != nil {
		ops = append(ops, addField(fieldState, *data.Status))
	}
	if data.Priority != nil {
		if p, err := strconv.Atoi(*data.Priority); err == nil {
			ops = append(ops, addField(fieldPriority, p))
		}
	}
	if data.Assignee != nil {
		ops = append(ops, addField(fieldAssignedTo, *data.Assignee))
	}
	if data.Labels != nil {
		ops = append(ops, addField(fieldTags, strings.Join(data.Labels, "; ")))
	}
	for k, v := range data.CustomFields {
		ops = append(ops, addField(k, v))
	}
	if len(ops) == 0 {
		return a.GetIssue(ctx, issueID)
	}

	updated, err := a.patch(ctx, "update-issue", id, ops)
	if err != nil {
		return shared.NormalizedIssue{}, fmt.Errorf("could not update work item %d: %w", id, err)
	}
	return normalize(updated), nil
}

func (a *adapter) GetIssue(ctx context.Context, issueID string) (shared.NormalizedIssue, error) {
	if err := a.requireAuth(); err != nil {
		return shared.NormalizedIssue{}, err
	}
	id, err := parseID(issueID)
	if err != nil {
		return shared.NormalizedIssue{}, err
	}

	var w workItem
	if err := a.exec.DoJSON(ctx, "get-issue", commonint.Request{
		Method: http.MethodGet,
		URL:    a.endpoint(false, "wit/workitems/"+strconv.Itoa(id), url.Values{"$expand": []string{"links"}}),
	}, &w); err != nil {
		return shared.NormalizedIssue{}, fmt.Errorf("could not fetch work item %d: %w", id, err)
	}
	return normalize(w), nil
}

func (a *adapter) SearchIssues(ctx context.Context, opts shared.SearchOptions) (shared.SearchResult, error) {
	if err := a.requireAuth(); err != nil {
		return shared.SearchResult{}, err
	}
	limit := opts.LimitOrDefault(50)
	top := opts.Offset + limit

	var res wiqlResponse
	if err := a.exec.DoJSON(ctx, "search-issues", commonint.Request{
		Method: http.MethodPost,
		URL:    a.endpoint(true, "wit/wiql", url.Values{"$top": []string{strconv.Itoa(top)}}),
		Body:   map[string]string{"query": BuildWIQL(opts, a.project)},
	}, &res); err != nil {
		return shared.SearchResult{}, fmt.Errorf("could not query work items: %w", err)
	}

	ids := make([]string, 0, len(res.WorkItems))
	for i, w := range res.WorkItems {
		if i >= opts.Offset && i < top {
			ids = append(ids, strconv.Itoa(w.ID))
		}
	}

	issues := make([]shared.NormalizedIssue, 0, len(ids))
	for start := 0; start < len(ids); start += batchSize {
		chunk := ids[start:min(len(ids), start+batchSize)]
		var list workItemList
		if err := a.exec.DoJSON(ctx, "get-issues", commonint.Request{
			Method: http.MethodGet,
			URL:    a.endpoint(false, "wit/workitems", url.Values{"ids": []string{strings.Join(chunk, ",")}, "$expand": []string{"links"}}),
		}, &list); err != nil {
			return shared.SearchResult{}, fmt.Errorf("could not fetch work items: %w", err)
		}
		for _, w := range list.Value {
			issues = append(issues, normalize(w))
		}
	}

	// wiql does not report the total beyond $top
	hasMore := len(res.WorkItems) >= top
	total := len(res.WorkItems)
	if hasMore {
		total++
	}
	return shared.SearchResult{Issues: issues, Total: total, HasMore: hasMore}, nil
}

func (a *adapter) AddComment(ctx context.Context, issueID string, text string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	id, err := parseID(issueID)
	if err != nil {
		return err
	}
	if a.project == "" {
		return shared.NewConfigurationError("azure devops project is required to comment on a work item")
	}
	u := fmt.Sprintf("%s/%s/_apis/wit/workItems/%d/comments?api-version=%s-preview.3", a.orgURL, url.PathEscape(a.project), id, apiVersion)
	return a.exec.DoJSON(ctx, "add-comment", commonint.Request{
		Method: http.MethodPost,
		URL:    u,
		Body:   map[string]string{"text": text},
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
	if a.orgURL == "" {
		errs = append(errs, "organization url is required")
	} else if u, err := url.ParseRequestURI(a.orgURL); err != nil || u.Host == "" {
		errs = append(errs, fmt.Sprintf("organization url %q is not a valid url", a.orgURL))
	}
	if a.project == "" {
		errs = append(errs, "project is required")
	}
	if len(errs) > 0 {
		return shared.NewValidationResult(errs), nil
	}

	if !a.IsAuthenticated(ctx) {
		return shared.NewValidationResult([]string{"adapter is not authenticated"}), nil
	}
	if err := a.exec.DoJSON(ctx, "validate", commonint.Request{
		Method: http.MethodGet,
		URL:    a.endpoint(false, "projects/"+url.PathEscape(a.project), nil),
	}, nil); err != nil {
		errs = append(errs, fmt.Sprintf("project %s is not accessible: %v", a.project, err))
	}
	return shared.NewValidationResult(errs), nil
}

// UploadAttachment uploads the binary first and then links it to the work item.
func (a *adapter) UploadAttachment(ctx context.Context, issueID string, fileName string, content []byte) (shared.Attachment, error) {
	if err := a.requireAuth(); err != nil {
		return shared.Attachment{}, err
	}
	id, err := parseID(issueID)
	if err != nil {
		return shared.Attachment{}, err
	}

	var ref attachmentReference
	if err := a.exec.DoJSON(ctx, "upload-attachment", commonint.Request{
		Method:      http.MethodPost,
		URL:         a.endpoint(true, "wit/attachments", url.Values{"fileName": []string{fileName}}),
		RawBody:     content,
		ContentType: "application/octet-stream",
	}, &ref); err != nil {
		return shared.Attachment{}, fmt.Errorf("could not upload attachment: %w", err)
	}

	if _, err := a.patch(ctx, "link-attachment", id, []PatchOperation{{
		Op:   "add",
		Path: "/relations/-",
		Value: map[string]any{
			"rel":        "AttachedFile",
			"url":        ref.URL,
			"attributes": map[string]string{"comment": fileName},
		},
	}}); err != nil {
		return shared.Attachment{}, fmt.Errorf("could not link attachment to work item %d: %w", id, err)
	}
	return shared.Attachment{ID: ref.ID, FileName: fileName, URL: ref.URL, Size: len(content)}, nil
}

func (a *adapter) GetProjects(ctx context.Context) ([]shared.ExternalProject, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	var list projectList
	if err := a.exec.DoJSON(ctx, "get-projects", commonint.Request{Method: http.MethodGet, URL: a.endpoint(false, "projects", nil)}, &list); err != nil {
		return nil, err
	}
	out := make([]shared.ExternalProject, 0, len(list.Value))
	for _, p := range list.Value {
		out = append(out, shared.ExternalProject{ID: p.ID, Key: p.Name, Name: p.Name, URL: a.orgURL + "/" + url.PathEscape(p.Name)})
	}
	return out, nil
}

func (a *adapter) projectEndpoint(projectID, path string) string {
	project := shared.FirstNonEmpty(projectID, a.project)
	return fmt.Sprintf("%s/%s/_apis/%s?api-version=%s", a.orgURL, url.PathEscape(project), path, apiVersion)
}

func (a *adapter) GetIssueTypes(ctx context.Context, projectID string) ([]shared.IssueType, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	var list workItemTypeList
	if err := a.exec.DoJSON(ctx, "get-issue-types", commonint.Request{Method: http.MethodGet, URL: a.projectEndpoint(projectID, "wit/workitemtypes"), Cacheable: true}, &list); err != nil {
		return nil, err
	}
	out := make([]shared.IssueType, 0, len(list.Value))
	for _, t := range list.Value {
		it := shared.IssueType{ID: shared.FirstNonEmpty(t.ReferenceName, t.Name), Name: t.Name, Description: t.Description}
		if t.Icon != nil {
			it.IconURL = t.Icon.URL
		}
		out = append(out, it)
	}
	return out, nil
}

func (a *adapter) GetStatuses(ctx context.Context, projectID string) ([]shared.ExternalStatus, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	var list workItemStateList
	path := "wit/workitemtypes/" + url.PathEscape(a.workItemType) + "/states"
	if err := a.exec.DoJSON(ctx, "get-statuses", commonint.Request{Method: http.MethodGet, URL: a.projectEndpoint(projectID, path), Cacheable: true}, &list); err != nil {
		return nil, err
	}
	out := make([]shared.ExternalStatus, 0, len(list.Value))
	for _, s := range list.Value {
		out = append(out, shared.ExternalStatus{ID: s.Name, Name: s.Name, Category: s.Category})
	}
	return out, nil
}

// GetPriorities returns the fixed priority scale of the agile process templates.
func (a *adapter) GetPriorities(ctx context.Context) ([]shared.ExternalPriority, error) {
	return []shared.ExternalPriority{
		{ID: "1", Name: "1"},
		{ID: "2", Name: "2"},
		{ID: "3", Name: "3"},
		{ID: "4", Name: "4"},
	}, nil
}

func normalize(w workItem) shared.NormalizedIssue {
	id := strconv.Itoa(w.ID)
	n := shared.NormalizedIssue{
		ID:           id,
		Key:          id,
		Title:        w.str(fieldTitle),
		Description:  w.str(fieldDescription),
		Status:       w.str(fieldState),
		Priority:     w.str(fieldPriority),
		Labels:       w.tags(),
		CreatedAt:    w.timestamp(fieldCreated),
		UpdatedAt:    w.timestamp(fieldChanged),
		URL:          shared.FirstNonEmpty(w.Links.HTML.Href, w.URL),
		CustomFields: map[string]any{},
	}
	if t := w.str(fieldType); t != "" {
		n.IssueType = &shared.IssueType{ID: t, Name: t}
	}
	if u := w.identity(fieldAssignedTo); u != nil {
		n.Assignee = &shared.IssueUser{ID: u.ID, Name: u.DisplayName, Email: u.UniqueName}
	}
	if u := w.identity(fieldCreatedBy); u != nil {
		n.Reporter = &shared.IssueUser{ID: u.ID, Name: u.DisplayName, Email: u.UniqueName}
	}
	// everything outside the system namespace is a custom field
	for k, v := range w.Fields {
		if !strings.HasPrefix(k, "System.") && k != fieldPriority {
			n.CustomFields[k] = v
		}
	}
	return n
}
