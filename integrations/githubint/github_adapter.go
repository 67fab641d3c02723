// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package githubint

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v62/github"
	"github.com/l3montree-dev/issuesync/integrations/commonint"
	"github.com/l3montree-dev/issuesync/shared"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var capabilities = shared.Capabilities{
	CreateIssue:  true,
	UpdateIssue:  true,
	LinkIssue:    true,
	SyncIssue:    true,
	SearchIssues: true,
	Webhooks:     true,
	CustomFields: false,
	Attachments:  false,
}

// casers keep state and must not be shared between goroutines
func fold(s string) string {
	return cases.Fold().String(s)
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

var closedStates = map[string]bool{
	"closed":    true,
	"done":      true,
	"resolved":  true,
	"complete":  true,
	"completed": true,
	"fixed":     true,
}

// toGithubState maps any status onto the binary open/closed state of github.
func toGithubState(status string) string {
	if closedStates[fold(strings.TrimSpace(status))] {
		return "closed"
	}
	return "open"
}

type adapter struct {
	cfg   shared.AdapterConfig
	exec  *commonint.RequestExecutor
	state commonint.AuthState

	owner  string
	repo   string
	apiURL string

	mu     sync.RWMutex
	client *github.Client
	// app installations authenticate through the transport, not the executor
	installation bool
}

var (
	_ shared.IssueTrackerAdapter = (*adapter)(nil)
	_ shared.MetadataProvider    = (*adapter)(nil)
)

func NewAdapter(cfg shared.AdapterConfig) (shared.IssueTrackerAdapter, error) {
	return newAdapter(cfg, commonint.DefaultExecutorOptions(shared.ProviderGithub)), nil
}

func newAdapter(cfg shared.AdapterConfig, opts commonint.ExecutorOptions) *adapter {
	opts.Signer = sign
	owner := commonint.StringSetting(cfg.Settings, "owner")
	repo := commonint.StringSetting(cfg.Settings, "repo")
	// "repository" may hold both parts
	if full := commonint.StringSetting(cfg.Settings, "repository"); full != "" && (owner == "" || repo == "") {
		owner, repo, _ = strings.Cut(full, "/")
	}
	return &adapter{
		cfg:    cfg,
		exec:   commonint.NewRequestExecutor(opts),
		owner:  owner,
		repo:   repo,
		apiURL: commonint.StringSetting(cfg.Settings, "apiUrl"),
	}
}

// sign uses the "token" scheme github expects for personal access tokens.
func sign(req *http.Request, auth shared.AuthData) error {
	token := shared.FirstNonEmpty(auth.AccessToken, auth.APIKey, auth.Password)
	if token == "" {
		return nil
	}
	req.Header.Set("Authorization", "token "+token)
	return nil
}

func (a *adapter) Provider() shared.ProviderType {
	return shared.ProviderGithub
}

func (a *adapter) Capabilities() shared.Capabilities {
	return capabilities
}

func (a *adapter) newClient(transport http.RoundTripper) (*github.Client, error) {
	client := github.NewClient(&http.Client{Transport: transport, Timeout: a.exec.HTTPClient().Timeout})
	if a.apiURL != "" {
		u, err := url.Parse(strings.TrimSuffix(a.apiURL, "/") + "/")
		if err != nil {
			return nil, shared.NewConfigurationError("invalid github api url %q", a.apiURL)
		}
		client.BaseURL = u
	}
	return client, nil
}

// installationTransport authenticates as a github app installation, if the integration names one.
func (a *adapter) installationTransport(base http.RoundTripper) (http.RoundTripper, bool, error) {
	installationID := commonint.StringSetting(a.cfg.Settings, "installationId")
	appID := os.Getenv("GITHUB_APP_ID")
	if installationID == "" || appID == "" {
		return nil, false, nil
	}
	appIDInt, err := strconv.ParseInt(appID, 10, 64)
	if err != nil {
		return nil, false, shared.NewConfigurationError("GITHUB_APP_ID is not a number")
	}
	installationIDInt, err := strconv.ParseInt(installationID, 10, 64)
	if err != nil {
		return nil, false, shared.NewConfigurationError("installationId is not a number")
	}
	itr, err := ghinstallation.NewKeyFromFile(base, appIDInt, installationIDInt, os.Getenv("GITHUB_PRIVATE_KEY"))
	if err != nil {
		return nil, false, shared.NewAuthenticationError(shared.ProviderGithub, "could not load github app key", err)
	}
	return itr, true, nil
}

func (a *adapter) Authenticate(ctx context.Context, auth shared.AuthData) error {
	a.state.Reset()

	base := a.exec.HTTPClient().Transport
	if base == nil {
		base = http.DefaultTransport
	}

	transport, installation, err := a.installationTransport(base)
	if err != nil {
		return err
	}
	if !installation {
		if shared.FirstNonEmpty(auth.AccessToken, auth.APIKey, auth.Password) == "" {
			return shared.NewAuthenticationError(shared.ProviderGithub, "missing token", nil)
		}
		if auth.Expired(time.Now()) {
			return shared.NewAuthenticationError(shared.ProviderGithub, "access token expired", nil)
		}
		a.exec.SetAuth(auth)
		transport = commonint.SigningTransport(a.exec, base)
	}

	client, err := a.newClient(transport)
	if err != nil {
		return err
	}

	// installation tokens cannot read /user
	err = a.exec.Do(ctx, "authenticate", func(ctx context.Context) error {
		var resp *github.Response
		var err error
		if installation {
			_, resp, err = client.Apps.ListRepos(ctx, &github.ListOptions{PerPage: 1})
		} else {
			_, resp, err = client.Users.Get(ctx, "")
		}
		return classify(resp, err)
	})
	if err != nil {
		return shared.NewAuthenticationError(shared.ProviderGithub, "credential validation failed", err)
	}

	a.mu.Lock()
	a.client = client
	a.installation = installation
	a.mu.Unlock()

	a.state.MarkAuthenticated(auth.ExpiresAt)
	return nil
}

func classify(resp *github.Response, err error) error {
	if resp == nil {
		return err
	}
	return commonint.Classify(resp.Response, err)
}

func (a *adapter) IsAuthenticated(ctx context.Context) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.client != nil && a.state.Valid(time.Now())
}

func (a *adapter) gh() (*github.Client, error) {
	if !a.IsAuthenticated(context.Background()) {
		return nil, shared.NewAuthenticationError(shared.ProviderGithub, "adapter is not authenticated", nil)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.client, nil
}

func (a *adapter) ref(id string) (issueRef, error) {
	return parseIssueRef(id, a.owner, a.repo)
}

func (a *adapter) CreateIssue(ctx context.Context, data shared.IssueData) (shared.NormalizedIssue, error) {
	if err := shared.V.Struct(data); err != nil {
		return shared.NormalizedIssue{}, err
	}
	client, err := a.gh()
	if err != nil {
		return shared.NormalizedIssue{}, err
	}

	owner, repo := a.owner, a.repo
	if data.ProjectID != "" {
		if o, r, ok := strings.Cut(data.ProjectID, "/"); ok {
			owner, repo = o, r
		}
	}
	if owner == "" || repo == "" {
		return shared.NormalizedIssue{}, shared.NewConfigurationError("github repository is required to create an issue")
	}

	req := &github.IssueRequest{Title: shared.Ptr(data.Title)}
	if data.Description != "" {
		req.Body = shared.Ptr(data.Description)
	}
	if len(data.Labels) > 0 {
		req.Labels = &data.Labels
	}
	if data.Assignee != "" {
		req.Assignees = &[]string{data.Assignee}
	}

	created, err := commonint.Execute(ctx, a.exec, "create-issue", func(ctx context.Context) (*github.Issue, error) {
		i, resp, err := client.Issues.Create(ctx, owner, repo, req)
		return i, classify(resp, err)
	})
	if err != nil {
		return shared.NormalizedIssue{}, fmt.Errorf("could not create github issue: %w", err)
	}

	if data.Status != "" && toGithubState(data.Status) == "closed" {
		return a.UpdateIssue(ctx, issueRef{Owner: owner, Repo: repo, Number: created.GetNumber()}.String(), shared.IssueUpdate{Status: &data.Status})
	}
	return normalize(created, owner, repo), nil
}

func (a *adapter) UpdateIssue(ctx context.Context, issueID string, data shared.IssueUpdate) (shared.NormalizedIssue, error) {
	client, err := a.gh()
	if err != nil {
		return shared.NormalizedIssue{}, err
	}
	ref, err := a.ref(issueID)
	if err != nil {
		return shared.NormalizedIssue{}, err
	}

	req := &github.IssueRequest{
		Title: data.Title,
		Body:  data.Description,
	}
	if data.Status != nil {
		req.State = shared.Ptr(toGithubState(*data.Status))
	}
	if data.Labels != nil {
		req.Labels = &data.Labels
	}
	if data.Assignee != nil {
		assignees := []string{}
		if *data.Assignee != "" {
			assignees = append(assignees, *data.Assignee)
		}
		req.Assignees = &assignees
	}

	updated, err := commonint.Execute(ctx, a.exec, "update-issue", func(ctx context.Context) (*github.Issue, error) {
		i, resp, err := client.Issues.Edit(ctx, ref.Owner, ref.Repo, ref.Number, req)
		return i, classify(resp, err)
	})
	if err != nil {
		return shared.NormalizedIssue{}, fmt.Errorf("could not update github issue %s: %w", ref, err)
	}
	return normalize(updated, ref.Owner, ref.Repo), nil
}

func (a *adapter) GetIssue(ctx context.Context, issueID string) (shared.NormalizedIssue, error) {
	client, err := a.gh()
	if err != nil {
		return shared.NormalizedIssue{}, err
	}
	ref, err := a.ref(issueID)
	if err != nil {
		return shared.NormalizedIssue{}, err
	}

	i, err := commonint.Execute(ctx, a.exec, "get-issue", func(ctx context.Context) (*github.Issue, error) {
		i, resp, err := client.Issues.Get(ctx, ref.Owner, ref.Repo, ref.Number)
		return i, classify(resp, err)
	})
	if err != nil {
		return shared.NormalizedIssue{}, fmt.Errorf("could not fetch github issue %s: %w", ref, err)
	}
	return normalize(i, ref.Owner, ref.Repo), nil
}

func buildSearchQuery(opts shared.SearchOptions, owner, repo string) string {
	parts := []string{"is:issue"}
	if opts.ProjectID != "" {
		parts = append(parts, "repo:"+opts.ProjectID)
	} else if owner != "" && repo != "" {
		parts = append(parts, "repo:"+owner+"/"+repo)
	}

	states := map[string]bool{}
	for _, s := range opts.Status {
		states[toGithubState(s)] = true
	}
	if len(states) == 1 {
		for s := range states {
			parts = append(parts, "state:"+s)
		}
	}
	if opts.Assignee != "" {
		parts = append(parts, "assignee:"+opts.Assignee)
	}
	for _, l := range opts.Labels {
		parts = append(parts, fmt.Sprintf("label:%q", l))
	}
	if q := strings.TrimSpace(opts.Query); q != "" {
		parts = append(parts, q)
	}
	return strings.Join(parts, " ")
}

func (a *adapter) SearchIssues(ctx context.Context, opts shared.SearchOptions) (shared.SearchResult, error) {
	client, err := a.gh()
	if err != nil {
		return shared.SearchResult{}, err
	}
	limit := min(opts.LimitOrDefault(30), 100)
	query := buildSearchQuery(opts, a.owner, a.repo)

	res, err := commonint.Execute(ctx, a.exec, "search-issues", func(ctx context.Context) (*github.IssuesSearchResult, error) {
		r, resp, err := client.Search.Issues(ctx, query, &github.SearchOptions{
			Sort:  "updated",
			Order: "desc",
			ListOptions: github.ListOptions{
				Page:    opts.Offset/limit + 1,
				PerPage: limit,
			},
		})
		return r, classify(resp, err)
	})
	if err != nil {
		return shared.SearchResult{}, fmt.Errorf("could not search github issues: %w", err)
	}

	issues := make([]shared.NormalizedIssue, 0, len(res.Issues))
	for _, i := range res.Issues {
		owner, repo := repoFromURL(i.GetRepositoryURL())
		issues = append(issues, normalize(i, shared.FirstNonEmpty(owner, a.owner), shared.FirstNonEmpty(repo, a.repo)))
	}
	return shared.SearchResult{
		Issues:  issues,
		Total:   res.GetTotal(),
		HasMore: opts.Offset+len(issues) < res.GetTotal(),
	}, nil
}

func (a *adapter) AddComment(ctx context.Context, issueID string, text string) error {
	client, err := a.gh()
	if err != nil {
		return err
	}
	ref, err := a.ref(issueID)
	if err != nil {
		return err
	}
	return a.exec.Do(ctx, "add-comment", func(ctx context.Context) error {
		_, resp, err := client.Issues.CreateComment(ctx, ref.Owner, ref.Repo, ref.Number, &github.IssueComment{Body: &text})
		return classify(resp, err)
	})
}

func (a *adapter) SyncIssue(ctx context.Context, issueID string) (shared.NormalizedIssue, error) {
	return a.GetIssue(ctx, issueID)
}

func (a *adapter) LinkToTestCase(ctx context.Context, issueID string, testCaseID string, metadata map[string]any) error {
	return a.AddComment(ctx, issueID, commonint.LinkComment(testCaseID, metadata))
}

func (a *adapter) ValidateConfiguration(ctx context.Context) (shared.ValidationResult, error) {
	var errs []string
	if (a.owner == "") != (a.repo == "") {
		errs = append(errs, "owner and repo must be configured together")
	}
	if a.apiURL != "" {
		if _, err := url.ParseRequestURI(a.apiURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid api url: %v", err))
		}
	}
	client, err := a.gh()
	if err != nil {
		errs = append(errs, "adapter is not authenticated")
		return shared.NewValidationResult(errs), nil
	}

	if a.owner != "" && a.repo != "" {
		err := a.exec.Do(ctx, "validate", func(ctx context.Context) error {
			_, resp, err := client.Repositories.Get(ctx, a.owner, a.repo)
			return classify(resp, err)
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf("repository %s/%s is not accessible: %v", a.owner, a.repo, err))
		}
	}
	return shared.NewValidationResult(errs), nil
}

func (a *adapter) GetProjects(ctx context.Context) ([]shared.ExternalProject, error) {
	client, err := a.gh()
	if err != nil {
		return nil, err
	}
	a.mu.RLock()
	installation := a.installation
	a.mu.RUnlock()

	repos, err := commonint.Execute(ctx, a.exec, "get-projects", func(ctx context.Context) ([]*github.Repository, error) {
		if installation {
			res, resp, err := client.Apps.ListRepos(ctx, &github.ListOptions{PerPage: 100})
			if err != nil {
				return nil, classify(resp, err)
			}
			return res.Repositories, nil
		}
		repos, resp, err := client.Repositories.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
			Sort:        "updated",
			ListOptions: github.ListOptions{PerPage: 100},
		})
		return repos, classify(resp, err)
	})
	if err != nil {
		return nil, err
	}

	projects := make([]shared.ExternalProject, 0, len(repos))
	for _, r := range repos {
		projects = append(projects, shared.ExternalProject{
			ID:   strconv.FormatInt(r.GetID(), 10),
			Key:  r.GetFullName(),
			Name: r.GetName(),
			URL:  r.GetHTMLURL(),
		})
	}
	return projects, nil
}

// GetIssueTypes lists the repository labels, github has no issue types of its own.
func (a *adapter) GetIssueTypes(ctx context.Context, projectID string) ([]shared.IssueType, error) {
	client, err := a.gh()
	if err != nil {
		return nil, err
	}
	owner, repo := a.owner, a.repo
	if o, r, ok := strings.Cut(projectID, "/"); ok {
		owner, repo = o, r
	}
	if owner == "" || repo == "" {
		return []shared.IssueType{}, nil
	}

	labels, err := commonint.Execute(ctx, a.exec, "get-labels", func(ctx context.Context) ([]*github.Label, error) {
		l, resp, err := client.Issues.ListLabels(ctx, owner, repo, &github.ListOptions{PerPage: 100})
		return l, classify(resp, err)
	})
	if err != nil {
		return nil, err
	}
	types := make([]shared.IssueType, 0, len(labels))
	for _, l := range labels {
		types = append(types, shared.IssueType{ID: strconv.FormatInt(l.GetID(), 10), Name: l.GetName(), Description: l.GetDescription()})
	}
	return types, nil
}

func (a *adapter) GetStatuses(ctx context.Context, projectID string) ([]shared.ExternalStatus, error) {
	return []shared.ExternalStatus{
		{ID: "open", Name: title("open"), Category: "new"},
		{ID: "closed", Name: title("closed"), Category: "done"},
	}, nil
}

func (a *adapter) GetPriorities(ctx context.Context) ([]shared.ExternalPriority, error) {
	return []shared.ExternalPriority{}, nil
}

// normalize identifies the issue by its full "owner/repo#n" reference, issue numbers
// alone are only unique inside one repository. Key keeps the short "#n" form.
func normalize(i *github.Issue, owner, repo string) shared.NormalizedIssue {
	id := strconv.Itoa(i.GetNumber())
	if owner != "" && repo != "" {
		id = issueRef{Owner: owner, Repo: repo, Number: i.GetNumber()}.String()
	}
	n := shared.NormalizedIssue{
		ID:          id,
		Key:         "#" + strconv.Itoa(i.GetNumber()),
		Title:       i.GetTitle(),
		Description: i.GetBody(),
		Status:      title(i.GetState()),
		CreatedAt:   i.GetCreatedAt().Time,
		UpdatedAt:   i.GetUpdatedAt().Time,
		URL:         i.GetHTMLURL(),
		CustomFields: map[string]any{
			OwnerField: owner,
			RepoField:  repo,
		},
	}
	for _, l := range i.Labels {
		n.Labels = append(n.Labels, l.GetName())
	}
	if u := i.Assignee; u != nil {
		n.Assignee = &shared.IssueUser{ID: u.GetLogin(), Name: shared.FirstNonEmpty(u.GetName(), u.GetLogin()), Email: u.GetEmail()}
	}
	if u := i.User; u != nil {
		n.Reporter = &shared.IssueUser{ID: u.GetLogin(), Name: shared.FirstNonEmpty(u.GetName(), u.GetLogin()), Email: u.GetEmail()}
	}
	if i.IsPullRequest() {
		slog.Debug("github identifier refers to a pull request", "ref", issueRef{Owner: owner, Repo: repo, Number: i.GetNumber()})
	}
	return n
}
