// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package jiraint

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/l3montree-dev/issuesync/integrations/commonint"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() commonint.ExecutorOptions {
	return commonint.ExecutorOptions{
		Provider:   shared.ProviderJira,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		HTTPClient: http.DefaultClient,
	}
}

const issueJSON = `{
	"id": "10001",
	"key": "PROJ-1",
	"fields": {
		"summary": "Login fails",
		"description": {"version": 1, "type": "doc", "content": [{"type": "paragraph", "content": [{"type": "text", "text": "Steps"}]}]},
		"status": {"id": "1", "name": "In Progress"},
		"priority": {"id": "2", "name": "High"},
		"issuetype": {"id": "3", "name": "Bug", "iconUrl": "https://example.com/bug.png"},
		"assignee": {"accountId": "acc-1", "displayName": "Alice"},
		"labels": ["qa"],
		"created": "2025-01-02T10:00:00.000+0000",
		"updated": "2025-01-03T10:00:00.000+0000",
		"customfield_10010": "sprint-1"
	}
}`

func newJiraServer(t *testing.T, transitioned *atomic.Value) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "qa@example.com" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/rest/api/3/myself":
			_, _ = w.Write([]byte(`{"accountId":"acc-1","displayName":"Alice"}`))
		case r.URL.Path == "/rest/api/3/issue/PROJ-1" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(issueJSON))
		case r.URL.Path == "/rest/api/3/issue/PROJ-1" && r.Method == http.MethodPut:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/rest/api/3/issue/PROJ-1/transitions" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"transitions":[{"id":"11","name":"Start","to":{"id":"1","name":"In Progress"}},{"id":"31","name":"Finish","to":{"id":"3","name":"Done"}}]}`))
		case r.URL.Path == "/rest/api/3/issue/PROJ-1/transitions" && r.Method == http.MethodPost:
			var body map[string]map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			transitioned.Store(body["transition"]["id"])
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/rest/api/3/search/jql":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, `project = "PROJ" AND status = "In Progress" ORDER BY updated DESC`, body["jql"])
			_, _ = w.Write([]byte(`{"issues":[` + issueJSON + `],"isLast":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestJiraAdapter(t *testing.T) {
	var transitioned atomic.Value
	srv := newJiraServer(t, &transitioned)
	defer srv.Close()

	newAuthenticated := func(t *testing.T) *adapter {
		a := newAdapter(shared.AdapterConfig{ID: 1, Provider: shared.ProviderJira, Settings: map[string]any{"baseUrl": srv.URL, "projectKey": "PROJ"}}, testOptions())
		require.NoError(t, a.Authenticate(t.Context(), shared.AuthData{Type: shared.AuthTypeAPIKey, Email: "qa@example.com", APIKey: "secret"}))
		return a
	}

	t.Run("it should authenticate with email and api token", func(t *testing.T) {
		a := newAuthenticated(t)
		assert.True(t, a.IsAuthenticated(t.Context()))
	})

	t.Run("it should fail authentication when the validation request fails", func(t *testing.T) {
		a := newAdapter(shared.AdapterConfig{Settings: map[string]any{"baseUrl": srv.URL}}, testOptions())
		err := a.Authenticate(t.Context(), shared.AuthData{Type: shared.AuthTypeAPIKey, Email: "qa@example.com", APIKey: "wrong"})
		assert.True(t, shared.IsAuthenticationError(err))
		assert.False(t, a.IsAuthenticated(t.Context()))
	})

	t.Run("it should fail with a configuration error without a base url", func(t *testing.T) {
		a := newAdapter(shared.AdapterConfig{}, testOptions())
		err := a.Authenticate(t.Context(), shared.AuthData{Type: shared.AuthTypeAPIKey, Email: "qa@example.com", APIKey: "secret"})
		assert.True(t, shared.IsConfigurationError(err))
	})

	t.Run("it should reject expired oauth tokens", func(t *testing.T) {
		a := newAdapter(shared.AdapterConfig{}, testOptions())
		err := a.Authenticate(t.Context(), shared.AuthData{Type: shared.AuthTypeOAuth, AccessToken: "tok", ExpiresAt: shared.Ptr(time.Now().Add(-time.Minute))})
		assert.True(t, shared.IsAuthenticationError(err))
	})

	t.Run("it should normalize an issue", func(t *testing.T) {
		a := newAuthenticated(t)
		issue, err := a.GetIssue(t.Context(), "PROJ-1")
		require.NoError(t, err)

		assert.Equal(t, "10001", issue.ID)
		assert.Equal(t, "PROJ-1", issue.Key)
		assert.Equal(t, "Login fails", issue.Title)
		assert.Equal(t, "In Progress", issue.Status)
		assert.Equal(t, "High", issue.Priority)
		assert.Equal(t, "Bug", issue.IssueType.Name)
		assert.Equal(t, "Alice", issue.Assignee.Name)
		assert.Equal(t, "<p>Steps</p>", issue.Description)
		assert.Equal(t, "sprint-1", issue.CustomFields["customfield_10010"])
		assert.Equal(t, srv.URL+"/browse/PROJ-1", issue.URL)
		assert.Equal(t, 2025, issue.CreatedAt.Year())
		assert.NoError(t, issue.Validate())
	})

	t.Run("it should execute the transition matching the new status", func(t *testing.T) {
		a := newAuthenticated(t)
		_, err := a.UpdateIssue(t.Context(), "PROJ-1", shared.IssueUpdate{Title: shared.Ptr("new"), Status: shared.Ptr("done")})
		require.NoError(t, err)
		assert.Equal(t, "31", transitioned.Load())
	})

	t.Run("it should search with jql", func(t *testing.T) {
		a := newAuthenticated(t)
		res, err := a.SearchIssues(t.Context(), shared.SearchOptions{Status: []string{"In Progress"}})
		require.NoError(t, err)
		assert.Len(t, res.Issues, 1)
		assert.False(t, res.HasMore)
	})

	t.Run("it should refuse calls before authentication", func(t *testing.T) {
		a := newAdapter(shared.AdapterConfig{Settings: map[string]any{"baseUrl": srv.URL}}, testOptions())
		_, err := a.GetIssue(t.Context(), "PROJ-1")
		assert.True(t, shared.IsAuthenticationError(err))
	})

	t.Run("capabilities should not depend on the authentication state", func(t *testing.T) {
		a := newAdapter(shared.AdapterConfig{}, testOptions())
		before := a.Capabilities()
		authenticated := newAuthenticated(t)
		assert.Equal(t, before, authenticated.Capabilities())
	})
}

func TestJiraOAuth(t *testing.T) {
	t.Run("it should route requests through the cloud id of the accessible resource", func(t *testing.T) {
		var gatewayHits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer oauth-token", r.Header.Get("Authorization"))
			switch r.URL.Path {
			case accessibleResPath:
				_, _ = w.Write([]byte(`[{"id":"cloud-1","url":"https://acme.atlassian.net","name":"acme"}]`))
			case "/ex/jira/cloud-1/rest/api/3/myself":
				gatewayHits.Add(1)
				_, _ = w.Write([]byte(`{"accountId":"acc-1"}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		old := atlassianAPIURL
		atlassianAPIURL = srv.URL
		defer func() { atlassianAPIURL = old }()

		a := newAdapter(shared.AdapterConfig{}, testOptions())
		err := a.Authenticate(t.Context(), shared.AuthData{Type: shared.AuthTypeOAuth, AccessToken: "oauth-token"})
		require.NoError(t, err)
		assert.True(t, a.IsAuthenticated(t.Context()))
		assert.Equal(t, int32(1), gatewayHits.Load())
		assert.True(t, strings.HasPrefix(a.api("/issue"), srv.URL+"/ex/jira/cloud-1"))
		assert.Equal(t, "https://acme.atlassian.net", a.site())
	})
}

func TestBuildJQL(t *testing.T) {
	t.Run("it should escape quotes and backslashes", func(t *testing.T) {
		jql := BuildJQL(shared.SearchOptions{Query: `say "hi" \o/`}, "")
		assert.Equal(t, `text ~ "say \"hi\" \\o/" ORDER BY updated DESC`, jql)
	})

	t.Run("it should combine all filters", func(t *testing.T) {
		jql := BuildJQL(shared.SearchOptions{
			ProjectID: "QA",
			Status:    []string{"Open", "Done"},
			Assignee:  "acc-1",
			Labels:    []string{"a"},
			IssueType: "Bug",
		}, "DEFAULT")
		assert.Equal(t, `project = "QA" AND status IN ("Open", "Done") AND assignee = "acc-1" AND labels IN ("a") AND issuetype = "Bug" ORDER BY updated DESC`, jql)
	})

	t.Run("it should only order without filters", func(t *testing.T) {
		assert.Equal(t, "ORDER BY updated DESC", BuildJQL(shared.SearchOptions{}, ""))
	})
}

func TestJiraMetadataCache(t *testing.T) {
	var priorities, statuses, issues atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/3/myself":
			_, _ = w.Write([]byte(`{"accountId":"acc-1"}`))
		case "/rest/api/3/priority":
			priorities.Add(1)
			_, _ = w.Write([]byte(`[{"id":"1","name":"Highest"}]`))
		case "/rest/api/3/project/PROJ/statuses":
			statuses.Add(1)
			_, _ = w.Write([]byte(`[{"id":"3","statuses":[{"id":"1","name":"Open","statusCategory":{"key":"new"}}]}]`))
		case "/rest/api/3/issue/PROJ-1":
			issues.Add(1)
			_, _ = w.Write([]byte(issueJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := newAdapter(shared.AdapterConfig{ID: 1, Provider: shared.ProviderJira, Settings: map[string]any{"baseUrl": srv.URL, "projectKey": "PROJ"}}, testOptions())
	require.NoError(t, a.Authenticate(t.Context(), shared.AuthData{Type: shared.AuthTypeAPIKey, Email: "qa@example.com", APIKey: "secret"}))

	t.Run("it should answer repeated metadata reads from the response cache", func(t *testing.T) {
		for range 3 {
			p, err := a.GetPriorities(t.Context())
			require.NoError(t, err)
			assert.Equal(t, "Highest", p[0].Name)

			s, err := a.GetStatuses(t.Context(), "PROJ")
			require.NoError(t, err)
			assert.Equal(t, "new", s[0].Category)
		}
		assert.Equal(t, int32(1), priorities.Load())
		assert.Equal(t, int32(1), statuses.Load())
	})

	t.Run("it should always read issues from the provider", func(t *testing.T) {
		for range 2 {
			_, err := a.GetIssue(t.Context(), "PROJ-1")
			require.NoError(t, err)
		}
		assert.Equal(t, int32(2), issues.Load())
	})
}
