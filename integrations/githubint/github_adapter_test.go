// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package githubint

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/l3montree-dev/issuesync/integrations/commonint"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const issueJSON = `{
	"id": 1,
	"number": 42,
	"title": "Checkout broken",
	"body": "it crashes",
	"state": "open",
	"html_url": "https://github.com/acme/widgets/issues/42",
	"labels": [{"name": "bug"}],
	"user": {"login": "alice"},
	"assignee": {"login": "bob"},
	"created_at": "2025-01-02T10:00:00Z",
	"updated_at": "2025-01-03T10:00:00Z"
}`

func newGithubServer(t *testing.T, edited *map[string]any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/user":
			_, _ = w.Write([]byte(`{"login":"alice"}`))
		case r.URL.Path == "/repos/acme/widgets/issues/42" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(issueJSON))
		case r.URL.Path == "/repos/acme/widgets/issues/42" && r.Method == http.MethodPatch:
			_ = json.NewDecoder(r.Body).Decode(edited)
			_, _ = w.Write([]byte(issueJSON))
		case r.URL.Path == "/repos/acme/widgets":
			_, _ = w.Write([]byte(`{"id": 7, "full_name": "acme/widgets"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testOptions() commonint.ExecutorOptions {
	return commonint.ExecutorOptions{
		Provider:   shared.ProviderGithub,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
		HTTPClient: http.DefaultClient,
	}
}

func TestGithubAdapter(t *testing.T) {
	var edited map[string]any
	srv := newGithubServer(t, &edited)
	defer srv.Close()

	newAuthenticated := func(t *testing.T, settings map[string]any) *adapter {
		settings["apiUrl"] = srv.URL
		a := newAdapter(shared.AdapterConfig{ID: 2, Provider: shared.ProviderGithub, Settings: settings}, testOptions())
		require.NoError(t, a.Authenticate(t.Context(), shared.AuthData{Type: shared.AuthTypeAPIKey, APIKey: "secret"}))
		return a
	}

	t.Run("it should fail authentication with a wrong token", func(t *testing.T) {
		a := newAdapter(shared.AdapterConfig{Settings: map[string]any{"apiUrl": srv.URL}}, testOptions())
		err := a.Authenticate(t.Context(), shared.AuthData{Type: shared.AuthTypeAPIKey, APIKey: "wrong"})
		assert.True(t, shared.IsAuthenticationError(err))
		assert.False(t, a.IsAuthenticated(t.Context()))
	})

	t.Run("it should resolve owner and repo from the identifier", func(t *testing.T) {
		a := newAuthenticated(t, map[string]any{})
		issue, err := a.GetIssue(t.Context(), "acme/widgets#42")
		require.NoError(t, err)

		assert.Equal(t, "acme/widgets#42", issue.ID)
		assert.Equal(t, "#42", issue.Key)
		assert.Equal(t, "Open", issue.Status)
		assert.Equal(t, "Checkout broken", issue.Title)
		assert.Equal(t, []string{"bug"}, issue.Labels)
		assert.Equal(t, "bob", issue.Assignee.ID)
		assert.Equal(t, "alice", issue.Reporter.Name)
		assert.Equal(t, "acme", issue.CustomFields[OwnerField])
		assert.Equal(t, "widgets", issue.CustomFields[RepoField])
	})

	t.Run("it should use the configured repository for bare numbers", func(t *testing.T) {
		a := newAuthenticated(t, map[string]any{"owner": "acme", "repo": "widgets"})
		issue, err := a.SyncIssue(t.Context(), "#42")
		require.NoError(t, err)
		assert.Equal(t, "https://github.com/acme/widgets/issues/42", issue.URL)
		assert.Equal(t, "acme/widgets#42", issue.ID)
	})

	t.Run("it should map done onto the closed state", func(t *testing.T) {
		a := newAuthenticated(t, map[string]any{"repository": "acme/widgets"})
		_, err := a.UpdateIssue(t.Context(), "42", shared.IssueUpdate{Status: shared.Ptr("DONE")})
		require.NoError(t, err)
		assert.Equal(t, "closed", edited["state"])
	})

	t.Run("it should validate an accessible repository", func(t *testing.T) {
		a := newAuthenticated(t, map[string]any{"owner": "acme", "repo": "widgets"})
		res, err := a.ValidateConfiguration(t.Context())
		require.NoError(t, err)
		assert.True(t, res.Valid, res.Errors)
	})

	t.Run("it should not support custom fields or attachments", func(t *testing.T) {
		a := newAdapter(shared.AdapterConfig{}, testOptions())
		assert.False(t, a.Capabilities().CustomFields)
		assert.False(t, a.Capabilities().Attachments)
		var _ shared.IssueTrackerAdapter = a
		_, ok := any(a).(shared.AttachmentUploader)
		assert.False(t, ok)
	})
}

func TestParseIssueRef(t *testing.T) {
	t.Run("it should parse a full identifier", func(t *testing.T) {
		ref, err := parseIssueRef("acme/widgets#42", "", "")
		require.NoError(t, err)
		assert.Equal(t, issueRef{Owner: "acme", Repo: "widgets", Number: 42}, ref)
	})

	t.Run("it should fall back to the default repository", func(t *testing.T) {
		ref, err := parseIssueRef("#7", "o", "r")
		require.NoError(t, err)
		assert.Equal(t, "o/r#7", ref.String())
	})

	t.Run("it should fail without any repository", func(t *testing.T) {
		_, err := parseIssueRef("#7", "", "")
		assert.True(t, shared.IsConfigurationError(err))
	})

	t.Run("it should reject invalid numbers", func(t *testing.T) {
		_, err := parseIssueRef("acme/widgets#abc", "", "")
		assert.Error(t, err)
		_, err = parseIssueRef("widgets#1", "", "")
		assert.Error(t, err)
	})
}

func TestRewriteIdentifier(t *testing.T) {
	t.Run("it should expand a bare number with the stored repository", func(t *testing.T) {
		assert.Equal(t, "acme/widgets#42", RewriteIdentifier("#42", map[string]any{OwnerField: "acme", RepoField: "widgets"}))
	})

	t.Run("it should keep identifiers which already name a repository", func(t *testing.T) {
		assert.Equal(t, "x/y#1", RewriteIdentifier("x/y#1", map[string]any{OwnerField: "acme", RepoField: "widgets"}))
	})

	t.Run("it should keep the identifier without stored context", func(t *testing.T) {
		assert.Equal(t, "#42", RewriteIdentifier("#42", nil))
	})
}

func TestToGithubState(t *testing.T) {
	for in, expected := range map[string]string{"Closed": "closed", "done": "closed", "RESOLVED": "closed", "In Progress": "open", "open": "open"} {
		assert.Equal(t, expected, toGithubState(in), in)
	}
}

func TestBuildSearchQuery(t *testing.T) {
	q := buildSearchQuery(shared.SearchOptions{Query: "crash", Status: []string{"done"}, Labels: []string{"bug"}}, "acme", "widgets")
	assert.Equal(t, `is:issue repo:acme/widgets state:closed label:"bug" crash`, q)
}
