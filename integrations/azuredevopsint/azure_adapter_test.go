// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package azuredevopsint

import (
	"encoding/json"
	"io"
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

const workItemJSON = `{
	"id": 12,
	"rev": 3,
	"fields": {
		"System.Title": "Broken build",
		"System.State": "Active",
		"System.WorkItemType": "Bug",
		"System.Tags": "ci; flaky",
		"System.AssignedTo": {"id": "u1", "displayName": "Alice", "uniqueName": "alice@example.com"},
		"System.CreatedDate": "2025-01-02T10:00:00.123Z",
		"Microsoft.VSTS.Common.Priority": 2,
		"Custom.Team": "core"
	},
	"_links": {"html": {"href": "https://dev.azure.com/org/proj/_workitems/edit/12"}}
}`

type recorded struct {
	contentType string
	ops         []PatchOperation
	uploaded    []byte
}

func newAzureServer(t *testing.T, rec *recorded) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "" || pass != "pat" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, apiVersion, r.URL.Query().Get("api-version")[:3])
		switch {
		case r.URL.Path == "/_apis/projects":
			_, _ = w.Write([]byte(`{"value":[{"id":"p1","name":"proj"}]}`))
		case r.URL.Path == "/proj/_apis/wit/workitems/$Bug" && r.Method == http.MethodPost:
			rec.contentType = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&rec.ops)
			_, _ = w.Write([]byte(workItemJSON))
		case r.URL.Path == "/_apis/wit/workitems/12" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(workItemJSON))
		case r.URL.Path == "/_apis/wit/workitems/12" && r.Method == http.MethodPatch:
			rec.contentType = r.Header.Get("Content-Type")
			_ = json.NewDecoder(r.Body).Decode(&rec.ops)
			_, _ = w.Write([]byte(workItemJSON))
		case r.URL.Path == "/proj/_apis/wit/wiql":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "SELECT [System.Id] FROM WorkItems WHERE [System.TeamProject] = 'proj' AND [System.State] IN ('Active') ORDER BY [System.ChangedDate] DESC", body["query"])
			_, _ = w.Write([]byte(`{"workItems":[{"id":12}]}`))
		case r.URL.Path == "/_apis/wit/workitems":
			assert.Equal(t, "12", r.URL.Query().Get("ids"))
			_, _ = w.Write([]byte(`{"count":1,"value":[` + workItemJSON + `]}`))
		case r.URL.Path == "/proj/_apis/wit/attachments":
			rec.uploaded, _ = io.ReadAll(r.Body)
			_, _ = w.Write([]byte(`{"id":"att-1","url":"https://dev.azure.com/org/_apis/wit/attachments/att-1"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestAzureDevOpsAdapter(t *testing.T) {
	var rec recorded
	srv := newAzureServer(t, &rec)
	defer srv.Close()

	opts := commonint.ExecutorOptions{Provider: shared.ProviderAzureDevOps, MaxRetries: 1, RetryDelay: time.Millisecond, HTTPClient: http.DefaultClient}
	newAuthenticated := func(t *testing.T) *adapter {
		a := newAdapter(shared.AdapterConfig{Settings: map[string]any{"organizationUrl": srv.URL, "project": "proj"}}, opts)
		require.NoError(t, a.Authenticate(t.Context(), shared.AuthData{Type: shared.AuthTypeAPIKey, APIKey: "pat"}))
		return a
	}

	t.Run("it should send the token as the basic auth password", func(t *testing.T) {
		a := newAuthenticated(t)
		assert.True(t, a.IsAuthenticated(t.Context()))
	})

	t.Run("it should create work items with a json patch document", func(t *testing.T) {
		a := newAuthenticated(t)
		issue, err := a.CreateIssue(t.Context(), shared.IssueData{Title: "Broken build", IssueType: "Bug", Priority: "2", Labels: []string{"ci"}})
		require.NoError(t, err)

		assert.Equal(t, jsonPatch, rec.contentType)
		assert.Contains(t, rec.ops, PatchOperation{Op: "add", Path: "/fields/System.Title", Value: "Broken build"})
		assert.Contains(t, rec.ops, PatchOperation{Op: "add", Path: "/fields/System.Tags", Value: "ci"})
		assert.Equal(t, "12", issue.ID)
	})

	t.Run("it should normalize a work item", func(t *testing.T) {
		a := newAuthenticated(t)
		issue, err := a.GetIssue(t.Context(), "12")
		require.NoError(t, err)

		assert.Equal(t, "Broken build", issue.Title)
		assert.Equal(t, "Active", issue.Status)
		assert.Equal(t, "2", issue.Priority)
		assert.Equal(t, "Bug", issue.IssueType.Name)
		assert.Equal(t, []string{"ci", "flaky"}, issue.Labels)
		assert.Equal(t, "Alice", issue.Assignee.Name)
		assert.Equal(t, "core", issue.CustomFields["Custom.Team"])
		assert.Equal(t, "https://dev.azure.com/org/proj/_workitems/edit/12", issue.URL)
		assert.Equal(t, 2025, issue.CreatedAt.Year())
	})

	t.Run("it should only patch the changed fields", func(t *testing.T) {
		a := newAuthenticated(t)
		_, err := a.UpdateIssue(t.Context(), "12", shared.IssueUpdate{Status: shared.Ptr("Closed")})
		require.NoError(t, err)
		assert.Equal(t, []PatchOperation{{Op: "add", Path: "/fields/System.State", Value: "Closed"}}, rec.ops)
	})

	t.Run("it should search with wiql", func(t *testing.T) {
		a := newAuthenticated(t)
		res, err := a.SearchIssues(t.Context(), shared.SearchOptions{Status: []string{"Active"}})
		require.NoError(t, err)
		require.Len(t, res.Issues, 1)
		assert.False(t, res.HasMore)
	})

	t.Run("it should upload an attachment and link it to the work item", func(t *testing.T) {
		a := newAuthenticated(t)
		att, err := a.UploadAttachment(t.Context(), "12", "log.txt", []byte("hello"))
		require.NoError(t, err)

		assert.Equal(t, []byte("hello"), rec.uploaded)
		require.Len(t, rec.ops, 1)
		assert.Equal(t, "/relations/-", rec.ops[0].Path)
		assert.Equal(t, "att-1", att.ID)
	})

	t.Run("it should report missing configuration", func(t *testing.T) {
		a := newAdapter(shared.AdapterConfig{}, opts)
		res, err := a.ValidateConfiguration(t.Context())
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "organization url is required")
		assert.Contains(t, res.Errors, "project is required")
	})
}

func TestBuildWIQL(t *testing.T) {
	t.Run("it should escape single quotes", func(t *testing.T) {
		q := BuildWIQL(shared.SearchOptions{Query: "it's broken"}, "")
		assert.Equal(t, "SELECT [System.Id] FROM WorkItems WHERE [System.Title] CONTAINS 'it''s broken' ORDER BY [System.ChangedDate] DESC", q)
	})
}

func TestAzureDevOpsMetadataCache(t *testing.T) {
	var types, states atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/proj/_apis/wit/workitemtypes":
			types.Add(1)
			_, _ = w.Write([]byte(`{"value":[{"name":"Bug","referenceName":"Microsoft.VSTS.WorkItemTypes.Bug"}]}`))
		case strings.HasSuffix(r.URL.Path, "/states"):
			states.Add(1)
			_, _ = w.Write([]byte(`{"value":[{"name":"Active","category":"InProgress"}]}`))
		default:
			_, _ = w.Write([]byte(`{"value":[]}`))
		}
	}))
	defer srv.Close()

	opts := commonint.ExecutorOptions{Provider: shared.ProviderAzureDevOps, MaxRetries: 1, RetryDelay: time.Millisecond, HTTPClient: http.DefaultClient}
	a := newAdapter(shared.AdapterConfig{Settings: map[string]any{"organizationUrl": srv.URL, "project": "proj"}}, opts)
	require.NoError(t, a.Authenticate(t.Context(), shared.AuthData{Type: shared.AuthTypeAPIKey, APIKey: "pat"}))

	t.Run("it should fetch work item types and states once", func(t *testing.T) {
		for range 3 {
			it, err := a.GetIssueTypes(t.Context(), "")
			require.NoError(t, err)
			assert.Equal(t, "Microsoft.VSTS.WorkItemTypes.Bug", it[0].ID)

			st, err := a.GetStatuses(t.Context(), "")
			require.NoError(t, err)
			assert.Equal(t, "Active", st[0].Name)
		}
		assert.Equal(t, int32(1), types.Load())
		assert.Equal(t, int32(1), states.Load())
	})

	t.Run("it should not cache with a disabled metadata cache", func(t *testing.T) {
		types.Store(0)
		disabled := opts
		disabled.MetadataCacheTTL = -1
		b := newAdapter(shared.AdapterConfig{Settings: map[string]any{"organizationUrl": srv.URL, "project": "proj"}}, disabled)
		require.NoError(t, b.Authenticate(t.Context(), shared.AuthData{Type: shared.AuthTypeAPIKey, APIKey: "pat"}))
		for range 2 {
			_, err := b.GetIssueTypes(t.Context(), "")
			require.NoError(t, err)
		}
		assert.Equal(t, int32(2), types.Load())
	})
}
