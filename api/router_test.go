// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/mocks"
	"github.com/l3montree-dev/issuesync/queue"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeJobs map[string]*queue.Job

func (f fakeJobs) GetJob(_ context.Context, id string) (*queue.Job, error) {
	if job, ok := f[id]; ok {
		return job, nil
	}
	return nil, errors.Wrapf(queue.ErrJobNotFound, "job %s", id)
}

type testEnv struct {
	syncService *mocks.SyncService
	manager     *mocks.IntegrationManager
	cache       *mocks.IssueCache
	store       *mocks.IssueStore
	jobs        fakeJobs
	handler     http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := &gorm.DB{}
	user := models.User{ID: "user-1", IsActive: true}

	tenants := mocks.NewTenantRouter(t)
	tenants.On("DB", mock.Anything, mock.Anything).Return(db, nil).Maybe()

	users := mocks.NewUserRepository(t)
	users.On("FindByID", mock.Anything, db, "user-1").Return(user, nil).Maybe()
	users.On("FindByID", mock.Anything, db, mock.Anything).Return(models.User{}, shared.ErrUserNotFound).Maybe()

	store := mocks.NewIssueStore(t)
	factory := mocks.NewIssueStoreFactory(t)
	factory.On("ForUser", db, user).Return(store, nil).Maybe()

	env := &testEnv{
		syncService: mocks.NewSyncService(t),
		manager:     mocks.NewIntegrationManager(t),
		cache:       mocks.NewIssueCache(t),
		store:       store,
		jobs:        fakeJobs{},
	}

	e := NewServer()
	RegisterRoutes(e, RouterDeps{
		TenantRouter:          tenants,
		UserRepository:        users,
		IssueStoreFactory:     factory,
		IntegrationController: NewIntegrationController(env.syncService, env.manager, env.cache),
		JobController:         NewJobController(env.jobs),
	})
	env.handler = e
	return env
}

func (env *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set(userHeader, "user-1")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) allowIntegration(id uint) {
	env.store.On("FindIntegration", mock.Anything, id).Return(models.Integration{Model: models.Model{ID: id}}, nil)
}

func TestIntegrationRoutes(t *testing.T) {
	t.Run("it should enqueue a sync and return the job id", func(t *testing.T) {
		env := newTestEnv(t)
		env.allowIntegration(4)
		env.syncService.On("QueueSync", mock.Anything, "user-1", uint(4), shared.SyncOptions{IncludeMetadata: true}).Return(shared.Ptr("job-1"))

		rec := env.do(http.MethodPost, "/api/v1/integrations/4/sync", `{"includeMetadata": true}`)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		var resp jobResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "job-1", *resp.JobID)
		assert.True(t, resp.Scheduled)
	})

	t.Run("it should report a sync which could not be scheduled", func(t *testing.T) {
		env := newTestEnv(t)
		env.allowIntegration(4)
		env.syncService.On("QueueSync", mock.Anything, "user-1", uint(4), shared.SyncOptions{}).Return(nil)

		rec := env.do(http.MethodPost, "/api/v1/integrations/4/sync", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"jobId": null, "scheduled": false}`, rec.Body.String())
	})

	t.Run("it should hide integrations the user cannot see", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.On("FindIntegration", mock.Anything, uint(5)).Return(models.Integration{}, shared.ErrIntegrationNotFound)

		rec := env.do(http.MethodPost, "/api/v1/integrations/5/sync", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("it should reject requests without user", func(t *testing.T) {
		env := newTestEnv(t)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/integrations/4/capabilities", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("it should warm the cache before a project sync", func(t *testing.T) {
		env := newTestEnv(t)
		env.allowIntegration(4)

		adapter := mocks.NewIssueTrackerAdapter(t)
		adapter.On("Capabilities").Return(shared.Capabilities{SearchIssues: true})
		adapter.On("IsAuthenticated", mock.Anything).Return(true)
		adapter.On("SearchIssues", mock.Anything, shared.SearchOptions{ProjectID: "PROJ"}).
			Return(shared.SearchResult{Issues: []shared.NormalizedIssue{{ID: "1", Key: "PROJ-1"}}}, nil)
		env.manager.On("GetAdapter", mock.Anything, mock.Anything, uint(4)).Return(adapter, nil)

		env.cache.On("WarmCache", mock.Anything, uint(4), "PROJ", mock.Anything).Run(func(args mock.Arguments) {
			fetch := args.Get(3).(func(ctx context.Context) ([]shared.NormalizedIssue, error))
			issues, err := fetch(context.Background())
			require.NoError(t, err)
			assert.Len(t, issues, 1)
		}).Return()
		env.syncService.On("QueueProjectSync", mock.Anything, "user-1", uint(4), "PROJ", shared.SyncOptions{}).Return(shared.Ptr("job-2"))

		rec := env.do(http.MethodPost, "/api/v1/integrations/4/projects/PROJ/sync", "")
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("it should still enqueue a project sync when the adapter is unavailable", func(t *testing.T) {
		env := newTestEnv(t)
		env.allowIntegration(4)
		env.manager.On("GetAdapter", mock.Anything, mock.Anything, uint(4)).Return(nil, shared.ErrIntegrationInactive)
		env.syncService.On("QueueProjectSync", mock.Anything, "user-1", uint(4), "PROJ", shared.SyncOptions{}).Return(shared.Ptr("job-3"))

		rec := env.do(http.MethodPost, "/api/v1/integrations/4/projects/PROJ/sync", "")
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("it should validate the body of an issue creation", func(t *testing.T) {
		env := newTestEnv(t)
		env.allowIntegration(4)

		rec := env.do(http.MethodPost, "/api/v1/integrations/4/issues", `{"description": "no title"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		env.syncService.On("QueueIssueCreate", mock.Anything, "user-1", uint(4), shared.IssueData{Title: "Bug"}).Return(shared.Ptr("job-4"))
		rec = env.do(http.MethodPost, "/api/v1/integrations/4/issues", `{"title": "Bug"}`)
		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("it should enqueue issue updates and refreshes", func(t *testing.T) {
		env := newTestEnv(t)
		env.allowIntegration(4)
		env.syncService.On("QueueIssueUpdate", mock.Anything, "user-1", uint(4), "PROJ-1", shared.IssueUpdate{Status: shared.Ptr("Done")}).Return(shared.Ptr("job-5"))
		env.syncService.On("QueueIssueRefresh", mock.Anything, "user-1", uint(4), "PROJ-1").Return(shared.Ptr("job-6"))

		assert.Equal(t, http.StatusAccepted, env.do(http.MethodPatch, "/api/v1/integrations/4/issues/PROJ-1", `{"status": "Done"}`).Code)
		assert.Equal(t, http.StatusAccepted, env.do(http.MethodPost, "/api/v1/integrations/4/issues/PROJ-1/refresh", "").Code)
	})

	t.Run("it should return capabilities and validation results", func(t *testing.T) {
		env := newTestEnv(t)
		env.allowIntegration(4)
		env.manager.On("GetCapabilities", mock.Anything, mock.Anything, uint(4)).Return(shared.Capabilities{SyncIssue: true}, nil)
		env.manager.On("ValidateIntegration", mock.Anything, mock.Anything, uint(4)).Return(shared.NewValidationResult([]string{"missing base url"}), nil)

		rec := env.do(http.MethodGet, "/api/v1/integrations/4/capabilities", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"syncIssue":true`)

		rec = env.do(http.MethodPost, "/api/v1/integrations/4/validate", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"valid": false, "errors": ["missing base url"]}`, rec.Body.String())
	})

	t.Run("it should map an inactive integration to a conflict", func(t *testing.T) {
		env := newTestEnv(t)
		env.allowIntegration(4)
		env.manager.On("GetCapabilities", mock.Anything, mock.Anything, uint(4)).Return(shared.Capabilities{}, shared.ErrIntegrationInactive)

		rec := env.do(http.MethodGet, "/api/v1/integrations/4/capabilities", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("it should clear the cached adapter", func(t *testing.T) {
		env := newTestEnv(t)
		env.allowIntegration(4)
		env.manager.On("ClearAdapter", mock.Anything, uint(4)).Return()

		rec := env.do(http.MethodDelete, "/api/v1/integrations/4/adapter", "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestJobRoutes(t *testing.T) {
	t.Run("it should return the state of a job", func(t *testing.T) {
		env := newTestEnv(t)
		env.jobs["job-1"] = &queue.Job{ID: "job-1", Name: shared.JobSyncIssues, State: queue.StateActive, Progress: shared.JobProgress{Current: 5, Total: 10, Percentage: 50}}

		rec := env.do(http.MethodGet, "/api/v1/jobs/job-1", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var job queue.Job
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
		assert.Equal(t, queue.StateActive, job.State)
		assert.Equal(t, 50, job.Progress.Percentage)
	})

	t.Run("it should return not found for unknown jobs and jobs of other tenants", func(t *testing.T) {
		env := newTestEnv(t)
		env.jobs["foreign"] = &queue.Job{ID: "foreign", Data: shared.SyncJobData{TenantID: shared.Ptr("acme")}}

		assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/v1/jobs/missing", "").Code)
		assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/v1/jobs/foreign", "").Code)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
