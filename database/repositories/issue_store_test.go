// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/integrationtestutil"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindIssueByExternalRef(t *testing.T) {
	ctx := context.Background()
	db := integrationtestutil.InitSQLiteDB(t)
	store := NewIssueStore(db)

	integration, _ := integrationtestutil.CreateIntegrationWithIssues(t, db, models.ProviderJira)
	other, _ := integrationtestutil.CreateIntegrationWithIssues(t, db, models.ProviderJira)

	byID := models.Issue{Name: "a", IntegrationID: &integration.ID, ExternalID: shared.Ptr("X")}
	byKey := models.Issue{Name: "b", IntegrationID: &integration.ID, ExternalKey: shared.Ptr("Y")}
	foreign := models.Issue{Name: "c", IntegrationID: &other.ID, ExternalID: shared.Ptr("Z")}
	require.NoError(t, db.Create(&byID).Error)
	require.NoError(t, db.Create(&byKey).Error)
	require.NoError(t, db.Create(&foreign).Error)

	t.Run("it should match an external id with the incoming id", func(t *testing.T) {
		issue, err := store.FindIssueByExternalRef(ctx, integration.ID, "X", "")
		require.NoError(t, err)
		assert.Equal(t, byID.ID, issue.ID)
	})

	t.Run("it should match an external id with the incoming key", func(t *testing.T) {
		issue, err := store.FindIssueByExternalRef(ctx, integration.ID, "10001", "X")
		require.NoError(t, err)
		assert.Equal(t, byID.ID, issue.ID)
	})

	t.Run("it should match an external key with the incoming id", func(t *testing.T) {
		issue, err := store.FindIssueByExternalRef(ctx, integration.ID, "Y", "")
		require.NoError(t, err)
		assert.Equal(t, byKey.ID, issue.ID)
	})

	t.Run("it should match an external key with the incoming key", func(t *testing.T) {
		issue, err := store.FindIssueByExternalRef(ctx, integration.ID, "10002", "Y")
		require.NoError(t, err)
		assert.Equal(t, byKey.ID, issue.ID)
	})

	t.Run("it should never match issues of another integration", func(t *testing.T) {
		_, err := store.FindIssueByExternalRef(ctx, integration.ID, "Z", "Z")
		assert.ErrorIs(t, err, shared.ErrIssueNotFound)
	})
	t.Run("it should prefer the exact external id over a shared key", func(t *testing.T) {
		github, _ := integrationtestutil.CreateIntegrationWithIssues(t, db, models.ProviderGithub)
		widgets := models.Issue{Name: "w", IntegrationID: &github.ID, ExternalID: shared.Ptr("acme/widgets#42"), ExternalKey: shared.Ptr("#42")}
		gadgets := models.Issue{Name: "g", IntegrationID: &github.ID, ExternalID: shared.Ptr("acme/gadgets#42"), ExternalKey: shared.Ptr("#42")}
		require.NoError(t, db.Create(&widgets).Error)
		require.NoError(t, db.Create(&gadgets).Error)

		issue, err := store.FindIssueByExternalRef(ctx, github.ID, "acme/gadgets#42", "#42")
		require.NoError(t, err)
		assert.Equal(t, gadgets.ID, issue.ID)

		issue, err = store.FindIssueByExternalRef(ctx, github.ID, "acme/widgets#42", "#42")
		require.NoError(t, err)
		assert.Equal(t, widgets.ID, issue.ID)
	})
}

func TestListAndCountIssues(t *testing.T) {
	ctx := context.Background()
	db := integrationtestutil.InitSQLiteDB(t)
	store := NewIssueStore(db)

	integration, issues := integrationtestutil.CreateIntegrationWithIssues(t, db, models.ProviderGithub, "1", "2", "3", "4", "5")

	project := models.Project{ID: "project-1", Name: "Project"}
	require.NoError(t, db.Create(&project).Error)
	require.NoError(t, db.Model(&issues[0]).Update("project_id", project.ID).Error)

	t.Run("it should count all issues of the integration", func(t *testing.T) {
		count, err := store.CountIssues(ctx, integration.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("it should scope the count to a project", func(t *testing.T) {
		count, err := store.CountIssues(ctx, integration.ID, &project.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("it should page in insertion order", func(t *testing.T) {
		page, err := store.ListIssues(ctx, integration.ID, nil, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, issues[2].ID, page[0].ID)
		assert.Equal(t, issues[3].ID, page[1].ID)
	})
}

func TestUpdateIssue(t *testing.T) {
	ctx := context.Background()
	db := integrationtestutil.InitSQLiteDB(t)
	store := NewIssueStore(db)

	_, issues := integrationtestutil.CreateIntegrationWithIssues(t, db, models.ProviderJira, "100")

	issue := issues[0]
	now := time.Now()
	issue.Title = "updated title"
	issue.Status = "Done"
	issue.ExternalKey = shared.Ptr("PROJ-1")
	issue.LastSyncedAt = &now
	require.NoError(t, store.UpdateIssue(ctx, &issue))

	var reloaded models.Issue
	require.NoError(t, db.First(&reloaded, issue.ID).Error)
	assert.Equal(t, "updated title", reloaded.Title)
	assert.Equal(t, "Done", reloaded.Status)
	assert.Equal(t, "PROJ-1", *reloaded.ExternalKey)
	assert.NotNil(t, reloaded.LastSyncedAt)
	// the local name is never touched by the sync
	assert.Equal(t, "issue-1", reloaded.Name)
}

func TestReadWithActiveAuths(t *testing.T) {
	ctx := context.Background()
	db := integrationtestutil.InitSQLiteDB(t)
	repo := NewIntegrationRepository(db)

	user := models.User{ID: "user-1", Name: "user"}
	require.NoError(t, db.Create(&user).Error)
	integration, _ := integrationtestutil.CreateIntegrationWithIssues(t, db, models.ProviderJira)

	older := models.UserIntegrationAuth{UserID: user.ID, IntegrationID: integration.ID, AccessToken: "old", IsActive: true}
	newer := models.UserIntegrationAuth{UserID: user.ID, IntegrationID: integration.ID, AccessToken: "new", IsActive: true}
	inactive := models.UserIntegrationAuth{UserID: user.ID, IntegrationID: integration.ID, AccessToken: "inactive", IsActive: true}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)
	require.NoError(t, db.Create(&inactive).Error)
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)
	require.NoError(t, db.Model(&older).UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	t.Run("it should only load active auths", func(t *testing.T) {
		loaded, err := repo.ReadWithActiveAuths(ctx, nil, integration.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.UserIntegrationAuths, 2)
		assert.Equal(t, "new", loaded.LatestActiveAuth().AccessToken)
	})

	t.Run("it should return ErrIntegrationNotFound for unknown ids", func(t *testing.T) {
		_, err := repo.ReadWithActiveAuths(ctx, nil, 999)
		assert.ErrorIs(t, err, shared.ErrIntegrationNotFound)
	})
}
