// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package repositories

import (
	"context"
	"testing"

	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/integrationtestutil"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegrationRepository(t *testing.T) {
	db := integrationtestutil.InitSQLiteDB(t)
	repo := NewIntegrationRepository(db)

	jira, _ := integrationtestutil.CreateIntegrationWithIssues(t, db, models.ProviderJira)
	github, _ := integrationtestutil.CreateIntegrationWithIssues(t, db, models.ProviderGithub)

	t.Run("it should list every integration", func(t *testing.T) {
		all, err := repo.All()
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("it should persist a changed status", func(t *testing.T) {
		integration, err := repo.Read(github.ID)
		require.NoError(t, err)

		integration.Status = models.IntegrationStatusInactive
		require.NoError(t, repo.Save(nil, &integration))

		reloaded, err := repo.Read(github.ID)
		require.NoError(t, err)
		assert.False(t, reloaded.IsActive())

		other, err := repo.Read(jira.ID)
		require.NoError(t, err)
		assert.True(t, other.IsActive())
	})

	t.Run("it should report a missing integration", func(t *testing.T) {
		_, err := repo.ReadWithActiveAuths(context.Background(), nil, 999)
		assert.ErrorIs(t, err, shared.ErrIntegrationNotFound)
	})
}
