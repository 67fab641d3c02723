// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commands

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/mocks"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/l3montree-dev/issuesync/vault"
	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEncryptCredentials(t *testing.T) {
	v := vault.New("commands-test-key")

	t.Run("it should produce a blob the vault can read again", func(t *testing.T) {
		out, err := encryptCredentials(v, strings.NewReader(`{"email": "bot@example.com", "apiToken": "secret"}`))
		require.NoError(t, err)
		assert.Contains(t, string(out), `"encrypted"`)
		assert.NotContains(t, string(out), "secret")

		var creds struct {
			Email    string `json:"email"`
			APIToken string `json:"apiToken"`
		}
		require.NoError(t, v.DecryptCredentials(out, &creds))
		assert.Equal(t, "bot@example.com", creds.Email)
		assert.Equal(t, "secret", creds.APIToken)
	})

	t.Run("it should reject invalid input", func(t *testing.T) {
		_, err := encryptCredentials(v, strings.NewReader(`not json`))
		assert.Error(t, err)

		_, err = encryptCredentials(v, strings.NewReader(`{"encrypted": "abc"}`))
		assert.Error(t, err)
	})
}

func TestCapabilityNames(t *testing.T) {
	assert.Equal(t, "create, search, sync", capabilityNames(shared.Capabilities{CreateIssue: true, SyncIssue: true, SearchIssues: true}))
	assert.Equal(t, "", capabilityNames(shared.Capabilities{}))
}

func TestBarReporter(t *testing.T) {
	bar := progressbar.NewOptions(-1, progressbar.OptionSetWriter(io.Discard))
	reporter := barReporter{bar: bar}

	require.NoError(t, reporter.UpdateProgress(context.Background(), shared.JobProgress{Current: 3, Total: 10, Percentage: 30, Message: "Synced 3 of 10 issues"}))
	assert.Equal(t, 10, bar.GetMax())
	assert.InDelta(t, 0.3, bar.State().CurrentPercent, 0.001)
}

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Version:    dev")
}

func TestParseIntegrationID(t *testing.T) {
	id, err := parseIntegrationID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = parseIntegrationID("jira")
	assert.Error(t, err)
}

func TestSetIntegrationStatus(t *testing.T) {
	t.Run("it should deactivate an active integration", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)
		repo.On("Read", uint(3)).Return(models.Integration{Model: models.Model{ID: 3}, Name: "jira", Status: models.IntegrationStatusActive}, nil)
		repo.On("Save", mock.Anything, mock.MatchedBy(func(i *models.Integration) bool {
			return i.ID == 3 && i.Status == models.IntegrationStatusInactive
		})).Return(nil)

		integration, err := setIntegrationStatus(repo, 3, "inactive")
		require.NoError(t, err)
		assert.Equal(t, models.IntegrationStatusInactive, integration.Status)
	})

	t.Run("it should not save an unchanged status", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)
		repo.On("Read", uint(3)).Return(models.Integration{Model: models.Model{ID: 3}, Status: models.IntegrationStatusActive}, nil)

		_, err := setIntegrationStatus(repo, 3, "Active")
		require.NoError(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("it should reject an unknown status without reading", func(t *testing.T) {
		repo := mocks.NewIntegrationRepository(t)

		_, err := setIntegrationStatus(repo, 3, "paused")
		assert.ErrorContains(t, err, "unknown integration status")
	})
}
