// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package integrationtestutil

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/l3montree-dev/issuesync/database"
	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitSQLiteDB creates an isolated in memory database with the issue sync schema.
func InitSQLiteDB(t *testing.T) shared.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Integration{},
		&models.UserIntegrationAuth{},
		&models.RepositoryCase{},
		&models.Session{},
		&models.TestRun{},
		&models.Issue{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close() // nolint: errcheck
		}
	})
	return db
}

// InitDatabaseContainer starts a postgres container and runs the embedded migrations.
// It returns the connection string next to the client.
func InitDatabaseContainer() (*database.Client, string, func()) {
	ctx := context.Background()

	dbName := "issuesync"
	dbUser := "user"
	dbPassword := "password"

	postgresC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		postgres.BasicWaitStrategies(),
	)

	terminate := func() {
		if err := testcontainers.TerminateContainer(postgresC); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
	if err != nil {
		slog.Info("failed to start postgres container", "error", err)
		panic(err)
	}

	dsn, err := postgresC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	client, err := database.NewClient(ctx, dsn, database.GetPoolConfigFromEnv())
	if err != nil {
		log.Printf("failed to connect to database: %s", err)
		panic(err)
	}

	if err := database.RunMigrationsWithDB(client.DB); err != nil {
		log.Printf("failed to run migrations: %s", err)
		panic(err)
	}

	return client, dsn, func() {
		client.Close() // nolint: errcheck
		terminate()
	}
}

// CreateIntegrationWithIssues seeds an integration and one issue per external id.
func CreateIntegrationWithIssues(t *testing.T, db shared.DB, provider models.IntegrationProvider, externalIDs ...string) (models.Integration, []models.Issue) {
	t.Helper()
	integration := models.Integration{
		Name:     "test integration",
		Provider: provider,
		Status:   models.IntegrationStatusActive,
		AuthType: models.IntegrationAuthNone,
	}
	require.NoError(t, db.Create(&integration).Error)

	issues := make([]models.Issue, 0, len(externalIDs))
	for i, externalID := range externalIDs {
		issue := models.Issue{
			Name:          fmt.Sprintf("issue-%d", i+1),
			Title:         fmt.Sprintf("Issue %d", i+1),
			IntegrationID: &integration.ID,
		}
		if externalID != "" {
			issue.ExternalID = shared.Ptr(externalID)
		}
		require.NoError(t, db.Create(&issue).Error)
		issues = append(issues, issue)
	}
	return integration, issues
}
