// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// issueStore is the unscoped IssueStore over the raw database client.
type issueStore struct {
	db           shared.DB
	integrations *integrationRepository
	scopes       []func(*gorm.DB) *gorm.DB
}

var _ shared.IssueStore = &issueStore{}

func NewIssueStore(db shared.DB) *issueStore {
	return &issueStore{
		db:           db,
		integrations: NewIntegrationRepository(db),
	}
}

// WithScope returns a copy of the store which applies the given gorm scope to every issue query.
func (s *issueStore) WithScope(scope func(*gorm.DB) *gorm.DB) *issueStore {
	scopes := make([]func(*gorm.DB) *gorm.DB, 0, len(s.scopes)+1)
	scopes = append(scopes, s.scopes...)
	return &issueStore{
		db:           s.db,
		integrations: s.integrations,
		scopes:       append(scopes, scope),
	}
}

func (s *issueStore) FindIntegration(ctx context.Context, integrationID uint) (models.Integration, error) {
	return s.integrations.ReadWithActiveAuths(ctx, s.db, integrationID)
}

func (s *issueStore) scoped(ctx context.Context, integrationID uint, projectID *string) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Issue{}).Scopes(s.scopes...).Where("integration_id = ?", integrationID)
	if projectID != nil {
		query = query.Where("project_id = ?", *projectID)
	}
	return query
}

func (s *issueStore) CountIssues(ctx context.Context, integrationID uint, projectID *string) (int64, error) {
	var count int64
	err := s.scoped(ctx, integrationID, projectID).Count(&count).Error
	return count, err
}

func (s *issueStore) ListIssues(ctx context.Context, integrationID uint, projectID *string, offset, limit int) ([]models.Issue, error) {
	var issues []models.Issue
	err := s.scoped(ctx, integrationID, projectID).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&issues).Error
	return issues, err
}

func (s *issueStore) FindIssueByExternalRef(ctx context.Context, integrationID uint, id, key string) (models.Issue, error) {
	var issue models.Issue
	// an empty key must not match rows without an external key
	candidates := []string{id}
	if key != "" && key != id {
		candidates = append(candidates, key)
	}
	err := s.db.WithContext(ctx).
		Scopes(s.scopes...).
		Where("integration_id = ?", integrationID).
		Where("(external_id IN ? OR external_key IN ?)", candidates, candidates).
		// rows whose external id equals the id win over rows sharing only a key
		Order(clause.OrderBy{Expression: clause.Expr{SQL: "CASE WHEN external_id = ? THEN 0 ELSE 1 END, id ASC", Vars: []any{id}, WithoutParentheses: true}}).
		First(&issue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return issue, fmt.Errorf("no local issue for external issue %s (%s): %w", id, key, shared.ErrIssueNotFound)
		}
		return issue, err
	}
	return issue, nil
}

func (s *issueStore) UpdateIssue(ctx context.Context, issue *models.Issue) error {
	return s.db.WithContext(ctx).Model(issue).Select(
		"title", "description", "status", "priority",
		"external_id", "external_key", "external_url", "external_status", "external_data",
		"issue_type_id", "issue_type_name", "issue_type_icon_url",
		"last_synced_at", "updated_at",
	).Updates(issue).Error
}
