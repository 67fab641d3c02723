// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package accesscontrol

import (
	"context"
	"fmt"

	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/database/repositories"
	"github.com/l3montree-dev/issuesync/shared"
	"gorm.io/gorm"
)

type scopedIssueStoreFactory struct {
	rbac *RBAC
}

var _ shared.IssueStoreFactory = &scopedIssueStoreFactory{}

func NewIssueStoreFactory(rbac *RBAC) *scopedIssueStoreFactory {
	return &scopedIssueStoreFactory{rbac: rbac}
}

// ForUser returns an IssueStore which only sees the rows the user is allowed to see.
// Admins get the unscoped store.
func (f *scopedIssueStoreFactory) ForUser(db shared.DB, user models.User) (shared.IssueStore, error) {
	if !user.IsActive {
		return nil, fmt.Errorf("user %s is not active: %w", user.ID, shared.ErrPermissionDenied)
	}

	isAdmin, err := f.rbac.IsAdmin(user.ID)
	if err != nil {
		return nil, fmt.Errorf("could not check admin role: %w", err)
	}
	if user.Role == models.UserRoleAdmin || isAdmin {
		return repositories.NewIssueStore(db), nil
	}

	projectIDs, all, err := f.rbac.ProjectsForUser(user.ID, ActionRead)
	if err != nil {
		return nil, fmt.Errorf("could not resolve projects for user: %w", err)
	}

	store := repositories.NewIssueStore(db)
	if !all {
		store = store.WithScope(projectScope(projectIDs))
	}

	return &scopedIssueStore{
		inner:  store,
		rbac:   f.rbac,
		userID: user.ID,
	}, nil
}

// issues without a project belong to the integration only.
func projectScope(projectIDs []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(projectIDs) == 0 {
			return db.Where("project_id IS NULL")
		}
		return db.Where("(project_id IS NULL OR project_id IN ?)", projectIDs)
	}
}

type scopedIssueStore struct {
	inner  shared.IssueStore
	rbac   *RBAC
	userID string
}

func (s *scopedIssueStore) checkIntegration(integrationID uint, action Action) error {
	allowed, err := s.rbac.CanAccessIntegration(s.userID, integrationID, action)
	if err != nil {
		return err
	}
	if !allowed {
		// a read the user may not perform looks like a missing integration
		if action == ActionRead {
			return fmt.Errorf("integration %d: %w", integrationID, shared.ErrIntegrationNotFound)
		}
		return fmt.Errorf("%s on integration %d: %w", action, integrationID, shared.ErrPermissionDenied)
	}
	return nil
}

func (s *scopedIssueStore) checkProject(projectID *string, action Action) error {
	if projectID == nil {
		return nil
	}
	allowed, err := s.rbac.CanAccessProject(s.userID, *projectID, action)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%s on project %s: %w", action, *projectID, shared.ErrPermissionDenied)
	}
	return nil
}

func (s *scopedIssueStore) FindIntegration(ctx context.Context, integrationID uint) (models.Integration, error) {
	if err := s.checkIntegration(integrationID, ActionRead); err != nil {
		return models.Integration{}, err
	}
	return s.inner.FindIntegration(ctx, integrationID)
}

func (s *scopedIssueStore) CountIssues(ctx context.Context, integrationID uint, projectID *string) (int64, error) {
	if err := s.checkIntegration(integrationID, ActionRead); err != nil {
		return 0, err
	}
	if err := s.checkProject(projectID, ActionRead); err != nil {
		return 0, err
	}
	return s.inner.CountIssues(ctx, integrationID, projectID)
}

func (s *scopedIssueStore) ListIssues(ctx context.Context, integrationID uint, projectID *string, offset, limit int) ([]models.Issue, error) {
	if err := s.checkIntegration(integrationID, ActionRead); err != nil {
		return nil, err
	}
	if err := s.checkProject(projectID, ActionRead); err != nil {
		return nil, err
	}
	return s.inner.ListIssues(ctx, integrationID, projectID, offset, limit)
}

func (s *scopedIssueStore) FindIssueByExternalRef(ctx context.Context, integrationID uint, id, key string) (models.Issue, error) {
	if err := s.checkIntegration(integrationID, ActionRead); err != nil {
		return models.Issue{}, err
	}
	return s.inner.FindIssueByExternalRef(ctx, integrationID, id, key)
}

func (s *scopedIssueStore) UpdateIssue(ctx context.Context, issue *models.Issue) error {
	if issue.IntegrationID != nil {
		if err := s.checkIntegration(*issue.IntegrationID, ActionUpdate); err != nil {
			return err
		}
	}
	if err := s.checkProject(issue.ProjectID, ActionUpdate); err != nil {
		return err
	}
	return s.inner.UpdateIssue(ctx, issue)
}
