// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package repositories

import (
	"context"
	"strings"

	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/shared"
	"gorm.io/gorm"
)

type issueRepository struct {
	*GormRepository[uint, models.Issue]
}

var _ shared.IssueRepository = &issueRepository{}

func NewIssueRepository(db shared.DB) *issueRepository {
	return &issueRepository{
		GormRepository: newGormRepository[uint, models.Issue](db),
	}
}

func (r *issueRepository) ReadWithProjectRefs(ctx context.Context, tx shared.DB, id uint) (models.Issue, error) {
	var issue models.Issue
	err := r.GetDB(tx).WithContext(ctx).
		Preload("RepositoryCases").
		Preload("Sessions").
		Preload("TestRuns").
		First(&issue, "id = ?", id).Error
	return issue, err
}

// FindByExternalIdentifier looks up the issue addressed by a provider identifier.
func (r *issueRepository) FindByExternalIdentifier(ctx context.Context, tx shared.DB, integrationID uint, identifier string) (models.Issue, error) {
	var issue models.Issue
	err := r.GetDB(tx).WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Where("external_id = ? OR external_key = ? OR name = ?", identifier, identifier, identifier).
		First(&issue).Error
	return issue, err
}

// SearchLocal filters the issues of an integration by a free text query.
func (r *issueRepository) SearchLocal(ctx context.Context, tx shared.DB, integrationID uint, opts shared.SearchOptions) ([]models.Issue, int64, error) {
	query := r.GetDB(tx).WithContext(ctx).Model(&models.Issue{}).Where("integration_id = ?", integrationID)
	if q := strings.TrimSpace(opts.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(name) LIKE ? OR LOWER(COALESCE(external_key, '')) LIKE ?",
			like, like, like,
		)
	}
	if opts.ProjectID != "" {
		query = query.Where("project_id = ?", opts.ProjectID)
	}
	if len(opts.Status) > 0 {
		query = query.Where("status IN ?", opts.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var issues []models.Issue
	err := query.Session(&gorm.Session{}).
		Order("id ASC").
		Offset(opts.Offset).
		Limit(opts.LimitOrDefault(50)).
		Find(&issues).Error
	return issues, total, err
}
