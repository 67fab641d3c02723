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
)

type integrationRepository struct {
	*GormRepository[uint, models.Integration]
}

var _ shared.IntegrationRepository = &integrationRepository{}

func NewIntegrationRepository(db shared.DB) *integrationRepository {
	return &integrationRepository{
		GormRepository: newGormRepository[uint, models.Integration](db),
	}
}

func (r *integrationRepository) ReadWithActiveAuths(ctx context.Context, tx shared.DB, id uint) (models.Integration, error) {
	var integration models.Integration
	err := r.GetDB(tx).WithContext(ctx).
		Preload("UserIntegrationAuths", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("updated_at DESC")
		}).
		First(&integration, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return integration, fmt.Errorf("%w: %d", shared.ErrIntegrationNotFound, id)
		}
		return integration, fmt.Errorf("could not load integration %d: %w", id, err)
	}
	return integration, nil
}
