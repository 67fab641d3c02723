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

type userRepository struct {
	*GormRepository[string, models.User]
}

var _ shared.UserRepository = &userRepository{}

func NewUserRepository(db shared.DB) *userRepository {
	return &userRepository{
		GormRepository: newGormRepository[string, models.User](db),
	}
}

func (r *userRepository) FindByID(ctx context.Context, tx shared.DB, id string) (models.User, error) {
	var user models.User
	if err := r.GetDB(tx).WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user, fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
		}
		return user, err
	}
	return user, nil
}
