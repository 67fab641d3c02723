// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package models

import "time"

type Project struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Project) TableName() string {
	return "projects"
}

type RepositoryCase struct {
	Model
	Name      string `json:"name"`
	ProjectID string `json:"projectId" gorm:"index"`
}

func (RepositoryCase) TableName() string {
	return "repository_cases"
}

type Session struct {
	Model
	Name      string `json:"name"`
	ProjectID string `json:"projectId" gorm:"index"`
}

func (Session) TableName() string {
	return "sessions"
}

type TestRun struct {
	Model
	Name      string `json:"name"`
	ProjectID string `json:"projectId" gorm:"index"`
}

func (TestRun) TableName() string {
	return "test_runs"
}
