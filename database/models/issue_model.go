// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package models

import (
	"time"

	"gorm.io/datatypes"
)

type Issue struct {
	Model
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`

	IntegrationID *uint        `json:"integrationId" gorm:"index"`
	Integration   *Integration `json:"-" gorm:"foreignKey:IntegrationID;constraint:OnDelete:SET NULL;"`

	ExternalID     *string        `json:"externalId" gorm:"index"`
	ExternalKey    *string        `json:"externalKey" gorm:"index"`
	ExternalURL    *string        `json:"externalUrl"`
	ExternalStatus *string        `json:"externalStatus"`
	ExternalData   datatypes.JSON `json:"externalData"`

	IssueTypeID      *string `json:"issueTypeId"`
	IssueTypeName    *string `json:"issueTypeName"`
	IssueTypeIconURL *string `json:"issueTypeIconUrl"`

	LastSyncedAt *time.Time `json:"lastSyncedAt"`

	ProjectID *string  `json:"projectId" gorm:"index"`
	Project   *Project `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:SET NULL;"`

	RepositoryCases []RepositoryCase `json:"-" gorm:"many2many:issue_repository_cases;"`
	Sessions        []Session        `json:"-" gorm:"many2many:issue_sessions;"`
	TestRuns        []TestRun        `json:"-" gorm:"many2many:issue_test_runs;"`
}

func (Issue) TableName() string {
	return "issues"
}

// ExternalIdentifier is the id used to address the issue at the provider.
// externalId wins over externalKey which wins over the local name.
func (i Issue) ExternalIdentifier() string {
	if i.ExternalID != nil && *i.ExternalID != "" {
		return *i.ExternalID
	}
	if i.ExternalKey != nil && *i.ExternalKey != "" {
		return *i.ExternalKey
	}
	return i.Name
}

// ResolveProjectID walks the associations to find the project the issue belongs to.
func (i Issue) ResolveProjectID() *string {
	if i.ProjectID != nil {
		return i.ProjectID
	}
	switch {
	case len(i.RepositoryCases) > 0:
		return &i.RepositoryCases[0].ProjectID
	case len(i.Sessions) > 0:
		return &i.Sessions[0].ProjectID
	case len(i.TestRuns) > 0:
		return &i.TestRuns[0].ProjectID
	}
	return nil
}
