// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package models

import (
	"time"

	databasetypes "github.com/l3montree-dev/issuesync/database/types"
	"gorm.io/datatypes"
)

type IntegrationProvider string

const (
	ProviderJira        IntegrationProvider = "JIRA"
	ProviderGithub      IntegrationProvider = "GITHUB"
	ProviderAzureDevOps IntegrationProvider = "AZURE_DEVOPS"
	ProviderSimpleURL   IntegrationProvider = "SIMPLE_URL"
)

type IntegrationStatus string

const (
	IntegrationStatusActive   IntegrationStatus = "ACTIVE"
	IntegrationStatusInactive IntegrationStatus = "INACTIVE"
)

type IntegrationAuthType string

const (
	IntegrationAuthOAuth2              IntegrationAuthType = "OAUTH2"
	IntegrationAuthAPIKey              IntegrationAuthType = "API_KEY"
	IntegrationAuthPersonalAccessToken IntegrationAuthType = "PERSONAL_ACCESS_TOKEN"
	IntegrationAuthNone                IntegrationAuthType = "NONE"
)

// UsesStoredCredentials reports whether the auth type reads the integration's credentials blob.
func (t IntegrationAuthType) UsesStoredCredentials() bool {
	return t == IntegrationAuthAPIKey || t == IntegrationAuthPersonalAccessToken
}

type Integration struct {
	Model
	Name     string              `json:"name"`
	Provider IntegrationProvider `json:"provider" gorm:"type:text;not null"`
	Status   IntegrationStatus   `json:"status" gorm:"type:text;not null;default:'ACTIVE'"`
	AuthType IntegrationAuthType `json:"authType" gorm:"type:text;not null;default:'NONE'"`

	// Credentials is either the legacy plain object or {"encrypted": "<blob>"}.
	Credentials datatypes.JSON      `json:"-"`
	Settings    databasetypes.JSONB `json:"settings" gorm:"type:jsonb"`

	UserIntegrationAuths []UserIntegrationAuth `json:"userIntegrationAuths,omitempty" gorm:"foreignKey:IntegrationID;constraint:OnDelete:CASCADE;"`
}

func (Integration) TableName() string {
	return "integrations"
}

func (i Integration) IsActive() bool {
	return i.Status == IntegrationStatusActive
}

func (i Integration) HasCredentials() bool {
	s := string(i.Credentials)
	return len(i.Credentials) > 0 && s != "null" && s != "{}"
}

// LatestActiveAuth returns the most recently updated active user auth, if any.
func (i Integration) LatestActiveAuth() *UserIntegrationAuth {
	var latest *UserIntegrationAuth
	for idx := range i.UserIntegrationAuths {
		auth := &i.UserIntegrationAuths[idx]
		if !auth.IsActive {
			continue
		}
		if latest == nil || auth.UpdatedAt.After(latest.UpdatedAt) {
			latest = auth
		}
	}
	return latest
}

type UserIntegrationAuth struct {
	Model
	UserID        string `json:"userId" gorm:"index"`
	IntegrationID uint   `json:"integrationId" gorm:"index"`

	// both tokens are stored encrypted
	AccessToken  string     `json:"-"`
	RefreshToken *string    `json:"-"`
	ExpiresAt    *time.Time `json:"expiresAt"`
	IsActive     bool       `json:"isActive" gorm:"default:true"`
}

func (UserIntegrationAuth) TableName() string {
	return "user_integration_auths"
}

func (a UserIntegrationAuth) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && !a.ExpiresAt.After(now)
}
