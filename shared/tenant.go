// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package shared

import (
	"context"
	"os"
)

type tenantContextKey struct{}

func IsMultiTenantMode() bool {
	return EnvBool("MULTI_TENANT_MODE")
}

// WithTenant stores the tenant the current request or job runs for.
func WithTenant(ctx context.Context, tenantID string) context.Context {
	if tenantID == "" {
		return ctx
	}
	return context.WithValue(ctx, tenantContextKey{}, tenantID)
}

// TenantFromContext returns the tenant of the context, falling back to the instance tenant.
func TenantFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tenantContextKey{}).(string); ok && v != "" {
		return v
	}
	return InstanceTenantID()
}

// InstanceTenantID is the process wide tenant in multi tenant deployments.
func InstanceTenantID() string {
	if !IsMultiTenantMode() {
		return ""
	}
	return os.Getenv("INSTANCE_TENANT_ID")
}

// TenantConfig is the connection data of a single tenant.
type TenantConfig struct {
	DatabaseURL        string `json:"databaseUrl" yaml:"databaseUrl"`
	ElasticsearchNode  string `json:"elasticsearchNode,omitempty" yaml:"elasticsearchNode,omitempty"`
	ElasticsearchIndex string `json:"elasticsearchIndex,omitempty" yaml:"elasticsearchIndex,omitempty"`
}

// TenantRouter resolves a tenant id to its database. In single tenant mode every
// tenant id resolves to the default database.
type TenantRouter interface {
	DB(ctx context.Context, tenantID string) (DB, error)
	TenantConfig(tenantID string) (TenantConfig, error)
	DisconnectAll()
}
