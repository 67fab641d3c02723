// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/l3montree-dev/issuesync/monitoring"
	"github.com/l3montree-dev/issuesync/shared"
)

const (
	DefaultIssueTTL    = time.Hour
	DefaultIssuesTTL   = time.Hour
	DefaultMetadataTTL = 2 * time.Hour
	DefaultProjectsTTL = 24 * time.Hour
)

type issueCache struct {
	store shared.KeyValueStore
	now   func() time.Time
}

var _ shared.IssueCache = &issueCache{}

func NewIssueCache(store shared.KeyValueStore) *issueCache {
	return &issueCache{
		store: store,
		now:   time.Now,
	}
}

// tenantPrefix separates the keys of tenants sharing one store, integration ids
// are only unique inside a tenant database.
func tenantPrefix(ctx context.Context) string {
	if tenant := shared.TenantFromContext(ctx); tenant != "" {
		return "tenant:" + tenant + ":"
	}
	return ""
}

func issueKey(ctx context.Context, integrationID uint, issueID string) string {
	return fmt.Sprintf("%sissue:%d:%s", tenantPrefix(ctx), integrationID, issueID)
}

func issuesKey(ctx context.Context, integrationID uint, projectID string) string {
	return fmt.Sprintf("%sissues:%d:%s", tenantPrefix(ctx), integrationID, projectID)
}

func metadataKey(ctx context.Context, integrationID uint) string {
	return fmt.Sprintf("%smetadata:%d", tenantPrefix(ctx), integrationID)
}

func projectsKey(ctx context.Context, integrationID uint) string {
	return fmt.Sprintf("%sprojects:%d", tenantPrefix(ctx), integrationID)
}

// get decodes the value stored under key into target. A corrupt value is
// deleted and reported as a miss.
func (c *issueCache) get(ctx context.Context, kind, key string, target any) bool {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		slog.Warn("could not read from issue cache", "key", key, "err", err)
		monitoring.IssueCacheLookups.WithLabelValues(kind, "error").Inc()
		return false
	}
	if !ok {
		monitoring.IssueCacheLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		slog.Warn("dropping corrupt issue cache entry", "key", key, "err", err)
		if err := c.store.Del(ctx, key); err != nil {
			slog.Warn("could not delete corrupt issue cache entry", "key", key, "err", err)
		}
		monitoring.IssueCacheLookups.WithLabelValues(kind, "corrupt").Inc()
		return false
	}
	monitoring.IssueCacheLookups.WithLabelValues(kind, "hit").Inc()
	return true
}

func (c *issueCache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("could not encode issue cache entry", "key", key, "err", err)
		return
	}
	if err := c.store.SetEx(ctx, key, string(data), ttl); err != nil {
		slog.Warn("could not write to issue cache", "key", key, "err", err)
	}
}

func (c *issueCache) GetIssue(ctx context.Context, integrationID uint, issueID string) *shared.CachedIssue {
	var cached shared.CachedIssue
	if !c.get(ctx, "issue", issueKey(ctx, integrationID, issueID), &cached) {
		return nil
	}
	return &cached
}

func (c *issueCache) SetIssue(ctx context.Context, integrationID uint, issue shared.NormalizedIssue) {
	c.set(ctx, issueKey(ctx, integrationID, issue.ID), shared.CachedIssue{
		NormalizedIssue: issue,
		CachedAt:        c.now(),
	}, DefaultIssueTTL)
}

func (c *issueCache) GetIssues(ctx context.Context, integrationID uint, projectID string) *shared.CachedIssues {
	var cached shared.CachedIssues
	if !c.get(ctx, "issues", issuesKey(ctx, integrationID, projectID), &cached) {
		return nil
	}
	return &cached
}

// SetIssues writes the bulk list and warms the single issue key of every item.
func (c *issueCache) SetIssues(ctx context.Context, integrationID uint, projectID string, issues []shared.NormalizedIssue) {
	now := c.now()
	c.set(ctx, issuesKey(ctx, integrationID, projectID), shared.CachedIssues{
		Issues:   issues,
		CachedAt: now,
	}, DefaultIssuesTTL)

	if len(issues) == 0 {
		return
	}

	entries := make(map[string]string, len(issues))
	for _, issue := range issues {
		data, err := json.Marshal(shared.CachedIssue{NormalizedIssue: issue, CachedAt: now})
		if err != nil {
			slog.Warn("could not encode issue cache entry", "issueId", issue.ID, "err", err)
			continue
		}
		entries[issueKey(ctx, integrationID, issue.ID)] = string(data)
	}
	if err := c.store.SetMany(ctx, entries, DefaultIssueTTL); err != nil {
		slog.Warn("could not write issues to cache", "integrationId", integrationID, "err", err)
	}
}

func (c *issueCache) GetMetadata(ctx context.Context, integrationID uint) *shared.ProviderMetadata {
	var cached shared.ProviderMetadata
	if !c.get(ctx, "metadata", metadataKey(ctx, integrationID), &cached) {
		return nil
	}
	return &cached
}

func (c *issueCache) SetMetadata(ctx context.Context, integrationID uint, metadata shared.ProviderMetadata) {
	metadata.CachedAt = c.now()
	c.set(ctx, metadataKey(ctx, integrationID), metadata, DefaultMetadataTTL)
}

func (c *issueCache) GetProjects(ctx context.Context, integrationID uint) *shared.CachedProjects {
	var cached shared.CachedProjects
	if !c.get(ctx, "projects", projectsKey(ctx, integrationID), &cached) {
		return nil
	}
	return &cached
}

func (c *issueCache) SetProjects(ctx context.Context, integrationID uint, projects []shared.ExternalProject) {
	c.set(ctx, projectsKey(ctx, integrationID), shared.CachedProjects{
		Projects: projects,
		CachedAt: c.now(),
	}, DefaultProjectsTTL)
}

func (c *issueCache) InvalidateIssue(ctx context.Context, integrationID uint, issueID string) {
	if err := c.store.Del(ctx, issueKey(ctx, integrationID, issueID)); err != nil {
		slog.Warn("could not invalidate issue", "integrationId", integrationID, "issueId", issueID, "err", err)
	}
}

func (c *issueCache) InvalidateIntegration(ctx context.Context, integrationID uint) {
	var keys []string
	for _, pattern := range []string{
		issueKey(ctx, integrationID, "*"),
		issuesKey(ctx, integrationID, "*"),
	} {
		found, err := c.store.Scan(ctx, pattern)
		if err != nil {
			slog.Warn("could not scan issue cache", "pattern", pattern, "err", err)
			continue
		}
		keys = append(keys, found...)
	}
	if len(keys) == 0 {
		return
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		slog.Warn("could not invalidate integration", "integrationId", integrationID, "err", err)
	}
}

func (c *issueCache) InvalidateProject(ctx context.Context, integrationID uint, projectID string) {
	if err := c.store.Del(ctx, issuesKey(ctx, integrationID, projectID)); err != nil {
		slog.Warn("could not invalidate project", "integrationId", integrationID, "projectId", projectID, "err", err)
	}
}

// WarmCache fills the bulk list of a project. A failing fetch is only logged.
func (c *issueCache) WarmCache(ctx context.Context, integrationID uint, projectID string, fetch func(ctx context.Context) ([]shared.NormalizedIssue, error)) {
	issues, err := fetch(ctx)
	if err != nil {
		slog.Warn("could not warm issue cache", "integrationId", integrationID, "projectId", projectID, "err", err)
		return
	}
	c.SetIssues(ctx, integrationID, projectID, issues)
}
