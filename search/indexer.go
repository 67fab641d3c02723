// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/l3montree-dev/issuesync/common"
	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/database/repositories"
	"github.com/l3montree-dev/issuesync/monitoring"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/pkg/errors"
	gobreaker "github.com/sony/gobreaker/v2"
)

const DefaultIndex = "issues"

// Target is the elasticsearch node and index a tenant writes to.
type Target struct {
	Node  string
	Index string
}

func (t Target) documentURL(id uint) (string, error) {
	base, err := url.Parse(strings.TrimRight(t.Node, "/"))
	if err != nil {
		return "", err
	}
	return base.JoinPath(t.Index, "_doc", strconv.FormatUint(uint64(id), 10)).String(), nil
}

type issueDocument struct {
	ID             uint       `json:"id"`
	Name           string     `json:"name"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	IntegrationID  *uint      `json:"integrationId,omitempty"`
	ProjectID      *string    `json:"projectId,omitempty"`
	ExternalID     *string    `json:"externalId,omitempty"`
	ExternalKey    *string    `json:"externalKey,omitempty"`
	ExternalURL    *string    `json:"externalUrl,omitempty"`
	ExternalStatus *string    `json:"externalStatus,omitempty"`
	IssueTypeName  *string    `json:"issueTypeName,omitempty"`
	LastSyncedAt   *time.Time `json:"lastSyncedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func newIssueDocument(issue models.Issue) issueDocument {
	return issueDocument{
		ID:             issue.ID,
		Name:           issue.Name,
		Title:          issue.Title,
		Description:    issue.Description,
		Status:         issue.Status,
		Priority:       issue.Priority,
		IntegrationID:  issue.IntegrationID,
		ProjectID:      issue.ResolveProjectID(),
		ExternalID:     issue.ExternalID,
		ExternalKey:    issue.ExternalKey,
		ExternalURL:    issue.ExternalURL,
		ExternalStatus: issue.ExternalStatus,
		IssueTypeName:  issue.IssueTypeName,
		LastSyncedAt:   issue.LastSyncedAt,
		CreatedAt:      issue.CreatedAt,
		UpdatedAt:      issue.UpdatedAt,
	}
}

// Indexer writes issues into elasticsearch. Writes run in the background and
// failures are only logged and counted.
type Indexer struct {
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker[struct{}]
	tenants       shared.TenantRouter
	defaultTarget Target

	wg sync.WaitGroup
}

var _ shared.SearchIndexer = (*Indexer)(nil)

func NewIndexer(httpClient *http.Client, tenants shared.TenantRouter, defaultTarget Target) *Indexer {
	if httpClient == nil {
		httpClient = common.NewHTTPClient()
	}
	if defaultTarget.Index == "" {
		defaultTarget.Index = DefaultIndex
	}

	return &Indexer{
		httpClient:    httpClient,
		tenants:       tenants,
		defaultTarget: defaultTarget,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "search-indexer",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("search index circuit breaker changed state", "name", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// TargetFromEnv reads ELASTICSEARCH_NODE and ELASTICSEARCH_INDEX.
func TargetFromEnv() Target {
	return Target{
		Node:  os.Getenv("ELASTICSEARCH_NODE"),
		Index: shared.FirstNonEmpty(os.Getenv("ELASTICSEARCH_INDEX"), DefaultIndex),
	}
}

// IndexIssue schedules the write and returns immediately.
func (i *Indexer) IndexIssue(ctx context.Context, db shared.DB, tenantID string, issueID uint) {
	ctx = context.WithoutCancel(ctx)
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				monitoring.RecoverAndAlert("panic while indexing issue", r)
			}
		}()

		if err := i.Index(ctx, db, tenantID, issueID); err != nil {
			monitoring.SearchIndexFailures.Inc()
			slog.Warn("could not index issue", "issueId", issueID, "tenant", tenantID, "err", err)
		}
	}()
}

// Wait blocks until every scheduled write finished.
func (i *Indexer) Wait() {
	i.wg.Wait()
}

func (i *Indexer) target(tenantID string) Target {
	target := i.defaultTarget
	if tenantID == "" || i.tenants == nil {
		return target
	}
	cfg, err := i.tenants.TenantConfig(tenantID)
	if err != nil {
		slog.Debug("no tenant configuration for search index, using default", "tenant", tenantID, "err", err)
		return target
	}
	target.Node = shared.FirstNonEmpty(cfg.ElasticsearchNode, target.Node)
	target.Index = shared.FirstNonEmpty(cfg.ElasticsearchIndex, target.Index)
	return target
}

// Index writes the issue synchronously.
func (i *Indexer) Index(ctx context.Context, db shared.DB, tenantID string, issueID uint) error {
	target := i.target(tenantID)
	if target.Node == "" {
		return nil
	}

	issue, err := repositories.NewIssueRepository(db).ReadWithProjectRefs(ctx, db, issueID)
	if err != nil {
		return errors.Wrapf(err, "could not load issue %d", issueID)
	}

	body, err := json.Marshal(newIssueDocument(issue))
	if err != nil {
		return err
	}
	docURL, err := target.documentURL(issue.ID)
	if err != nil {
		return errors.Wrap(err, "invalid elasticsearch node")
	}

	_, err = i.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, i.put(ctx, docURL, body)
	})
	return err
}

func (i *Indexer) put(ctx context.Context, docURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, docURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("elasticsearch responded with %d: %s", resp.StatusCode, msg)
	}
	return nil
}
