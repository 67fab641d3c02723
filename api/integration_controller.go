// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/l3montree-dev/issuesync/shared"
	"github.com/labstack/echo/v4"
)

type syncRequest struct {
	IncludeMetadata bool `json:"includeMetadata"`
}

type jobResponse struct {
	JobID *string `json:"jobId"`
	// Scheduled is false when the queue is not available.
	Scheduled bool `json:"scheduled"`
}

func newJobResponse(jobID *string) jobResponse {
	return jobResponse{JobID: jobID, Scheduled: jobID != nil}
}

type IntegrationController struct {
	syncService        shared.SyncService
	integrationManager shared.IntegrationManager
	issueCache         shared.IssueCache
}

func NewIntegrationController(syncService shared.SyncService, integrationManager shared.IntegrationManager, issueCache shared.IssueCache) *IntegrationController {
	return &IntegrationController{
		syncService:        syncService,
		integrationManager: integrationManager,
		issueCache:         issueCache,
	}
}

func (c *IntegrationController) respondJob(ctx echo.Context, jobID *string) error {
	if jobID == nil {
		return ctx.JSON(http.StatusServiceUnavailable, newJobResponse(nil))
	}
	return ctx.JSON(http.StatusAccepted, newJobResponse(jobID))
}

func (c *IntegrationController) Sync(ctx echo.Context) error {
	var req syncRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").WithInternal(err)
	}
	integration := getIntegration(ctx)

	jobID := c.syncService.QueueSync(ctx.Request().Context(), getUser(ctx).ID, integration.ID, shared.SyncOptions{IncludeMetadata: req.IncludeMetadata})
	return c.respondJob(ctx, jobID)
}

func (c *IntegrationController) SyncProject(ctx echo.Context) error {
	var req syncRequest
	if err := ctx.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").WithInternal(err)
	}
	integration := getIntegration(ctx)
	projectID := ctx.Param("projectId")

	c.warmCache(ctx.Request().Context(), getDB(ctx), integration.ID, projectID)

	jobID := c.syncService.QueueProjectSync(ctx.Request().Context(), getUser(ctx).ID, integration.ID, projectID, shared.SyncOptions{IncludeMetadata: req.IncludeMetadata})
	return c.respondJob(ctx, jobID)
}

// warmCache fills the bulk list of the project before the sync job runs.
func (c *IntegrationController) warmCache(ctx context.Context, db shared.DB, integrationID uint, projectID string) {
	adapter, err := c.integrationManager.GetAdapter(ctx, db, integrationID)
	if err != nil {
		slog.Debug("skipping cache warm up", "integrationId", integrationID, "err", err)
		return
	}
	if !adapter.Capabilities().SearchIssues || !adapter.IsAuthenticated(ctx) {
		return
	}

	c.issueCache.WarmCache(ctx, integrationID, projectID, func(ctx context.Context) ([]shared.NormalizedIssue, error) {
		result, err := adapter.SearchIssues(ctx, shared.SearchOptions{ProjectID: projectID})
		if err != nil {
			return nil, err
		}
		return result.Issues, nil
	})
}

func (c *IntegrationController) RefreshIssue(ctx echo.Context) error {
	integration := getIntegration(ctx)
	jobID := c.syncService.QueueIssueRefresh(ctx.Request().Context(), getUser(ctx).ID, integration.ID, ctx.Param("issueId"))
	return c.respondJob(ctx, jobID)
}

func (c *IntegrationController) CreateIssue(ctx echo.Context) error {
	var data shared.IssueData
	if err := ctx.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").WithInternal(err)
	}
	if err := shared.V.Struct(data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	jobID := c.syncService.QueueIssueCreate(ctx.Request().Context(), getUser(ctx).ID, getIntegration(ctx).ID, data)
	return c.respondJob(ctx, jobID)
}

func (c *IntegrationController) UpdateIssue(ctx echo.Context) error {
	var data shared.IssueUpdate
	if err := ctx.Bind(&data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").WithInternal(err)
	}

	jobID := c.syncService.QueueIssueUpdate(ctx.Request().Context(), getUser(ctx).ID, getIntegration(ctx).ID, ctx.Param("issueId"), data)
	return c.respondJob(ctx, jobID)
}

func (c *IntegrationController) Capabilities(ctx echo.Context) error {
	capabilities, err := c.integrationManager.GetCapabilities(ctx.Request().Context(), getDB(ctx), getIntegration(ctx).ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, capabilities)
}

func (c *IntegrationController) Validate(ctx echo.Context) error {
	result, err := c.integrationManager.ValidateIntegration(ctx.Request().Context(), getDB(ctx), getIntegration(ctx).ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, result)
}

func (c *IntegrationController) ClearAdapter(ctx echo.Context) error {
	c.integrationManager.ClearAdapter(ctx.Request().Context(), getIntegration(ctx).ID)
	return ctx.NoContent(http.StatusNoContent)
}
