// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/l3montree-dev/issuesync/shared"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	TenantRouter          shared.TenantRouter
	UserRepository        shared.UserRepository
	IssueStoreFactory     shared.IssueStoreFactory
	IntegrationController *IntegrationController
	JobController         *JobController
}

func RegisterRoutes(e *echo.Echo, deps RouterDeps) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET(healthPath, func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	apiV1 := e.Group("/api/v1", tenantMiddleware(deps.TenantRouter), userMiddleware(deps.UserRepository))

	apiV1.GET("/jobs/:jobId", deps.JobController.Read)

	integrationRouter := apiV1.Group("/integrations/:id", integrationAccessControl(deps.IssueStoreFactory))
	ctrl := deps.IntegrationController

	integrationRouter.POST("/sync", ctrl.Sync)
	integrationRouter.POST("/projects/:projectId/sync", ctrl.SyncProject)
	integrationRouter.POST("/issues", ctrl.CreateIssue)
	integrationRouter.PATCH("/issues/:issueId", ctrl.UpdateIssue)
	integrationRouter.POST("/issues/:issueId/refresh", ctrl.RefreshIssue)
	integrationRouter.GET("/capabilities", ctrl.Capabilities)
	integrationRouter.POST("/validate", ctrl.Validate)
	integrationRouter.DELETE("/adapter", ctrl.ClearAdapter)
}
