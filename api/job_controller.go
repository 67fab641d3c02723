// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/l3montree-dev/issuesync/queue"
	"github.com/labstack/echo/v4"
)

type jobReader interface {
	GetJob(ctx context.Context, id string) (*queue.Job, error)
}

type JobController struct {
	jobs jobReader
}

func NewJobController(jobs jobReader) *JobController {
	return &JobController{jobs: jobs}
}

func (c *JobController) Read(ctx echo.Context) error {
	if c.jobs == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "job queue is not available")
	}

	job, err := c.jobs.GetJob(ctx.Request().Context(), ctx.Param("jobId"))
	if errors.Is(err, queue.ErrJobNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "could not find job")
	} else if err != nil {
		return err
	}

	// jobs of other tenants are invisible
	if job.Data.TenantID != nil && *job.Data.TenantID != getTenant(ctx) {
		return echo.NewHTTPError(http.StatusNotFound, "could not find job")
	}
	return ctx.JSON(http.StatusOK, job)
}
