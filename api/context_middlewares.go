// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/l3montree-dev/issuesync/database/models"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/labstack/echo/v4"
)

const (
	userHeader   = "X-User-Id"
	tenantHeader = "X-Tenant-Id"
)

func getUser(ctx echo.Context) models.User {
	return ctx.Get("user").(models.User)
}

func getDB(ctx echo.Context) shared.DB {
	return ctx.Get("db").(shared.DB)
}

func getIntegration(ctx echo.Context) models.Integration {
	return ctx.Get("integration").(models.Integration)
}

func getTenant(ctx echo.Context) string {
	tenant, _ := ctx.Get("tenant").(string)
	return tenant
}

func getIntegrationID(ctx echo.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid integration id")
	}
	return uint(id), nil
}

// tenantMiddleware puts the tenant of the request into the request context and
// resolves its database.
func tenantMiddleware(tenants shared.TenantRouter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tenant := shared.FirstNonEmpty(ctx.Request().Header.Get(tenantHeader), shared.InstanceTenantID())
			if shared.IsMultiTenantMode() && tenant == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "missing "+tenantHeader+" header")
			}

			reqCtx := shared.WithTenant(ctx.Request().Context(), tenant)
			ctx.SetRequest(ctx.Request().WithContext(reqCtx))

			db, err := tenants.DB(reqCtx, tenant)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "could not resolve tenant").WithInternal(err)
			}

			ctx.Set("tenant", tenant)
			ctx.Set("db", db)
			return next(ctx)
		}
	}
}

// userMiddleware loads the acting user. Authentication happens in front of this service.
func userMiddleware(userRepository shared.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			userID := ctx.Request().Header.Get(userHeader)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing "+userHeader+" header")
			}

			user, err := userRepository.FindByID(ctx.Request().Context(), getDB(ctx), userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown user").WithInternal(err)
			}
			if !user.IsActive {
				return echo.NewHTTPError(http.StatusForbidden, "user is not active")
			}

			ctx.Set("user", user)
			return next(ctx)
		}
	}
}

// integrationAccessControl makes sure the acting user can see the integration of the path.
func integrationAccessControl(issueStoreFactory shared.IssueStoreFactory) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			integrationID, err := getIntegrationID(ctx)
			if err != nil {
				return err
			}

			store, err := issueStoreFactory.ForUser(getDB(ctx), getUser(ctx))
			if err != nil {
				return err
			}

			integration, err := store.FindIntegration(ctx.Request().Context(), integrationID)
			if err != nil {
				return echo.NewHTTPError(http.StatusNotFound, "could not find integration").WithInternal(err)
			}

			ctx.Set("integration", integration)
			ctx.Set("issueStore", store)
			return next(ctx)
		}
	}
}
