// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/l3montree-dev/issuesync/monitoring"
	"github.com/l3montree-dev/issuesync/shared"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

const healthPath = "/api/v1/health"

// custom echo middleware used for request logging
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			now := time.Now()

			err := next(ctx)

			if err == nil && ctx.Request().URL.Path != healthPath {
				slog.Info("handled request", "method", ctx.Request().Method, "url", ctx.Request().URL, "status", ctx.Response().Status, "duration", time.Since(now))
			}
			return err
		}
	}
}

func recoverMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					monitoring.RecoverAndAlert("panic in http handler", r)
					err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				}
			}()
			return next(ctx)
		}
	}
}

// toHTTPError maps the domain errors onto status codes.
func toHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, shared.ErrIntegrationNotFound), errors.Is(err, shared.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrPermissionDenied):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, shared.ErrIntegrationInactive), errors.Is(err, shared.ErrProviderNotRegistered):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrQueueUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, shared.ErrTenantNotConfigured), shared.IsConfigurationError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case shared.IsAuthenticationError(err):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case shared.IsNotSupported(err):
		return echo.NewHTTPError(http.StatusNotImplemented, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func errorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	he := toHTTPError(err)
	if he.Code >= http.StatusInternalServerError {
		slog.Error(err.Error(), "method", ctx.Request().Method, "path", ctx.Request().URL)
	} else {
		slog.Debug(err.Error(), "method", ctx.Request().Method, "path", ctx.Request().URL)
	}

	message := he.Message
	if m, ok := message.(string); ok {
		message = echo.Map{"message": m}
	}

	if ctx.Request().Method == http.MethodHead {
		err = ctx.NoContent(he.Code)
	} else {
		err = ctx.JSON(he.Code, message)
	}
	if err != nil {
		slog.Error("could not send error response", "error", err)
	}
}

func NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(99)

	e.Use(otelecho.Middleware("issuesync"))
	e.Use(requestLogger())
	e.Use(recoverMiddleware())
	e.Use(middleware.BodyLimit("2M"))
	e.HTTPErrorHandler = errorHandler
	return e
}

// Serve starts the server and shuts it down when the context is done.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
