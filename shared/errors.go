// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package shared

import (
	"errors"
	"fmt"
)

var (
	ErrIntegrationNotFound   = errors.New("integration not found")
	ErrIntegrationInactive   = errors.New("integration is not active")
	ErrProviderNotRegistered = errors.New("no adapter registered for provider")
	ErrUserNotFound          = errors.New("user not found")
	ErrIssueNotFound         = errors.New("issue must be created through the UI before it can be synced")
	ErrQueueUnavailable      = errors.New("job queue is not available")
	ErrTenantNotConfigured   = errors.New("tenant is not configured")
	ErrPermissionDenied      = errors.New("permission denied")
)

// ConfigurationError is fatal and never retried automatically.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

func NewConfigurationError(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

type AuthenticationError struct {
	Provider ProviderType
	Msg      string
	Err      error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed for %s: %s: %v", e.Provider, e.Msg, e.Err)
	}
	return fmt.Sprintf("authentication failed for %s: %s", e.Provider, e.Msg)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

func NewAuthenticationError(provider ProviderType, msg string, err error) error {
	return &AuthenticationError{Provider: provider, Msg: msg, Err: err}
}

type NotSupportedError struct {
	Provider  ProviderType
	Operation string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("%s is not supported by this adapter (%s)", e.Operation, e.Provider)
}

func NewNotSupportedError(provider ProviderType, operation string) error {
	return &NotSupportedError{Provider: provider, Operation: operation}
}

func IsNotSupported(err error) bool {
	var e *NotSupportedError
	return errors.As(err, &e)
}

func IsAuthenticationError(err error) bool {
	var e *AuthenticationError
	return errors.As(err, &e)
}

func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// HTTPError is returned by provider clients for non-success responses.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}
