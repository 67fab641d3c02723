// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commonint

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/l3montree-dev/issuesync/shared"
)

// AuthState tracks the authentication of an adapter instance.
type AuthState struct {
	mu            sync.RWMutex
	authenticated bool
	expiresAt     *time.Time
}

func (s *AuthState) MarkAuthenticated(expiresAt *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.expiresAt = expiresAt
}

func (s *AuthState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.expiresAt = nil
}

// Valid is true after a successful authentication as long as the credentials did not expire.
func (s *AuthState) Valid(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated {
		return false
	}
	return s.expiresAt == nil || s.expiresAt.After(now)
}

// LinkComment renders the comment posted when an issue is linked to a test case.
func LinkComment(testCaseID string, metadata map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Linked to test case %s", testCaseID)
	if len(metadata) == 0 {
		return b.String()
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteString("\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %v", k, metadata[k])
	}
	return b.String()
}

// RequireAuth fails with an AuthenticationError if the executor holds no credentials.
func RequireAuth(e *RequestExecutor) (shared.AuthData, error) {
	auth, ok := e.Auth()
	if !ok {
		return auth, shared.NewAuthenticationError(e.provider, "adapter is not authenticated", nil)
	}
	return auth, nil
}

func StringSetting(settings map[string]any, key string) string {
	if v, ok := settings[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
