// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package common

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseCache(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("projects")) // nolint: errcheck
	}))
	defer server.Close()

	client := NewResponseCache(10, time.Minute).Client(&http.Client{})

	get := func(path, token string) (int, string) {
		req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", token)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	t.Run("it should serve repeated GETs from the cache", func(t *testing.T) {
		calls.Store(0)
		_, first := get("/projects", "a")
		_, second := get("/projects", "a")
		assert.Equal(t, "projects", first)
		assert.Equal(t, "projects", second)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("it should separate entries by credentials", func(t *testing.T) {
		calls.Store(0)
		get("/other", "a")
		get("/other", "b")
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("it should always forward non GET requests", func(t *testing.T) {
		calls.Store(0)
		for range 2 {
			req, err := http.NewRequest(http.MethodPost, server.URL+"/projects", nil)
			require.NoError(t, err)
			resp, err := client.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
		}
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("it should not cache failures", func(t *testing.T) {
		calls.Store(0)
		status, _ := get("/fail", "a")
		get("/fail", "a")
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, int32(2), calls.Load())
	})
}
