// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEndpoint(t *testing.T) {
	t.Run("it should treat a bare host as insecure", func(t *testing.T) {
		host, insecure, err := splitEndpoint("otel-collector:4317")
		require.NoError(t, err)
		assert.Equal(t, "otel-collector:4317", host)
		assert.True(t, insecure)
	})

	t.Run("it should derive the transport security from the scheme", func(t *testing.T) {
		host, insecure, err := splitEndpoint("https://collector.example.com:4318")
		require.NoError(t, err)
		assert.Equal(t, "collector.example.com:4318", host)
		assert.False(t, insecure)

		_, insecure, err = splitEndpoint("http://localhost:4318")
		require.NoError(t, err)
		assert.True(t, insecure)
	})

	t.Run("it should reject a url without host", func(t *testing.T) {
		_, _, err := splitEndpoint("http://")
		assert.Error(t, err)
	})
}

func TestInitTracing(t *testing.T) {
	t.Run("it should be a no-op without exporter configuration", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
		t.Setenv("OTEL_TRACES_EXPORTER", "")

		shutdown, err := InitTracing(context.Background(), "issuesync", "test")
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	})

	t.Run("it should export to the console when requested", func(t *testing.T) {
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
		t.Setenv("OTEL_TRACES_EXPORTER", "console")

		shutdown, err := InitTracing(context.Background(), "issuesync", "test")
		require.NoError(t, err)
		assert.NoError(t, shutdown(context.Background()))
	})
}
