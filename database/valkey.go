// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/l3montree-dev/issuesync/shared"
	"github.com/redis/go-redis/v9"
)

const defaultValkeyURL = "redis://localhost:6379"

// NewValkeyClient connects to the key value store backing the job queue and the issue cache.
// It returns nil when SKIP_VALKEY_CONNECTION is set or the store cannot be reached, callers
// must run in degraded mode then.
func NewValkeyClient(ctx context.Context) *redis.Client {
	if shared.EnvBool("SKIP_VALKEY_CONNECTION") {
		slog.Warn("skipping valkey connection, job queue and issue cache are disabled")
		return nil
	}

	url := os.Getenv("VALKEY_URL")
	if url == "" {
		url = defaultValkeyURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		slog.Error("could not parse VALKEY_URL", "err", err)
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Error("could not connect to valkey", "addr", opts.Addr, "err", err)
		client.Close() // nolint: errcheck
		return nil
	}

	slog.Info("connected to valkey", "addr", opts.Addr)
	return client
}

// DuplicateValkeyClient opens a dedicated connection with the same options, so the
// cache never contends with the queue's blocking commands.
func DuplicateValkeyClient(client *redis.Client) (*redis.Client, error) {
	if client == nil {
		return nil, fmt.Errorf("no valkey client to duplicate")
	}
	return redis.NewClient(client.Options()), nil
}
