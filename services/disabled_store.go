// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package services

import (
	"context"
	"time"
)

// disabledStore backs the issue cache when valkey is not available. Every read is a miss.
type disabledStore struct{}

func (disabledStore) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (disabledStore) SetEx(context.Context, string, string, time.Duration) error { return nil }

func (disabledStore) SetMany(context.Context, map[string]string, time.Duration) error { return nil }

func (disabledStore) Del(context.Context, ...string) error { return nil }

func (disabledStore) Scan(context.Context, string) ([]string, error) { return nil, nil }
