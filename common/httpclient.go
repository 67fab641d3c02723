// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package common

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultHTTPTimeout = 30 * time.Second

// NewHTTPClient returns a traced client for calls to issue trackers.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   defaultHTTPTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// ResponseCache keeps successful GET responses for a fixed duration. It backs the
// metadata endpoints of issue trackers, issue reads always reach the provider.
type ResponseCache struct {
	entries *expirable.LRU[string, []byte]
}

func NewResponseCache(size int, ttl time.Duration) *ResponseCache {
	return &ResponseCache{entries: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Client returns a copy of base whose GET requests are answered from the cache.
func (c *ResponseCache) Client(base *http.Client) *http.Client {
	if base == nil {
		base = NewHTTPClient()
	}
	next := base.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	cached := *base
	cached.Transport = &cachingTransport{cache: c, next: next}
	return &cached
}

type cachingTransport struct {
	cache *ResponseCache
	next  http.RoundTripper
}

func (t *cachingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.next.RoundTrip(req)
	}

	key := responseKey(req)
	if raw, ok := t.cache.entries.Get(key); ok {
		slog.Debug("serving cached provider response", "url", req.URL.Redacted())
		return readResponse(raw, req)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, err
	}

	raw, err := httputil.DumpResponse(resp, true)
	if err != nil {
		slog.Warn("could not buffer provider response", "url", req.URL.Redacted(), "err", err)
		return resp, nil
	}
	t.cache.entries.Add(key, raw)
	return readResponse(raw, req)
}

func readResponse(raw []byte, req *http.Request) (*http.Response, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), req)
	if err != nil {
		return nil, fmt.Errorf("could not read cached response: %w", err)
	}
	return resp, nil
}

// responses are private to the credentials used to fetch them
func responseKey(req *http.Request) string {
	h := sha256.New()
	h.Write([]byte(req.URL.String()))
	h.Write([]byte{0})
	h.Write([]byte(req.Header.Get("Authorization")))
	return fmt.Sprintf("%x", h.Sum(nil))
}
