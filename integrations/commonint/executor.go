// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commonint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/l3montree-dev/issuesync/common"
	"github.com/l3montree-dev/issuesync/monitoring"
	"github.com/l3montree-dev/issuesync/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultMinDelay   = time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
	// metadata responses (issue types, statuses, priorities) change rarely
	DefaultMetadataCacheTTL = 10 * time.Minute
	metadataCacheSize       = 256
)

var tracer = otel.Tracer("github.com/l3montree-dev/issuesync/integrations")

// SignFunc sets the authorization headers of an outbound request.
type SignFunc func(req *http.Request, auth shared.AuthData) error

type ExecutorOptions struct {
	Provider   shared.ProviderType
	MinDelay   time.Duration
	MaxRetries uint64
	RetryDelay time.Duration
	HTTPClient *http.Client
	Signer     SignFunc
	// MetadataCacheTTL of zero uses the default, a negative value disables the cache.
	MetadataCacheTTL time.Duration
}

// RequestExecutor is composed into every adapter. It spaces outbound calls by a
// minimum delay, retries failures with exponential backoff and signs requests.
type RequestExecutor struct {
	provider   shared.ProviderType
	limiter    *rate.Limiter
	maxRetries uint64
	retryDelay time.Duration
	client     *http.Client
	// answers Cacheable requests
	cachedClient *http.Client
	signer       SignFunc

	mu   sync.RWMutex
	auth *shared.AuthData
}

func NewRequestExecutor(opts ExecutorOptions) *RequestExecutor {
	if opts.MinDelay < 0 {
		opts.MinDelay = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = common.NewHTTPClient()
	}
	if opts.Signer == nil {
		opts.Signer = DefaultSigner
	}

	limit := rate.Inf
	if opts.MinDelay > 0 {
		limit = rate.Every(opts.MinDelay)
	}

	cachedClient := opts.HTTPClient
	switch {
	case opts.MetadataCacheTTL == 0:
		cachedClient = common.NewResponseCache(metadataCacheSize, DefaultMetadataCacheTTL).Client(opts.HTTPClient)
	case opts.MetadataCacheTTL > 0:
		cachedClient = common.NewResponseCache(metadataCacheSize, opts.MetadataCacheTTL).Client(opts.HTTPClient)
	}

	return &RequestExecutor{
		provider:     opts.Provider,
		limiter:      rate.NewLimiter(limit, 1),
		maxRetries:   opts.MaxRetries,
		retryDelay:   opts.RetryDelay,
		client:       opts.HTTPClient,
		cachedClient: cachedClient,
		signer:       opts.Signer,
	}
}

// DefaultExecutorOptions uses a one second spacing and three retries.
func DefaultExecutorOptions(provider shared.ProviderType) ExecutorOptions {
	return ExecutorOptions{
		Provider:   provider,
		MinDelay:   DefaultMinDelay,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

func (e *RequestExecutor) SetAuth(auth shared.AuthData) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.auth = &auth
}

func (e *RequestExecutor) Auth() (shared.AuthData, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.auth == nil {
		return shared.AuthData{}, false
	}
	return *e.auth, true
}

func (e *RequestExecutor) SetSigner(signer SignFunc) {
	e.signer = signer
}

func (e *RequestExecutor) HTTPClient() *http.Client {
	return e.client
}

// WaitForRateLimit blocks until the minimum delay since the previous request passed.
func (e *RequestExecutor) WaitForRateLimit(ctx context.Context) error {
	return e.limiter.Wait(ctx)
}

func (e *RequestExecutor) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = e.retryDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = e.retryDelay << e.maxRetries
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, e.maxRetries), ctx)
}

// Execute runs op with the rate limit applied before every attempt. Failed attempts are
// retried after delay*2^attempt, the last error is returned once the retries are exhausted.
func Execute[T any](ctx context.Context, e *RequestExecutor, name string, op func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "issuetracker."+name, trace.WithAttributes(
		attribute.String("issuetracker.provider", string(e.provider)),
	))
	defer span.End()

	attempt := 0
	result, err := backoff.RetryNotifyWithData(func() (T, error) {
		attempt++
		if err := e.WaitForRateLimit(ctx); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		return op(ctx)
	}, e.newBackOff(ctx), func(err error, wait time.Duration) {
		monitoring.AdapterRetriesTotal.WithLabelValues(string(e.provider)).Inc()
		slog.Debug("retrying issue tracker request", "provider", e.provider, "operation", name, "attempt", attempt, "wait", wait, "err", err)
	})

	if err != nil {
		monitoring.AdapterRequestsTotal.WithLabelValues(string(e.provider), "failure").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}
	monitoring.AdapterRequestsTotal.WithLabelValues(string(e.provider), "success").Inc()
	return result, nil
}

func (e *RequestExecutor) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	_, err := Execute(ctx, e, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Sign applies the configured signer with the current credentials.
func (e *RequestExecutor) Sign(req *http.Request) error {
	auth, ok := e.Auth()
	if !ok {
		return nil
	}
	return e.signer(req, auth)
}

// DefaultSigner switches on the auth tag.
func DefaultSigner(req *http.Request, auth shared.AuthData) error {
	switch auth.Type {
	case shared.AuthTypeOAuth:
		(&oauth2.Token{AccessToken: auth.AccessToken, TokenType: "Bearer"}).SetAuthHeader(req)
	case shared.AuthTypeBasic:
		req.SetBasicAuth(auth.Username, auth.Password)
	case shared.AuthTypeAPIKey:
		req.Header.Set("Authorization", "Bearer "+auth.APIKey)
	case shared.AuthTypeNone, "":
	default:
		return fmt.Errorf("unknown auth type %q", auth.Type)
	}
	return nil
}

// Request describes a JSON call against a provider API.
type Request struct {
	Method      string
	URL         string
	Body        any
	RawBody     []byte
	ContentType string
	Headers     map[string]string
	// Expected lists the accepted status codes. Any 2xx is accepted when empty.
	Expected []int
	// Cacheable GET requests are answered from the metadata response cache.
	Cacheable bool
}

// DoJSON executes the request through the rate limiter and retry wrapper and decodes
// the response into out, if out is not nil.
func (e *RequestExecutor) DoJSON(ctx context.Context, name string, r Request, out any) error {
	return e.Do(ctx, name, func(ctx context.Context) error {
		return e.RoundTrip(ctx, r, out)
	})
}

// RoundTrip performs a single attempt without rate limiting or retries.
func (e *RequestExecutor) RoundTrip(ctx context.Context, r Request, out any) error {
	var body io.Reader
	contentType := r.ContentType
	switch {
	case r.RawBody != nil:
		body = bytes.NewReader(r.RawBody)
	case r.Body != nil:
		raw, err := json.Marshal(r.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("could not marshal request body: %w", err))
		}
		body = bytes.NewReader(raw)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("could not create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if err := e.Sign(req); err != nil {
		return backoff.Permanent(err)
	}

	client := e.client
	if r.Cacheable && r.Method == http.MethodGet {
		client = e.cachedClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if !statusAccepted(resp.StatusCode, r.Expected) {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		httpErr := &shared.HTTPError{Method: r.Method, URL: r.URL, StatusCode: resp.StatusCode, Body: string(b)}
		if !isRetryableStatus(resp.StatusCode) {
			return backoff.Permanent(httpErr)
		}
		return httpErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return backoff.Permanent(fmt.Errorf("could not decode response: %w", err))
	}
	return nil
}

func statusAccepted(status int, expected []int) bool {
	if len(expected) == 0 {
		return status >= 200 && status < 300
	}
	for _, s := range expected {
		if s == status {
			return true
		}
	}
	return false
}

// client errors will not heal by retrying, except for throttling and timeouts
func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests || status == http.StatusRequestTimeout {
		return true
	}
	return status >= 500
}
