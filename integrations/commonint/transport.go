// Copyright 2025 l3montree GmbH.
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package commonint

import (
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/l3montree-dev/issuesync/shared"
)

type signingTransport struct {
	exec *RequestExecutor
	base http.RoundTripper
}

// SigningTransport signs every request with the executor credentials. It is used for
// sdk clients which build their requests themselves.
func SigningTransport(exec *RequestExecutor, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return signingTransport{exec: exec, base: base}
}

func (t signingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if err := t.exec.Sign(req); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// Classify marks sdk errors caused by client errors as permanent, so they are not retried.
func Classify(resp *http.Response, err error) error {
	if err == nil || resp == nil {
		return err
	}
	if !isRetryableStatus(resp.StatusCode) {
		return backoff.Permanent(&shared.HTTPError{
			Method:     resp.Request.Method,
			URL:        resp.Request.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       err.Error(),
		})
	}
	return err
}
