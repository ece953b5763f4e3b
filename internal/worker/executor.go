package worker

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hlane/httpqueue/internal/requestid"
)

// requestTimeout bounds a single outbound HTTP call, per the component design.
const requestTimeout = 30 * time.Second

// HTTPDoer is the narrow capability the worker needs from an HTTP client —
// satisfied by *http.Client and by fakes in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient builds the default outbound client: a bounded connection
// pool, a TLS 1.2 floor, and a capped redirect chain.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
}

// executionResult is the outcome of issuing one outbound HTTP call.
type executionResult struct {
	statusCode int
	body       string
}

// execute issues the job's HTTP call under a 30s timeout. Any transport
// error (including timeout) maps to status_code = 500 and an empty body,
// per the component design — the worker settles on that outcome rather
// than propagating the transport error.
func execute(ctx context.Context, doer HTTPDoer, method, rawURL string, headers map[string]string, body any) executionResult {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			reader = strings.NewReader(s)
		} else if b, err := json.Marshal(body); err == nil {
			reader = strings.NewReader(string(b))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return executionResult{statusCode: http.StatusInternalServerError}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("X-Request-Id", requestid.New())

	resp, err := doer.Do(req)
	if err != nil {
		return executionResult{statusCode: http.StatusInternalServerError}
	}
	defer func() { _ = resp.Body.Close() }()

	data, _ := io.ReadAll(resp.Body)
	return executionResult{statusCode: resp.StatusCode, body: string(data)}
}

// hostOf extracts the hostname the rate gate keys on. Returns "" if the
// URL is unparseable or carries no host.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
