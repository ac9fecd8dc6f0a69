// client/ntlm.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Azure/go-ntlmssp"
	"go.uber.org/zap"

	logger "github.com/pbirs-tools/admin-api/logging"
)

const (
	defaultTimeout = 40 * time.Second
	maxRetries     = 2
	retryBackoff   = 200 * time.Millisecond
	bodySnippetLen = 500
)

var successStatuses = map[int]bool{
	http.StatusOK:        true,
	http.StatusCreated:   true,
	http.StatusAccepted:  true,
	http.StatusNoContent: true,
}

// UpstreamError is a non-success response from the report server.
type UpstreamError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("report server request failed: %d %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// retryableStatus covers upstream failures worth a second attempt. 4xx
// responses are contract errors and never retried.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// NTLMClient issues NTLM-authenticated requests on behalf of the configured
// service account, retrying transient failures with linear backoff.
type NTLMClient struct {
	httpClient *http.Client
	domain     string
	username   string
	password   string
}

func NewNTLMClient(domain, username, password string, timeout time.Duration) *NTLMClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &NTLMClient{
		httpClient: &http.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: http.DefaultTransport,
			},
			Timeout: timeout,
		},
		domain:   domain,
		username: username,
		password: password,
	}
}

func (c *NTLMClient) Get(ctx context.Context, url string, out interface{}) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

func (c *NTLMClient) Put(ctx context.Context, url string, body interface{}) error {
	return c.do(ctx, http.MethodPut, url, body, nil)
}

func (c *NTLMClient) Patch(ctx context.Context, url string, body interface{}) error {
	return c.do(ctx, http.MethodPatch, url, body, nil)
}

func (c *NTLMClient) do(ctx context.Context, method, url string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		logger.Debug("Upstream request",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("attempt", attempt+1))

		status, respBody, err := c.attempt(ctx, method, url, payload)
		if err != nil {
			// Transport-level failures (resets, timeouts) are transient.
			lastErr = err
			logger.Warn("Upstream request failed",
				zap.String("method", method),
				zap.String("url", url),
				zap.Error(err))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}

		if !successStatuses[status] {
			snippet := string(respBody)
			if len(snippet) > bodySnippetLen {
				snippet = snippet[:bodySnippetLen]
			}
			upErr := &UpstreamError{StatusCode: status, Endpoint: url, Message: snippet}
			logger.Warn("Upstream responded with error status",
				zap.String("method", method),
				zap.String("url", url),
				zap.Int("status", status))
			if retryableStatus(status) {
				lastErr = upErr
				continue
			}
			return upErr
		}

		if out == nil {
			return nil
		}
		if len(respBody) == 0 {
			respBody = []byte("{}")
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			logger.Error("Invalid JSON response from report server",
				zap.String("url", url),
				zap.Error(err))
			return fmt.Errorf("invalid JSON response from %s: %w", url, err)
		}
		return nil
	}

	return lastErr
}

func (c *NTLMClient) attempt(ctx context.Context, method, url string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}

	// The NTLM negotiator picks the credentials up from basic auth.
	req.SetBasicAuth(c.domain+`\`+c.username, c.password)
	req.Header.Set("Accept", "application/json; charset=utf-8")
	req.Header.Set("Accept-Charset", "utf-8")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}
