package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"edaworkspace/domain/core"
	"edaworkspace/internal/errors"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of a failed response is echoed into the error
const maxErrorBody = 512

// Options configures the HTTP transport shared by every service client
type Options struct {
	Timeout    time.Duration
	AuthToken  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// transport performs JSON calls against one backend service
type transport struct {
	service    string
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     *zap.Logger
}

func newTransport(service, baseURL string, opts Options) *transport {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &transport{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  opts.AuthToken,
		httpClient: httpClient,
		logger:     logger.With(zap.String("service", service)),
	}
}

// getJSON fetches path and decodes it into out after checking the required gjson paths exist
func (t *transport) getJSON(ctx context.Context, path string, out any, required ...string) error {
	body, err := t.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return t.decode(body, out, required...)
}

// postJSON sends body as JSON and decodes the response into out
func (t *transport) postJSON(ctx context.Context, path string, payload, out any, required ...string) error {
	body, err := t.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	return t.decode(body, out, required...)
}

// send performs a call whose response body is not JSON, or is ignored
func (t *transport) send(ctx context.Context, method, path string, payload any) ([]byte, error) {
	return t.do(ctx, method, path, payload)
}

func (t *transport) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode %s request", t.service)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build %s request", t.service)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.authToken)
	}

	start := time.Now()
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, errors.ExternalServiceError(t.service, fmt.Errorf("%w: %v", core.ErrServiceUnavailable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ExternalServiceError(t.service, fmt.Errorf("%w: reading body: %v", core.ErrServiceUnavailable, err))
	}

	t.logger.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Wrap(core.NewNotFoundError(t.service+" resource", path), t.service+" resource not found")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, errors.ExternalServiceError(t.service,
			fmt.Errorf("%w: status %d: %s", core.ErrServiceUnavailable, resp.StatusCode, strings.TrimSpace(snippet)))
	}
	return body, nil
}

// decode validates the response shape with gjson before unmarshalling; any mismatch is a
// decode error and is reported like a network failure
func (t *transport) decode(body []byte, out any, required ...string) error {
	if !gjson.ValidBytes(body) {
		return errors.ExternalServiceError(t.service, fmt.Errorf("%w: invalid JSON", core.ErrSchemaMismatch))
	}
	for _, path := range required {
		if !gjson.GetBytes(body, path).Exists() {
			t.logger.Warn("response missing required field", zap.String("path", path))
			return errors.ExternalServiceError(t.service, core.NewSchemaError(path))
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.ExternalServiceError(t.service, fmt.Errorf("%w: %v", core.ErrSchemaMismatch, err))
	}
	return nil
}

// decodeAt unmarshals the value at a gjson path into out
func (t *transport) decodeAt(body []byte, path string, out any) error {
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return errors.ExternalServiceError(t.service, core.NewSchemaError(path))
	}
	if err := json.Unmarshal([]byte(result.Raw), out); err != nil {
		return errors.ExternalServiceError(t.service, fmt.Errorf("%w: %s: %v", core.ErrSchemaMismatch, path, err))
	}
	return nil
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
