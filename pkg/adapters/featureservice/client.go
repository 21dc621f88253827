// Package featureservice implements ports.FeatureQuerier against ArcGIS-style
// feature service REST endpoints ("<layer url>/query").
package featureservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/cedar/internal/logging"
	"github.com/aretw0/cedar/pkg/domain"
)

// maxGetLength is the encoded query length above which requests switch to POST.
const maxGetLength = 1800

// ServiceError is the error object a feature service embeds in a 200 response.
type ServiceError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("feature service error %d: %s (%s)", e.Code, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("feature service error %d: %s", e.Code, e.Message)
}

type response struct {
	domain.FeatureSet
	Error *ServiceError `json:"error,omitempty"`
}

// Client queries feature service layers over HTTP.
type Client struct {
	httpClient *http.Client
	token      string
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithToken appends a "token" parameter to every request.
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = token
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New creates a feature service client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryFeatures issues GET <url>/query, or a form POST when the parameters are long.
func (c *Client) QueryFeatures(ctx context.Context, req domain.QueryRequest) (*domain.FeatureSet, error) {
	endpoint := strings.TrimRight(req.URL, "/") + "/query"

	params := url.Values{}
	for k, v := range req.Params {
		params[k] = append([]string(nil), v...)
	}
	if params.Get("f") == "" {
		params.Set("f", "json")
	}
	if c.token != "" {
		params.Set("token", c.token)
	}

	encoded := params.Encode()
	var (
		httpReq *http.Request
		err     error
	)
	if len(endpoint)+1+len(encoded) > maxGetLength {
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encoded))
		if err == nil {
			httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+encoded, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("feature query", "method", httpReq.Method, "url", endpoint, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != nil {
		return nil, out.Error
	}
	if out.Features == nil {
		out.Features = []domain.Feature{}
	}
	return &out.FeatureSet, nil
}
