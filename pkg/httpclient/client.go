package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gurbanow/rideline/pkg/logger"
	"github.com/gurbanow/rideline/pkg/middleware"
	"github.com/gurbanow/rideline/pkg/resilience"
)

// Client wraps http.Client with convenience methods and retry support.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	retryConfig *resilience.RetryConfig
}

// Option configures the HTTP client.
type Option func(*Client)

// WithRetry enables retry logic with the given configuration.
func WithRetry(config resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retryConfig = &config
	}
}

// NewClient creates a new HTTP client.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Get makes a GET request and returns the raw response body.
func (c *Client) Get(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	if c.retryConfig != nil {
		result, err := resilience.Retry(ctx, *c.retryConfig, "http_get", func(ctx context.Context) (interface{}, error) {
			return c.doRequest(ctx, http.MethodGet, path, nil, headers)
		})
		if err != nil {
			return nil, err
		}
		return result.([]byte), nil
	}
	return c.doRequest(ctx, http.MethodGet, path, nil, headers)
}

// Post makes a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, headers map[string]string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}
	if c.retryConfig != nil {
		result, err := resilience.Retry(ctx, *c.retryConfig, "http_post", func(ctx context.Context) (interface{}, error) {
			return c.doRequest(ctx, http.MethodPost, path, bodyReader, headers)
		})
		if err != nil {
			return nil, err
		}
		return result.([]byte), nil
	}
	return c.doRequest(ctx, http.MethodPost, path, bodyReader, headers)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		req.Header.Set(middleware.RequestIDHeader, correlationID)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return data, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return data, nil
}
