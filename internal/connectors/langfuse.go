package connectors

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go-insight/internal/features/query"
)

// LangfuseConfig holds the executor credentials. It is built from the
// application config at startup; nothing is read from the environment at
// request time.
type LangfuseConfig struct {
	BaseURL   string
	PublicKey string
	SecretKey string
	ProjectID string
	Timeout   time.Duration
}

// LangfuseConnector executes widget queries against a Langfuse-compatible
// public API.
type LangfuseConnector struct {
	cfg    LangfuseConfig
	client *http.Client
}

func NewLangfuseConnector(cfg LangfuseConfig) *LangfuseConnector {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &LangfuseConnector{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *LangfuseConnector) headers(req *http.Request) {
	credentials := base64.StdEncoding.EncodeToString([]byte(c.cfg.PublicKey + ":" + c.cfg.SecretKey))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.ProjectID != "" {
		req.Header.Set("x-langfuse-project-id", c.cfg.ProjectID)
	}
}

// Execute sends the descriptor to the metrics endpoint and returns the rows.
func (c *LangfuseConnector) Execute(ctx context.Context, q query.QueryDescriptor) ([]query.Row, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	endpoint := fmt.Sprintf("%s/metrics?query=%s", c.cfg.BaseURL, url.QueryEscape(string(payload)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.headers(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metrics request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError("metrics query", resp)
	}

	var body struct {
		Data []query.Row `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode metrics response: %w", err)
	}
	return body.Data, nil
}

// ListTraces fetches one page from the traces endpoint. Filters are
// forwarded; the server may ignore them, so callers re-filter client-side.
func (c *LangfuseConnector) ListTraces(ctx context.Context, page, limit int, filters []query.Filter) (*TracePage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	if len(filters) > 0 {
		encoded, err := json.Marshal(filters)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filters: %w", err)
		}
		params.Set("filters", string(encoded))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/traces?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.headers(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("traces request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError("traces listing", resp)
	}

	var tp TracePage
	if err := json.NewDecoder(resp.Body).Decode(&tp); err != nil {
		return nil, fmt.Errorf("failed to decode traces response: %w", err)
	}
	if tp.Meta.TotalPages == 0 {
		tp.Meta.TotalPages = 1
	}
	return &tp, nil
}

// Ping probes the backend health endpoint.
func (c *LangfuseConnector) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	c.headers(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError("health check", resp)
	}
	return nil
}

// apiError keeps the response text so failures stay diagnosable upstream.
func apiError(op string, resp *http.Response) error {
	text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if len(text) == 0 {
		return fmt.Errorf("%s failed: %s", op, resp.Status)
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(text, &body); err == nil && body.Message != "" {
		return fmt.Errorf("%s failed: %s: %s", op, resp.Status, body.Message)
	}
	return fmt.Errorf("%s failed: %s: %s", op, resp.Status, string(text))
}
