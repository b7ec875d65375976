// Package genrecast provides a Go client for the genrecast movie-genre
// classification service.
//
//	client := genrecast.New("http://localhost:8083")
//	res, _ := client.Classify(ctx, "a detective hunts a serial killer")
//	fmt.Println(res.PredictedGenre)
package genrecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// Option configures the Client.
type Option interface {
	apply(*Client)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*Client)

func (f optionFunc) apply(c *Client) { f(c) }

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *Client) { c.http = hc })
}

// Client is the genrecast SDK entry point.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the service at baseURL (no trailing slash needed).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

// Match is one ranked neighbor backing a classification.
type Match struct {
	Title  string   `json:"title"`
	Genres []string `json:"genres"`
	Score  float64  `json:"score"`
}

// ClassifyResult is the service's classification response.
type ClassifyResult struct {
	InputDescription string   `json:"input_description"`
	PredictedGenre   string   `json:"predicted_genre"`
	Confidence       *float64 `json:"confidence"`
	Matches          []Match  `json:"matches"`
	Message          string   `json:"message,omitempty"`
}

// SyncJob acknowledges a triggered embedding sync.
type SyncJob struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// SyncStatus is the pollable state of the most recent embedding sync.
type SyncStatus struct {
	JobID   string `json:"job_id"`
	State   string `json:"state"`
	Summary struct {
		Scanned int `json:"scanned"`
		Updated int `json:"updated"`
		Failed  int `json:"failed"`
	} `json:"summary"`
	Error string `json:"error,omitempty"`
}

// Health is the service readiness report.
type Health struct {
	Status     string            `json:"status"`
	Checks     map[string]string `json:"checks"`
	Model      string            `json:"model"`
	Dimensions int               `json:"dimensions"`
	Version    string            `json:"version"`
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("genrecast: status %d: %s", e.StatusCode, e.Detail)
}

// Classify predicts a genre for a free-text movie description.
func (c *Client) Classify(ctx context.Context, description string) (ClassifyResult, error) {
	var out ClassifyResult
	err := c.do(ctx, http.MethodPost, "/classify",
		map[string]string{"description": description}, &out)
	return out, err
}

// SyncEmbeddings triggers an asynchronous embedding backfill.
// batchSize <= 0 uses the server default.
func (c *Client) SyncEmbeddings(ctx context.Context, batchSize int) (SyncJob, error) {
	var body any
	if batchSize > 0 {
		body = map[string]int{"batch_size": batchSize}
	}
	var out SyncJob
	err := c.do(ctx, http.MethodPost, "/admin/sync-embeddings", body, &out)
	return out, err
}

// SyncEmbeddingsStatus polls the state of the most recent backfill run.
func (c *Client) SyncEmbeddingsStatus(ctx context.Context) (SyncStatus, error) {
	var out SyncStatus
	err := c.do(ctx, http.MethodGet, "/admin/sync-embeddings", nil, &out)
	return out, err
}

// HealthCheck returns the service readiness report.
func (c *Client) HealthCheck(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{StatusCode: resp.StatusCode, Detail: apiErr.Detail}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
