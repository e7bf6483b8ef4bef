// Package sqlapi talks to the SQL-over-HTTP backend that owns the entity
// tables: query execution, the generic CSV save endpoint and the hierarchy
// endpoint.
package sqlapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	defaultExecutePath   = "/api/DataSnapshot/ExecuteSqlQueries"
	defaultSavePath      = "/api/DataSnapshot/SaveData"
	defaultHierarchyPath = "/api/EntitySetup/Hierarchy"

	maxErrorBody = 512
)

// Config describes how to reach the backend.
type Config struct {
	BaseURL       string
	Token         string
	DatabaseID    string
	Timeout       time.Duration
	ExecutePath   string
	SavePath      string
	HierarchyPath string
}

// Recorder observes remote calls. observability.Metrics implements it.
type Recorder interface {
	ObserveRemoteCall(endpoint, outcome string, elapsed time.Duration)
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRecorder installs a call recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Client) {
		c.recorder = r
	}
}

// Client wraps interactions with the SQL-over-HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	recorder   Recorder
}

// NewClient constructs a new client.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ExecutePath == "" {
		cfg.ExecutePath = defaultExecutePath
	}
	if cfg.SavePath == "" {
		cfg.SavePath = defaultSavePath
	}
	if cfg.HierarchyPath == "" {
		cfg.HierarchyPath = defaultHierarchyPath
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DatabaseID returns the configured database identifier.
func (c *Client) DatabaseID() string {
	return c.cfg.DatabaseID
}

// ExecuteQueries runs one or more SQL query definitions.
func (c *Client) ExecuteQueries(ctx context.Context, req ExecuteRequest) (ExecuteResponse, error) {
	for i := range req.SQLQueries {
		if req.SQLQueries[i].Query.DatabaseID == "" {
			req.SQLQueries[i].Query.DatabaseID = c.cfg.DatabaseID
		}
	}
	var resp ExecuteResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.ExecutePath, req, &resp, "execute"); err != nil {
		return ExecuteResponse{}, err
	}
	if resp.Status == "" {
		return resp, nil
	}
	if err := checkStatus(resp.Status, resp.Message); err != nil {
		return ExecuteResponse{}, err
	}
	return resp, nil
}

// Save posts an encoded row to the generic save endpoint. A response whose
// status is not "Ok" is returned as *ServerError.
func (c *Client) Save(ctx context.Context, req SaveRequest) error {
	var resp SaveResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.SavePath, req, &resp, "save"); err != nil {
		return err
	}
	return checkStatus(resp.Status, resp.Message)
}

// Hierarchy loads the parent/child entity tree. When the backend cannot be
// reached (refused, aborted, timed out) an empty tree is returned.
func (c *Client) Hierarchy(ctx context.Context) ([]Node, error) {
	var nodes []Node
	err := c.do(ctx, http.MethodGet, c.cfg.HierarchyPath, nil, &nodes, "hierarchy")
	if err != nil {
		if unavailable(err) {
			c.logger.Warn("entity hierarchy unavailable", slog.Any("error", err))
			return []Node{}, nil
		}
		return nil, err
	}
	if nodes == nil {
		nodes = []Node{}
	}
	return nodes, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, endpoint string) (err error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		if c.recorder != nil {
			if err != nil && outcome == "ok" {
				outcome = "error"
			}
			c.recorder.ObserveRemoteCall(endpoint, outcome, time.Since(start))
		}
	}()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sqlapi: encode %s request: %w", endpoint, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("sqlapi: build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	req.Header.Set(middleware.RequestIDHeader, requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sqlapi: %s: %w", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		outcome = fmt.Sprintf("http_%d", resp.StatusCode)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sqlapi: decode %s response: %w", endpoint, err)
	}
	return nil
}

func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
