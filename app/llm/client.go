// Package llm provides the text-generation gateway and the extractors built
// on top of it (relevance, classification, summarization, date extraction).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// GenerateRequest carries one prompt to the text-generation service.
type GenerateRequest struct {
	Prompt      string
	System      string
	Temperature float64
	MaxTokens   int
}

// Gateway is the single text-generation contract shared by all extractors.
// Production uses the Ollama-backed Client; tests inject fakes.
type Gateway interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Available(ctx context.Context) bool
}

// Client talks to an Ollama-compatible generate endpoint.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client

	// Availability is probed lazily and cached. probeTTL of zero keeps the
	// first probe result for the lifetime of the client.
	probeTTL time.Duration
	mu       sync.Mutex
	probed   bool
	probedAt time.Time
	alive    bool
}

var _ Gateway = (*Client)(nil)

// NewClient creates a gateway client. probeTTL controls how long a cached
// availability probe stays valid; zero means probe once per client.
func NewClient(baseURL, model string, probeTTL time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		model:    model,
		probeTTL: probeTTL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generatePayload struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate posts the prompt to /api/generate and returns the raw response
// text.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if req.MaxTokens <= 0 {
		req.MaxTokens = 2000
	}

	payload := generatePayload{
		Model:  c.model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: generateOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("generate returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}

	return result.Response, nil
}

// Available reports whether the service answers its lightweight probe
// endpoint. The result is cached per client, refreshed after probeTTL.
func (c *Client) Available(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.probed && (c.probeTTL == 0 || time.Since(c.probedAt) < c.probeTTL) {
		return c.alive
	}

	c.alive = c.probe(ctx)
	c.probed = true
	c.probedAt = time.Now()

	if !c.alive {
		slog.Warn("LLM service unavailable", "url", c.baseURL)
	}

	return c.alive
}

func (c *Client) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode == http.StatusOK
}
