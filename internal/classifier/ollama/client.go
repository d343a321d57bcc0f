// Package ollama is a classifier provider for Ollama-compatible generate
// endpoints (local daemon or a tunnel in front of one).
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls an Ollama-style /api/generate endpoint.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// New creates a provider for the given base URL and model. Per-call
// deadlines come from the caller's context; the client timeout is only a
// backstop.
func New(baseURL, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	// Stream is always false: we want one complete JSON response, not
	// chunked deltas.
	Stream bool `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate requests a single non-streaming completion and returns the
// model's raw text. When the endpoint answers with a JSON envelope the
// "response" field is extracted; otherwise the body is returned as-is so
// the parser upstream can still try it.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20)) // 5 MB
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err == nil && out.Response != "" {
		return strings.TrimSpace(out.Response), nil
	}
	return strings.TrimSpace(string(respBody)), nil
}
