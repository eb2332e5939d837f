// Package streaming talks to the avatar-streaming provider.
package streaming

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vitalcall/consult/internal/config"
	"github.com/vitalcall/consult/internal/shared"
)

const maxErrorBody = 2048

// Client mints streaming session tokens.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// New creates a Client from cfg.
func New(cfg config.StreamingConfig) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.TokenTimeout},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// MintToken requests a new session token.
func (c *Client) MintToken(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", shared.Unavailable("Server missing HEYGEN_API_KEY")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/streaming.create_token", bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", shared.Internal("build token request", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", shared.Upstream("streaming provider unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", shared.Upstream("read streaming provider response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		slog.Warn("Streaming token request rejected", "status", resp.StatusCode)
		return "", shared.Upstream(fmt.Sprintf("streaming provider returned %d: %s", resp.StatusCode, snippet), nil)
	}

	token, ok := extractToken(body)
	if !ok {
		return "", shared.Upstream("streaming provider response has no token", nil)
	}
	return token, nil
}

// extractToken probes the known response shapes in order: access_token,
// token, data.token, data.access_token.
func extractToken(body []byte) (string, bool) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	if s, ok := nonEmpty(payload["access_token"]); ok {
		return s, true
	}
	if s, ok := nonEmpty(payload["token"]); ok {
		return s, true
	}
	data, _ := payload["data"].(map[string]any)
	if s, ok := nonEmpty(data["token"]); ok {
		return s, true
	}
	if s, ok := nonEmpty(data["access_token"]); ok {
		return s, true
	}
	return "", false
}

func nonEmpty(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok && s != ""
}
