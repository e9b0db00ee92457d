// Package advisory asks an external language model for a risk read on
// reported content. The output is shown to moderators as a hint next to
// the report; it never gates a decision, so every failure degrades to a
// fixed fallback line instead of an error.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Fallback is returned whenever the assessment cannot be produced.
const Fallback = "Automatic assessment unavailable. Review the reported content manually."

const systemPrompt = "You are a moderation assistant for a community forum. " +
	"Given reported content, reply in at most three sentences: the likely rule violation, " +
	"its severity (low, medium, high), and a suggested action. Be factual and brief."

type Client struct {
	apiKey  string
	url     string
	model   string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(apiKey, url, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		url:     url,
		model:   model,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 3),
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Assess produces the advisory line for a piece of reported content. It
// never returns an error; anything that goes wrong yields Fallback.
func (c *Client) Assess(ctx context.Context, contentType, content string) string {
	if !c.Enabled() {
		return Fallback
	}
	if !c.limiter.Allow() {
		slog.Warn("advisory request throttled")
		return Fallback
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Content type: %s\n\nReported content:\n%s", contentType, content)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("advisory request encoding failed", "error", err)
		return Fallback
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		slog.Warn("advisory request build failed", "error", err)
		return Fallback
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("advisory request failed", "error", err)
		return Fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("advisory request rejected", "status", resp.StatusCode)
		return Fallback
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		slog.Warn("advisory response decoding failed", "error", err)
		return Fallback
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return Fallback
	}
	return parsed.Choices[0].Message.Content
}
