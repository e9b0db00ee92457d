// Package ipinfo resolves the server's public address through an
// external lookup service. The result is diagnostic only; request
// handling never depends on it.
package ipinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// PublicIP asks the lookup service for the caller's public address.
// Failures return an error and an empty string; callers log and move on.
func (c *Client) PublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ip lookup returned status %d", resp.StatusCode)
	}

	var body struct {
		IP string `json:"ip"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if body.IP == "" {
		return "", fmt.Errorf("ip lookup returned empty address")
	}
	return body.IP, nil
}
