// Package fetch is the shared HTTP collaborator for network-backed skills.
// Requests carry a fixed timeout and responses are read with a hard size cap;
// there is no retry policy, a network failure is a normal tool failure.
package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseSize caps response bodies at 10 MB.
const maxResponseSize = 10 * 1024 * 1024

const userAgent = "skillbox/1.0"

// Fetcher abstracts HTTP access for testability.
type Fetcher interface {
	Get(url string) ([]byte, error)
	PostJSON(url string, body interface{}) ([]byte, error)
	Head(url string) (status int, headers http.Header, err error)
}

// Client implements Fetcher with net/http and a per-client timeout.
type Client struct {
	hc *http.Client
}

// NewClient creates a Client with the given request timeout. Zero or negative
// falls back to 10 seconds, the typical quick-query bound.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{hc: &http.Client{Timeout: timeout}}
}

// Get fetches the URL and returns the body. Non-2xx statuses are errors.
func (c *Client) Get(url string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// GetJSON fetches the URL through f and unmarshals the JSON body into v.
func GetJSON(f Fetcher, url string, v interface{}) error {
	body, err := f.Get(url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode JSON response: %w", err)
	}
	return nil
}

// PostJSON sends body as JSON and returns the response body.
func (c *Client) PostJSON(url string, body interface{}) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return out, nil
}

// Head issues a HEAD request and returns the status code and headers.
func (c *Client) Head(url string) (int, http.Header, error) {
	req, err := http.NewRequest(http.MethodHead, url, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
	return resp.StatusCode, resp.Header, nil
}
