// Package httpclient provides basic http functions
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

// Client wraps http.Client with a set of default headers applied to every
// request. The transit upstreams reject or misbehave on requests missing them.
type Client struct {
	httpClient *http.Client
	headers    http.Header
}

// MakeClient creates a Client with the given timeout and default headers.
func MakeClient(timeout time.Duration, headers http.Header) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		headers:    headers,
	}
}

// Get retrieves the body at url with the client's default headers plus any
// extra headers. extra entries override defaults with the same name.
func (c *Client) Get(ctx context.Context, url string, extra http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	for name, values := range c.headers {
		for _, value := range values {
			req.Header.Set(name, value)
		}
	}
	for name, values := range extra {
		for _, value := range values {
			req.Header.Set(name, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body from %s: %w", url, err)
	}
	return buf.Bytes(), nil
}
