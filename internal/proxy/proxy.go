// Package proxy fetches an arbitrary http(s) URL on behalf of an operator so
// outbound connectivity can be checked from the server.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrInvalidURL = errors.New("url must be an absolute http or https URL")
	ErrTooLarge   = errors.New("upstream response too large")
)

type Result struct {
	Status      int
	ContentType string
	// JSON is set when the upstream declared application/json and the body
	// parsed; Body then holds valid JSON.
	JSON bool
	Body []byte
}

type Client struct {
	http     *http.Client
	maxBytes int64
}

func New(timeout time.Duration, maxBytes int64) *Client {
	return &Client{http: &http.Client{Timeout: timeout}, maxBytes: maxBytes}
}

func validate(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

func (c *Client) Fetch(ctx context.Context, raw string) (*Result, error) {
	u, err := validate(raw)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "user-admin-proxy-tester")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, ErrTooLarge
	}

	out := &Result{Status: res.StatusCode, ContentType: res.Header.Get("Content-Type"), Body: body}
	if mt, _, _ := mime.ParseMediaType(out.ContentType); mt == "application/json" {
		if !json.Valid(body) {
			return nil, errors.New("upstream sent invalid JSON")
		}
		out.JSON = true
	}
	return out, nil
}
