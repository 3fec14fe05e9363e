// Package fetch downloads FPL API responses through the raw JSON store.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
	"github.com/frosttechequities/FPL-chips-optimizer/internal/store"
)

const DefaultBaseURL = "https://fantasy.premierleague.com/api"

type Client struct {
	HTTP      *http.Client
	Store     *store.JSONStore
	BaseURL   string
	UserAgent string
	// Cookie is sent on authenticated endpoints such as /my-team/.
	Cookie       string
	Sleep        time.Duration
	PrettyWrite  bool
	UseCache     bool
	DisableWrite bool
	// Offline serves every request from the store and never dials out.
	Offline bool
}

func NewClient(st *store.JSONStore) *Client {
	return &Client{
		HTTP:        &http.Client{Timeout: 20 * time.Second},
		Store:       st,
		BaseURL:     DefaultBaseURL,
		UserAgent:   "fpl-chips-optimizer/1.0",
		Sleep:       250 * time.Millisecond,
		PrettyWrite: true,
		UseCache:    true,
	}
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("GET %s failed: %d body=%s", e.Path, e.Code, body)
}

// FetchRaw downloads urlPath (like "/bootstrap-static/") and writes it to
// relPath. Returns raw bytes from cache or network.
func (c *Client) FetchRaw(ctx context.Context, urlPath string, relPath string, force bool) ([]byte, error) {
	return c.fetch(ctx, urlPath, relPath, force, false)
}

func (c *Client) fetch(ctx context.Context, urlPath string, relPath string, force bool, auth bool) ([]byte, error) {
	if c.Offline {
		if relPath == "" || !c.Store.Exists(relPath) {
			return nil, fmt.Errorf("offline: %s not cached: %w", urlPath, os.ErrNotExist)
		}
		return c.Store.ReadRaw(relPath)
	}
	if !force && c.UseCache && relPath != "" && c.Store.Exists(relPath) {
		logger.Debugf("[fetch] cache hit %s", relPath)
		return c.Store.ReadRaw(relPath)
	}

	if c.Sleep > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Sleep):
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+urlPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	if auth && c.Cookie != "" {
		req.Header.Set("Cookie", c.Cookie)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", urlPath, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Path: urlPath, Code: resp.StatusCode, Body: string(body)}
	}
	logger.Debugf("[fetch] GET %s %d in %s", urlPath, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if !c.DisableWrite && relPath != "" {
		if err := c.Store.WriteRaw(relPath, body, c.PrettyWrite); err != nil {
			return nil, err
		}
	}
	return body, nil
}
