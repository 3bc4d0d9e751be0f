// Package notion is a minimal client for the Notion REST API, covering the
// block and page operations the sync needs: clearing and appending page
// content, querying a database, and creating/updating rows.
package notion

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

// Version is the protocol version sent with every request.
const Version = "2022-06-28"

// Client issues authenticated requests against the Notion API.
type Client struct {
	http    *http.Client
	token   string
	baseURL string
}

// NewClient creates a Client.
//
// Parameters:
//   - token:   pre-issued integration token (sent as a bearer token).
//   - baseURL: API root, e.g. "https://api.notion.com/v1".
//   - hc:      HTTP client carrying the per-request timeout; a default is
//     used when nil.
func NewClient(token, baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = "https://api.notion.com/v1"
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{http: hc, token: token, baseURL: strings.TrimRight(baseURL, "/")}
}

// listResponse is the envelope of list-shaped endpoints.
type listResponse[T any] struct {
	Results []T `json:"results"`
}

// ListBlockChildren returns the direct child blocks of a page or block.
func (c *Client) ListBlockChildren(ctx context.Context, blockID string) ([]Block, error) {
	var out listResponse[Block]
	if err := c.do(ctx, http.MethodGet, "/blocks/"+blockID+"/children", nil, &out); err != nil {
		return nil, fmt.Errorf("list block children: %w", err)
	}
	return out.Results, nil
}

// DeleteBlock archives one block.
func (c *Client) DeleteBlock(ctx context.Context, blockID string) error {
	if err := c.do(ctx, http.MethodDelete, "/blocks/"+blockID, nil, nil); err != nil {
		return fmt.Errorf("delete block %s: %w", blockID, err)
	}
	return nil
}

// AppendBlockChildren appends the given blocks under a page in one call.
func (c *Client) AppendBlockChildren(ctx context.Context, blockID string, children []Block) error {
	in := map[string][]Block{"children": children}
	if err := c.do(ctx, http.MethodPatch, "/blocks/"+blockID+"/children", in, nil); err != nil {
		return fmt.Errorf("append block children: %w", err)
	}
	return nil
}

// QueryDatabase returns the rows of a database. A single unfiltered query is
// issued; result pagination is not followed.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) ([]Page, error) {
	var out listResponse[Page]
	if err := c.do(ctx, http.MethodPost, "/databases/"+databaseID+"/query", struct{}{}, &out); err != nil {
		return nil, fmt.Errorf("query database: %w", err)
	}
	return out.Results, nil
}

// CreatePage creates a new row in a database with the given properties.
func (c *Client) CreatePage(ctx context.Context, databaseID string, props Properties) error {
	in := map[string]any{
		"parent":     map[string]string{"database_id": databaseID},
		"properties": props,
	}
	if err := c.do(ctx, http.MethodPost, "/pages", in, nil); err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	return nil
}

// UpdatePage replaces the given properties of an existing row.
func (c *Client) UpdatePage(ctx context.Context, pageID string, props Properties) error {
	in := map[string]any{"properties": props}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, in, nil); err != nil {
		return fmt.Errorf("update page %s: %w", pageID, err)
	}
	return nil
}

// do performs one request: marshals in (when non-nil), sets auth and version
// headers, checks for a 2xx status, and decodes into out (when non-nil).
// Non-2xx responses become errors carrying a truncated response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", Version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return fmt.Errorf("%s %s -> %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
