// Package chain provides Antelope chain interaction: table reads through a
// public API node and action submission through a signing relay.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// Client talks to an Antelope chain API endpoint.
type Client struct {
	apiURL     string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	APIURL  string
	Timeout time.Duration
}

// NewClient creates a chain API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("chain API URL required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		apiURL: cfg.APIURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// TableRowsRequest describes a get_table_rows query.
type TableRowsRequest struct {
	Code       string `json:"code"`
	Scope      string `json:"scope"`
	Table      string `json:"table"`
	LowerBound string `json:"lower_bound,omitempty"`
	UpperBound string `json:"upper_bound,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	JSON       bool   `json:"json"`
}

// Action is a single chain action with pre-serialized JSON data, submitted
// under the relay's configured authorization.
type Action struct {
	Account string          `json:"account"`
	Name    string          `json:"name"`
	Actor   string          `json:"actor"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(respBody, "error.what").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%s: %s", path, msg)
	}
	return respBody, nil
}

// GetTableRows queries a contract table and returns the rows array.
func (c *Client) GetTableRows(ctx context.Context, req TableRowsRequest) (gjson.Result, error) {
	req.JSON = true
	body, err := c.post(ctx, "/v1/chain/get_table_rows", req)
	if err != nil {
		return gjson.Result{}, err
	}

	rows := gjson.GetBytes(body, "rows")
	if !rows.IsArray() {
		return gjson.Result{}, fmt.Errorf("get_table_rows: malformed response")
	}
	return rows, nil
}

// PushAction submits an action through the signing relay.
func (c *Client) PushAction(ctx context.Context, action Action) error {
	_, err := c.post(ctx, "/v1/relay/push_action", action)
	return err
}
