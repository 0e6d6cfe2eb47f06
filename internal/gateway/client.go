package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnreachable wraps every transport-level failure: connection refused, DNS,
// and timeouts alike. The sync layer treats all of them as "offline" and falls
// back to local data; none of them ever surface to the user as an error.
var ErrUnreachable = errors.New("server unreachable")

// ErrNotFound is returned when the server does not know the record.
var ErrNotFound = errors.New("not found")

// RejectedError is a server verdict on a payload: the request reached the
// server and was refused. Rejections propagate to the caller and are not
// retried automatically.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("server rejected request: status %d: %s", e.Status, e.Message)
}

// TokenSource supplies the bearer credential for each request. Token refresh
// lives behind this interface; the gateway only attaches what it is given.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a fixed credential.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) { return string(t), nil }

// Client performs typed CRUD against the companion backend over HTTPS/JSON.
// It holds no state between calls.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Create POSTs a record to its collection and decodes the server's
// representation into out.
func (c *Client) Create(ctx context.Context, collection string, record, out any) error {
	return c.do(ctx, http.MethodPost, "/"+collection, record, out)
}

// Get fetches one record by ID.
func (c *Client) Get(ctx context.Context, collection, id string, out any) error {
	return c.do(ctx, http.MethodGet, "/"+collection+"/"+id, nil, out)
}

// Update PUTs a record and decodes the server's representation into out.
func (c *Client) Update(ctx context.Context, collection, id string, record, out any) error {
	return c.do(ctx, http.MethodPut, "/"+collection+"/"+id, record, out)
}

// Delete removes one record by ID. A 404 is treated as success: the record is
// already gone, which is the outcome the caller wanted.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	err := c.do(ctx, http.MethodDelete, "/"+collection+"/"+id, nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("fetch token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport errors and timeouts are indistinguishable to the sync
		// layer: both mean "try again later, serve local state now".
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrUnreachable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, ErrUnreachable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode >= 400:
		msg := string(respBody)
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &RejectedError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
