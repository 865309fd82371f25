// Package client talks to the control plane's JSON API and change feed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloudconsole/internal/model"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
}

// APIError is a non-2xx reply. Code and Message come from the server's
// {error, message} body when it sent one.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("control plane returned status %d", e.Status)
}

func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) path(k model.Kind, id string) string {
	p := c.BaseURL + "/" + k.Plural()
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func (c *Client) call(ctx context.Context, method, endpoint string, payload, result any) (err error) {
	var body io.Reader
	if payload != nil {
		content, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(content)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ae := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if data, rerr := io.ReadAll(io.LimitReader(resp.Body, 64*1024)); rerr == nil && json.Unmarshal(data, &payload) == nil {
			ae.Code, ae.Message = payload.Error, payload.Message
		}
		return ae
	}

	if result == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) List(ctx context.Context, k model.Kind) ([]model.Doc, error) {
	var out []model.Doc
	if err := c.call(ctx, http.MethodGet, c.path(k, ""), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Doc{}
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, k model.Kind, id string) (model.Doc, error) {
	var out model.Doc
	if err := c.call(ctx, http.MethodGet, c.path(k, id), nil, &out); err != nil {
		return model.Doc{}, err
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, k model.Kind, doc model.Doc) (model.Doc, error) {
	var out model.Doc
	if err := c.call(ctx, http.MethodPost, c.path(k, ""), doc, &out); err != nil {
		return model.Doc{}, err
	}
	return out, nil
}

// Commit persists doc under its own id.
func (c *Client) Commit(ctx context.Context, k model.Kind, doc model.Doc) (model.Doc, error) {
	id := strings.TrimSpace(doc.ID())
	if id == "" {
		return model.Doc{}, errors.New("commit: missing id")
	}
	var out model.Doc
	if err := c.call(ctx, http.MethodPut, c.path(k, id), doc, &out); err != nil {
		return model.Doc{}, err
	}
	return out, nil
}

func (c *Client) Remove(ctx context.Context, k model.Kind, id string) error {
	return c.call(ctx, http.MethodDelete, c.path(k, id), nil, nil)
}

// RemoveMulti deletes ids in one request and returns the ids the server
// actually removed.
func (c *Client) RemoveMulti(ctx context.Context, k model.Kind, ids []string) ([]string, error) {
	if ids == nil {
		ids = []string{}
	}
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := c.call(ctx, http.MethodDelete, c.path(k, ""), ids, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, c.BaseURL+"/health", nil, nil)
}
