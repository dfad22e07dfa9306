// Package apiclient is the HTTP client the CLI uses to talk to a running
// daemon.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"wastetwin/internal/api"
)

// ErrAPIUnavailable reports that no daemon answered.
var ErrAPIUnavailable = errors.New("daemon API unavailable")

// StatusError is a non-2xx reply from the daemon.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned status %d", e.Code)
	}
	return fmt.Sprintf("daemon returned status %d: %s", e.Code, e.Message)
}

// Client calls the daemon HTTP API.
type Client struct {
	base *url.URL
	http *http.Client
}

// New builds a client for the daemon bound at bind (host:port or URL).
func New(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, ErrAPIUnavailable
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		// No timeout: follow mode blocks waiting for events until the caller cancels.
		http: &http.Client{},
	}, nil
}

// Stats fetches the facility snapshot.
func (c *Client) Stats(ctx context.Context) (api.Stats, error) {
	var out api.Stats
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, nil, &out)
	return out, err
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var out api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, nil, &out)
	return out, err
}

// Queue lists pending items.
func (c *Client) Queue(ctx context.Context) (api.QueueResponse, error) {
	var out api.QueueResponse
	err := c.do(ctx, http.MethodGet, "/api/queue", nil, nil, &out)
	return out, err
}

// Enqueue adds quantity items of category.
func (c *Client) Enqueue(ctx context.Context, category string, quantity int) (api.EnqueueResponse, error) {
	var out api.EnqueueResponse
	err := c.do(ctx, http.MethodPost, "/api/queue", nil, api.EnqueueRequest{Category: category, Quantity: &quantity}, &out)
	return out, err
}

// Process admits the next item, or every item that fits when all is set.
func (c *Client) Process(ctx context.Context, all bool) (api.ProcessResponse, error) {
	var out api.ProcessResponse
	err := c.do(ctx, http.MethodPost, "/api/process", nil, api.ProcessRequest{All: all}, &out)
	return out, err
}

// SetMaxConcurrent changes the concurrency cap.
func (c *Client) SetMaxConcurrent(ctx context.Context, n int) (api.ConcurrencyResponse, error) {
	var out api.ConcurrencyResponse
	err := c.do(ctx, http.MethodPost, "/api/concurrency", nil, api.ConcurrencyRequest{MaxConcurrent: n}, &out)
	return out, err
}

// Categories lists the catalog.
func (c *Client) Categories(ctx context.Context) ([]api.Category, error) {
	var out api.CategoriesResponse
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &out)
	return out.Categories, err
}

// Composition fetches the composition of category.
func (c *Client) Composition(ctx context.Context, category string) (api.Composition, error) {
	var out api.Composition
	err := c.do(ctx, http.MethodGet, "/api/composition/"+url.PathEscape(category), nil, nil, &out)
	return out, err
}

// ProcessedQuery pages the finished-item history.
type ProcessedQuery struct {
	Category string
	Status   string
	Limit    int
	Offset   int
}

// Processed fetches one page of finished items.
func (c *Client) Processed(ctx context.Context, q ProcessedQuery) (api.ProcessedResponse, error) {
	values := url.Values{}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Status != "" {
		values.Set("status", q.Status)
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	var out api.ProcessedResponse
	err := c.do(ctx, http.MethodGet, "/api/processed", values, nil, &out)
	return out, err
}

// Chat asks the responder a question.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var out api.ChatResponse
	err := c.do(ctx, http.MethodPost, "/api/chat", nil, api.ChatRequest{Message: message}, &out)
	return out.Reply, err
}

// TestNotification asks the daemon to send a test notification.
func (c *Client) TestNotification(ctx context.Context) (string, error) {
	var out map[string]string
	err := c.do(ctx, http.MethodPost, "/api/notifications/test", nil, nil, &out)
	return out["message"], err
}

// EventsQuery selects events.
type EventsQuery struct {
	Since  uint64
	Limit  int
	Follow bool
	Tail   bool
	Types  []string
	ItemID string
}

// Events fetches one page of events. With Follow set the call blocks until an
// event arrives or the daemon's long-poll window ends.
func (c *Client) Events(ctx context.Context, q EventsQuery) (api.EventsResponse, error) {
	values := url.Values{}
	if q.Since > 0 {
		values.Set("since", strconv.FormatUint(q.Since, 10))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Follow {
		values.Set("follow", "1")
	}
	if q.Tail {
		values.Set("tail", "1")
	}
	for _, t := range q.Types {
		if t = strings.TrimSpace(t); t != "" {
			values.Add("type", t)
		}
	}
	if strings.TrimSpace(q.ItemID) != "" {
		values.Set("item", q.ItemID)
	}
	var out api.EventsResponse
	err := c.do(ctx, http.MethodGet, "/api/events", values, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil {
		return ErrAPIUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr api.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(raw))
		}
		return &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// IsAPIUnavailable reports whether err means no daemon is listening.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
