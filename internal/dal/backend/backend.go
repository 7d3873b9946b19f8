package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/tableserve/ordersync/internal/service/models/order"
	"github.com/tableserve/ordersync/internal/service/models/stats"
)

// ErrFetch marks a failed snapshot or stats fetch. It is surfaced to the
// view as a retryable error; the client never retries on its own.
var ErrFetch = errors.New("backend fetch failed")

// Client talks to the café backend's REST surface. The café id is injected
// here once instead of being read from ambient state by every caller.
type Client struct {
	baseURL string
	cafeID  string
	client  *http.Client
}

// NewClient creates a backend client for one café.
func NewClient(baseURL, cafeID string) *Client {
	return &Client{
		baseURL: baseURL,
		cafeID:  cafeID,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SnapshotQuery narrows the order snapshot.
type SnapshotQuery struct {
	Range  string
	Limit  int
	Status string
	Live   bool
}

type snapshotResponse struct {
	Orders []order.Order `json:"orders"`
}

type statsResponse struct {
	Stats stats.Dashboard `json:"stats"`
}

// FetchSnapshot fetches the point-in-time order list for the café.
func (c *Client) FetchSnapshot(ctx context.Context, q SnapshotQuery) ([]order.Order, error) {
	ctx, span := otel.Tracer("backend").Start(ctx, "Client.FetchSnapshot")
	defer span.End()

	url := fmt.Sprintf("%s/orders/cafe/%s?range=%s&limit=%d&status=%s&live=%t",
		c.baseURL, c.cafeID, q.Range, q.Limit, q.Status, q.Live)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)

		return nil, fmt.Errorf("%w: status %d, body: %s", ErrFetch, resp.StatusCode, string(body))
	}

	var res snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", ErrFetch, err)
	}

	return res.Orders, nil
}

// FetchStats fetches today's dashboard aggregates.
func (c *Client) FetchStats(ctx context.Context) (stats.Dashboard, error) {
	ctx, span := otel.Tracer("backend").Start(ctx, "Client.FetchStats")
	defer span.End()

	url := fmt.Sprintf("%s/dashboard/%s/today", c.baseURL, c.cafeID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return stats.Dashboard{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return stats.Dashboard{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return stats.Dashboard{}, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	var res statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return stats.Dashboard{}, fmt.Errorf("%w: decode stats: %v", ErrFetch, err)
	}

	return res.Stats, nil
}

// UpdateStatus requests a status change. The HTTP response only acknowledges
// the request; the authoritative state arrives via push event.
func (c *Client) UpdateStatus(ctx context.Context, orderID int64, status order.Status) error {
	ctx, span := otel.Tracer("backend").Start(ctx, "Client.UpdateStatus")
	defer span.End()

	body, err := json.Marshal(map[string]string{"status": status.String()})
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}

	return c.patch(ctx, "/order/"+strconv.FormatInt(orderID, 10)+"/status", body)
}

// MarkPaid requests a payment confirmation for an order.
func (c *Client) MarkPaid(ctx context.Context, orderID int64) error {
	ctx, span := otel.Tracer("backend").Start(ctx, "Client.MarkPaid")
	defer span.End()

	return c.patch(ctx, "/order/"+strconv.FormatInt(orderID, 10)+"/mark-paid", nil)
}

func (c *Client) patch(ctx context.Context, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)

		return fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
