package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Client talks to the marketplace vendor API. It covers the two surfaces
// the engine needs: the pending-order query and the accept/reject actions.
type Client struct {
	baseURL string
	client  http.Client

	mu    sync.Mutex
	token string
}

// NewClient creates a marketplace API client with a bounded request timeout.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken replaces the bearer token (after a session refresh). Safe to
// call while polls are in flight; the new token applies from the next
// request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.bearer())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// FetchPending returns all orders currently awaiting a vendor decision.
func (c *Client) FetchPending(ctx context.Context) ([]Order, error) {
	req, err := c.newRequest(ctx, "GET", "/pending-orders", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuth
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pending-orders returned %d", resp.StatusCode)
	}
	var orders []Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, fmt.Errorf("decode pending orders: %w", err)
	}
	return orders, nil
}

type actionResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Accept requests acceptance of an order. A marketplace-side
// already_handled status is returned as a benign outcome, not an error:
// the order was actioned through another channel (web console, support).
func (c *Client) Accept(ctx context.Context, orderID string) (string, error) {
	return c.action(ctx, orderID, "accept", nil)
}

// Reject requests rejection of an order with an optional reason.
func (c *Client) Reject(ctx context.Context, orderID, reason string) (string, error) {
	var body []byte
	if reason != "" {
		body, _ = json.Marshal(map[string]string{"reason": reason})
	}
	return c.action(ctx, orderID, "reject", body)
}

func (c *Client) action(ctx context.Context, orderID, verb string, body []byte) (string, error) {
	req, err := c.newRequest(ctx, "POST", "/orders/"+orderID+"/"+verb, body)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return "", ErrAuth
	case http.StatusConflict:
		// Already actioned elsewhere; idempotent success.
		return OutcomeAlreadyHandled, nil
	case http.StatusOK:
	default:
		return "", fmt.Errorf("%s order %s returned %d", verb, orderID, resp.StatusCode)
	}
	var ar actionResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", fmt.Errorf("decode %s response: %w", verb, err)
	}
	if ar.Status == OutcomeAlreadyHandled {
		return OutcomeAlreadyHandled, nil
	}
	return ar.Status, nil
}
