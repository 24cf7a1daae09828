package payment

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

// ErrUpstream indicates that the payment processor could not create an
// order: the API was unreachable, timed out, or rejected the request.
// Handlers surface this as a 502 and persist nothing.
var ErrUpstream = errors.New("upstream payment error")

// Order is the processor's order handle returned from order creation.
// Amount is in minor currency units (paise).
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client is a minimal Razorpay Orders API client.  Only order creation
// is needed here; payment capture happens on the client side and comes
// back to us as a signed callback.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

const defaultBaseURL = "https://api.razorpay.com"

// NewClient builds a Client authenticated with the given API key pair.
// baseURL overrides the production endpoint and is meant for tests;
// pass "" for the default.
func NewClient(keyID, keySecret, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateOrder creates a payment order for the given amount in minor
// units.  Any transport error or non-2xx response is reported as
// ErrUpstream with the underlying cause wrapped alongside it.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	body, err := json.Marshal(map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a bounded slice of the body for the error message only.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, snippet)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: response missing order id", ErrUpstream)
	}
	return &order, nil
}
