package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(150000), body["amount"])
		assert.Equal(t, "INR", body["currency"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "order_test_1",
			"amount":   150000,
			"currency": "INR",
			"receipt":  body["receipt"],
			"status":   "created",
		})
	}))
	defer srv.Close()

	c := NewClient("key_id", "key_secret", srv.URL)
	order, err := c.CreateOrder(context.Background(), 150000, "INR", "rcpt_1")
	require.NoError(t, err)
	assert.Equal(t, "order_test_1", order.ID)
	assert.Equal(t, int64(150000), order.Amount)
}

func TestCreateOrderUpstreamRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad", "bad", srv.URL)
	_, err := c.CreateOrder(context.Background(), 100, "INR", "rcpt_2")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCreateOrderUpstreamUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed on purpose

	c := NewClient("k", "s", srv.URL)
	_, err := c.CreateOrder(context.Background(), 100, "INR", "rcpt_3")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestCreateOrderMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("k", "s", srv.URL)
	_, err := c.CreateOrder(context.Background(), 100, "INR", "rcpt_4")
	assert.ErrorIs(t, err, ErrUpstream)
}
