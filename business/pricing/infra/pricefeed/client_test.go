package pricefeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skinflow/fulfillment-bot/internal/apperror"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, RequestTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("building client: %v", err)
	}
	return client
}

func TestClient_Price(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("market_hash_name"); got != "Item A" {
			t.Errorf("market_hash_name = %q, want Item A", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "price": "92.30"})
	}))

	price, err := client.Price(context.Background(), "Item A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("92.30")) {
		t.Errorf("price = %s, want 92.30", price)
	}
}

func TestClient_Price_Unavailable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "unknown item"})
	}))

	_, err := client.Price(context.Background(), "Item A")
	if apperror.GetCode(err) != apperror.CodePriceUnavailable {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodePriceUnavailable)
	}
}

func TestClient_Price_Malformed(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"success": true, "price": "n/a"})
	}))

	_, err := client.Price(context.Background(), "Item A")
	if apperror.GetCode(err) != apperror.CodePriceFeedError {
		t.Errorf("code = %s, want %s", apperror.GetCode(err), apperror.CodePriceFeedError)
	}
}
