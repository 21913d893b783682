package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narracraft/storefront/internal/domain/checkout"
)

func TestNotify_PostsPayload(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "+639121541566")
	err := n.Notify(context.Background(), checkout.Notification{
		OrderID: "ord-1",
		Amount:  decimal.RequireFromString("132.78"),
	})
	require.NoError(t, err)

	assert.Equal(t, "+639121541566", got.To)
	assert.Contains(t, got.Message, "ord-1")
	assert.Contains(t, got.Message, "132.78")
	assert.Equal(t, "ord-1", got.Meta.OrderID)
	assert.Equal(t, "132.78", got.Meta.Total)
}

func TestNotify_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, "+639121541566")
	err := n.Notify(context.Background(), checkout.Notification{OrderID: "ord-1", Amount: decimal.Zero})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNotify_UnconfiguredURL(t *testing.T) {
	n := NewWebhookNotifier("", "+639121541566")
	err := n.Notify(context.Background(), checkout.Notification{OrderID: "ord-1", Amount: decimal.Zero})
	require.Error(t, err)
}
