package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narracraft/storefront/internal/domain/order"
)

func testRecord() *order.Record {
	return &order.Record{
		ID:     "ord-1",
		Status: order.StatusProcessing,
		Pricing: order.Pricing{
			Total: decimal.RequireFromString("132.78"),
		},
	}
}

func TestHub_BroadcastsToClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	// Wait for registration before publishing.
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.PublishOrderEvent("placed", testRecord())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt OrderEvent
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.Equal(t, "placed", evt.Kind)
	assert.Equal(t, "ord-1", evt.OrderID)
	assert.Equal(t, order.StatusProcessing, evt.Status)
	assert.Equal(t, "132.78", evt.Total)
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil)
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_PublishWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	// Run not started, buffer has room: publish must return immediately.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			hub.PublishOrderEvent("placed", testRecord())
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PublishOrderEvent blocked")
	}
}
