// Package notify dispatches best-effort order notifications to an SMS
// webhook. Delivery is fire and forget: failures are logged by the caller
// and never block or fail order placement.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/narracraft/storefront/internal/domain/checkout"
)

var _ checkout.Notifier = (*WebhookNotifier)(nil)

// WebhookNotifier posts order notifications to a configured webhook URL.
type WebhookNotifier struct {
	url      string
	toNumber string
	client   *http.Client
}

// NewWebhookNotifier builds a notifier for the given webhook URL and
// destination number.
func NewWebhookNotifier(url, toNumber string) *WebhookNotifier {
	return &WebhookNotifier{
		url:      url,
		toNumber: toNumber,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// payload mirrors the webhook's expected body.
type payload struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Meta    struct {
		OrderID string `json:"orderId"`
		Total   string `json:"total"`
	} `json:"meta"`
}

// Notify posts the order announcement. Amounts are serialized as fixed-point
// strings with 2 fractional digits, matching the provider boundary rule.
func (n *WebhookNotifier) Notify(ctx context.Context, note checkout.Notification) error {
	if n.url == "" {
		return errors.New("notification webhook URL not configured")
	}

	total := note.Amount.StringFixed(2)
	p := payload{
		To:      n.toNumber,
		Message: fmt.Sprintf("New order %s placed. Total: ₱%s", note.OrderID, total),
	}
	p.Meta.OrderID = note.OrderID
	p.Meta.Total = total

	body, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post webhook")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return errors.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
