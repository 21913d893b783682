// Package paypal adapts the PayPal Orders v2 REST API to the payment.Provider
// contract. Provider rejections surface as *payment.ProviderError; transport
// failures surface as wrapped errors, so callers can tell the two apart.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/narracraft/storefront/internal/domain/payment"
)

var _ payment.Provider = (*Client)(nil)

// Client is a PayPal Orders v2 API client with cached OAuth credentials.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient builds a client for the given API base URL (live or sandbox) and
// REST credentials.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: 30 * time.Second},
	}
}

// --- wire types ---

type createOrderBody struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type purchaseUnit struct {
	Amount   purchaseAmount        `json:"amount"`
	Items    []payment.RequestItem `json:"items,omitempty"`
	Shipping *shippingInfo         `json:"shipping,omitempty"`
}

type purchaseAmount struct {
	CurrencyCode string             `json:"currency_code"`
	Value        string             `json:"value"`
	Breakdown    *payment.Breakdown `json:"breakdown,omitempty"`
}

type shippingInfo struct {
	Name    *shippingName           `json:"name,omitempty"`
	Address payment.ShippingAddress `json:"address"`
}

type shippingName struct {
	FullName string `json:"full_name"`
}

type orderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
				Amount struct {
					Value string `json:"value"`
				} `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
}

// Create posts an order-creation request with intent CAPTURE and returns the
// provider order id.
func (c *Client) Create(ctx context.Context, req payment.CreateRequest) (string, error) {
	body := createOrderBody{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount: purchaseAmount{
				CurrencyCode: req.Total.CurrencyCode,
				Value:        req.Total.Value,
				Breakdown:    &req.Breakdown,
			},
			Items: req.Items,
			Shipping: &shippingInfo{
				Name:    &shippingName{FullName: req.PayerName},
				Address: req.Address,
			},
		}},
	}

	var resp orderResponse
	if err := c.post(ctx, "/v2/checkout/orders", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.New("provider returned no order id")
	}
	return resp.ID, nil
}

// Capture finalizes a previously approved order and returns the capture
// details.
func (c *Client) Capture(ctx context.Context, providerOrderID string) (*payment.CaptureDetails, error) {
	var resp orderResponse
	path := "/v2/checkout/orders/" + url.PathEscape(providerOrderID) + "/capture"
	if err := c.post(ctx, path, struct{}{}, &resp); err != nil {
		return nil, err
	}

	details := &payment.CaptureDetails{Status: resp.Status}
	if len(resp.PurchaseUnits) > 0 && len(resp.PurchaseUnits[0].Payments.Captures) > 0 {
		captured := resp.PurchaseUnits[0].Payments.Captures[0]
		details.CaptureID = captured.ID
		if captured.Status != "" {
			details.Status = captured.Status
		}
		amount, err := decimal.NewFromString(captured.Amount.Value)
		if err != nil {
			return nil, errors.Wrap(err, "parse captured amount")
		}
		details.Amount = amount
	}
	return details, nil
}

// post issues an authenticated JSON POST and decodes the response into out.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	payloadBytes, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "provider round trip")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return providerError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// providerError converts a non-2xx response into *payment.ProviderError.
func providerError(status int, raw []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(raw, &apiErr)

	msg := apiErr.Message
	if len(apiErr.Details) > 0 && apiErr.Details[0].Description != "" {
		msg = apiErr.Details[0].Description
	}
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	return &payment.ProviderError{
		StatusCode: status,
		Code:       apiErr.Name,
		Message:    msg,
	}
}

// token returns a cached OAuth access token, refreshing it when expired.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "build token request")
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "token round trip")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", providerError(resp.StatusCode, raw)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", errors.Wrap(err, "decode token response")
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty access token")
	}

	c.accessToken = tok.AccessToken
	// Refresh a minute early to avoid using a token at the edge of expiry.
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.accessToken, nil
}
