// Package payment talks to a PayPal compatible REST gateway.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mdsaddlery/storefront/internal/config"
	"github.com/mdsaddlery/storefront/internal/model"
)

// ErrNotConfigured is returned when gateway credentials are missing.
var ErrNotConfigured = errors.New("payment gateway not configured")

// APIError is a non-2xx response from the gateway.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment gateway returned %d: %s", e.Status, e.Body)
}

// Client obtains client-credential tokens and creates and captures orders.
type Client struct {
	cfg  config.PaymentConfig
	http *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
	now         func() time.Time
}

// NewClient creates a gateway client. A nil httpClient uses a 15s timeout client.
func NewClient(cfg config.PaymentConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &Client{cfg: cfg, http: httpClient, now: time.Now}
}

func (c *Client) configured() bool {
	return c.cfg.BaseURL != "" && c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

// CreateOrder opens a capture-intent order for amount in the configured currency.
func (c *Client) CreateOrder(ctx context.Context, amount float64) (*model.PaymentOrder, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{{
			"amount": map[string]string{
				"currency_code": c.cfg.Currency,
				"value":         fmt.Sprintf("%.2f", amount),
			},
		}},
	}

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", body, &out); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	log.Info().Str("paypal_order_id", out.ID).Str("status", out.Status).Msg("payment order created")
	return &model.PaymentOrder{ID: out.ID, Status: out.Status}, nil
}

// Capture settles an approved order.
func (c *Client) Capture(ctx context.Context, orderID string) (*model.PaymentCapture, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, fmt.Errorf("order id required")
	}

	var out struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return nil, fmt.Errorf("capture order %s: %w", orderID, err)
	}

	result := &model.PaymentCapture{OrderID: out.ID, Status: out.Status}
	if len(out.PurchaseUnits) > 0 && len(out.PurchaseUnits[0].Payments.Captures) > 0 {
		result.CaptureID = out.PurchaseUnits[0].Payments.Captures[0].ID
	}
	log.Info().Str("paypal_order_id", out.ID).Str("status", out.Status).Msg("payment captured")
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	return c.send(req, out)
}

// accessToken returns a cached token, refreshing it a minute before expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if !c.configured() {
		return "", ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := c.send(req, &out); err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("fetch access token: empty token")
	}

	c.token = out.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(out.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
