package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"peelojuice/internal/config"
	"peelojuice/internal/logger"
)

var ErrGatewayRequestFailed = errors.New("gateway request failed")

// Client talks to the payment gateway's order API and checks its HMAC
// signatures. Amounts go over the wire in paise.
type Client struct {
	cfg        config.GatewayConfig
	httpClient *http.Client
	log        *logger.Logger
}

func NewClient(cfg config.GatewayConfig, log *logger.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers a payable order with the gateway and returns the
// gateway's order id.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (string, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency: "INR",
		Receipt:  receipt,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("GATEWAY", fmt.Sprintf("create order request failed: %v", err))
		return "", fmt.Errorf("%w: %v", ErrGatewayRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error("GATEWAY", fmt.Sprintf("create order returned %d: %s", resp.StatusCode, respBody))
		return "", fmt.Errorf("%w: status %d", ErrGatewayRequestFailed, resp.StatusCode)
	}

	var parsed createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.ID == "" {
		return "", fmt.Errorf("%w: empty order id", ErrGatewayRequestFailed)
	}

	c.log.Info("GATEWAY", fmt.Sprintf("created gateway order %s for receipt %s", parsed.ID, receipt))
	return parsed.ID, nil
}

// VerifyPaymentSignature checks the signature the client-side SDK hands
// back after a successful payment. The signed message is
// "<gateway_order_id>|<gateway_payment_id>".
func (c *Client) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.cfg.KeySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the HMAC over the raw webhook body. When no
// webhook secret is configured the check is skipped.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	if c.cfg.WebhookSecret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(c.cfg.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
