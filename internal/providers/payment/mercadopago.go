// Package payment integrates the Mercado Pago checkout and payments APIs.
package payment

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
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"captzio/internal/domain"
)

// PreferenceRequest describes one checkout.
type PreferenceRequest struct {
	ExternalReference string
	Title             string
	Quantity          int
	UnitPrice         decimal.Decimal
	Currency          string
	PayerEmail        string
	NotificationURL   string
	SuccessURL        string
	FailureURL        string
	PendingURL        string
}

// Preference is the checkout session created at the gateway.
type Preference struct {
	ID          string
	RedirectURL string
}

// Payment is the gateway view of a payment referenced by a notification.
type Payment struct {
	ID                string
	Status            string
	ExternalReference string
	Method            string
	Amount            decimal.Decimal
}

// Gateway is the contract the payment service depends on.
type Gateway interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
}

type MercadoPagoOptions struct {
	AccessToken string
	BaseURL     string
	Sandbox     bool
	Timeout     time.Duration
	HTTPClient  *http.Client
	// MaxElapsed bounds retries of transient payment lookups.
	MaxElapsed time.Duration
}

type MercadoPagoClient struct {
	accessToken string
	baseURL     string
	sandbox     bool
	client      *http.Client
	maxElapsed  time.Duration
}

func NewMercadoPagoClient(opts MercadoPagoOptions) (*MercadoPagoClient, error) {
	if strings.TrimSpace(opts.AccessToken) == "" {
		return nil, errors.New("mercadopago access token is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.mercadopago.com"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	maxElapsed := opts.MaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = 30 * time.Second
	}
	return &MercadoPagoClient{
		accessToken: strings.TrimSpace(opts.AccessToken),
		baseURL:     baseURL,
		sandbox:     opts.Sandbox,
		client:      client,
		maxElapsed:  maxElapsed,
	}, nil
}

type mpItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type mpPreferenceRequest struct {
	Items             []mpItem          `json:"items"`
	ExternalReference string            `json:"external_reference"`
	NotificationURL   string            `json:"notification_url,omitempty"`
	BackURLs          map[string]string `json:"back_urls,omitempty"`
	AutoReturn        string            `json:"auto_return,omitempty"`
	Payer             *mpPayer          `json:"payer,omitempty"`
}

type mpPayer struct {
	Email string `json:"email"`
}

type mpPreferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type mpPaymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	ExternalReference string      `json:"external_reference"`
	PaymentMethodID   string      `json:"payment_method_id"`
	TransactionAmount json.Number `json:"transaction_amount"`
}

func (c *MercadoPagoClient) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	price, _ := req.UnitPrice.Float64()
	body := mpPreferenceRequest{
		Items: []mpItem{{
			Title:      req.Title,
			Quantity:   quantity,
			UnitPrice:  price,
			CurrencyID: req.Currency,
		}},
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
	}
	if req.SuccessURL != "" {
		body.BackURLs = map[string]string{
			"success": req.SuccessURL,
			"failure": coalesce(req.FailureURL, req.SuccessURL),
			"pending": coalesce(req.PendingURL, req.SuccessURL),
		}
		body.AutoReturn = "approved"
	}
	if req.PayerEmail != "" {
		body.Payer = &mpPayer{Email: req.PayerEmail}
	}

	var out mpPreferenceResponse
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", body, &out); err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	redirect := out.InitPoint
	if c.sandbox && out.SandboxInitPoint != "" {
		redirect = out.SandboxInitPoint
	}
	return &Preference{ID: out.ID, RedirectURL: redirect}, nil
}

// GetPayment fetches a payment, retrying transport errors and 5xx responses
// with exponential backoff.
func (c *MercadoPagoClient) GetPayment(ctx context.Context, id string) (*Payment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("payment id is required")
	}
	var out mpPaymentResponse
	op := func() error {
		err := c.do(ctx, http.MethodGet, "/v1/payments/"+id, nil, &out)
		var se *statusError
		if errors.As(err, &se) && se.code < 500 {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.maxElapsed
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("get payment %s: %w", id, err)
	}
	amount, err := decimal.NewFromString(out.TransactionAmount.String())
	if err != nil {
		amount = decimal.Zero
	}
	return &Payment{
		ID:                out.ID.String(),
		Status:            out.Status,
		ExternalReference: out.ExternalReference,
		Method:            out.PaymentMethodID,
		Amount:            amount,
	}, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("mercadopago status %d: %s", e.code, e.body)
}

func (c *MercadoPagoClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return err
		}
		body = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// MapStatus folds gateway payment states into transaction states. Unknown
// and in-flight states map to pending.
func MapStatus(status string) domain.TransactionStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "approved":
		return domain.TransactionApproved
	case "rejected", "cancelled":
		return domain.TransactionFailed
	case "refunded", "charged_back":
		return domain.TransactionRefunded
	default:
		return domain.TransactionPending
	}
}

// VerifySignature checks the x-signature header ("ts=...,v1=...") against
// the manifest "id:<dataID>;request-id:<requestID>;ts:<ts>;".
func VerifySignature(secret, header, requestID, dataID string) error {
	var ts, v1 string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			v1 = strings.TrimSpace(value)
		}
	}
	if ts == "" || v1 == "" {
		return domain.ErrInvalidSignature
	}
	expected := Sign(secret, requestID, strings.ToLower(dataID), ts)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 Mercado Pago places in v1.
func Sign(secret, requestID, dataID, ts string) string {
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", dataID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var _ Gateway = (*MercadoPagoClient)(nil)
