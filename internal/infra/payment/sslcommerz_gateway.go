package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gym-membership-platform/internal/domain/model"
	"gym-membership-platform/internal/domain/ports/adapter"
)

const (
	// SSLCommerz caps the product name field length.
	maxProductNameLen = 50

	liveBaseURL    = "https://securepay.sslcommerz.com"
	sandboxBaseURL = "https://sandbox.sslcommerz.com"
)

// SSLCommerzGateway implements adapter.PaymentGateway against the SSLCommerz
// hosted-checkout API: a form-encoded session request that answers with a
// redirect URL, then a form-encoded callback once the payer finishes.
type SSLCommerzGateway struct {
	baseURL    string
	successURL string
	failURL    string
	cancelURL  string
	client     *http.Client
}

type Config struct {
	Sandbox    bool
	BaseURL    string // override, used by tests
	SuccessURL string
	FailURL    string
	CancelURL  string
}

func NewSSLCommerzGateway(cfg Config) *SSLCommerzGateway {
	base := cfg.BaseURL
	if base == "" {
		base = liveBaseURL
		if cfg.Sandbox {
			base = sandboxBaseURL
		}
	}
	return &SSLCommerzGateway{
		baseURL:    base,
		successURL: cfg.SuccessURL,
		failURL:    cfg.FailURL,
		cancelURL:  cfg.CancelURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *SSLCommerzGateway) Name() string { return "sslcommerz" }

// sessionResponse is the provider's answer to a session creation request.
type sessionResponse struct {
	Status         string `json:"status"` // SUCCESS | FAILED
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
	FailedReason   string `json:"failedreason"`
}

func (g *SSLCommerzGateway) CreateSession(ctx context.Context, req adapter.CheckoutRequest) (*adapter.CheckoutSession, error) {
	name := req.Description
	if len(name) > maxProductNameLen {
		name = name[:maxProductNameLen]
	}

	// The transaction id rides along in tran_id and comes back on the
	// callback; the return URLs carry it too so the redirect path alone is
	// enough to locate the payment.
	form := url.Values{}
	form.Set("store_id", req.Credentials["store_id"])
	form.Set("store_passwd", req.Credentials["store_password"])
	form.Set("total_amount", model.FormatMajorUnits(req.Amount))
	form.Set("currency", req.Currency)
	form.Set("tran_id", req.PaymentID)
	form.Set("product_name", name)
	form.Set("product_category", "membership")
	form.Set("cus_id", req.CustomerID)
	form.Set("success_url", withPaymentID(g.successURL, req.PaymentID))
	form.Set("fail_url", withPaymentID(g.failURL, req.PaymentID))
	form.Set("cancel_url", withPaymentID(g.cancelURL, req.PaymentID))
	if req.TaxAmount > 0 {
		form.Set("value_a", model.FormatMajorUnits(req.TaxAmount))
	}

	endpoint := g.baseURL + "/gwprocess/v4/api.php"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var sr sessionResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}

	if !strings.EqualFold(sr.Status, "SUCCESS") || sr.GatewayPageURL == "" {
		reason := sr.FailedReason
		if reason == "" {
			reason = "gateway returned status " + sr.Status
		}
		return nil, fmt.Errorf("sslcommerz error: %s", reason)
	}

	return &adapter.CheckoutSession{SessionKey: sr.SessionKey, RedirectURL: sr.GatewayPageURL}, nil
}

// MapStatus maps SSLCommerz callback statuses onto the transaction state
// machine. VALID/VALIDATED complete the payment; anything else fails it.
func (g *SSLCommerzGateway) MapStatus(status string) model.PaymentStatus {
	switch strings.ToUpper(status) {
	case "VALID", "VALIDATED":
		return model.PaymentStatusCompleted
	default:
		return model.PaymentStatusFailed
	}
}

// ParseCallback extracts the provider's redirect/IPN form fields into the
// provider-agnostic payload the verify flow consumes.
func ParseCallback(form url.Values) adapter.CallbackPayload {
	paymentID := form.Get("tran_id")
	if paymentID == "" {
		paymentID = form.Get("payment_id")
	}
	return adapter.CallbackPayload{
		PaymentID:     paymentID,
		Status:        form.Get("status"),
		AmountPaid:    form.Get("amount"),
		CardType:      form.Get("card_type"),
		OperationID:   form.Get("bank_tran_id"),
		FailureReason: form.Get("error"),
	}
}

func withPaymentID(base, paymentID string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("payment_id", paymentID)
	u.RawQuery = q.Encode()
	return u.String()
}
