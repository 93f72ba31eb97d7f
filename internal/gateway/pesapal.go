package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/nyikasafaris/safaribooking/config"
	"github.com/nyikasafaris/safaribooking/internal/domain"
)

const (
	defaultTimeout = 10 * time.Second

	// Tokens are valid for roughly five minutes; refresh a little early so
	// an in-flight request never carries an expired one.
	tokenTTL    = 5 * time.Minute
	tokenMargin = 30 * time.Second
)

// PesapalClient talks to the hosted payment gateway over HTTPS.
type PesapalClient struct {
	httpClient     *http.Client
	baseURL        string
	consumerKey    string
	consumerSecret string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewPesapalClient(cfg config.GatewayConfig) *PesapalClient {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &PesapalClient{
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        cfg.BaseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
	}
}

type tokenRequest struct {
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

type tokenResponse struct {
	Token      string `json:"token"`
	ExpiryDate string `json:"expiryDate"`
	Error      string `json:"error,omitempty"`
}

type submitOrderRequest struct {
	ID             string         `json:"id"`
	Currency       string         `json:"currency"`
	Amount         float64        `json:"amount"`
	Description    string         `json:"description"`
	CallbackURL    string         `json:"callback_url"`
	BillingAddress billingAddress `json:"billing_address"`
}

type billingAddress struct {
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
	CountryCode  string `json:"country_code,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
}

type submitOrderResponse struct {
	OrderTrackingID   string `json:"order_tracking_id"`
	MerchantReference string `json:"merchant_reference"`
	RedirectURL       string `json:"redirect_url"`
	Error             string `json:"error,omitempty"`
	Status            string `json:"status"`
}

type transactionStatusResponse struct {
	PaymentMethod            string  `json:"payment_method"`
	Amount                   float64 `json:"amount"`
	Currency                 string  `json:"currency"`
	ConfirmationCode         string  `json:"confirmation_code"`
	PaymentStatusDescription string  `json:"payment_status_description"`
	Message                  string  `json:"message"`
	Error                    string  `json:"error,omitempty"`
}

func (c *PesapalClient) SubmitOrder(ctx context.Context, order OrderRequest) (*OrderResponse, error) {
	body := submitOrderRequest{
		ID:          order.MerchantReference,
		Currency:    order.Currency,
		Amount:      centsToAmount(order.AmountCents),
		Description: order.Description,
		CallbackURL: order.CallbackURL,
		BillingAddress: billingAddress{
			EmailAddress: order.Billing.Email,
			PhoneNumber:  order.Billing.Phone,
			CountryCode:  order.Billing.CountryCode,
			FirstName:    order.Billing.FirstName,
			LastName:     order.Billing.LastName,
		},
	}

	var resp submitOrderResponse
	if err := c.post(ctx, "/Transactions/SubmitOrderRequest", body, &resp); err != nil {
		return nil, domain.GatewayError{Op: "submit order", Err: err}
	}
	if resp.Error != "" {
		return nil, domain.GatewayError{Op: "submit order", Err: fmt.Errorf("%s", resp.Error)}
	}
	if resp.OrderTrackingID == "" || resp.RedirectURL == "" {
		return nil, domain.GatewayError{Op: "submit order", Err: fmt.Errorf("incomplete response for %s", order.MerchantReference)}
	}

	return &OrderResponse{
		TrackingID:  resp.OrderTrackingID,
		RedirectURL: resp.RedirectURL,
	}, nil
}

func (c *PesapalClient) TransactionStatus(ctx context.Context, trackingID string) (*TransactionStatus, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, domain.GatewayError{Op: "transaction status", Err: err}
	}

	endpoint := c.baseURL + "/Transactions/GetTransactionStatus?orderTrackingId=" + url.QueryEscape(trackingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.GatewayError{Op: "transaction status", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.GatewayError{Op: "transaction status", Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, domain.GatewayError{Op: "transaction status", Err: fmt.Errorf("unexpected status %s", httpResp.Status)}
	}

	var resp transactionStatusResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, domain.GatewayError{Op: "transaction status", Err: err}
	}
	if resp.Error != "" {
		return nil, domain.GatewayError{Op: "transaction status", Err: fmt.Errorf("%s", resp.Error)}
	}

	return &TransactionStatus{
		TrackingID:       trackingID,
		PaymentMethod:    resp.PaymentMethod,
		AmountCents:      amountToCents(resp.Amount),
		Currency:         resp.Currency,
		Status:           ParseStatus(resp.PaymentStatusDescription),
		Description:      resp.PaymentStatusDescription,
		ConfirmationCode: resp.ConfirmationCode,
	}, nil
}

// bearerToken returns the cached token, requesting a fresh one when the
// previous one is close to expiry.
func (c *PesapalClient) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenMargin)) {
		return c.token, nil
	}

	payload, err := json.Marshal(tokenRequest{ConsumerKey: c.consumerKey, ConsumerSecret: c.consumerSecret})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Auth/RequestToken", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned %s", httpResp.Status)
	}

	var resp tokenResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%s", resp.Error)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("empty token in response")
	}

	expiry := time.Now().Add(tokenTTL)
	if parsed, err := time.Parse(time.RFC3339, resp.ExpiryDate); err == nil {
		expiry = parsed
	}

	c.token = resp.Token
	c.tokenExpiry = expiry
	return c.token, nil
}

func (c *PesapalClient) post(ctx context.Context, path string, body, out interface{}) error {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", httpResp.Status)
	}
	return json.NewDecoder(httpResp.Body).Decode(out)
}

func centsToAmount(cents int64) float64 {
	return float64(cents) / 100
}

func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

var _ Client = (*PesapalClient)(nil)
