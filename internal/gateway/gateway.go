package gateway

import (
	"context"
	"strings"

	"github.com/nyikasafaris/safaribooking/config"
)

// Status is the gateway-reported transaction state, already normalized.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// ParseStatus normalizes the free-form status description the gateway
// returns. Anything not clearly terminal stays PENDING.
func ParseStatus(description string) Status {
	switch strings.ToUpper(strings.TrimSpace(description)) {
	case "COMPLETED", "SUCCESS":
		return StatusCompleted
	case "FAILED", "CANCELLED":
		return StatusFailed
	default:
		return StatusPending
	}
}

type BillingContact struct {
	Email       string
	Phone       string
	FirstName   string
	LastName    string
	CountryCode string
}

type OrderRequest struct {
	MerchantReference string
	AmountCents       int64
	Currency          string
	Description       string
	CallbackURL       string
	Billing           BillingContact
}

type OrderResponse struct {
	TrackingID  string
	RedirectURL string
}

type TransactionStatus struct {
	TrackingID       string
	PaymentMethod    string
	AmountCents      int64
	Currency         string
	Status           Status
	Description      string
	ConfirmationCode string
}

// Client is implemented by the live gateway client and the sandbox stand-in.
type Client interface {
	SubmitOrder(ctx context.Context, order OrderRequest) (*OrderResponse, error)
	TransactionStatus(ctx context.Context, trackingID string) (*TransactionStatus, error)
}

// Simulator is the extra surface the sandbox client exposes so the hosted
// "simulate payment" page can record an outcome.
type Simulator interface {
	SetResult(trackingID string, status Status) error
}

// New selects the client from configuration. Sandbox mode is explicit, but
// missing credentials also force it so the flow stays runnable offline.
func New(cfg config.GatewayConfig, appBaseURL string) Client {
	if cfg.Sandbox || cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return NewSandboxClient(appBaseURL)
	}
	return NewPesapalClient(cfg)
}
