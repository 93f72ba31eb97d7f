package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nyikasafaris/safaribooking/internal/domain"
)

// SandboxClient stands in for the live gateway when no credentials are
// configured. Orders are kept in memory and redirect to the self-hosted
// simulate-payment page, so the whole flow runs offline.
type SandboxClient struct {
	baseURL string

	mu     sync.Mutex
	orders map[string]*sandboxOrder
}

type sandboxOrder struct {
	request OrderRequest
	status  Status
}

func NewSandboxClient(baseURL string) *SandboxClient {
	return &SandboxClient{
		baseURL: baseURL,
		orders:  make(map[string]*sandboxOrder),
	}
}

func (c *SandboxClient) SubmitOrder(_ context.Context, order OrderRequest) (*OrderResponse, error) {
	trackingID := "SBX-" + uuid.NewString()

	c.mu.Lock()
	c.orders[trackingID] = &sandboxOrder{request: order, status: StatusPending}
	c.mu.Unlock()

	return &OrderResponse{
		TrackingID:  trackingID,
		RedirectURL: fmt.Sprintf("%s/payments/simulate?tracking_id=%s", c.baseURL, trackingID),
	}, nil
}

func (c *SandboxClient) TransactionStatus(_ context.Context, trackingID string) (*TransactionStatus, error) {
	// Snapshot under the lock: SetResult may be flipping the status while a
	// status poll is in flight.
	c.mu.Lock()
	order, ok := c.orders[trackingID]
	var status Status
	var amountCents int64
	var currency string
	if ok {
		status = order.status
		amountCents = order.request.AmountCents
		currency = order.request.Currency
	}
	c.mu.Unlock()
	if !ok {
		return nil, domain.GatewayError{Op: "transaction status", Err: fmt.Errorf("unknown tracking id %s", trackingID)}
	}

	method := ""
	code := ""
	if status == StatusCompleted {
		method = "SandboxCard"
		code = "SBX-CONFIRMED"
	}
	return &TransactionStatus{
		TrackingID:       trackingID,
		PaymentMethod:    method,
		AmountCents:      amountCents,
		Currency:         currency,
		Status:           status,
		Description:      string(status),
		ConfirmationCode: code,
	}, nil
}

// SetResult records the outcome chosen on the simulate-payment page.
func (c *SandboxClient) SetResult(trackingID string, status Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	order, ok := c.orders[trackingID]
	if !ok {
		return fmt.Errorf("unknown tracking id %s", trackingID)
	}
	order.status = status
	return nil
}

var (
	_ Client    = (*SandboxClient)(nil)
	_ Simulator = (*SandboxClient)(nil)
)
