package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Terminal reports whether the status is final. Terminal payments are never
// re-queried against the gateway.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	return s == PaymentStatusPending && to.Terminal()
}

type Payment struct {
	ID            int64
	BookingID     int64
	TrackingID    string
	TransactionID string
	AmountCents   int64
	Currency      string
	Status        PaymentStatus
	Method        string
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
