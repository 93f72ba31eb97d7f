package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nyikasafaris/safaribooking/internal/domain"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.Payment, error)
	LatestByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error)
	Complete(ctx context.Context, paymentID int64, method, transactionID string, paidAt time.Time) (*domain.Payment, error)
	MarkFailed(ctx context.Context, paymentID int64) (*domain.Payment, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, tracking_id, transaction_id, amount_cents, currency, status, method, paid_at, created_at, updated_at`

func (r *PGPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	payment.Status = domain.PaymentStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO payments (booking_id, tracking_id, transaction_id, amount_cents, currency, status, method)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		payment.BookingID, payment.TrackingID, payment.TransactionID, payment.AmountCents, payment.Currency, payment.Status, payment.Method).
		Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
}

func (r *PGPaymentRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE tracking_id=$1`, trackingID)
	return scanPayment(row)
}

// LatestByBookingID resolves retries with a most-recent-wins rule.
func (r *PGPaymentRepository) LatestByBookingID(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1`, bookingID)
	return scanPayment(row)
}

// Complete marks the payment COMPLETED and the owning booking PAID in one
// transaction. The guard on the current PENDING status makes a second call a
// no-op, so two concurrent reconciliations cannot double-apply. The booking
// half only matches statuses the transition table allows into PAID; when
// staff cancelled the booking while the gateway held the funds, the payment
// still records COMPLETED and the booking keeps its status for staff
// follow-up.
func (r *PGPaymentRepository) Complete(ctx context.Context, paymentID int64, method, transactionID string, paidAt time.Time) (*domain.Payment, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `UPDATE payments SET status=$1, method=$2, transaction_id=$3, paid_at=$4, updated_at=now()
		WHERE id=$5 AND status=$6 RETURNING `+paymentColumns,
		domain.PaymentStatusCompleted, method, transactionID, paidAt, paymentID, domain.PaymentStatusPending)
	payment, err := scanPayment(row)
	if err != nil {
		if domain.IsNotFound(err) {
			// Already terminal: return the stored row untouched.
			return r.getByID(ctx, paymentID)
		}
		return nil, err
	}

	if _, err := tx.Exec(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status = ANY($3)`,
		domain.BookingStatusPaid, payment.BookingID, statusStrings(domain.TransitionSources(domain.BookingStatusPaid))); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return payment, nil
}

// MarkFailed flips a PENDING payment to FAILED. The booking keeps its status
// so the customer can retry.
func (r *PGPaymentRepository) MarkFailed(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `UPDATE payments SET status=$1, updated_at=now() WHERE id=$2 AND status=$3 RETURNING `+paymentColumns,
		domain.PaymentStatusFailed, paymentID, domain.PaymentStatusPending)
	payment, err := scanPayment(row)
	if domain.IsNotFound(err) {
		return r.getByID(ctx, paymentID)
	}
	return payment, err
}

func (r *PGPaymentRepository) getByID(ctx context.Context, id int64) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id)
	return scanPayment(row)
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(&p.ID, &p.BookingID, &p.TrackingID, &p.TransactionID, &p.AmountCents, &p.Currency,
		&p.Status, &p.Method, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "payment", Err: err}
		}
		return nil, err
	}
	return &p, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
