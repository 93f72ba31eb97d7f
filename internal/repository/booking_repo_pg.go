package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nyikasafaris/safaribooking/internal/domain"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference_number, package_id, customer_name, email, phone, country, travel_date, guests, guest_details, special_requests, total_cents, currency, status, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	details, err := json.Marshal(booking.GuestDetails)
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `INSERT INTO bookings (reference_number, package_id, customer_name, email, phone, country, travel_date, guests, guest_details, special_requests, total_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		booking.ReferenceNumber, booking.PackageID, booking.CustomerName, booking.Email, booking.Phone, booking.Country,
		booking.TravelDate, booking.Guests, details, booking.SpecialRequests, booking.TotalCents, booking.Currency, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	return scanBooking(row)
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference_number=$1`, reference)
	return scanBooking(row)
}

// UpdateStatus applies the transition table at the write boundary: the row is
// only touched when the stored status allows the move.
func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (*domain.Booking, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransition(status) {
		return nil, domain.TransitionError{Entity: "booking", From: string(current.Status), To: string(status)}
	}

	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3 RETURNING `+bookingColumns, status, id, current.Status)
	updated, err := scanBooking(row)
	if domain.IsNotFound(err) {
		// Lost a race: someone moved the status between read and write.
		return nil, domain.TransitionError{Entity: "booking", From: string(current.Status), To: string(status)}
	}
	return updated, err
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b       domain.Booking
		details []byte
	)
	if err := row.Scan(&b.ID, &b.ReferenceNumber, &b.PackageID, &b.CustomerName, &b.Email, &b.Phone, &b.Country,
		&b.TravelDate, &b.Guests, &details, &b.SpecialRequests, &b.TotalCents, &b.Currency, &b.Status,
		&b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFoundError{Resource: "booking", Err: err}
		}
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &b.GuestDetails); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
