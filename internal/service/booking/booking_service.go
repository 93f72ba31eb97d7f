package booking

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nyikasafaris/safaribooking/internal/clock"
	"github.com/nyikasafaris/safaribooking/internal/domain"
	"github.com/nyikasafaris/safaribooking/internal/kafka"
	"github.com/nyikasafaris/safaribooking/internal/repository"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

const (
	defaultUrgentThresholdDays = 7
	defaultCurrency            = "USD"

	referencePrefix = "EXP-"
	referenceSeqMod = 36 * 36
)

type BookingService struct {
	bookings           repository.BookingRepository
	packages           repository.PackageRepository
	producer           Producer
	notificationsTopic string
	clock              clock.Clock
	logger             *logrus.Logger

	urgentThresholdDays int
	defaultCurrency     string
	refSeq              atomic.Uint64
}

type CreateBookingInput struct {
	PackageID       *int64               `json:"package_id"`
	CustomerName    string               `json:"customer_name"`
	Email           string               `json:"email"`
	Phone           string               `json:"phone"`
	Country         string               `json:"country"`
	TravelDate      time.Time            `json:"travel_date"`
	Guests          int                  `json:"guests"`
	GuestDetails    []domain.GuestDetail `json:"guest_details"`
	SpecialRequests string               `json:"special_requests"`
}

// CreateBookingResult carries the urgency flag so the caller can branch to
// either the inquiry confirmation page or the payment flow.
type CreateBookingResult struct {
	Booking *domain.Booking
	Urgent  bool
}

type BookingServiceOption func(*BookingService)

func WithUrgentThresholdDays(days int) BookingServiceOption {
	return func(s *BookingService) {
		if days > 0 {
			s.urgentThresholdDays = days
		}
	}
}

func WithDefaultCurrency(currency string) BookingServiceOption {
	return func(s *BookingService) {
		if currency != "" {
			s.defaultCurrency = currency
		}
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	packages repository.PackageRepository,
	producer Producer,
	notificationsTopic string,
	clk clock.Clock,
	logger *logrus.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:            bookings,
		packages:            packages,
		producer:            producer,
		notificationsTopic:  notificationsTopic,
		clock:               clk,
		logger:              logger,
		urgentThresholdDays: defaultUrgentThresholdDays,
		defaultCurrency:     defaultCurrency,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*CreateBookingResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if input.TravelDate.Before(now.Truncate(24 * time.Hour)) {
		return nil, domain.ValidationError{Field: "travel_date", Msg: "must not be in the past"}
	}

	urgent := daysUntil(now, input.TravelDate) < s.urgentThresholdDays

	status := domain.BookingStatusPending
	if urgent {
		status = domain.BookingStatusInquiry
	}

	booking := &domain.Booking{
		ReferenceNumber: s.newReference(now),
		PackageID:       input.PackageID,
		CustomerName:    input.CustomerName,
		Email:           input.Email,
		Phone:           input.Phone,
		Country:         input.Country,
		TravelDate:      input.TravelDate,
		Guests:          input.Guests,
		GuestDetails:    input.GuestDetails,
		SpecialRequests: input.SpecialRequests,
		Currency:        s.defaultCurrency,
		Status:          status,
	}

	if input.PackageID != nil {
		pkg, err := s.packages.GetByID(ctx, *input.PackageID)
		if err != nil {
			return nil, err
		}
		total := pkg.PriceCents * int64(input.Guests)
		booking.TotalCents = &total
		booking.Currency = pkg.Currency
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	eventType := kafka.NotificationBookingCreated
	if urgent {
		eventType = kafka.NotificationInquiryReceived
	}
	s.publish(ctx, eventType, booking)

	return &CreateBookingResult{Booking: booking, Urgent: urgent}, nil
}

func (s *BookingService) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return s.bookings.GetByReference(ctx, reference)
}

// UpdateStatus backs the staff surface (confirm, cancel), addressed by the
// same reference number customers quote. Illegal moves are rejected by the
// repository against the transition table.
func (s *BookingService) UpdateStatus(ctx context.Context, reference string, status domain.BookingStatus) (*domain.Booking, error) {
	if !status.Valid() {
		return nil, domain.ValidationError{Field: "status", Msg: "unknown status " + string(status)}
	}
	b, err := s.bookings.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	return s.bookings.UpdateStatus(ctx, b.ID, status)
}

// publish is best-effort: notification is a side channel and must never fail
// the booking write.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}
	event := kafka.NotificationEvent{
		Type:            eventType,
		ReferenceNumber: booking.ReferenceNumber,
		BookingID:       booking.ID,
		CustomerName:    booking.CustomerName,
		Email:           booking.Email,
		TravelDate:      booking.TravelDate,
		Guests:          booking.Guests,
		TotalCents:      booking.TotalCents,
		Currency:        booking.Currency,
		Status:          string(booking.Status),
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, booking.ReferenceNumber, event); err != nil {
		s.logger.WithError(err).WithField("reference", booking.ReferenceNumber).Warn("failed to publish notification event")
	}
}

// newReference builds the human-shareable reference: prefix plus a base36
// timestamp token and a two-character sequence that keeps rapid creations
// within the same instant distinct.
func (s *BookingService) newReference(now time.Time) string {
	seq := s.refSeq.Add(1) % referenceSeqMod
	suffix := strconv.FormatUint(seq, 36)
	if len(suffix) < 2 {
		suffix = "0" + suffix
	}
	token := strconv.FormatInt(now.UnixNano(), 36) + suffix
	return referencePrefix + strings.ToUpper(token)
}

func validateInput(input CreateBookingInput) error {
	switch {
	case strings.TrimSpace(input.CustomerName) == "":
		return domain.ValidationError{Field: "customer_name", Msg: "required"}
	case strings.TrimSpace(input.Email) == "":
		return domain.ValidationError{Field: "email", Msg: "required"}
	case strings.TrimSpace(input.Phone) == "":
		return domain.ValidationError{Field: "phone", Msg: "required"}
	case input.TravelDate.IsZero():
		return domain.ValidationError{Field: "travel_date", Msg: "required"}
	case input.Guests <= 0:
		return domain.ValidationError{Field: "guests", Msg: "must be positive"}
	}
	return nil
}

// daysUntil counts whole days between now and the travel date, rounding up.
// A date exactly seven days out is therefore not urgent.
func daysUntil(now, travel time.Time) int {
	diff := travel.Sub(now)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}

var _ BookingUseCase = (*BookingService)(nil)
