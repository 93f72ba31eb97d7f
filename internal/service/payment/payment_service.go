package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyikasafaris/safaribooking/internal/clock"
	"github.com/nyikasafaris/safaribooking/internal/domain"
	"github.com/nyikasafaris/safaribooking/internal/gateway"
	"github.com/nyikasafaris/safaribooking/internal/kafka"
	"github.com/nyikasafaris/safaribooking/internal/repository"
	"github.com/sirupsen/logrus"
)

type PaymentUseCase interface {
	InitiatePayment(ctx context.Context, bookingID int64) (*InitiateResult, error)
	StatusByTrackingID(ctx context.Context, trackingID string) (*StatusResult, error)
	StatusByBookingID(ctx context.Context, bookingID int64) (*StatusResult, error)
}

type Gateway interface {
	SubmitOrder(ctx context.Context, order gateway.OrderRequest) (*gateway.OrderResponse, error)
	TransactionStatus(ctx context.Context, trackingID string) (*gateway.TransactionStatus, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PaymentService struct {
	payments           repository.PaymentRepository
	bookings           repository.BookingRepository
	gateway            Gateway
	producer           Producer
	notificationsTopic string
	callbackURL        string
	clock              clock.Clock
	logger             *logrus.Logger
}

type InitiateResult struct {
	Payment     *domain.Payment
	RedirectURL string
}

type StatusResult struct {
	Payment *domain.Payment
	Booking *domain.Booking
}

type PaymentServiceOption func(*PaymentService)

func WithNotificationsTopic(topic string) PaymentServiceOption {
	return func(s *PaymentService) {
		s.notificationsTopic = topic
	}
}

func NewPaymentService(
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	gw Gateway,
	producer Producer,
	callbackURL string,
	clk clock.Clock,
	logger *logrus.Logger,
	opts ...PaymentServiceOption,
) *PaymentService {
	service := &PaymentService{
		payments:    payments,
		bookings:    bookings,
		gateway:     gw,
		producer:    producer,
		callbackURL: callbackURL,
		clock:       clk,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// InitiatePayment submits a payment order for a non-urgent booking and
// persists the PENDING payment before anyone is redirected.
func (s *PaymentService) InitiatePayment(ctx context.Context, bookingID int64) (*InitiateResult, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case domain.BookingStatusInquiry:
		return nil, domain.ValidationError{Field: "booking", Msg: "urgent inquiries are handled by staff"}
	case domain.BookingStatusPaid:
		return nil, domain.ValidationError{Field: "booking", Msg: "already paid"}
	case domain.BookingStatusCancelled:
		return nil, domain.ValidationError{Field: "booking", Msg: "cancelled"}
	}
	if booking.TotalCents == nil {
		return nil, domain.ValidationError{Field: "booking", Msg: "no priced package attached"}
	}

	first, last := splitName(booking.CustomerName)
	order := gateway.OrderRequest{
		// The gateway requires a fresh merchant reference per order, so
		// retries for the same booking get a timestamp suffix.
		MerchantReference: fmt.Sprintf("%s-%d", booking.ReferenceNumber, s.clock.Now().Unix()),
		AmountCents:       *booking.TotalCents,
		Currency:          booking.Currency,
		Description:       fmt.Sprintf("Booking %s for %d guest(s)", booking.ReferenceNumber, booking.Guests),
		CallbackURL:       s.callbackURL,
		Billing: gateway.BillingContact{
			Email:       booking.Email,
			Phone:       booking.Phone,
			FirstName:   first,
			LastName:    last,
			CountryCode: booking.Country,
		},
	}

	resp, err := s.gateway.SubmitOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		BookingID:   booking.ID,
		TrackingID:  resp.TrackingID,
		AmountCents: *booking.TotalCents,
		Currency:    booking.Currency,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	return &InitiateResult{Payment: payment, RedirectURL: resp.RedirectURL}, nil
}

func (s *PaymentService) StatusByTrackingID(ctx context.Context, trackingID string) (*StatusResult, error) {
	payment, err := s.payments.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, payment)
}

// StatusByBookingID resolves retries with a most-recent-wins rule before
// reconciling.
func (s *PaymentService) StatusByBookingID(ctx context.Context, bookingID int64) (*StatusResult, error) {
	payment, err := s.payments.LatestByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.reconcile(ctx, payment)
}

// reconcile brings the stored payment in line with the gateway. Terminal
// payments are returned as-is without a gateway call. An ambiguous or failed
// gateway response leaves the stored PENDING state untouched.
func (s *PaymentService) reconcile(ctx context.Context, payment *domain.Payment) (*StatusResult, error) {
	if payment.Status.Terminal() {
		return s.snapshot(ctx, payment)
	}

	status, err := s.gateway.TransactionStatus(ctx, payment.TrackingID)
	if err != nil {
		return nil, err
	}

	switch status.Status {
	case gateway.StatusCompleted:
		updated, err := s.payments.Complete(ctx, payment.ID, status.PaymentMethod, status.ConfirmationCode, s.clock.Now())
		if err != nil {
			return nil, err
		}
		result, err := s.snapshot(ctx, updated)
		if err != nil {
			return nil, err
		}
		s.publishCompleted(ctx, result)
		return result, nil
	case gateway.StatusFailed:
		updated, err := s.payments.MarkFailed(ctx, payment.ID)
		if err != nil {
			return nil, err
		}
		return s.snapshot(ctx, updated)
	default:
		return s.snapshot(ctx, payment)
	}
}

func (s *PaymentService) snapshot(ctx context.Context, payment *domain.Payment) (*StatusResult, error) {
	booking, err := s.bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{Payment: payment, Booking: booking}, nil
}

func (s *PaymentService) publishCompleted(ctx context.Context, result *StatusResult) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}
	event := kafka.NotificationEvent{
		Type:            kafka.NotificationPaymentCompleted,
		ReferenceNumber: result.Booking.ReferenceNumber,
		BookingID:       result.Booking.ID,
		CustomerName:    result.Booking.CustomerName,
		Email:           result.Booking.Email,
		TravelDate:      result.Booking.TravelDate,
		Guests:          result.Booking.Guests,
		TotalCents:      result.Booking.TotalCents,
		Currency:        result.Booking.Currency,
		Status:          string(result.Booking.Status),
		PaymentStatus:   string(result.Payment.Status),
		PaidAt:          result.Payment.PaidAt,
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, result.Booking.ReferenceNumber, event); err != nil {
		s.logger.WithError(err).WithField("reference", result.Booking.ReferenceNumber).Warn("failed to publish payment notification")
	}
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

var _ PaymentUseCase = (*PaymentService)(nil)
