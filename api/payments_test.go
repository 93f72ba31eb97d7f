package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nyikasafaris/safaribooking/internal/domain"
	"github.com/nyikasafaris/safaribooking/internal/gateway"
	"github.com/nyikasafaris/safaribooking/internal/service/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPaymentUseCase struct {
	mock.Mock
}

func (m *MockPaymentUseCase) InitiatePayment(ctx context.Context, bookingID int64) (*payment.InitiateResult, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.InitiateResult), args.Error(1)
}

func (m *MockPaymentUseCase) StatusByTrackingID(ctx context.Context, trackingID string) (*payment.StatusResult, error) {
	args := m.Called(ctx, trackingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.StatusResult), args.Error(1)
}

func (m *MockPaymentUseCase) StatusByBookingID(ctx context.Context, bookingID int64) (*payment.StatusResult, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.StatusResult), args.Error(1)
}

// liveOnlyGateway implements gateway.Client without the Simulator surface.
type liveOnlyGateway struct{}

func (liveOnlyGateway) SubmitOrder(context.Context, gateway.OrderRequest) (*gateway.OrderResponse, error) {
	return nil, domain.GatewayError{Op: "submit order"}
}

func (liveOnlyGateway) TransactionStatus(context.Context, string) (*gateway.TransactionStatus, error) {
	return nil, domain.GatewayError{Op: "transaction status"}
}

func newPaymentRouter(service payment.PaymentUseCase, gw gateway.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewPaymentHandler(service, gw).Register(router.Group("/payments"))
	return router
}

func testStatusResult(paymentStatus domain.PaymentStatus, bookingStatus domain.BookingStatus) *payment.StatusResult {
	p := &domain.Payment{
		ID:          7,
		BookingID:   1,
		TrackingID:  "TRK-1",
		AmountCents: 100000,
		Currency:    "USD",
		Status:      paymentStatus,
	}
	if paymentStatus == domain.PaymentStatusCompleted {
		p.Method = "Visa"
		paidAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		p.PaidAt = &paidAt
	}
	return &payment.StatusResult{
		Payment: p,
		Booking: testBooking(bookingStatus),
	}
}

func TestPaymentHandler_Initiate(t *testing.T) {
	service := &MockPaymentUseCase{}
	router := newPaymentRouter(service, liveOnlyGateway{})

	service.On("InitiatePayment", mock.Anything, int64(1)).Return(&payment.InitiateResult{
		Payment: &domain.Payment{
			ID:         7,
			BookingID:  1,
			TrackingID: "TRK-1",
			Status:     domain.PaymentStatusPending,
		},
		RedirectURL: "https://pay.example/TRK-1",
	}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/payments/orders", bytes.NewBufferString(`{"booking_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp initiatePaymentResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "TRK-1", resp.TrackingID)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "https://pay.example/TRK-1", resp.RedirectURL)
	service.AssertExpectations(t)
}

func TestPaymentHandler_Initiate_UrgentBookingRejected(t *testing.T) {
	service := &MockPaymentUseCase{}
	router := newPaymentRouter(service, liveOnlyGateway{})

	service.On("InitiatePayment", mock.Anything, int64(2)).
		Return(nil, domain.ValidationError{Field: "booking", Msg: "urgent inquiries are handled by staff"}).Once()

	req := httptest.NewRequest(http.MethodPost, "/payments/orders", bytes.NewBufferString(`{"booking_id":2}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Initiate_GatewayDown(t *testing.T) {
	service := &MockPaymentUseCase{}
	router := newPaymentRouter(service, liveOnlyGateway{})

	service.On("InitiatePayment", mock.Anything, int64(1)).
		Return(nil, domain.GatewayError{Op: "submit order"}).Once()

	req := httptest.NewRequest(http.MethodPost, "/payments/orders", bytes.NewBufferString(`{"booking_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPaymentHandler_Status_ByTrackingID(t *testing.T) {
	service := &MockPaymentUseCase{}
	router := newPaymentRouter(service, liveOnlyGateway{})

	service.On("StatusByTrackingID", mock.Anything, "TRK-1").
		Return(testStatusResult(domain.PaymentStatusCompleted, domain.BookingStatusPaid), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/payments/status?tracking_id=TRK-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp paymentStatusResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COMPLETED", resp.Status)
	assert.Equal(t, "PAID", resp.BookingStatus)
	assert.Equal(t, "EXP-TEST1", resp.BookingReference)
	assert.NotEmpty(t, resp.PaidAt)
	assert.Empty(t, resp.NextStep)
}

func TestPaymentHandler_Status_ByBookingID(t *testing.T) {
	service := &MockPaymentUseCase{}
	router := newPaymentRouter(service, liveOnlyGateway{})

	service.On("StatusByBookingID", mock.Anything, int64(1)).
		Return(testStatusResult(domain.PaymentStatusPending, domain.BookingStatusPending), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/payments/status?booking_id=1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertNotCalled(t, "StatusByTrackingID", mock.Anything, mock.Anything)
}

func TestPaymentHandler_Status_MissingParams(t *testing.T) {
	service := &MockPaymentUseCase{}
	router := newPaymentRouter(service, liveOnlyGateway{})

	req := httptest.NewRequest(http.MethodGet, "/payments/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Status_FailedIncludesNextStep(t *testing.T) {
	service := &MockPaymentUseCase{}
	router := newPaymentRouter(service, liveOnlyGateway{})

	service.On("StatusByTrackingID", mock.Anything, "TRK-1").
		Return(testStatusResult(domain.PaymentStatusFailed, domain.BookingStatusPending), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/payments/status?tracking_id=TRK-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp paymentStatusResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "FAILED", resp.Status)
	assert.Equal(t, "PENDING", resp.BookingStatus)
	assert.NotEmpty(t, resp.NextStep)
}

func TestPaymentHandler_Callback_AcceptsGatewayParamName(t *testing.T) {
	service := &MockPaymentUseCase{}
	router := newPaymentRouter(service, liveOnlyGateway{})

	service.On("StatusByTrackingID", mock.Anything, "TRK-1").
		Return(testStatusResult(domain.PaymentStatusCompleted, domain.BookingStatusPaid), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/payments/callback?OrderTrackingId=TRK-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestPaymentHandler_Callback_MissingTrackingID(t *testing.T) {
	service := &MockPaymentUseCase{}
	router := newPaymentRouter(service, liveOnlyGateway{})

	req := httptest.NewRequest(http.MethodGet, "/payments/callback", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_SimulatePage(t *testing.T) {
	service := &MockPaymentUseCase{}
	router := newPaymentRouter(service, gateway.NewSandboxClient("http://localhost:8080"))

	req := httptest.NewRequest(http.MethodGet, "/payments/simulate?tracking_id=SBX-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "SBX-1")
}

func TestPaymentHandler_Simulate_NotFoundWithoutSandbox(t *testing.T) {
	service := &MockPaymentUseCase{}
	router := newPaymentRouter(service, liveOnlyGateway{})

	req := httptest.NewRequest(http.MethodGet, "/payments/simulate?tracking_id=SBX-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentHandler_SimulateSubmit_RedirectsToCallback(t *testing.T) {
	service := &MockPaymentUseCase{}
	sandbox := gateway.NewSandboxClient("http://localhost:8080")
	router := newPaymentRouter(service, sandbox)

	order, err := sandbox.SubmitOrder(context.Background(), gateway.OrderRequest{MerchantReference: "EXP-TEST1", AmountCents: 100000, Currency: "USD"})
	assert.NoError(t, err)

	form := url.Values{"tracking_id": {order.TrackingID}, "result": {"success"}}
	req := httptest.NewRequest(http.MethodPost, "/payments/simulate", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/payments/callback?tracking_id="+order.TrackingID, w.Header().Get("Location"))

	status, err := sandbox.TransactionStatus(context.Background(), order.TrackingID)
	assert.NoError(t, err)
	assert.Equal(t, gateway.StatusCompleted, status.Status)
}
