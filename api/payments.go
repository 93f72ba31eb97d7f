package api

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nyikasafaris/safaribooking/internal/domain"
	"github.com/nyikasafaris/safaribooking/internal/gateway"
	"github.com/nyikasafaris/safaribooking/internal/service/payment"
)

type PaymentHandler struct {
	service payment.PaymentUseCase
	gateway gateway.Client
}

type initiatePaymentRequest struct {
	BookingID int64 `json:"booking_id"`
}

type initiatePaymentResponse struct {
	PaymentID   int64  `json:"payment_id"`
	TrackingID  string `json:"tracking_id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirect_url"`
}

type paymentStatusResponse struct {
	TrackingID       string `json:"tracking_id"`
	Status           string `json:"status"`
	AmountCents      int64  `json:"amount_cents"`
	Currency         string `json:"currency"`
	Method           string `json:"method,omitempty"`
	PaidAt           string `json:"paid_at,omitempty"`
	BookingReference string `json:"booking_reference"`
	BookingStatus    string `json:"booking_status"`
	NextStep         string `json:"next_step,omitempty"`
}

func NewPaymentHandler(service payment.PaymentUseCase, gw gateway.Client) *PaymentHandler {
	return &PaymentHandler{service: service, gateway: gw}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/orders", h.initiate)
	router.GET("/status", h.status)
	router.GET("/callback", h.callback)
	router.GET("/simulate", h.simulatePage)
	router.POST("/simulate", h.simulateSubmit)
}

func (h *PaymentHandler) initiate(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.InitiatePayment(c.Request.Context(), req.BookingID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, initiatePaymentResponse{
		PaymentID:   result.Payment.ID,
		TrackingID:  result.Payment.TrackingID,
		Status:      string(result.Payment.Status),
		RedirectURL: result.RedirectURL,
	})
}

// status accepts either a gateway tracking id or a booking id.
func (h *PaymentHandler) status(c *gin.Context) {
	result, err := h.resolve(c)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatusResponse(result))
}

// callback is where the gateway sends the customer after the hosted payment
// page. It reconciles and answers with the reference plus next-step guidance
// instead of a raw error.
func (h *PaymentHandler) callback(c *gin.Context) {
	trackingID := c.Query("OrderTrackingId")
	if trackingID == "" {
		trackingID = c.Query("tracking_id")
	}
	if trackingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tracking id"})
		return
	}

	result, err := h.service.StatusByTrackingID(c.Request.Context(), trackingID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatusResponse(result))
}

func (h *PaymentHandler) resolve(c *gin.Context) (*payment.StatusResult, error) {
	if trackingID := c.Query("tracking_id"); trackingID != "" {
		return h.service.StatusByTrackingID(c.Request.Context(), trackingID)
	}
	if raw := c.Query("booking_id"); raw != "" {
		bookingID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, domain.ValidationError{Field: "booking_id", Msg: "must be numeric"}
		}
		return h.service.StatusByBookingID(c.Request.Context(), bookingID)
	}
	return nil, domain.ValidationError{Msg: "tracking_id or booking_id is required"}
}

func toStatusResponse(result *payment.StatusResult) paymentStatusResponse {
	resp := paymentStatusResponse{
		TrackingID:       result.Payment.TrackingID,
		Status:           string(result.Payment.Status),
		AmountCents:      result.Payment.AmountCents,
		Currency:         result.Payment.Currency,
		Method:           result.Payment.Method,
		BookingReference: result.Booking.ReferenceNumber,
		BookingStatus:    string(result.Booking.Status),
	}
	if result.Payment.PaidAt != nil {
		resp.PaidAt = result.Payment.PaidAt.Format(time.RFC3339)
	}
	if result.Payment.Status == domain.PaymentStatusFailed {
		resp.NextStep = "Payment did not go through. You can retry the payment or contact support quoting your booking reference."
	}
	return resp
}

// simulatePage renders the self-hosted stand-in for the gateway's payment
// page. Only available when the sandbox client is configured.
func (h *PaymentHandler) simulatePage(c *gin.Context) {
	if _, ok := h.gateway.(gateway.Simulator); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "sandbox mode is not enabled"})
		return
	}
	trackingID := c.Query("tracking_id")
	if trackingID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing tracking id"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	_ = simulateTmpl.Execute(c.Writer, gin.H{"TrackingID": trackingID})
}

func (h *PaymentHandler) simulateSubmit(c *gin.Context) {
	sim, ok := h.gateway.(gateway.Simulator)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "sandbox mode is not enabled"})
		return
	}

	trackingID := c.PostForm("tracking_id")
	result := c.PostForm("result")

	status := gateway.StatusFailed
	if result == "success" {
		status = gateway.StatusCompleted
	}
	if err := sim.SetResult(trackingID, status); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/payments/callback?tracking_id=%s", trackingID))
}

var simulateTmpl = template.Must(template.New("simulate").Parse(`<!DOCTYPE html>
<html>
<head><title>Simulate payment</title></head>
<body>
<h1>Sandbox payment</h1>
<p>Order {{.TrackingID}}</p>
<form method="POST" action="/payments/simulate">
<input type="hidden" name="tracking_id" value="{{.TrackingID}}">
<button name="result" value="success">Pay</button>
<button name="result" value="failure">Fail payment</button>
</form>
</body>
</html>`))
