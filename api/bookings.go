package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nyikasafaris/safaribooking/internal/domain"
	"github.com/nyikasafaris/safaribooking/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	PackageID       *int64               `json:"package_id"`
	CustomerName    string               `json:"customer_name"`
	Email           string               `json:"email"`
	Phone           string               `json:"phone"`
	Country         string               `json:"country"`
	TravelDate      string               `json:"travel_date"`
	Guests          int                  `json:"guests"`
	GuestDetails    []domain.GuestDetail `json:"guest_details"`
	SpecialRequests string               `json:"special_requests"`
}

type bookingResponse struct {
	ID              int64  `json:"id"`
	ReferenceNumber string `json:"reference_number"`
	Status          string `json:"status"`
	Urgent          bool   `json:"urgent"`
	TravelDate      string `json:"travel_date"`
	Guests          int    `json:"guests"`
	TotalCents      *int64 `json:"total_cents,omitempty"`
	Currency        string `json:"currency,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:reference", h.get)
	router.PUT("/:reference/status", h.updateStatus)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var travelDate time.Time
	if req.TravelDate != "" {
		parsed, err := time.Parse("2006-01-02", req.TravelDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "travel_date must be YYYY-MM-DD"})
			return
		}
		travelDate = parsed
	}

	result, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		PackageID:       req.PackageID,
		CustomerName:    req.CustomerName,
		Email:           req.Email,
		Phone:           req.Phone,
		Country:         req.Country,
		TravelDate:      travelDate,
		Guests:          req.Guests,
		GuestDetails:    req.GuestDetails,
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(result.Booking, result.Urgent))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b, b.Status == domain.BookingStatusInquiry))
}

// updateStatus is the staff surface for CONFIRMED and CANCELLED moves,
// addressed by the booking reference like the customer lookup.
func (h *BookingHandler) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), c.Param("reference"), domain.BookingStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b, b.Status == domain.BookingStatusInquiry))
}

func toBookingResponse(b *domain.Booking, urgent bool) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		ReferenceNumber: b.ReferenceNumber,
		Status:          string(b.Status),
		Urgent:          urgent,
		TravelDate:      b.TravelDate.Format("2006-01-02"),
		Guests:          b.Guests,
		TotalCents:      b.TotalCents,
		Currency:        b.Currency,
	}
}
