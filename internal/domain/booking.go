package domain

import "time"

type BookingStatus string

const (
	BookingStatusInquiry   BookingStatus = "INQUIRY"
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusPaid      BookingStatus = "PAID"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// bookingTransitions lists every allowed status move. INQUIRY bookings are
// handled by staff, so they only ever get confirmed or cancelled manually.
// PAID and CANCELLED are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusInquiry:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusPaid, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusPaid, BookingStatusCancelled},
	BookingStatusPaid:      {},
	BookingStatusCancelled: {},
}

func (s BookingStatus) Valid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransition reports whether moving from s to the given status is allowed.
func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionSources lists every status allowed to move to the given status,
// so status-guarded SQL updates enforce the same table as CanTransition.
func TransitionSources(to BookingStatus) []BookingStatus {
	var sources []BookingStatus
	for from, allowed := range bookingTransitions {
		for _, next := range allowed {
			if next == to {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

type GuestDetail struct {
	Name string `json:"name"`
	Age  int    `json:"age,omitempty"`
}

type Booking struct {
	ID              int64
	ReferenceNumber string
	PackageID       *int64
	CustomerName    string
	Email           string
	Phone           string
	Country         string
	TravelDate      time.Time
	Guests          int
	GuestDetails    []GuestDetail
	SpecialRequests string
	TotalCents      *int64
	Currency        string
	Status          BookingStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
