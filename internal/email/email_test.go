package email

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nyikasafaris/safaribooking/config"
	"github.com/nyikasafaris/safaribooking/internal/kafka"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type capturedMail struct {
	to  string
	msg string
}

func newTestSender(sendErr error) (*Sender, *[]capturedMail) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	sender := NewSender(config.SMTPConfig{
		From:       "bookings@nyikasafaris.example",
		AdminEmail: "office@nyikasafaris.example",
	}, logger)

	var sent []capturedMail
	sender.send = func(to string, msg []byte) error {
		if sendErr != nil {
			return sendErr
		}
		sent = append(sent, capturedMail{to: to, msg: string(msg)})
		return nil
	}
	return sender, &sent
}

func testEvent(eventType string) kafka.NotificationEvent {
	total := int64(100000)
	paidAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return kafka.NotificationEvent{
		Type:            eventType,
		ReferenceNumber: "EXP-TEST1",
		CustomerName:    "Jane Mwangi",
		Email:           "jane@example.com",
		TravelDate:      time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		Guests:          2,
		TotalCents:      &total,
		Currency:        "USD",
		PaymentStatus:   "COMPLETED",
		PaidAt:          &paidAt,
	}
}

func TestSender_Dispatch_InquirySendsCustomerAndAdmin(t *testing.T) {
	sender, sent := newTestSender(nil)

	sender.Dispatch(context.Background(), testEvent(kafka.NotificationInquiryReceived))

	assert.Len(t, *sent, 2)
	assert.Equal(t, "jane@example.com", (*sent)[0].to)
	assert.Equal(t, "office@nyikasafaris.example", (*sent)[1].to)
	assert.Contains(t, (*sent)[1].msg, "URGENT")
}

func TestSender_Dispatch_BookingCreatedSendsAdminOnly(t *testing.T) {
	sender, sent := newTestSender(nil)

	sender.Dispatch(context.Background(), testEvent(kafka.NotificationBookingCreated))

	assert.Len(t, *sent, 1)
	assert.Equal(t, "office@nyikasafaris.example", (*sent)[0].to)
}

func TestSender_Dispatch_PaymentCompletedSendsCustomer(t *testing.T) {
	sender, sent := newTestSender(nil)

	sender.Dispatch(context.Background(), testEvent(kafka.NotificationPaymentCompleted))

	assert.Len(t, *sent, 1)
	assert.Equal(t, "jane@example.com", (*sent)[0].to)
	assert.Contains(t, (*sent)[0].msg, "EXP-TEST1")
	assert.Contains(t, (*sent)[0].msg, "USD 1000.00")
	assert.Contains(t, (*sent)[0].msg, "COMPLETED")
}

func TestSender_Dispatch_TransportFailureIsSwallowed(t *testing.T) {
	sender, _ := newTestSender(errors.New("smtp down"))

	assert.NotPanics(t, func() {
		sender.Dispatch(context.Background(), testEvent(kafka.NotificationInquiryReceived))
	})
}

func TestSender_Dispatch_UnknownTypeIsIgnored(t *testing.T) {
	sender, sent := newTestSender(nil)

	sender.Dispatch(context.Background(), kafka.NotificationEvent{Type: "unknown"})

	assert.Empty(t, *sent)
}

func TestSender_MessageHeaders(t *testing.T) {
	sender, sent := newTestSender(nil)

	sender.Dispatch(context.Background(), testEvent(kafka.NotificationBookingCreated))

	msg := (*sent)[0].msg
	assert.True(t, strings.HasPrefix(msg, "From: bookings@nyikasafaris.example\r\n"))
	assert.Contains(t, msg, "Content-Type: text/html")
}
