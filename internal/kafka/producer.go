package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Notification kinds consumed by the worker.
const (
	NotificationInquiryReceived  = "inquiry_received"
	NotificationBookingCreated   = "booking_created"
	NotificationPaymentCompleted = "payment_completed"
)

type NotificationEvent struct {
	Type            string     `json:"type"`
	ReferenceNumber string     `json:"reference_number"`
	BookingID       int64      `json:"booking_id"`
	CustomerName    string     `json:"customer_name"`
	Email           string     `json:"email"`
	TravelDate      time.Time  `json:"travel_date"`
	Guests          int        `json:"guests"`
	TotalCents      *int64     `json:"total_cents,omitempty"`
	Currency        string     `json:"currency,omitempty"`
	Status          string     `json:"status"`
	PaymentStatus   string     `json:"payment_status,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
