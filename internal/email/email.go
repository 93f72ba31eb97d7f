package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/nyikasafaris/safaribooking/config"
	"github.com/nyikasafaris/safaribooking/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sender dispatches role-specific booking emails. Every send is best-effort:
// failures are logged and swallowed, never returned to the booking flow.
type Sender struct {
	cfg    config.SMTPConfig
	logger *logrus.Logger
	send   func(to string, msg []byte) error
}

func NewSender(cfg config.SMTPConfig, logger *logrus.Logger) *Sender {
	s := &Sender{cfg: cfg, logger: logger}
	s.send = s.sendSMTP
	return s
}

// Dispatch routes a notification event to the right recipients.
func (s *Sender) Dispatch(ctx context.Context, event kafka.NotificationEvent) {
	switch event.Type {
	case kafka.NotificationInquiryReceived:
		s.deliver(event.Email, fmt.Sprintf("We received your inquiry %s", event.ReferenceNumber), inquiryCustomerTmpl, event)
		s.deliver(s.cfg.AdminEmail, fmt.Sprintf("URGENT inquiry %s", event.ReferenceNumber), inquiryAdminTmpl, event)
	case kafka.NotificationBookingCreated:
		s.deliver(s.cfg.AdminEmail, fmt.Sprintf("New booking %s", event.ReferenceNumber), bookingAdminTmpl, event)
	case kafka.NotificationPaymentCompleted:
		s.deliver(event.Email, fmt.Sprintf("Payment confirmed for booking %s", event.ReferenceNumber), paymentCustomerTmpl, event)
	default:
		s.logger.WithField("type", event.Type).Warn("unknown notification event type")
	}
}

func (s *Sender) deliver(to, subject string, tmpl *template.Template, event kafka.NotificationEvent) {
	if to == "" {
		return
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, templateData(event)); err != nil {
		s.logger.WithError(err).WithField("to", to).Error("failed to render email body")
		return
	}

	msg := []byte("From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" + body.String())

	if err := s.send(to, msg); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"to": to, "subject": subject}).Error("failed to send email")
		return
	}
	s.logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("email sent")
}

func (s *Sender) sendSMTP(to string, msg []byte) error {
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	return smtp.SendMail(s.cfg.Addr(), auth, s.cfg.From, []string{to}, msg)
}

type emailData struct {
	ReferenceNumber string
	CustomerName    string
	TravelDate      string
	Guests          int
	Total           string
	PaymentStatus   string
	PaidAt          string
}

func templateData(event kafka.NotificationEvent) emailData {
	data := emailData{
		ReferenceNumber: event.ReferenceNumber,
		CustomerName:    event.CustomerName,
		TravelDate:      event.TravelDate.Format("2 January 2006"),
		Guests:          event.Guests,
		PaymentStatus:   event.PaymentStatus,
	}
	if event.TotalCents != nil {
		data.Total = fmt.Sprintf("%s %.2f", event.Currency, float64(*event.TotalCents)/100)
	}
	if event.PaidAt != nil {
		data.PaidAt = event.PaidAt.Format(time.RFC1123)
	}
	return data
}

var (
	inquiryCustomerTmpl = template.Must(template.New("inquiry_customer").Parse(`<html><body>
<p>Dear {{.CustomerName}},</p>
<p>Thank you for your inquiry <strong>{{.ReferenceNumber}}</strong> for {{.Guests}} guest(s) travelling on {{.TravelDate}}.</p>
<p>Your travel date is coming up soon, so one of our safari consultants will contact you directly to arrange the details.</p>
</body></html>`))

	inquiryAdminTmpl = template.Must(template.New("inquiry_admin").Parse(`<html><body>
<p><strong>Urgent inquiry</strong> {{.ReferenceNumber}} from {{.CustomerName}}: {{.Guests}} guest(s), travel date {{.TravelDate}}.</p>
<p>Travel is less than a week away. Contact the customer to arrange payment manually.</p>
</body></html>`))

	bookingAdminTmpl = template.Must(template.New("booking_admin").Parse(`<html><body>
<p>New booking {{.ReferenceNumber}} from {{.CustomerName}}: {{.Guests}} guest(s), travel date {{.TravelDate}}{{if .Total}}, total {{.Total}}{{end}}.</p>
<p>The customer has been sent to the payment page.</p>
</body></html>`))

	paymentCustomerTmpl = template.Must(template.New("payment_customer").Parse(`<html><body>
<p>Dear {{.CustomerName}},</p>
<p>Your payment for booking <strong>{{.ReferenceNumber}}</strong> is confirmed.</p>
<ul>
<li>Travel date: {{.TravelDate}}</li>
<li>Guests: {{.Guests}}</li>
{{if .Total}}<li>Amount: {{.Total}}</li>{{end}}
<li>Payment status: {{.PaymentStatus}}{{if .PaidAt}} ({{.PaidAt}}){{end}}</li>
</ul>
<p>We look forward to welcoming you.</p>
</body></html>`))
)
