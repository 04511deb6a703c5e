// Package email sends ticket and account verification mail over SMTP.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/url"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	dialer    Dialer
	from      string
	publicURL string
	log       logrus.FieldLogger
}

func NewSender(cfg config.SMTPConfig, publicURL string, log logrus.FieldLogger) *Sender {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return NewSenderWithDialer(dialer, cfg.From, publicURL, log)
}

func NewSenderWithDialer(dialer Dialer, from, publicURL string, log logrus.FieldLogger) *Sender {
	return &Sender{dialer: dialer, from: from, publicURL: publicURL, log: log}
}

func (s *Sender) TicketIssued(ctx context.Context, booking *domain.Booking, flight *domain.Flight) error {
	if booking.Email == "" {
		return nil
	}
	subject := fmt.Sprintf("Your Ticket #%s - Confirmed", booking.ID)
	if err := s.send(booking.Email, subject, ticketTemplate, ticketData{Booking: booking, Flight: flight}); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"booking_id": booking.ID, "email": booking.Email}).Info("ticket email sent")
	return nil
}

func (s *Sender) VerificationRequested(ctx context.Context, user *domain.User) error {
	if user.Email == "" {
		return nil
	}
	link := s.publicURL + "/api/auth/verify?token=" + url.QueryEscape(user.VerificationToken)
	if err := s.send(user.Email, "Verify your email", verificationTemplate, verificationData{Link: link}); err != nil {
		return err
	}
	s.log.WithField("email", user.Email).Info("verification email sent")
	return nil
}

// Handle sends the mail described by a notification read from Kafka.
func (s *Sender) Handle(ctx context.Context, n kafka.Notification) error {
	switch {
	case n.Type == kafka.NotificationTicket && n.Ticket != nil:
		return s.TicketIssued(ctx, &n.Ticket.Booking, &n.Ticket.Flight)
	case n.Type == kafka.NotificationVerification && n.Verification != nil:
		return s.VerificationRequested(ctx, &domain.User{
			Email:             n.Verification.Email,
			VerificationToken: n.Verification.Token,
		})
	default:
		return fmt.Errorf("unsupported notification %q", n.Type)
	}
}

func (s *Sender) send(to, subject string, tmpl *template.Template, data any) error {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}
