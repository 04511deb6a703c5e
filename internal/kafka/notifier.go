package kafka

import (
	"context"
	"strconv"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

const notifyAttempts = 3

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type retryPublisher interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

// Notifier hands ticket and verification emails to the worker through the
// notifications topic instead of sending them in the API process.
type Notifier struct {
	publisher Publisher
	topic     string
}

func NewNotifier(publisher Publisher, topic string) *Notifier {
	return &Notifier{publisher: publisher, topic: topic}
}

func (n *Notifier) TicketIssued(ctx context.Context, booking *domain.Booking, flight *domain.Flight) error {
	return n.publish(ctx, booking.ID, Notification{
		Type:   NotificationTicket,
		Ticket: &TicketEvent{Booking: *booking, Flight: *flight},
	})
}

func (n *Notifier) VerificationRequested(ctx context.Context, user *domain.User) error {
	return n.publish(ctx, strconv.FormatInt(user.ID, 10), Notification{
		Type:         NotificationVerification,
		Verification: &VerificationEvent{Email: user.Email, Token: user.VerificationToken},
	})
}

// publish retries when the publisher supports it; a lost notification means
// a customer never gets their ticket.
func (n *Notifier) publish(ctx context.Context, key string, value Notification) error {
	if rp, ok := n.publisher.(retryPublisher); ok {
		return rp.PublishWithRetry(ctx, n.topic, key, value, notifyAttempts)
	}
	return n.publisher.Publish(ctx, n.topic, key, value)
}
