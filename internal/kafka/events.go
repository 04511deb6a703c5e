package kafka

import (
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

const (
	EventBookingCreated  = "booking_created"
	EventBookingCanceled = "booking_canceled"
	EventBookingPaid     = "booking_paid"
)

type BookingEvent struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"booking_id"`
	FlightID      int64     `json:"flight_id"`
	Seats         []int     `json:"seats"`
	UserEmail     string    `json:"user_email"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	TotalPrice    float64   `json:"total_price"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:          eventType,
		BookingID:     b.ID,
		FlightID:      b.FlightID,
		Seats:         b.Seats,
		UserEmail:     b.UserEmail,
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		TotalPrice:    b.TotalPrice,
		OccurredAt:    at,
	}
}

const (
	NotificationTicket       = "ticket"
	NotificationVerification = "verification"
)

// Notification is the payload of the notifications topic read by the worker.
type Notification struct {
	Type         string             `json:"type"`
	Ticket       *TicketEvent       `json:"ticket,omitempty"`
	Verification *VerificationEvent `json:"verification,omitempty"`
}

type TicketEvent struct {
	Booking domain.Booking `json:"booking"`
	Flight  domain.Flight  `json:"flight"`
}

type VerificationEvent struct {
	Email string `json:"email"`
	Token string `json:"token"`
}
