package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/lock"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 2 * time.Second

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, id string) (*domain.Booking, error)
	PayBooking(ctx context.Context, id string, input PayInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, userEmail string) ([]domain.Booking, error)
}

// FlightLedger gives serialized access to a flight's seat ledger.
type FlightLedger interface {
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	WithLedger(ctx context.Context, id int64, fn func(f *domain.Flight) error) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type TicketNotifier interface {
	TicketIssued(ctx context.Context, booking *domain.Booking, flight *domain.Flight) error
}

type CreateBookingInput struct {
	FlightID  int64         `json:"flightId"`
	UserEmail string        `json:"userEmail"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Seats     []int         `json:"seats"`
	Extras    domain.Extras `json:"extras"`
}

type PayInput struct {
	Method     string `json:"paymentMethod"`
	CardNumber string `json:"cardNumber"`
}

type BookingService struct {
	bookings     repository.BookingRepository
	flights      FlightLedger
	producer     Producer
	notifier     TicketNotifier
	bookingTopic string
	locks        *lock.Keyed[string]
	log          logrus.FieldLogger
	now          func() time.Time
	pending      sync.WaitGroup
}

type BookingServiceOption func(*BookingService)

// WithEvents publishes booking lifecycle events to topic.
func WithEvents(producer Producer, topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = topic
	}
}

func WithTicketNotifier(notifier TicketNotifier) BookingServiceOption {
	return func(s *BookingService) {
		s.notifier = notifier
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights FlightLedger,
	log logrus.FieldLogger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings: bookings,
		flights:  flights,
		locks:    lock.NewKeyed[string](),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateBooking reserves the requested seats and stores a Confirmed, Unpaid
// booking priced from the flight's current fare. An unknown flight is
// reported before any other rejection, and a rejected request leaves the
// ledger untouched.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.UserEmail = strings.TrimSpace(input.UserEmail)
	if input.UserEmail == "" {
		input.UserEmail = input.Email
	}
	seats := distinctSeats(input.Seats)

	var booking *domain.Booking
	err := s.flights.WithLedger(ctx, input.FlightID, func(f *domain.Flight) error {
		if input.Name == "" || input.Email == "" {
			return domain.ErrMissingFields
		}
		if err := f.Reserve(seats); err != nil {
			return err
		}
		quote := pricing.Compute(f.Price, len(seats), input.Extras)
		b := &domain.Booking{
			FlightID:      f.ID,
			UserEmail:     input.UserEmail,
			Name:          input.Name,
			Email:         input.Email,
			Passengers:    len(seats),
			Seats:         seats,
			Extras:        input.Extras,
			BasePrice:     quote.BasePrice,
			ExtraPrice:    quote.ExtraPrice,
			TotalPrice:    quote.TotalPrice,
			Status:        domain.BookingStatusConfirmed,
			PaymentStatus: domain.PaymentStatusUnpaid,
			CreatedAt:     s.now(),
		}
		if err := s.bookings.Create(ctx, b, f); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"flight_id":  booking.FlightID,
		"seats":      booking.Seats,
	}).Info("booking created")
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return booking, nil
}

// CancelBooking releases the booking's seats and marks it Canceled. When the
// flight no longer exists the booking is canceled without touching a ledger.
func (s *BookingService) CancelBooking(ctx context.Context, id string) (*domain.Booking, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	canceled := current.Clone()
	if err := canceled.Cancel(s.now()); err != nil {
		return nil, err
	}

	err = s.flights.WithLedger(ctx, current.FlightID, func(f *domain.Flight) error {
		f.Release(current.Seats)
		return s.bookings.Cancel(ctx, canceled, f)
	})
	if errors.Is(err, domain.ErrFlightNotFound) {
		s.log.WithFields(logrus.Fields{
			"booking_id": id,
			"flight_id":  current.FlightID,
		}).Warn("flight missing, canceling booking without releasing seats")
		err = s.bookings.Cancel(ctx, canceled, nil)
	}
	if err != nil {
		return nil, bookingErr(err)
	}

	s.log.WithField("booking_id", id).Info("booking canceled")
	s.publish(ctx, kafka.EventBookingCanceled, canceled)
	return canceled, nil
}

// PayBooking records the payment and then hands the ticket to the notifier
// in the background. Notifier failures are logged and never reach the caller.
func (s *BookingService) PayBooking(ctx context.Context, id string, input PayInput) (*domain.Booking, error) {
	paid, err := s.pay(ctx, id, input)
	if err != nil {
		return nil, err
	}

	s.log.WithField("booking_id", id).Info("booking paid")
	s.publish(ctx, kafka.EventBookingPaid, paid)
	s.dispatchTicket(paid.Clone())
	return paid, nil
}

func (s *BookingService) pay(ctx context.Context, id string, input PayInput) (*domain.Booking, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	b, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.Pay(strings.TrimSpace(input.Method), strings.TrimSpace(input.CardNumber), s.now()); err != nil {
		return nil, err
	}
	if err := s.bookings.UpdatePayment(ctx, b); err != nil {
		return nil, bookingErr(err)
	}
	return b, nil
}

func (s *BookingService) dispatchTicket(b *domain.Booking) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx := context.Background()
		entry := s.log.WithField("booking_id", b.ID)
		f, err := s.flights.GetByID(ctx, b.FlightID)
		if err != nil {
			entry.WithError(err).Warn("ticket not sent: flight lookup failed")
			return
		}
		if err := s.notifier.TicketIssued(ctx, b, f); err != nil {
			entry.WithError(err).Warn("ticket not sent")
		}
	}()
}

// Wait blocks until background ticket notifications have finished.
func (s *BookingService) Wait() {
	s.pending.Wait()
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, bookingErr(err)
	}
	return b, nil
}

func (s *BookingService) ListBookings(ctx context.Context, userEmail string) ([]domain.Booking, error) {
	return s.bookings.List(ctx, strings.TrimSpace(userEmail))
}

// publish is bounded by publishTimeout and detached from the request's
// cancellation, so an unreachable broker delays a response by at most that.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := kafka.NewBookingEvent(eventType, booking, s.now())
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.ID, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":      eventType,
			"booking_id": booking.ID,
		}).Warn("failed to publish booking event")
	}
}

func bookingErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrBookingNotFound
	}
	return err
}

// distinctSeats drops repeated seat numbers, keeping first-seen order.
func distinctSeats(seats []int) []int {
	out := make([]int, 0, len(seats))
	seen := make(map[int]struct{}, len(seats))
	for _, s := range seats {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

var _ BookingUseCase = (*BookingService)(nil)
