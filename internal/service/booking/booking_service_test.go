package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

type MockTicketNotifier struct {
	mock.Mock
}

func (m *MockTicketNotifier) TicketIssued(ctx context.Context, booking *domain.Booking, flight *domain.Flight) error {
	args := m.Called(ctx, booking, flight)
	return args.Error(0)
}

var fixedNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store   *repository.MemoryStore
	flights *flights.FlightService
	service *BookingService
	flight  *domain.Flight
}

func newFixture(t *testing.T, opts ...BookingServiceOption) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	log := logger.Discard()
	catalog := flights.NewFlightService(store.Flights(), store.Bookings(), nil, log)

	f, err := catalog.Create(context.Background(), domain.FlightInput{
		From: "Kyiv", To: "Lviv", Date: "2026-11-01", Duration: "1h 10m", Airline: "SkyUp", Price: 120, TotalSeats: 24,
	})
	require.NoError(t, err)

	opts = append([]BookingServiceOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return &fixture{
		store:   store,
		flights: catalog,
		service: NewBookingService(store.Bookings(), catalog, log, opts...),
		flight:  f,
	}
}

func (fx *fixture) input(seats ...int) CreateBookingInput {
	return CreateBookingInput{
		FlightID:  fx.flight.ID,
		UserEmail: "jane@example.com",
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Seats:     seats,
	}
}

func (fx *fixture) currentFlight(t *testing.T) *domain.Flight {
	t.Helper()
	f, err := fx.flights.GetByID(context.Background(), fx.flight.ID)
	require.NoError(t, err)
	return f
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	fx := newFixture(t)

	b, err := fx.service.CreateBooking(context.Background(), fx.input(3, 4))

	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, domain.BookingStatusConfirmed, b.Status)
	assert.Equal(t, domain.PaymentStatusUnpaid, b.PaymentStatus)
	assert.Equal(t, 2, b.Passengers)
	assert.Equal(t, 240.0, b.BasePrice)
	assert.Equal(t, 0.0, b.ExtraPrice)
	assert.Equal(t, 240.0, b.TotalPrice)
	assert.Equal(t, fixedNow, b.CreatedAt)

	f := fx.currentFlight(t)
	assert.Equal(t, 22, f.AvailableSeats)
	assert.Equal(t, []int{3, 4}, f.BookedSeats)

	stored, err := fx.service.GetBooking(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Seats, stored.Seats)
}

func TestBookingService_CreateBooking_WithExtras(t *testing.T) {
	fx := newFixture(t)
	in := fx.input(1, 2)
	in.Extras = domain.Extras{Insurance: true, Upgrade: true}

	b, err := fx.service.CreateBooking(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, 240.0, b.BasePrice)
	assert.Equal(t, 130.0, b.ExtraPrice)
	assert.Equal(t, 370.0, b.TotalPrice)
	assert.Equal(t, in.Extras, b.Extras)
}

func TestBookingService_CreateBooking_DuplicateSeatsInRequest(t *testing.T) {
	fx := newFixture(t)

	b, err := fx.service.CreateBooking(context.Background(), fx.input(5, 5, 6))

	require.NoError(t, err)
	assert.Equal(t, []int{5, 6}, b.Seats)
	assert.Equal(t, 2, b.Passengers)
	assert.Equal(t, 240.0, b.TotalPrice)
	assert.Equal(t, 22, fx.currentFlight(t).AvailableSeats)
}

func TestBookingService_CreateBooking_SeatConflict(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.service.CreateBooking(ctx, fx.input(7))
	require.NoError(t, err)
	before := fx.currentFlight(t)

	b, err := fx.service.CreateBooking(ctx, fx.input(8, 7))

	assert.Nil(t, b)
	assert.ErrorIs(t, err, domain.ErrSeatConflict)
	assert.EqualError(t, err, "Some seats are already taken")
	after := fx.currentFlight(t)
	assert.Equal(t, before.AvailableSeats, after.AvailableSeats)
	assert.Equal(t, []int{7}, after.BookedSeats)
}

func TestBookingService_CreateBooking_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(in *CreateBookingInput)
		wantErr error
	}{
		{
			name:    "no seats",
			modify:  func(in *CreateBookingInput) { in.Seats = nil },
			wantErr: domain.ErrNoSeatsSelected,
		},
		{
			name:    "seat out of range",
			modify:  func(in *CreateBookingInput) { in.Seats = []int{1, 25} },
			wantErr: domain.ErrInvalidSeatNumber,
		},
		{
			name:    "seat zero",
			modify:  func(in *CreateBookingInput) { in.Seats = []int{0} },
			wantErr: domain.ErrInvalidSeatNumber,
		},
		{
			name:    "unknown flight",
			modify:  func(in *CreateBookingInput) { in.FlightID = 999 },
			wantErr: domain.ErrFlightNotFound,
		},
		{
			name:    "flight id zero",
			modify:  func(in *CreateBookingInput) { in.FlightID = 0 },
			wantErr: domain.ErrFlightNotFound,
		},
		{
			name: "unknown flight reported before missing fields",
			modify: func(in *CreateBookingInput) {
				in.FlightID = 999
				in.Name = ""
			},
			wantErr: domain.ErrFlightNotFound,
		},
		{
			name: "missing fields reported before seat errors",
			modify: func(in *CreateBookingInput) {
				in.Name = ""
				in.Seats = nil
			},
			wantErr: domain.ErrMissingFields,
		},
		{
			name:    "missing name",
			modify:  func(in *CreateBookingInput) { in.Name = "  " },
			wantErr: domain.ErrMissingFields,
		},
		{
			name:    "missing contact email",
			modify:  func(in *CreateBookingInput) { in.Email = "" },
			wantErr: domain.ErrMissingFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			in := fx.input(1, 2)
			tt.modify(&in)

			_, err := fx.service.CreateBooking(context.Background(), in)

			assert.ErrorIs(t, err, tt.wantErr)
			f := fx.currentFlight(t)
			assert.Equal(t, 24, f.AvailableSeats)
			assert.Empty(t, f.BookedSeats)
		})
	}
}

func TestBookingService_CreateBooking_DefaultsUserEmail(t *testing.T) {
	fx := newFixture(t)
	in := fx.input(1)
	in.UserEmail = ""

	b, err := fx.service.CreateBooking(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", b.UserEmail)
}

func TestBookingService_CreateBooking_ConcurrentSameSeat(t *testing.T) {
	fx := newFixture(t)
	const attempts = 20

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.service.CreateBooking(context.Background(), fx.input(12))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, domain.ErrSeatConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
	f := fx.currentFlight(t)
	assert.Equal(t, []int{12}, f.BookedSeats)
	assert.Equal(t, 23, f.AvailableSeats)
}

func TestBookingService_CancelBooking(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	b, err := fx.service.CreateBooking(ctx, fx.input(1, 2, 3))
	require.NoError(t, err)
	_, err = fx.service.CreateBooking(ctx, fx.input(10))
	require.NoError(t, err)
	require.Equal(t, 20, fx.currentFlight(t).AvailableSeats)

	canceled, err := fx.service.CancelBooking(ctx, b.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCanceled, canceled.Status)
	require.NotNil(t, canceled.CanceledAt)
	assert.Equal(t, fixedNow, *canceled.CanceledAt)
	f := fx.currentFlight(t)
	assert.Equal(t, 23, f.AvailableSeats)
	assert.Equal(t, []int{10}, f.BookedSeats)

	_, err = fx.service.CancelBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCanceled)
	assert.Equal(t, 23, fx.currentFlight(t).AvailableSeats)
}

func TestBookingService_CancelBooking_NotFound(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.service.CancelBooking(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	assert.EqualError(t, err, "Booking not found")
}

func TestBookingService_CancelBooking_FlightMissing(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	b, err := fx.service.CreateBooking(ctx, fx.input(4))
	require.NoError(t, err)
	require.NoError(t, fx.store.Flights().Delete(ctx, fx.flight.ID))

	canceled, err := fx.service.CancelBooking(ctx, b.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCanceled, canceled.Status)
	stored, err := fx.service.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCanceled, stored.Status)
}

func TestBookingService_CancelThenPay(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	b, err := fx.service.CreateBooking(ctx, fx.input(5, 6))
	require.NoError(t, err)
	require.Equal(t, 22, fx.currentFlight(t).AvailableSeats)

	_, err = fx.service.CancelBooking(ctx, b.ID)
	require.NoError(t, err)

	_, err = fx.service.PayBooking(ctx, b.ID, PayInput{Method: "card", CardNumber: "4111111111111234"})

	assert.ErrorIs(t, err, domain.ErrPayCanceled)
	assert.EqualError(t, err, "Cannot pay for canceled booking")
	assert.Equal(t, 24, fx.currentFlight(t).AvailableSeats)
}

func TestBookingService_PayBooking(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	b, err := fx.service.CreateBooking(ctx, fx.input(9))
	require.NoError(t, err)

	paid, err := fx.service.PayBooking(ctx, b.ID, PayInput{Method: "card", CardNumber: "4111111111111234"})

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaymentInfo)
	require.NotNil(t, paid.PaymentInfo.Last4)
	assert.Equal(t, "1234", *paid.PaymentInfo.Last4)
	assert.Equal(t, "card", paid.PaymentInfo.Method)
	assert.Equal(t, fixedNow, paid.PaymentInfo.PaidAt)

	_, err = fx.service.PayBooking(ctx, b.ID, PayInput{Method: "card", CardNumber: "4111111111111234"})
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
	assert.EqualError(t, err, "Booking already paid")
}

func TestBookingService_PayBooking_ShortCard(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	b, err := fx.service.CreateBooking(ctx, fx.input(9))
	require.NoError(t, err)

	paid, err := fx.service.PayBooking(ctx, b.ID, PayInput{Method: "cash", CardNumber: "12"})

	require.NoError(t, err)
	assert.Nil(t, paid.PaymentInfo.Last4)
}

func TestBookingService_PayBooking_NotFound(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.service.PayBooking(context.Background(), "nope", PayInput{Method: "card"})

	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestBookingService_PayBooking_SendsTicket(t *testing.T) {
	notifier := &MockTicketNotifier{}
	fx := newFixture(t, WithTicketNotifier(notifier))
	ctx := context.Background()
	b, err := fx.service.CreateBooking(ctx, fx.input(2))
	require.NoError(t, err)

	notifier.On("TicketIssued", mock.Anything,
		mock.MatchedBy(func(bk *domain.Booking) bool {
			return bk.ID == b.ID && bk.PaymentStatus == domain.PaymentStatusPaid
		}),
		mock.MatchedBy(func(f *domain.Flight) bool { return f.ID == fx.flight.ID }),
	).Return(nil).Once()

	_, err = fx.service.PayBooking(ctx, b.ID, PayInput{Method: "card", CardNumber: "4111111111111234"})
	require.NoError(t, err)
	fx.service.Wait()

	notifier.AssertExpectations(t)
}

func TestBookingService_PayBooking_TicketFailureDoesNotFailPayment(t *testing.T) {
	notifier := &MockTicketNotifier{}
	fx := newFixture(t, WithTicketNotifier(notifier))
	ctx := context.Background()
	b, err := fx.service.CreateBooking(ctx, fx.input(2))
	require.NoError(t, err)

	notifier.On("TicketIssued", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp unavailable")).Once()

	paid, err := fx.service.PayBooking(ctx, b.ID, PayInput{Method: "card", CardNumber: "4111111111111234"})
	fx.service.Wait()

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus)
	stored, err := fx.service.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, stored.PaymentStatus)
	notifier.AssertExpectations(t)
}

func TestBookingService_PublishesEvents(t *testing.T) {
	producer := &MockProducer{}
	fx := newFixture(t, WithEvents(producer, "booking-events"))
	ctx := context.Background()

	eventOf := func(eventType string) interface{} {
		return mock.MatchedBy(func(e kafka.BookingEvent) bool { return e.Type == eventType })
	}
	producer.On("Publish", mock.Anything, "booking-events", mock.Anything, eventOf(kafka.EventBookingCreated)).Return(nil).Once()
	producer.On("Publish", mock.Anything, "booking-events", mock.Anything, eventOf(kafka.EventBookingPaid)).Return(nil).Once()
	producer.On("Publish", mock.Anything, "booking-events", mock.Anything, eventOf(kafka.EventBookingCanceled)).Return(nil).Once()

	b, err := fx.service.CreateBooking(ctx, fx.input(1))
	require.NoError(t, err)
	_, err = fx.service.PayBooking(ctx, b.ID, PayInput{Method: "card", CardNumber: "4242424242424242"})
	require.NoError(t, err)
	_, err = fx.service.CancelBooking(ctx, b.ID)
	require.NoError(t, err)

	producer.AssertExpectations(t)
}

func TestBookingService_PublishFailureIsIgnored(t *testing.T) {
	producer := &MockProducer{}
	fx := newFixture(t, WithEvents(producer, "booking-events"))

	producer.On("Publish", mock.Anything, "booking-events", mock.Anything, mock.Anything).
		Return(errors.New("kafka unavailable"))

	b, err := fx.service.CreateBooking(context.Background(), fx.input(1))

	require.NoError(t, err)
	assert.NotNil(t, b)
	producer.AssertNumberOfCalls(t, "Publish", 1)
}

func TestBookingService_ListBookings(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.service.CreateBooking(ctx, fx.input(1))
	require.NoError(t, err)
	other := fx.input(2)
	other.UserEmail = "bob@example.com"
	_, err = fx.service.CreateBooking(ctx, other)
	require.NoError(t, err)

	mine, err := fx.service.ListBookings(ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := fx.service.ListBookings(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDistinctSeats(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, distinctSeats([]int{3, 1, 3, 2, 1}))
	assert.Empty(t, distinctSeats(nil))
}

func TestBookingService_PublishIsBoundedAndDetached(t *testing.T) {
	producer := &MockProducer{}
	fx := newFixture(t, WithEvents(producer, "booking-events"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	producer.On("Publish", mock.MatchedBy(func(c context.Context) bool {
		deadline, ok := c.Deadline()
		return ok && time.Until(deadline) <= publishTimeout && c.Err() == nil
	}), "booking-events", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := fx.service.CreateBooking(ctx, fx.input(3))

	require.NoError(t, err)
	producer.AssertExpectations(t)
}
