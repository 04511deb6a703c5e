package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore keeps every collection in process memory behind one lock.
// Values are copied on the way in and out so callers never share state
// with the store.
type MemoryStore struct {
	mu sync.RWMutex

	flights      map[int64]*domain.Flight
	bookings     map[string]*domain.Booking
	users        map[int64]*domain.User
	messages     map[string]*domain.Message
	nextFlightID int64
	nextUserID   int64
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flights:  make(map[int64]*domain.Flight),
		bookings: make(map[string]*domain.Booking),
		users:    make(map[int64]*domain.User),
		messages: make(map[string]*domain.Message),
		now:      time.Now,
	}
}

func (s *MemoryStore) Flights() FlightRepository   { return memoryFlights{s} }
func (s *MemoryStore) Bookings() BookingRepository { return memoryBookings{s} }
func (s *MemoryStore) Users() UserRepository       { return memoryUsers{s} }
func (s *MemoryStore) Messages() MessageRepository { return memoryMessages{s} }

type memoryFlights struct{ s *MemoryStore }

func (r memoryFlights) List(ctx context.Context) ([]domain.Flight, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	flights := make([]domain.Flight, 0, len(r.s.flights))
	for _, f := range r.s.flights {
		flights = append(flights, *f.Clone())
	}
	sort.Slice(flights, func(i, j int) bool { return flights[i].ID < flights[j].ID })
	return flights, nil
}

func (r memoryFlights) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.flights[id]
	if !ok {
		return nil, ErrNotFound
	}
	return f.Clone(), nil
}

func (r memoryFlights) Create(ctx context.Context, flight *domain.Flight) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextFlightID++
	now := r.s.now()
	flight.ID = r.s.nextFlightID
	flight.CreatedAt = now
	flight.UpdatedAt = now
	r.s.flights[flight.ID] = flight.Clone()
	return nil
}

func (r memoryFlights) Update(ctx context.Context, flight *domain.Flight) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.putFlight(flight)
}

func (r memoryFlights) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.flights[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.flights, id)
	return nil
}

// putFlight requires s.mu held for writing.
func (s *MemoryStore) putFlight(flight *domain.Flight) error {
	if _, ok := s.flights[flight.ID]; !ok {
		return ErrNotFound
	}
	flight.UpdatedAt = s.now()
	s.flights[flight.ID] = flight.Clone()
	return nil
}

type memoryBookings struct{ s *MemoryStore }

func (r memoryBookings) Create(ctx context.Context, booking *domain.Booking, flight *domain.Flight) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.putFlight(flight); err != nil {
		return err
	}
	booking.ID = uuid.NewString()
	r.s.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r memoryBookings) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (r memoryBookings) List(ctx context.Context, userEmail string) ([]domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bookings := make([]domain.Booking, 0)
	for _, b := range r.s.bookings {
		if userEmail != "" && !strings.EqualFold(b.UserEmail, userEmail) {
			continue
		}
		bookings = append(bookings, *b.Clone())
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].CreatedAt.After(bookings[j].CreatedAt) })
	return bookings, nil
}

func (r memoryBookings) CountActiveByFlight(ctx context.Context, flightID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, b := range r.s.bookings {
		if b.FlightID == flightID && b.Active() {
			n++
		}
	}
	return n, nil
}

func (r memoryBookings) Cancel(ctx context.Context, booking *domain.Booking, flight *domain.Flight) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[booking.ID]; !ok {
		return ErrNotFound
	}
	if flight != nil {
		if err := r.s.putFlight(flight); err != nil {
			return err
		}
	}
	r.s.bookings[booking.ID] = booking.Clone()
	return nil
}

func (r memoryBookings) UpdatePayment(ctx context.Context, booking *domain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[booking.ID]; !ok {
		return ErrNotFound
	}
	r.s.bookings[booking.ID] = booking.Clone()
	return nil
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrDuplicate
		}
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	user.CreatedAt = r.s.now()
	c := *user
	r.s.users[user.ID] = &c
	return nil
}

func (r memoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r memoryUsers) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	return r.find(func(u *domain.User) bool { return u.VerificationToken == token })
}

func (r memoryUsers) MarkVerified(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Verified = true
	u.VerificationToken = ""
	return nil
}

func (r memoryUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

type memoryMessages struct{ s *MemoryStore }

func (r memoryMessages) Create(ctx context.Context, msg *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	msg.ID = uuid.NewString()
	msg.CreatedAt = r.s.now()
	c := *msg
	r.s.messages[msg.ID] = &c
	return nil
}

func (r memoryMessages) List(ctx context.Context) ([]domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	msgs := make([]domain.Message, 0, len(r.s.messages))
	for _, m := range r.s.messages {
		msgs = append(msgs, *m)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.After(msgs[j].CreatedAt) })
	return msgs, nil
}

func (r memoryMessages) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.messages[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.messages, id)
	return nil
}

var (
	_ FlightRepository  = memoryFlights{}
	_ BookingRepository = memoryBookings{}
	_ UserRepository    = memoryUsers{}
	_ MessageRepository = memoryMessages{}
)
