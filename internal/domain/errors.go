package domain

type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindValidation
	KindConflict
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error is a rejection the caller can recover from. Message is shown to
// clients verbatim.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrFlightNotFound  = newError(KindNotFound, "Flight not found")
	ErrBookingNotFound = newError(KindNotFound, "Booking not found")
	ErrMessageNotFound = newError(KindNotFound, "Message not found")
	ErrInvalidToken    = newError(KindNotFound, "Invalid verification token")

	ErrNoSeatsSelected     = newError(KindValidation, "No seats selected")
	ErrInvalidSeatNumber   = newError(KindValidation, "Invalid seat numbers")
	ErrMissingFields       = newError(KindValidation, "Missing required fields")
	ErrMissingFlightFields = newError(KindValidation, "Route, date, duration and airline are required")
	ErrInvalidPrice        = newError(KindValidation, "Price must be positive")
	ErrInvalidCapacity     = newError(KindValidation, "Total seats must be positive")
	ErrCredentialsRequired = newError(KindValidation, "Email and password required")

	ErrSeatConflict      = newError(KindConflict, "Some seats are already taken")
	ErrAlreadyCanceled   = newError(KindConflict, "Booking already canceled")
	ErrPayCanceled       = newError(KindConflict, "Cannot pay for canceled booking")
	ErrAlreadyPaid       = newError(KindConflict, "Booking already paid")
	ErrFlightHasBookings = newError(KindConflict, "Flight has active bookings")
	ErrUserExists        = newError(KindConflict, "User already exists")

	ErrInvalidCredentials = newError(KindUnauthorized, "Invalid email or password")
	ErrEmailNotVerified   = newError(KindUnauthorized, "Please verify your email first")
)
