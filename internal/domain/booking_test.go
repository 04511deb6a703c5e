package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooking_Cancel(t *testing.T) {
	b := &Booking{Status: BookingStatusConfirmed, PaymentStatus: PaymentStatusPaid}
	now := time.Now()

	require.NoError(t, b.Cancel(now))
	assert.Equal(t, BookingStatusCanceled, b.Status)
	assert.Equal(t, PaymentStatusPaid, b.PaymentStatus)
	require.NotNil(t, b.CanceledAt)

	assert.ErrorIs(t, b.Cancel(now.Add(time.Minute)), ErrAlreadyCanceled)
	assert.Equal(t, now, *b.CanceledAt)
}

func TestBooking_Pay(t *testing.T) {
	b := &Booking{Status: BookingStatusConfirmed, PaymentStatus: PaymentStatusUnpaid}

	require.NoError(t, b.Pay("card", "4111111111111234", time.Now()))
	assert.Equal(t, PaymentStatusPaid, b.PaymentStatus)
	require.NotNil(t, b.PaymentInfo)
	require.NotNil(t, b.PaymentInfo.Last4)
	assert.Equal(t, "1234", *b.PaymentInfo.Last4)
	assert.Equal(t, "card", b.PaymentInfo.Method)

	assert.ErrorIs(t, b.Pay("card", "4111111111111234", time.Now()), ErrAlreadyPaid)
}

func TestBooking_PayCanceled(t *testing.T) {
	b := &Booking{Status: BookingStatusCanceled, PaymentStatus: PaymentStatusUnpaid}

	assert.ErrorIs(t, b.Pay("card", "4111111111111234", time.Now()), ErrPayCanceled)
	assert.Equal(t, PaymentStatusUnpaid, b.PaymentStatus)
	assert.Nil(t, b.PaymentInfo)
}

func TestCardSuffix(t *testing.T) {
	assert.Nil(t, CardSuffix(""))
	assert.Nil(t, CardSuffix("123"))
	assert.Equal(t, "1234", *CardSuffix("1234"))
	assert.Equal(t, "9876", *CardSuffix("5500 0000 0000 9876"))
}

func TestError_Kinds(t *testing.T) {
	assert.Equal(t, KindNotFound, ErrFlightNotFound.Kind)
	assert.Equal(t, KindValidation, ErrNoSeatsSelected.Kind)
	assert.Equal(t, KindConflict, ErrSeatConflict.Kind)
	assert.Equal(t, "Some seats are already taken", ErrSeatConflict.Error())
	assert.Equal(t, "conflict", KindConflict.String())
}
