package email

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
)

type ticketData struct {
	Booking *domain.Booking
	Flight  *domain.Flight
}

type verificationData struct {
	Link string
}

var funcs = template.FuncMap{
	"seats": func(seats []int) string {
		parts := make([]string, len(seats))
		for i, s := range seats {
			parts[i] = strconv.Itoa(s)
		}
		return strings.Join(parts, ", ")
	},
	"money": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
}

// Amounts come from the stored booking; nothing is priced here.
var ticketTemplate = template.Must(template.New("ticket").Funcs(funcs).Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; border: 1px solid #e0e0e0; border-radius: 8px;">
  <div style="background-color: #2f6bff; padding: 20px; text-align: center; color: white;">
    <h1>Airline Services</h1>
    <p>Booking Confirmed</p>
  </div>
  <div style="padding: 20px;">
    <p>Hello, <strong>{{.Booking.Name}}</strong>!</p>
    <div style="background-color: #f9f9f9; padding: 15px; margin: 20px 0;">
      <h3>Flight Details</h3>
      <p><strong>Route:</strong> {{.Flight.From}} &rarr; {{.Flight.To}}</p>
      <p><strong>Date:</strong> {{.Flight.Date}}</p>
      <p><strong>Airline:</strong> {{.Flight.Airline}}</p>
      <p><strong>Seats:</strong> {{seats .Booking.Seats}}</p>
    </div>
    <p>Base fare: ${{money .Booking.BasePrice}}</p>
    <p>Extras: ${{money .Booking.ExtraPrice}}</p>
    <p style="font-weight: bold;">Total Paid: ${{money .Booking.TotalPrice}}</p>
  </div>
</div>
`))

var verificationTemplate = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; padding: 20px; border: 1px solid #eee; border-radius: 5px; text-align: center;">
  <h2 style="color: #2f6bff;">Verify your Account</h2>
  <p>You created an account on Airline Services.</p>
  <p>Please click the button below to activate it:</p>
  <a href="{{.Link}}" style="background-color: #2f6bff; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; font-weight: bold;">Verify Email</a>
  <p style="margin-top: 20px; font-size: 12px; color: #888;">Or copy this link: {{.Link}}</p>
</div>
`))
