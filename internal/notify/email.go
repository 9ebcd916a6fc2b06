package notify

import (
	"fmt"
	"strings"

	"ayat-booking/internal/models"
)

const rule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

type Contact struct {
	Email string
	Phone string
}

type Email struct {
	To      string
	Subject string
	Body    string
}

// BookingEmail builds the plain-text confirmation sent after a booking is
// stored.
func BookingEmail(row models.SinkRow, contact Contact) Email {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", row.Name)
	b.WriteString("Your booking has been confirmed!\n\n")

	b.WriteString(rule + "\nEVENT DETAILS\n" + rule + "\n\n")
	fmt.Fprintf(&b, "Event: %s\n", row.EventTitle)
	fmt.Fprintf(&b, "Date: %s\n", row.EventDate)
	fmt.Fprintf(&b, "Number of Tickets: %d\n", row.Tickets)
	fmt.Fprintf(&b, "Food Preference: %s\n\n", row.FoodPreference)

	b.WriteString(rule + "\nPAYMENT DETAILS\n" + rule + "\n\n")
	fmt.Fprintf(&b, "Total Amount: ₹%d\n", row.TotalAmount)
	fmt.Fprintf(&b, "Transaction ID: %s\n\n", row.UPITransactionID)

	b.WriteString(rule + "\n\n")
	b.WriteString("Please arrive 15 minutes before the event.\n\n")
	b.WriteString("Looking forward to seeing you at the baithak!\n\n")
	b.WriteString("Warm regards,\nAyat Team\n\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Contact: %s\n", contact.Email)
	fmt.Fprintf(&b, "Phone: %s", contact.Phone)

	return Email{
		To:      row.Email,
		Subject: fmt.Sprintf("Booking Confirmed: %s - Ayat Baithak", row.EventTitle),
		Body:    b.String(),
	}
}
