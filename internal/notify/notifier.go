package notify

import (
	"context"
	"fmt"

	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"
)

// Notifier emails the visitor for every stored booking. A failed send is
// logged and the booking stays recorded.
type Notifier struct {
	Mailer  Mailer
	Contact Contact
	Logger  *logger.Logger
}

func NewNotifier(mailer Mailer, contact Contact, log *logger.Logger) *Notifier {
	return &Notifier{Mailer: mailer, Contact: contact, Logger: log}
}

func (n *Notifier) HandleBookingRecorded(ctx context.Context, row models.SinkRow) {
	email := BookingEmail(row, n.Contact)
	if err := n.Mailer.Send(ctx, email); err != nil {
		n.Logger.Error("EMAIL", fmt.Sprintf("Email send failed for booking row %d: %v", row.ID, err))
		return
	}
	n.Logger.Info("EMAIL", fmt.Sprintf("Confirmation sent for booking row %d", row.ID))
}

// Direct hands stored bookings straight to the notifier on a goroutine.
// It stands in for the Kafka producer when Kafka is disabled.
type Direct struct {
	Notifier *Notifier
}

func (d Direct) PublishBookingRecorded(ctx context.Context, row models.SinkRow) error {
	go d.Notifier.HandleBookingRecorded(context.WithoutCancel(ctx), row)
	return nil
}
