package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const StatusText = "Ayat Bookings API is running. Use POST method to submit bookings."

// MaxBodyBytes caps one posted booking.
const MaxBodyBytes = 64 << 10

type BookingStore interface {
	InsertBooking(ctx context.Context, row *models.SinkRow) error
}

type Publisher interface {
	PublishBookingRecorded(ctx context.Context, row models.SinkRow) error
}

// Handler is the remote booking sink: it appends each posted booking to
// the bookings table and hands it on for the confirmation email.
type Handler struct {
	DB        BookingStore
	Publisher Publisher
	Logger    *logger.Logger

	now func() time.Time
}

func NewHandler(db BookingStore, publisher Publisher, log *logger.Logger) *Handler {
	return &Handler{
		DB:        db,
		Publisher: publisher,
		Logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", h.Status)
	r.Post("/", h.RecordBooking)
	return r
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(StatusText))
}

func (h *Handler) RecordBooking(w http.ResponseWriter, r *http.Request) {
	var rec models.BookingRecord
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		h.Logger.Warn("SINK", fmt.Sprintf("Rejected malformed booking: %v", err))
		writeEnvelope(w, status, models.SinkEnvelope{Result: models.SinkResultError, Message: err.Error()})
		return
	}

	row := models.NewSinkRow(rec, h.now())
	if err := h.DB.InsertBooking(r.Context(), &row); err != nil {
		h.Logger.LogDatabase("INSERT", "bookings", fmt.Sprintf("failed: %v", err))
		writeEnvelope(w, http.StatusInternalServerError, models.SinkEnvelope{Result: models.SinkResultError, Message: err.Error()})
		return
	}
	h.Logger.LogDatabase("INSERT", "bookings", fmt.Sprintf("row %d for %s (%d tickets)", row.ID, row.EventID, row.Tickets))

	// The email step must never fail the write.
	if h.Publisher != nil {
		if err := h.Publisher.PublishBookingRecorded(context.WithoutCancel(r.Context()), row); err != nil {
			h.Logger.Error("KAFKA", fmt.Sprintf("Failed to publish booking row %d: %v", row.ID, err))
		}
	}

	id := row.ID
	writeEnvelope(w, http.StatusOK, models.SinkEnvelope{
		Result:  models.SinkResultSuccess,
		Message: "Booking saved successfully",
		Row:     &id,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, env models.SinkEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
