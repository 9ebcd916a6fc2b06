package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"ayat-booking/internal/availability"
	"ayat-booking/internal/booking"
	"ayat-booking/internal/catalog"
	"ayat-booking/internal/ledger"
	"ayat-booking/internal/logger"
	"ayat-booking/internal/models"
	"ayat-booking/internal/payment"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type AdminLedger interface {
	All(ctx context.Context) ([]models.BookingRecord, error)
	RequestClear(ctx context.Context) (ledger.ClearConfirmation, error)
	Clear(ctx context.Context, token string) error
	RecomputeBookedSeats(ctx context.Context, events []models.EventDescriptor) (map[string]int, error)
}

type Handler struct {
	Store     *catalog.Store
	Evaluator *availability.Evaluator
	Presenter *payment.Presenter
	Forms     *booking.Controller
	Ledger    AdminLedger
	Logger    *logger.Logger

	page *template.Template
}

func NewHandler(store *catalog.Store, ev *availability.Evaluator, presenter *payment.Presenter, forms *booking.Controller, led AdminLedger, log *logger.Logger) *Handler {
	return &Handler{
		Store:     store,
		Evaluator: ev,
		Presenter: presenter,
		Forms:     forms,
		Ledger:    led,
		Logger:    log,
		page:      template.Must(template.New("listing").Funcs(pageFuncs).Parse(listingPage)),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.Logger))

	r.Get("/", h.Page)

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", h.ListEvents)
		r.Get("/events/{eventID}/payment", h.GetPayment)
		r.Get("/events/{eventID}/payment/qr.png", h.GetPaymentQR)
		r.Post("/events/{eventID}/forms", h.OpenForm)

		r.Put("/forms/{formID}/tickets", h.SetTickets)
		r.Post("/forms/{formID}/submit", h.SubmitForm)
		r.Delete("/forms/{formID}", h.CloseForm)

		r.Route("/admin/bookings", func(r chi.Router) {
			r.Get("/", h.ListBookings)
			r.Post("/clear", h.RequestClear)
			r.Post("/clear/{token}", h.ConfirmClear)
		})
	})
	return r
}

// catalogUnavailable writes the load error banner and reports whether it did.
func (h *Handler) catalogUnavailable(w http.ResponseWriter) bool {
	err := h.Store.Err()
	if err == nil {
		return false
	}
	writeJSON(w, http.StatusServiceUnavailable, ErrorResponse(catalog.LoadErrorMessage, err.Error()))
	return true
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if h.catalogUnavailable(w) {
		return
	}
	listing := h.Evaluator.BuildListing(h.Store.Events(), h.Evaluator.Now())
	writeJSON(w, http.StatusOK, SuccessResponse("Events loaded", listing))
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	if h.catalogUnavailable(w) {
		return
	}
	ref, ok := h.paymentReference(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Complete the payment before filling the form", ref))
}

func (h *Handler) GetPaymentQR(w http.ResponseWriter, r *http.Request) {
	if h.catalogUnavailable(w) {
		return
	}
	ref, ok := h.paymentReference(w, chi.URLParam(r, "eventID"))
	if !ok {
		return
	}

	png, err := payment.QRCode(ref, 256)
	if errors.Is(err, payment.ErrNotALink) {
		writeJSON(w, http.StatusNotFound, ErrorResponse("Event uses a static QR image", ref.QRPath))
		return
	}
	if err != nil {
		h.Logger.Error("PAYMENT", fmt.Sprintf("Failed to render QR code: %v", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse("Could not render QR code", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) paymentReference(w http.ResponseWriter, eventID string) (payment.Reference, bool) {
	e, ok := h.Store.Event(eventID)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse("Event not found", eventID))
		return payment.Reference{}, false
	}
	ref, err := h.Presenter.Present(e)
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse("No payment method for this event", err.Error()))
		return payment.Reference{}, false
	}
	return ref, true
}

type openFormResponse struct {
	Form    booking.FormView   `json:"form"`
	Payment *payment.Reference `json:"payment,omitempty"`
}

func (h *Handler) OpenForm(w http.ResponseWriter, r *http.Request) {
	if h.catalogUnavailable(w) {
		return
	}

	f, err := h.Forms.Open(chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeBookingError(w, err)
		return
	}

	resp := openFormResponse{Form: f.View()}
	if e, ok := h.Store.Event(resp.Form.EventID); ok {
		if ref, err := h.Presenter.Present(e); err == nil {
			resp.Payment = &ref
		}
	}
	writeJSON(w, http.StatusCreated, SuccessResponse("Booking form opened", resp))
}

func (h *Handler) SetTickets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tickets int `json:"tickets"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := h.Forms.SetTickets(chi.URLParam(r, "formID"), req.Tickets)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse("Total updated", view))
}

func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	var in booking.Input
	if !decodeBody(w, r, &in) {
		return
	}

	conf, err := h.Forms.Submit(r.Context(), chi.URLParam(r, "formID"), in)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SuccessResponse("Booking Confirmed!", conf))
}

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

// decodeBody reads a JSON body into v, writing the error response itself
// when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse("Request body too large", err.Error()))
		return false
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse("Invalid request body", err.Error()))
	return false
}

func (h *Handler) CloseForm(w http.ResponseWriter, r *http.Request) {
	if err := h.Forms.Close(chi.URLParam(r, "formID")); err != nil {
		h.writeBookingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	var verr *booking.ValidationError
	var nb *booking.NotBookableError

	switch {
	case errors.As(err, &verr):
		resp := ErrorResponse("Please correct the highlighted fields", err.Error())
		resp.Fields = verr.Fields
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.As(err, &nb):
		resp := ErrorResponse(nb.Label, string(nb.Reason))
		resp.Data = nb
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, booking.ErrEventNotFound), errors.Is(err, booking.ErrFormNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse("Not found", err.Error()))
	case errors.Is(err, booking.ErrTicketsOutOfRange):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse("Ticket count not allowed", err.Error()))
	case errors.Is(err, booking.ErrSubmissionInProgress),
		errors.Is(err, booking.ErrAlreadySubmitted),
		errors.Is(err, booking.ErrFormClosed):
		writeJSON(w, http.StatusConflict, ErrorResponse("Booking form is not accepting changes", err.Error()))
	default:
		h.Logger.Error("BOOKING", fmt.Sprintf("Unexpected booking error: %v", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse("Something went wrong", err.Error()))
	}
}
