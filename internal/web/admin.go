package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ayat-booking/internal/catalog"
	"ayat-booking/internal/ledger"
	"ayat-booking/internal/models"

	"github.com/go-chi/chi/v5"
)

const clearWarning = "Are you sure you want to clear all bookings? This cannot be undone."

type SeatLedger interface {
	RecomputeBookedSeats(ctx context.Context, events []models.EventDescriptor) (map[string]int, error)
}

// RebuildSeats recomputes live booked counts from the ledger and
// replaces the store's counts with them.
func RebuildSeats(ctx context.Context, store *catalog.Store, led SeatLedger) error {
	booked, err := led.RecomputeBookedSeats(ctx, store.Events())
	if err != nil {
		return err
	}
	store.ApplyBooked(booked)
	return nil
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	records, err := h.Ledger.All(r.Context())
	if err != nil {
		h.Logger.Error("LEDGER", fmt.Sprintf("Failed to read bookings: %v", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse("Could not read bookings", err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse(fmt.Sprintf("%d bookings", len(records)), records))
}

func (h *Handler) RequestClear(w http.ResponseWriter, r *http.Request) {
	conf, err := h.Ledger.RequestClear(r.Context())
	if err != nil {
		h.Logger.Error("LEDGER", fmt.Sprintf("Failed to issue clear confirmation: %v", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse("Could not start clear", err.Error()))
		return
	}
	writeJSON(w, http.StatusAccepted, SuccessResponse(clearWarning, conf))
}

func (h *Handler) ConfirmClear(w http.ResponseWriter, r *http.Request) {
	err := h.Ledger.Clear(r.Context(), chi.URLParam(r, "token"))
	if errors.Is(err, ledger.ErrClearNotConfirmed) {
		writeJSON(w, http.StatusConflict, ErrorResponse("Clear was not confirmed", err.Error()))
		return
	}
	if err != nil {
		h.Logger.Error("LEDGER", fmt.Sprintf("Failed to clear bookings: %v", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse("Could not clear bookings", err.Error()))
		return
	}

	if err := RebuildSeats(r.Context(), h.Store, h.Ledger); err != nil {
		h.Logger.Error("LEDGER", fmt.Sprintf("Failed to rebuild seat counts: %v", err))
	}
	writeJSON(w, http.StatusOK, SuccessResponse("All bookings cleared", nil))
}
