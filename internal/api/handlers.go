package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"citabot/internal/app"
	"citabot/internal/conversation"
	"citabot/internal/export"
	"citabot/internal/models"
	"citabot/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type handlers struct {
	app    *app.App
	ready  ReadyFunc
	logger *zerolog.Logger
}

type bookingResult struct {
	ID      int64           `json:"id"`
	Found   bool            `json:"found"`
	Booking *models.Booking `json:"booking,omitempty"`
}

type tabRequest struct {
	Tab models.Tab `json:"tab"`
}

type viewRequest struct {
	View models.View `json:"view"`
}

type monthRequest struct {
	Delta int `json:"delta"`
}

type dateRequest struct {
	Date string `json:"date"`
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("readiness check failed")
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *handlers) listBookings(w http.ResponseWriter, r *http.Request) {
	var (
		bookings []models.Booking
		err      error
	)
	if date := r.URL.Query().Get("date"); date != "" {
		bookings, err = h.app.Bookings.ForDate(r.Context(), date)
	} else {
		bookings, err = h.app.Bookings.List(r.Context())
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *handlers) pendingBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.app.Bookings.Pending(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *handlers) exportBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.app.Bookings.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}

	now := h.app.Clock()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(now)))
	if err := export.WriteBookings(w, h.app.Config.Clinic.Name, bookings, now); err != nil {
		// заголовки уже ушли, остаётся только лог
		h.logger.Error().Err(err).Msg("export bookings")
	}
}

func (h *handlers) validateBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}
	found, err := h.app.Bookings.Validate(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	res := bookingResult{ID: id, Found: found}
	if found {
		if res.Booking, err = h.app.Bookings.Get(r.Context(), id); err != nil {
			h.fail(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) rejectBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}
	before, err := h.app.Bookings.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	found, err := h.app.Bookings.Reject(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	res := bookingResult{ID: id, Found: found}
	if found {
		res.Booking = before
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) listMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.app.Messages.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *handlers) conversationState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Player.State())
}

func (h *handlers) startConversation(w http.ResponseWriter, r *http.Request) {
	state, err := h.app.Player.Start(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, state)
}

func (h *handlers) simulatePayment(w http.ResponseWriter, r *http.Request) {
	state, err := h.app.Player.SimulatePayment(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, state)
}

// validateFromReception confirms the booking the finished chat created.
func (h *handlers) validateFromReception(w http.ResponseWriter, r *http.Request) {
	booking, err := h.app.ValidateFromReception(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	res := bookingResult{Found: booking != nil, Booking: booking}
	if booking != nil {
		res.ID = booking.ID
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) getScreen(w http.ResponseWriter, r *http.Request) {
	screen, err := h.app.Screen.Get(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screen)
}

func (h *handlers) selectTab(w http.ResponseWriter, r *http.Request) {
	var req tabRequest
	if !h.decode(w, r, &req) {
		return
	}
	screen, err := h.app.Screen.SelectTab(r.Context(), req.Tab)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screen)
}

func (h *handlers) changeMonth(w http.ResponseWriter, r *http.Request) {
	var req monthRequest
	if !h.decode(w, r, &req) {
		return
	}
	screen, err := h.app.Screen.ChangeMonth(r.Context(), req.Delta)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screen)
}

func (h *handlers) setView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !h.decode(w, r, &req) {
		return
	}
	screen, err := h.app.Screen.SetView(r.Context(), device(r), req.View)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screen)
}

func (h *handlers) selectDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if !h.decode(w, r, &req) {
		return
	}
	screen, err := h.app.Screen.SelectDate(r.Context(), device(r), req.Date)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screen)
}

func (h *handlers) calendarView(w http.ResponseWriter, r *http.Request) {
	view, err := h.app.Views.Calendar(r.Context(), device(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) dayView(w http.ResponseWriter, r *http.Request) {
	view, err := h.app.Views.Day(r.Context(), device(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) paymentsView(w http.ResponseWriter, r *http.Request) {
	view, err := h.app.Views.Payments(r.Context(), device(r))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) chatView(w http.ResponseWriter, r *http.Request) {
	view, err := h.app.Views.Chat(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *handlers) infoView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Views.Info())
}

func (h *handlers) resetDemo(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Reset(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *handlers) bookingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return 0, false
	}
	return id, true
}

func (h *handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// fail maps service errors onto status codes.
func (h *handlers) fail(w http.ResponseWriter, err error) {
	switch {
	case service.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrNotAwaitingPayment), errors.Is(err, conversation.ErrNoBooking):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func device(r *http.Request) models.Device {
	return models.Device(chi.URLParam(r, "device"))
}
