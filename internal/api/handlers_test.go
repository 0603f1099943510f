package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"citabot/internal/app"
	"citabot/internal/config"
	"citabot/internal/conversation"
	"citabot/internal/models"
	"citabot/internal/views"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testConfig() *config.Config {
	return &config.Config{
		Clinic: config.ClinicConfig{
			Name:           "Clínica Dental Sonrisas",
			Timezone:       "UTC",
			Slots:          models.DefaultTimeSlots,
			Today:          "2025-11-22",
			SelectedDate:   "2025-11-25",
			DisplayedMonth: "2025-11",
		},
		Simulation: config.SimulationConfig{
			TurnInterval:      time.Millisecond,
			PaymentDeadline:   time.Minute,
			AckDelay:          time.Millisecond,
			ConfirmationDelay: time.Millisecond,
		},
		SeedBookings: models.DefaultSeedBookings(),
	}
}

func newTestServer(t *testing.T, ready ReadyFunc) (*httptest.Server, *app.App) {
	t.Helper()
	logger := zerolog.Nop()
	a, err := app.New(testConfig(), app.MemoryStores(), &logger)
	require.NoError(t, err)
	require.NoError(t, a.Reset(context.Background()))

	srv := httptest.NewServer(NewRouter(a, ready, config.APIRateLimitConfig{}, &logger))
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})
	return srv, a
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthAndReadiness(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var body map[string]string
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/healthz", nil, &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/readyz", nil, &body))

	down, _ := newTestServer(t, func(ctx context.Context) error { return errors.New("redis down") })
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, http.MethodGet, down.URL+"/readyz", nil, &body))
	assert.Equal(t, "store unavailable", body["error"])
}

func TestBookingEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	base := srv.URL + "/api/v1/bookings"

	var list []models.Booking
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base, nil, &list))
	assert.Len(t, list, 5)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"?date=2025-11-25", nil, &list))
	assert.Len(t, list, 2)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, base+"?date=25/11/2025", nil, &errBody))
	assert.NotEmpty(t, errBody["error"])

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/pending", nil, &list))
	assert.Len(t, list, 2)

	var res bookingResult
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/2/validate", nil, &res))
	assert.True(t, res.Found)
	require.NotNil(t, res.Booking)
	assert.Equal(t, models.StatusConfirmed, res.Booking.Status)
	assert.Equal(t, "14:00", res.Booking.Time)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/99/validate", nil, &res))
	assert.False(t, res.Found)
	assert.Nil(t, res.Booking)

	res = bookingResult{}
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/5/reject", nil, &res))
	assert.True(t, res.Found)
	require.NotNil(t, res.Booking)
	assert.Equal(t, "Lucía Fernández", res.Booking.Client)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base, nil, &list))
	assert.Len(t, list, 4)
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/pending", nil, &list))
	assert.Empty(t, list)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, base+"/abc/reject", nil, &errBody))
	assert.Equal(t, "invalid booking id", errBody["error"])
}

func TestBookingJSONReportsPaid(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	base := srv.URL + "/api/v1/bookings"

	var raw []map[string]any
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base, nil, &raw))
	require.Len(t, raw, 5)
	for _, b := range raw {
		assert.Equal(t, b["status"] == "confirmed", b["paid"], "booking %v", b["id"])
	}

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, base+"/pending", nil, &raw))
	require.Len(t, raw, 2)
	for _, b := range raw {
		assert.Equal(t, false, b["paid"])
	}

	var res map[string]any
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/2/validate", nil, &res))
	booking, ok := res["booking"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, booking["paid"])
	assert.Equal(t, "confirmed", booking["status"])

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, base+"/5/reject", nil, &res))
	booking, ok = res["booking"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, booking["paid"])
}

func TestValidateSendsConfirmationMessage(t *testing.T) {
	srv, a := newTestServer(t, nil)

	var res bookingResult
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, srv.URL+"/api/v1/bookings/2/validate", nil, &res))

	require.Eventually(t, func() bool {
		n, err := a.Messages.Count(context.Background())
		return err == nil && n == 2
	}, 2*time.Second, 5*time.Millisecond)

	var msgs []models.Message
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/messages", nil, &msgs))
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Text, "14:00")
}

func TestExportBookings(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/v1/bookings/export")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "reservas_2025-11-22.xlsx")

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Reservas")
	require.NoError(t, err)
	joined := make([]string, 0, len(rows))
	for _, row := range rows {
		joined = append(joined, strings.Join(row, "|"))
	}
	assert.Contains(t, strings.Join(joined, "\n"), "María López")
}

func TestConversationEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	base := srv.URL + "/api/v1/conversation"

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, base+"/pay", nil, &errBody))

	var state conversation.State
	require.Equal(t, http.StatusAccepted, doJSON(t, http.MethodPost, base+"/start", nil, &state))
	assert.Equal(t, conversation.StatusPlaying, state.Status)
	assert.NotEmpty(t, state.RunID)

	require.Eventually(t, func() bool {
		var st conversation.State
		doJSON(t, http.MethodGet, base, nil, &st)
		return st.Status == conversation.StatusAwaitingPayment && st.CanPay
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, http.StatusAccepted, doJSON(t, http.MethodPost, base+"/pay", nil, &state))
	assert.Equal(t, conversation.StatusValidating, state.Status)

	require.Eventually(t, func() bool {
		var st conversation.State
		doJSON(t, http.MethodGet, base, nil, &st)
		return st.Status == conversation.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	var chat views.ChatView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/chat", nil, &chat))
	assert.Equal(t, "done", chat.Action)
	assert.Equal(t, "Clínica Dental Sonrisas", chat.Clinic)

	var pending []models.Booking
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, srv.URL+"/api/v1/bookings/pending", nil, &pending))
	assert.Len(t, pending, 3)
}

func TestConversationValidateFromReception(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	api := srv.URL + "/api/v1"

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict, doJSON(t, http.MethodPost, api+"/conversation/validate", nil, &errBody))
	assert.NotEmpty(t, errBody["error"])

	require.Equal(t, http.StatusAccepted, doJSON(t, http.MethodPost, api+"/conversation/start", nil, nil))
	require.Eventually(t, func() bool {
		var st conversation.State
		doJSON(t, http.MethodGet, api+"/conversation", nil, &st)
		return st.CanPay
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, http.StatusAccepted, doJSON(t, http.MethodPost, api+"/conversation/pay", nil, nil))

	var st conversation.State
	require.Eventually(t, func() bool {
		doJSON(t, http.MethodGet, api+"/conversation", nil, &st)
		return st.Status == conversation.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)
	require.NotZero(t, st.BookingID)

	var res map[string]any
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, api+"/conversation/validate", nil, &res))
	assert.Equal(t, true, res["found"])
	assert.EqualValues(t, st.BookingID, res["id"])
	booking, ok := res["booking"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Cliente Nuevo", booking["client"])
	assert.Equal(t, true, booking["paid"])

	var screen models.Screen
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, api+"/screen", nil, &screen))
	assert.Equal(t, models.TabTablet, screen.ActiveTab)

	var pending []models.Booking
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, api+"/bookings/pending", nil, &pending))
	assert.Len(t, pending, 2)
}

func TestScreenEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	api := srv.URL + "/api/v1"

	var screen models.Screen
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, api+"/screen", nil, &screen))
	assert.Equal(t, "2025-11-25", screen.SelectedDate)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, api+"/screen/tab", tabRequest{Tab: models.TabTablet}, &screen))
	assert.Equal(t, models.TabTablet, screen.ActiveTab)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, api+"/screen/month", monthRequest{Delta: 1}, &screen))
	assert.Equal(t, 12, screen.DisplayedMonth)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, api+"/devices/tablet/date", dateRequest{Date: "2025-11-26"}, &screen))
	assert.Equal(t, "2025-11-26", screen.SelectedDate)
	assert.Equal(t, models.ViewDay, screen.TabletView)
	assert.Equal(t, 11, screen.DisplayedMonth)

	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, api+"/devices/phone/view", viewRequest{View: models.ViewPayments}, &screen))
	assert.Equal(t, models.ViewPayments, screen.PhoneView)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, api+"/devices/tablet/date", dateRequest{Date: "2025-11-20"}, &errBody))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, api+"/devices/watch/view", viewRequest{View: models.ViewDay}, &errBody))
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, api+"/screen/tab", map[string]string{"tab": "whatsapp", "extra": "x"}, &errBody))
	assert.Equal(t, "invalid request body", errBody["error"])
}

func TestDeviceViews(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	api := srv.URL + "/api/v1"

	var cal views.CalendarView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, api+"/devices/phone/calendar", nil, &cal))
	assert.Equal(t, 11, cal.Month)
	assert.Equal(t, 2, cal.UnpaidCount)

	var day views.DayView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, api+"/devices/tablet/day", nil, &day))
	assert.Equal(t, "2025-11-25", day.Date)
	assert.Len(t, day.Slots, len(models.DefaultTimeSlots))

	var payments views.PaymentsView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, api+"/devices/phone/payments", nil, &payments))
	assert.Len(t, payments.Pending, 2)
	assert.False(t, payments.Empty)

	var info views.InfoView
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodGet, api+"/info", nil, &info))
	assert.Equal(t, models.DepositPercent, info.DepositPercent)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodGet, api+"/devices/watch/calendar", nil, &errBody))
}

func TestResetDemo(t *testing.T) {
	srv, a := newTestServer(t, nil)
	api := srv.URL + "/api/v1"

	var res bookingResult
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, api+"/bookings/1/reject", nil, &res))
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, api+"/screen/tab", tabRequest{Tab: models.TabInfo}, nil))

	var body map[string]string
	require.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, api+"/demo/reset", nil, &body))
	assert.Equal(t, "reset", body["status"])

	list, err := a.Bookings.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 5)
	screen, err := a.Screen.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.TabWhatsApp, screen.ActiveTab)
}
