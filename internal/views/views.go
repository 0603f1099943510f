// Package views turns service state into the view models the phone,
// tablet, chat and info screens render.
package views

import (
	"fmt"
	"time"

	"citabot/internal/calendar"
	"citabot/internal/conversation"
	"citabot/internal/models"
	"citabot/internal/service"
)

const (
	AccentPurple = "purple"
	AccentBlue   = "blue"
)

// Slot states in the day agenda.
const (
	SlotConfirmed = "confirmed"
	SlotPending   = "pending"
	SlotAvailable = "available"
)

// Chat actions.
const (
	ActionStart      = "start"
	ActionPay        = "pay"
	ActionInProgress = "in_progress"
	ActionDone       = "done"
)

// BookingView is a booking as every screen shows it, with the derived paid flag.
type BookingView struct {
	ID      int64                `json:"id"`
	Date    string               `json:"date"`
	Time    string               `json:"time"`
	Client  string               `json:"client"`
	Phone   string               `json:"phone"`
	Service string               `json:"service"`
	Status  models.BookingStatus `json:"status"`
	Paid    bool                 `json:"paid"`
}

func NewBookingView(b models.Booking) BookingView {
	return BookingView{
		ID:      b.ID,
		Date:    b.Date,
		Time:    b.Time,
		Client:  b.Client,
		Phone:   b.Phone,
		Service: b.Service,
		Status:  b.Status,
		Paid:    b.Paid(),
	}
}

func NewBookingViews(list []models.Booking) []BookingView {
	out := make([]BookingView, 0, len(list))
	for _, b := range list {
		out = append(out, NewBookingView(b))
	}
	return out
}

// Frame is the per-device chrome shared by the three sub-views.
type Frame struct {
	Device models.Device `json:"device"`
	Label  string        `json:"label"`
	Accent string        `json:"accent"`
	View   models.View   `json:"view"`
}

func NewFrame(device models.Device, view models.View) Frame {
	f := Frame{Device: device, View: view, Accent: AccentBlue, Label: "Tablet Recepción"}
	if device == models.DevicePhone {
		f.Accent = AccentPurple
		f.Label = "Teléfono Principal"
	}
	return f
}

type CalendarView struct {
	Frame
	Title          string          `json:"title"`
	MonthLabel     string          `json:"month_label"`
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	DayNames       []string        `json:"day_names"`
	Cells          []calendar.Cell `json:"cells"`
	SelectedDate   string          `json:"selected_date"`
	UnpaidCount    int             `json:"unpaid_count"`
	PaymentsButton string          `json:"payments_button"`
}

// Calendar renders the displayed month of screen for device.
func Calendar(device models.Device, screen *models.Screen, counts map[string]int, unpaid int, today time.Time) CalendarView {
	month := time.Month(screen.DisplayedMonth)
	marks := calendar.Marks{Today: today, Bookings: counts}
	if sel, err := models.ParseDate(screen.SelectedDate, today.Location()); err == nil {
		marks.Selected = sel
	}

	return CalendarView{
		Frame:          NewFrame(device, models.ViewCalendar),
		Title:          "Calendario de Citas",
		MonthLabel:     calendar.MonthLabel(screen.DisplayedYear, month),
		Year:           screen.DisplayedYear,
		Month:          screen.DisplayedMonth,
		DayNames:       calendar.DayNames,
		Cells:          calendar.Month(screen.DisplayedYear, month, marks),
		SelectedDate:   screen.SelectedDate,
		UnpaidCount:    unpaid,
		PaymentsButton: fmt.Sprintf("Ver Pagos Pendientes (%d)", unpaid),
	}
}

type SlotView struct {
	Time    string       `json:"time"`
	State   string       `json:"state"`
	Label   string       `json:"label"`
	Booking *BookingView `json:"booking,omitempty"`
}

type DayView struct {
	Frame
	Title       string     `json:"title"`
	Date        string     `json:"date"`
	Slots       []SlotView `json:"slots"`
	UnpaidCount int        `json:"unpaid_count"`
	SyncNote    string     `json:"sync_note"`
}

// Day renders the agenda of day. entries come from the booking service, one
// per configured slot.
func Day(device models.Device, day time.Time, entries []service.SlotEntry, unpaid int) DayView {
	slots := make([]SlotView, 0, len(entries))
	for _, e := range entries {
		sv := SlotView{Time: e.Time, State: SlotAvailable, Label: "Disponible"}
		if e.Booking != nil {
			bv := NewBookingView(*e.Booking)
			sv.Booking = &bv
			if bv.Paid {
				sv.State, sv.Label = SlotConfirmed, "Confirmada"
			} else {
				sv.State, sv.Label = SlotPending, "Pendiente"
			}
		}
		slots = append(slots, sv)
	}

	note := "Actualizaciones instantáneas en todos los dispositivos"
	if device == models.DevicePhone {
		note = "Los cambios se reflejan instantáneamente en la tablet"
	}

	return DayView{
		Frame:       NewFrame(device, models.ViewDay),
		Title:       fmt.Sprintf("Agenda del %d de %s", day.Day(), calendar.MonthName(day.Month())),
		Date:        models.FormatDate(day),
		Slots:       slots,
		UnpaidCount: unpaid,
		SyncNote:    note,
	}
}

type PaymentsView struct {
	Frame
	Title       string        `json:"title"`
	Pending     []BookingView `json:"pending"`
	Empty       bool          `json:"empty"`
	EmptyTitle  string        `json:"empty_title,omitempty"`
	EmptyDetail string        `json:"empty_detail,omitempty"`
}

func Payments(device models.Device, pending []models.Booking) PaymentsView {
	v := PaymentsView{
		Frame:   NewFrame(device, models.ViewPayments),
		Title:   "Pagos Pendientes de Validación",
		Pending: NewBookingViews(pending),
	}
	if len(pending) == 0 {
		v.Empty = true
		v.EmptyTitle = "No hay pagos pendientes"
		v.EmptyDetail = "Todos los pagos han sido validados"
	}
	return v
}

type ChatView struct {
	Clinic       string             `json:"clinic"`
	Messages     []models.Message   `json:"messages"`
	Conversation conversation.State `json:"conversation"`
	Action       string             `json:"action"`
	ActionLabel  string             `json:"action_label"`
}

func Chat(clinic string, msgs []models.Message, st conversation.State) ChatView {
	v := ChatView{Clinic: clinic, Messages: msgs, Conversation: st}
	switch st.Status {
	case conversation.StatusAwaitingPayment:
		v.Action, v.ActionLabel = ActionPay, "Simular pago con QR"
	case conversation.StatusPlaying, conversation.StatusValidating:
		v.Action, v.ActionLabel = ActionInProgress, "Conversación automática en progreso..."
	case conversation.StatusCompleted:
		v.Action, v.ActionLabel = ActionDone, "Simular validación desde recepción"
	default:
		v.Action, v.ActionLabel = ActionStart, "Iniciar Simulación de Conversación"
	}
	return v
}

type Step struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Color  string `json:"color"`
}

type Feature struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type InfoView struct {
	Title          string    `json:"title"`
	Steps          []Step    `json:"steps"`
	DepositPercent int       `json:"deposit_percent"`
	Features       []Feature `json:"features"`
}

func Info() InfoView {
	return InfoView{
		Title: "Flujo del Sistema de Reservas",
		Steps: []Step{
			{Number: 1, Title: "PENDIENTE", Color: "yellow", Detail: fmt.Sprintf("Cliente reservó horario pero AÚN NO ha pagado el adelanto del %d%%", models.DepositPercent)},
			{Number: 2, Title: "EN VALIDACIÓN", Color: "blue", Detail: "Cliente envió comprobante. Aparece en \"Pagos Pendientes de Validación\""},
			{Number: 3, Title: "CONFIRMADA", Color: "green", Detail: "Pago validado. Cita 100% confirmada y horario bloqueado definitivamente"},
		},
		DepositPercent: models.DepositPercent,
		Features: []Feature{
			{Title: "Respuestas automáticas 24/7", Detail: "Bot responde instantáneamente en WhatsApp"},
			{Title: "Vista de calendario mensual", Detail: "Visualización clara de todas las citas"},
			{Title: "Agenda diaria detallada", Detail: "Horarios con información completa del paciente"},
			{Title: "Bloqueo automático de horarios", Detail: "Evita reservas duplicadas"},
			{Title: fmt.Sprintf("Pago con QR del %d%%", models.DepositPercent), Detail: "Confirmación segura de citas"},
			{Title: "Panel de validación", Detail: "Control total para la recepcionista"},
			{Title: "Sincronización en tiempo real", Detail: "Teléfono y tablet siempre actualizados"},
			{Title: "Gestión desde múltiples dispositivos", Detail: "Control total desde cualquier lugar"},
		},
	}
}
