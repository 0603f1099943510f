package models

import "time"

type Tab string

const (
	TabWhatsApp Tab = "whatsapp"
	TabPhone    Tab = "phone"
	TabTablet   Tab = "tablet"
	TabInfo     Tab = "info"
)

func (t Tab) Valid() bool {
	switch t {
	case TabWhatsApp, TabPhone, TabTablet, TabInfo:
		return true
	default:
		return false
	}
}

type Device string

const (
	DevicePhone  Device = "phone"
	DeviceTablet Device = "tablet"
)

func (d Device) Valid() bool {
	return d == DevicePhone || d == DeviceTablet
}

type View string

const (
	ViewCalendar View = "calendar"
	ViewDay      View = "day"
	ViewPayments View = "payments"
)

func (v View) Valid() bool {
	switch v {
	case ViewCalendar, ViewDay, ViewPayments:
		return true
	default:
		return false
	}
}

// Screen is the navigation state shared by every rendering of the demo.
// Sub-views are tracked per device; the selected date and the displayed
// month are shared between phone and tablet.
type Screen struct {
	ID             string    `json:"id"`
	ActiveTab      Tab       `json:"active_tab"`
	PhoneView      View      `json:"phone_view"`
	TabletView     View      `json:"tablet_view"`
	SelectedDate   string    `json:"selected_date"`
	DisplayedYear  int       `json:"displayed_year"`
	DisplayedMonth int       `json:"displayed_month"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ViewOf returns the sub-view currently shown on d.
func (s *Screen) ViewOf(d Device) View {
	if d == DeviceTablet {
		return s.TabletView
	}
	return s.PhoneView
}

// SetViewOf switches the sub-view shown on d.
func (s *Screen) SetViewOf(d Device, v View) {
	if d == DeviceTablet {
		s.TabletView = v
		return
	}
	s.PhoneView = v
}
