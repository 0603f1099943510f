package models

import (
	"encoding/json"
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
)

// Valid reports whether s is one of the known booking states.
func (s BookingStatus) Valid() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking is a reserved slot. Status is the single source of truth for
// payment: a booking is paid exactly when it is confirmed. CreatedAt and
// UpdatedAt are set by the stores and are not part of the booking itself.
type Booking struct {
	ID        int64         `json:"id" yaml:"id"`
	Date      string        `json:"date" yaml:"date"` // YYYY-MM-DD
	Time      string        `json:"time" yaml:"time"` // HH:MM
	Client    string        `json:"client" yaml:"client"`
	Phone     string        `json:"phone" yaml:"phone"`
	Service   string        `json:"service" yaml:"service"`
	Status    BookingStatus `json:"status" yaml:"status"`
	CreatedAt time.Time     `json:"created_at" yaml:"-"`
	UpdatedAt time.Time     `json:"updated_at" yaml:"-"`
}

func (b Booking) Paid() bool {
	return b.Status == StatusConfirmed
}

// MarshalJSON adds the derived paid flag. Decoding ignores it.
func (b Booking) MarshalJSON() ([]byte, error) {
	type plain Booking
	return json.Marshal(struct {
		plain
		Paid bool `json:"paid"`
	}{plain: plain(b), Paid: b.Paid()})
}

// Day parses the booking date in loc.
func (b Booking) Day(loc *time.Location) (time.Time, error) {
	return ParseDate(b.Date, loc)
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidSlot reports whether s looks like an HH:MM slot label.
func ValidSlot(s string) bool {
	_, err := time.Parse(SlotLayout, s)
	return err == nil && len(s) == len(SlotLayout)
}
