// Package calendar lays out month grids for the booking views.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// DayNames is the Sunday-first weekday header.
var DayNames = []string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}

// Cell is one square of the month grid. Blank cells pad the first week.
type Cell struct {
	Blank       bool      `json:"blank"`
	Date        time.Time `json:"-"`
	Key         string    `json:"date,omitempty"` // YYYY-MM-DD
	Day         int       `json:"day,omitempty"`
	Bookings    int       `json:"bookings,omitempty"`
	HasBookings bool      `json:"has_bookings,omitempty"`
	IsToday     bool      `json:"is_today,omitempty"`
	IsSelected  bool      `json:"is_selected,omitempty"`
	IsPast      bool      `json:"is_past,omitempty"`
	Selectable  bool      `json:"selectable"`
}

// Marks carries what the grid annotates. Bookings is keyed by YYYY-MM-DD.
type Marks struct {
	Today    time.Time
	Selected time.Time
	Bookings map[string]int
}

// Month builds the grid for year/month: LeadingBlanks empty cells followed
// by one cell per day. Days before Today are past and not selectable.
func Month(year int, month time.Month, marks Marks) []Cell {
	loc := time.Local
	if !marks.Today.IsZero() {
		loc = marks.Today.Location()
	}

	blanks := LeadingBlanks(year, month)
	days := DaysIn(year, month)
	cells := make([]Cell, 0, blanks+days)

	for i := 0; i < blanks; i++ {
		cells = append(cells, Cell{Blank: true})
	}

	for d := 1; d <= days; d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, loc)
		key := date.Format("2006-01-02")
		count := marks.Bookings[key]
		today := !marks.Today.IsZero() && SameDay(date, marks.Today)
		past := !marks.Today.IsZero() && !today && date.Before(marks.Today)

		cells = append(cells, Cell{
			Date:        date,
			Key:         key,
			Day:         d,
			Bookings:    count,
			HasBookings: count > 0,
			IsToday:     today,
			IsSelected:  !marks.Selected.IsZero() && SameDay(date, marks.Selected),
			IsPast:      past,
			Selectable:  !past,
		})
	}

	return cells
}

// LeadingBlanks is the weekday index (Sunday = 0) of the first day of the month.
func LeadingBlanks(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// DaysIn returns the number of days in month.
func DaysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// Shift moves year/month by delta months, crossing year boundaries.
func Shift(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	return t.Year(), t.Month()
}

// SameDay compares calendar dates, ignoring time of day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MonthName returns the Spanish month name.
func MonthName(month time.Month) string {
	if month < time.January || month > time.December {
		return ""
	}
	return monthNames[month-1]
}

// MonthLabel renders "Noviembre 2025".
func MonthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", MonthName(month), year)
}

// LongDate renders "25 de noviembre".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s", t.Day(), strings.ToLower(MonthName(t.Month())))
}
