package views

import (
	"context"
	"time"

	"citabot/internal/conversation"
	"citabot/internal/models"
	"citabot/internal/service"
)

type BookingReader interface {
	CountByDate(ctx context.Context) (map[string]int, error)
	Pending(ctx context.Context) ([]models.Booking, error)
	DaySchedule(ctx context.Context, date string) ([]service.SlotEntry, error)
}

type ScreenReader interface {
	Get(ctx context.Context) (*models.Screen, error)
	Today() time.Time
	Location() *time.Location
}

type MessageLister interface {
	List(ctx context.Context) ([]models.Message, error)
}

type ConversationReader interface {
	State() conversation.State
}

// Builder gathers what each view needs from the services.
type Builder struct {
	clinic       string
	bookings     BookingReader
	screen       ScreenReader
	messages     MessageLister
	conversation ConversationReader
}

func NewBuilder(clinic string, bookings BookingReader, screen ScreenReader, messages MessageLister, conv ConversationReader) *Builder {
	return &Builder{
		clinic:       clinic,
		bookings:     bookings,
		screen:       screen,
		messages:     messages,
		conversation: conv,
	}
}

func (b *Builder) Calendar(ctx context.Context, device models.Device) (CalendarView, error) {
	if !device.Valid() {
		return CalendarView{}, service.ErrUnknownDevice
	}
	screen, err := b.screen.Get(ctx)
	if err != nil {
		return CalendarView{}, err
	}
	counts, err := b.bookings.CountByDate(ctx)
	if err != nil {
		return CalendarView{}, err
	}
	pending, err := b.bookings.Pending(ctx)
	if err != nil {
		return CalendarView{}, err
	}
	return Calendar(device, screen, counts, len(pending), b.screen.Today()), nil
}

// Day renders the agenda of the shared selected date.
func (b *Builder) Day(ctx context.Context, device models.Device) (DayView, error) {
	if !device.Valid() {
		return DayView{}, service.ErrUnknownDevice
	}
	screen, err := b.screen.Get(ctx)
	if err != nil {
		return DayView{}, err
	}
	day, err := models.ParseDate(screen.SelectedDate, b.screen.Location())
	if err != nil {
		return DayView{}, service.ErrInvalidDate
	}
	entries, err := b.bookings.DaySchedule(ctx, screen.SelectedDate)
	if err != nil {
		return DayView{}, err
	}
	pending, err := b.bookings.Pending(ctx)
	if err != nil {
		return DayView{}, err
	}
	return Day(device, day, entries, len(pending)), nil
}

func (b *Builder) Payments(ctx context.Context, device models.Device) (PaymentsView, error) {
	if !device.Valid() {
		return PaymentsView{}, service.ErrUnknownDevice
	}
	pending, err := b.bookings.Pending(ctx)
	if err != nil {
		return PaymentsView{}, err
	}
	return Payments(device, pending), nil
}

func (b *Builder) Chat(ctx context.Context) (ChatView, error) {
	msgs, err := b.messages.List(ctx)
	if err != nil {
		return ChatView{}, err
	}
	return Chat(b.clinic, msgs, b.conversation.State()), nil
}

func (b *Builder) Info() InfoView {
	return Info()
}
