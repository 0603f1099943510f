package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"citabot/internal/calendar"
	"citabot/internal/domain"
	"citabot/internal/events"
	"citabot/internal/metrics"
	"citabot/internal/models"
	"citabot/internal/worker"

	"github.com/rs/zerolog"
)

const (
	confirmTimerPrefix = "confirm:"
	// метка времени сообщения о подтверждении в сценарии
	confirmationTimeLabel = "10:36"
)

// BookingSettings carries the clinic configuration the booking service needs.
type BookingSettings struct {
	Slots             []string
	Seed              []models.Booking
	ConfirmationDelay time.Duration
	Location          *time.Location
}

// SlotEntry is one row of a day agenda. Booking is nil for a free slot.
type SlotEntry struct {
	Time    string
	Booking *models.Booking
}

type BookingService struct {
	repo         domain.BookingRepository
	eventBus     domain.EventPublisher
	messages     domain.MessageAppender
	timers       *worker.Timers
	slots        []string
	seed         []models.Booking
	confirmDelay time.Duration
	loc          *time.Location
	logger       *zerolog.Logger
}

func NewBookingService(repo domain.BookingRepository, eventBus domain.EventPublisher, messages domain.MessageAppender, timers *worker.Timers, settings BookingSettings, logger *zerolog.Logger) *BookingService {
	slots := settings.Slots
	if len(slots) == 0 {
		slots = models.DefaultTimeSlots
	}
	loc := settings.Location
	if loc == nil {
		loc = time.Local
	}
	return &BookingService{
		repo:         repo,
		eventBus:     eventBus,
		messages:     messages,
		timers:       timers,
		slots:        append([]string(nil), slots...),
		seed:         models.CloneBookings(settings.Seed),
		confirmDelay: settings.ConfirmationDelay,
		loc:          loc,
		logger:       logger,
	}
}

func (s *BookingService) List(ctx context.Context) ([]models.Booking, error) {
	return s.repo.ListBookings(ctx)
}

func (s *BookingService) Get(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// ForDate returns the bookings of one day in insertion order.
func (s *BookingService) ForDate(ctx context.Context, date string) ([]models.Booking, error) {
	if _, err := models.ParseDate(date, s.loc); err != nil {
		return nil, ErrInvalidDate
	}

	all, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Booking
	for _, b := range all {
		if b.Date == date {
			out = append(out, b)
		}
	}
	return out, nil
}

// Pending returns the bookings still waiting for payment validation.
func (s *BookingService) Pending(ctx context.Context) ([]models.Booking, error) {
	all, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Booking
	for _, b := range all {
		if !b.Paid() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *BookingService) CountByDate(ctx context.Context) (map[string]int, error) {
	all, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(all))
	for _, b := range all {
		counts[b.Date]++
	}
	return counts, nil
}

// DaySchedule lays the configured slots of date out with the first booking
// (in insertion order) that occupies each of them.
func (s *BookingService) DaySchedule(ctx context.Context, date string) ([]SlotEntry, error) {
	day, err := s.ForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	entries := make([]SlotEntry, 0, len(s.slots))
	for _, slot := range s.slots {
		entry := SlotEntry{Time: slot}
		for i := range day {
			if day[i].Time == slot {
				b := day[i]
				entry.Booking = &b
				break
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *BookingService) Create(ctx context.Context, booking models.Booking) (models.Booking, error) {
	if _, err := models.ParseDate(booking.Date, s.loc); err != nil {
		return models.Booking{}, ErrInvalidDate
	}
	if !models.ValidSlot(booking.Time) {
		return models.Booking{}, ErrInvalidSlot
	}
	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	if !booking.Status.Valid() {
		return models.Booking{}, ErrInvalidStatus
	}

	booking.ID = 0
	if err := s.repo.CreateBooking(ctx, &booking); err != nil {
		return models.Booking{}, err
	}

	metrics.IncBooking("created", 1)
	s.publishEvent(events.EventBookingCreated, booking, 0)
	s.refreshPending(ctx)

	return booking, nil
}

// Validate confirms the booking. Unknown IDs are a no-op reported as false.
// The confirmation chat message follows after the configured delay, only
// when the booking actually moved out of pending.
func (s *BookingService) Validate(ctx context.Context, id int64) (bool, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return false, err
	}
	if booking == nil {
		return false, nil
	}
	if booking.Paid() {
		return true, nil
	}

	booking.Status = models.StatusConfirmed
	ok, err := s.repo.UpdateBooking(ctx, booking)
	if err != nil {
		return false, err
	}
	if !ok {
		// удалена между чтением и записью
		return false, nil
	}

	metrics.IncBooking("validated", 1)
	s.publishEvent(events.EventBookingConfirmed, *booking, 0)
	s.refreshPending(ctx)
	s.scheduleConfirmation(*booking)

	s.logger.Info().Int64("booking_id", id).Str("client", booking.Client).Msg("payment validated")
	return true, nil
}

// Reject removes the booking. Unknown IDs are a no-op reported as false.
func (s *BookingService) Reject(ctx context.Context, id int64) (bool, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return false, err
	}

	ok, err := s.repo.DeleteBooking(ctx, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if s.timers != nil {
		s.timers.Cancel(confirmTimerKey(id))
	}

	snapshot := models.Booking{ID: id}
	if booking != nil {
		snapshot = *booking
	}
	metrics.IncBooking("rejected", 1)
	s.publishEvent(events.EventBookingRejected, snapshot, 0)
	s.refreshPending(ctx)

	s.logger.Info().Int64("booking_id", id).Msg("booking rejected")
	return true, nil
}

// ReleaseAll drops every booking. It runs when a payment deadline elapses.
func (s *BookingService) ReleaseAll(ctx context.Context) (int, error) {
	n, err := s.repo.ClearBookings(ctx)
	if err != nil {
		return 0, err
	}
	if s.timers != nil {
		s.timers.CancelPrefix(confirmTimerPrefix)
	}

	metrics.IncBooking("released", n)
	s.publishEvent(events.EventBookingsReleased, models.Booking{}, n)
	s.refreshPending(ctx)

	s.logger.Warn().Int("count", n).Msg("booking list released")
	return n, nil
}

// Reset restores the seed list and drops pending confirmations.
func (s *BookingService) Reset(ctx context.Context) error {
	if s.timers != nil {
		s.timers.CancelPrefix(confirmTimerPrefix)
	}
	if err := s.repo.ReplaceBookings(ctx, s.seed); err != nil {
		return fmt.Errorf("reset bookings: %w", err)
	}

	s.publishEvent(events.EventBookingsReset, models.Booking{}, len(s.seed))
	s.refreshPending(ctx)
	return nil
}

func (s *BookingService) scheduleConfirmation(booking models.Booking) {
	if s.messages == nil {
		return
	}

	text := ConfirmationText(booking, s.loc)
	send := func() {
		msg := models.Message{Sender: models.SenderBot, Text: text, Time: confirmationTimeLabel}
		if _, err := s.messages.Append(context.Background(), msg); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("append confirmation message error")
		}
	}

	if s.timers == nil {
		send()
		return
	}
	s.timers.Schedule(confirmTimerKey(booking.ID), s.confirmDelay, send)
}

// ConfirmationText is the bot message sent once a payment is validated.
func ConfirmationText(booking models.Booking, loc *time.Location) string {
	when := booking.Date
	if day, err := booking.Day(loc); err == nil {
		when = calendar.LongDate(day)
	}
	return fmt.Sprintf(
		"Pago validado y confirmado!\n\nTu cita está reservada para el %s a las %s.\n\nTe enviaremos un recordatorio 24 horas antes. ¡Gracias!",
		when, booking.Time,
	)
}

func confirmTimerKey(id int64) string {
	return confirmTimerPrefix + strconv.FormatInt(id, 10)
}

func (s *BookingService) refreshPending(ctx context.Context) {
	pending, err := s.Pending(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("count pending bookings error")
		return
	}
	metrics.SetPending(len(pending))
}

func (s *BookingService) publishEvent(eventType string, booking models.Booking, count int) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		Client:    booking.Client,
		Date:      booking.Date,
		Time:      booking.Time,
		Status:    string(booking.Status),
		Paid:      booking.Paid(),
		Count:     count,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
