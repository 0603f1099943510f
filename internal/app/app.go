// Package app wires the stores, services and conversation player of one
// demo session.
package app

import (
	"context"
	"fmt"
	"time"

	"citabot/internal/config"
	"citabot/internal/conversation"
	"citabot/internal/domain"
	"citabot/internal/events"
	"citabot/internal/logging"
	"citabot/internal/models"
	"citabot/internal/repository"
	"citabot/internal/service"
	"citabot/internal/views"
	"citabot/internal/worker"

	"github.com/rs/zerolog"
)

// Stores is the storage backend of a session.
type Stores struct {
	Bookings domain.BookingRepository
	Messages domain.MessageRepository
	Screens  domain.ScreenRepository
}

func MemoryStores() Stores {
	return Stores{
		Bookings: repository.NewMemoryBookingRepository(),
		Messages: repository.NewMemoryMessageRepository(),
		Screens:  repository.NewMemoryScreenRepository(),
	}
}

type App struct {
	Config   *config.Config
	Bus      *events.EventBus
	Timers   *worker.Timers
	Bookings *service.BookingService
	Messages *service.MessageService
	Screen   *service.ScreenService
	Player   *conversation.Player
	Views    *views.Builder
	Clock    func() time.Time

	logger *zerolog.Logger
}

func New(cfg *config.Config, stores Stores, logger *zerolog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("clinic timezone: %w", err)
	}
	clock := cfg.Clock()

	bus := events.NewEventBus()
	timers := worker.NewTimers(logging.Component(logger, "timers"))

	messages := service.NewMessageService(stores.Messages, bus, logging.Component(logger, "messages"))
	bookings := service.NewBookingService(stores.Bookings, bus, messages, timers, service.BookingSettings{
		Slots:             cfg.Clinic.Slots,
		Seed:              cfg.SeedBookings,
		ConfirmationDelay: cfg.Simulation.ConfirmationDelay,
		Location:          loc,
	}, logging.Component(logger, "bookings"))

	year, month := cfg.DisplayedMonth()
	screen := service.NewScreenService(stores.Screens, bus, clock, loc, service.ScreenDefaults{
		SelectedDate: cfg.Clinic.SelectedDate,
		Year:         year,
		Month:        month,
	}, logging.Component(logger, "screen"))

	player := conversation.NewPlayer(messages, bookings, timers, bus, conversation.Settings{
		TurnInterval:    cfg.Simulation.TurnInterval,
		PaymentDeadline: cfg.Simulation.PaymentDeadline,
		AckDelay:        cfg.Simulation.AckDelay,
	}, logging.Component(logger, "conversation"))

	return &App{
		Config:   cfg,
		Bus:      bus,
		Timers:   timers,
		Bookings: bookings,
		Messages: messages,
		Screen:   screen,
		Player:   player,
		Views:    views.NewBuilder(cfg.Clinic.Name, bookings, screen, messages, player),
		Clock:    clock,
		logger:   logger,
	}, nil
}

// Reset stops the running conversation and puts every store back to its
// seed values.
func (a *App) Reset(ctx context.Context) error {
	a.Player.Reset()
	if err := a.Bookings.Reset(ctx); err != nil {
		return err
	}
	if err := a.Messages.Reset(ctx); err != nil {
		return err
	}
	if _, err := a.Screen.Reset(ctx); err != nil {
		return fmt.Errorf("reset screen: %w", err)
	}
	a.logger.Info().Msg("demo state reset")
	return nil
}

// ValidateFromReception confirms the booking created by the finished chat
// and brings the reception tablet to the front.
func (a *App) ValidateFromReception(ctx context.Context) (*models.Booking, error) {
	st := a.Player.State()
	if st.Status != conversation.StatusCompleted || st.BookingID == 0 {
		return nil, conversation.ErrNoBooking
	}

	ok, err := a.Bookings.Validate(ctx, st.BookingID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// бронь уже отклонили из ресепшена
		return nil, conversation.ErrNoBooking
	}
	if _, err := a.Screen.SelectTab(ctx, models.TabTablet); err != nil {
		return nil, fmt.Errorf("select tablet tab: %w", err)
	}
	return a.Bookings.Get(ctx, st.BookingID)
}

// Close stops every pending timer.
func (a *App) Close() {
	a.Player.Close()
	a.Timers.Stop()
}
