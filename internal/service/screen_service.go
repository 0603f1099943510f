package service

import (
	"context"
	"sync"
	"time"

	"citabot/internal/calendar"
	"citabot/internal/domain"
	"citabot/internal/events"
	"citabot/internal/models"

	"github.com/rs/zerolog"
)

// ScreenDefaults is what a fresh or reset screen shows.
type ScreenDefaults struct {
	SelectedDate string
	Year         int
	Month        time.Month
}

// ScreenService keeps the navigation state shared by phone and tablet.
type ScreenService struct {
	repo     domain.ScreenRepository
	eventBus domain.EventPublisher
	clock    func() time.Time
	loc      *time.Location
	defaults ScreenDefaults
	logger   *zerolog.Logger

	// read-modify-write of the screen must not interleave
	mu sync.Mutex
}

func NewScreenService(repo domain.ScreenRepository, eventBus domain.EventPublisher, clock func() time.Time, loc *time.Location, defaults ScreenDefaults, logger *zerolog.Logger) *ScreenService {
	if clock == nil {
		clock = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &ScreenService{
		repo:     repo,
		eventBus: eventBus,
		clock:    clock,
		loc:      loc,
		defaults: defaults,
		logger:   logger,
	}
}

func (s *ScreenService) initial() *models.Screen {
	return &models.Screen{
		ID:             models.DefaultScreenID,
		ActiveTab:      models.TabWhatsApp,
		PhoneView:      models.ViewCalendar,
		TabletView:     models.ViewCalendar,
		SelectedDate:   s.defaults.SelectedDate,
		DisplayedYear:  s.defaults.Year,
		DisplayedMonth: int(s.defaults.Month),
		UpdatedAt:      time.Now(),
	}
}

// Get returns the current screen, creating the default one on first use.
func (s *ScreenService) Get(ctx context.Context) (*models.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *ScreenService) load(ctx context.Context) (*models.Screen, error) {
	screen, err := s.repo.GetScreen(ctx, models.DefaultScreenID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get screen state")
		return nil, err
	}
	if screen != nil {
		return screen, nil
	}

	screen = s.initial()
	if err := s.repo.SetScreen(ctx, screen); err != nil {
		return nil, err
	}
	return screen, nil
}

func (s *ScreenService) update(ctx context.Context, mutate func(*models.Screen) error) (*models.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	screen, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := mutate(screen); err != nil {
		return nil, err
	}
	screen.UpdatedAt = time.Now()
	if err := s.repo.SetScreen(ctx, screen); err != nil {
		return nil, err
	}

	s.publish(screen)
	return screen, nil
}

// SelectTab switches the top-level tab. Entering the phone or tablet tab
// brings that device back to its calendar.
func (s *ScreenService) SelectTab(ctx context.Context, tab models.Tab) (*models.Screen, error) {
	if !tab.Valid() {
		return nil, ErrUnknownTab
	}
	return s.update(ctx, func(screen *models.Screen) error {
		screen.ActiveTab = tab
		switch tab {
		case models.TabPhone:
			screen.SetViewOf(models.DevicePhone, models.ViewCalendar)
		case models.TabTablet:
			screen.SetViewOf(models.DeviceTablet, models.ViewCalendar)
		}
		return nil
	})
}

func (s *ScreenService) SetView(ctx context.Context, device models.Device, view models.View) (*models.Screen, error) {
	if !device.Valid() {
		return nil, ErrUnknownDevice
	}
	if !view.Valid() {
		return nil, ErrUnknownView
	}
	return s.update(ctx, func(screen *models.Screen) error {
		screen.SetViewOf(device, view)
		return nil
	})
}

// ChangeMonth moves the displayed month by delta, across year boundaries.
func (s *ScreenService) ChangeMonth(ctx context.Context, delta int) (*models.Screen, error) {
	return s.update(ctx, func(screen *models.Screen) error {
		y, m := calendar.Shift(screen.DisplayedYear, time.Month(screen.DisplayedMonth), delta)
		screen.DisplayedYear = y
		screen.DisplayedMonth = int(m)
		return nil
	})
}

// SelectDate picks a day on device and opens its agenda. Days before today
// cannot be selected.
func (s *ScreenService) SelectDate(ctx context.Context, device models.Device, date string) (*models.Screen, error) {
	if !device.Valid() {
		return nil, ErrUnknownDevice
	}
	day, err := models.ParseDate(date, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if s.IsPast(day) {
		return nil, ErrPastDate
	}

	return s.update(ctx, func(screen *models.Screen) error {
		screen.SelectedDate = models.FormatDate(day)
		screen.DisplayedYear = day.Year()
		screen.DisplayedMonth = int(day.Month())
		screen.SetViewOf(device, models.ViewDay)
		return nil
	})
}

// Reset puts the default screen back.
func (s *ScreenService) Reset(ctx context.Context) (*models.Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ClearScreen(ctx, models.DefaultScreenID); err != nil {
		return nil, err
	}
	screen := s.initial()
	if err := s.repo.SetScreen(ctx, screen); err != nil {
		return nil, err
	}
	s.publish(screen)
	return screen, nil
}

// Today is midnight of the current demo day in the clinic timezone.
func (s *ScreenService) Today() time.Time {
	now := s.clock().In(s.loc)
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func (s *ScreenService) IsPast(day time.Time) bool {
	return day.In(s.loc).Before(s.Today())
}

func (s *ScreenService) Location() *time.Location {
	return s.loc
}

func (s *ScreenService) publish(screen *models.Screen) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(events.EventScreenChanged, screen); err != nil {
		s.logger.Error().Err(err).Msg("publish event error")
	}
}
