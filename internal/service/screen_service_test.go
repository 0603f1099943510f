package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"citabot/internal/events"
	"citabot/internal/models"
	"citabot/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockScreenRepo struct {
	mock.Mock
}

func (m *mockScreenRepo) GetScreen(ctx context.Context, id string) (*models.Screen, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Screen), args.Error(1)
}

func (m *mockScreenRepo) SetScreen(ctx context.Context, screen *models.Screen) error {
	return m.Called(ctx, screen).Error(0)
}

func (m *mockScreenRepo) ClearScreen(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func newScreenService(t *testing.T) (*ScreenService, *events.EventBus) {
	t.Helper()
	logger := zerolog.Nop()
	bus := events.NewEventBus()
	now := time.Date(2025, 11, 22, 10, 0, 0, 0, time.UTC)
	svc := NewScreenService(repository.NewMemoryScreenRepository(), bus, func() time.Time { return now }, time.UTC, ScreenDefaults{
		SelectedDate: "2025-11-25",
		Year:         2025,
		Month:        time.November,
	}, &logger)
	return svc, bus
}

func TestScreenDefaults(t *testing.T) {
	svc, _ := newScreenService(t)

	screen, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.TabWhatsApp, screen.ActiveTab)
	assert.Equal(t, models.ViewCalendar, screen.PhoneView)
	assert.Equal(t, models.ViewCalendar, screen.TabletView)
	assert.Equal(t, "2025-11-25", screen.SelectedDate)
	assert.Equal(t, 2025, screen.DisplayedYear)
	assert.Equal(t, 11, screen.DisplayedMonth)
}

func TestSelectTabResetsDeviceView(t *testing.T) {
	svc, _ := newScreenService(t)
	ctx := context.Background()

	_, err := svc.SetView(ctx, models.DevicePhone, models.ViewPayments)
	require.NoError(t, err)
	_, err = svc.SetView(ctx, models.DeviceTablet, models.ViewDay)
	require.NoError(t, err)

	screen, err := svc.SelectTab(ctx, models.TabPhone)
	require.NoError(t, err)
	assert.Equal(t, models.TabPhone, screen.ActiveTab)
	assert.Equal(t, models.ViewCalendar, screen.PhoneView)
	assert.Equal(t, models.ViewDay, screen.TabletView)

	screen, err = svc.SelectTab(ctx, models.TabInfo)
	require.NoError(t, err)
	assert.Equal(t, models.TabInfo, screen.ActiveTab)
	assert.Equal(t, models.ViewDay, screen.TabletView)

	_, err = svc.SelectTab(ctx, models.Tab("settings"))
	assert.ErrorIs(t, err, ErrUnknownTab)
}

func TestSetViewValidation(t *testing.T) {
	svc, _ := newScreenService(t)
	ctx := context.Background()

	_, err := svc.SetView(ctx, models.Device("watch"), models.ViewDay)
	assert.ErrorIs(t, err, ErrUnknownDevice)
	_, err = svc.SetView(ctx, models.DevicePhone, models.View("week"))
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestChangeMonth(t *testing.T) {
	svc, _ := newScreenService(t)
	ctx := context.Background()

	screen, err := svc.ChangeMonth(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2026, screen.DisplayedYear)
	assert.Equal(t, 1, screen.DisplayedMonth)

	screen, err = svc.ChangeMonth(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, 2025, screen.DisplayedYear)
	assert.Equal(t, 12, screen.DisplayedMonth)
}

func TestSelectDate(t *testing.T) {
	svc, bus := newScreenService(t)
	ctx := context.Background()

	changes := 0
	bus.Subscribe(events.EventScreenChanged, func(*events.Event) error {
		changes++
		return nil
	})

	t.Run("FutureDay", func(t *testing.T) {
		screen, err := svc.SelectDate(ctx, models.DeviceTablet, "2025-11-26")
		require.NoError(t, err)
		assert.Equal(t, "2025-11-26", screen.SelectedDate)
		assert.Equal(t, models.ViewDay, screen.TabletView)
		assert.Equal(t, models.ViewCalendar, screen.PhoneView)
	})

	t.Run("TodayIsSelectable", func(t *testing.T) {
		screen, err := svc.SelectDate(ctx, models.DevicePhone, "2025-11-22")
		require.NoError(t, err)
		assert.Equal(t, "2025-11-22", screen.SelectedDate)
	})

	t.Run("PastDay", func(t *testing.T) {
		_, err := svc.SelectDate(ctx, models.DevicePhone, "2025-11-21")
		assert.ErrorIs(t, err, ErrPastDate)

		screen, _ := svc.Get(ctx)
		assert.Equal(t, "2025-11-22", screen.SelectedDate)
	})

	t.Run("BadInput", func(t *testing.T) {
		_, err := svc.SelectDate(ctx, models.DevicePhone, "2025-13-01")
		assert.ErrorIs(t, err, ErrInvalidDate)
		_, err = svc.SelectDate(ctx, models.Device("watch"), "2025-11-26")
		assert.ErrorIs(t, err, ErrUnknownDevice)
	})

	t.Run("FollowsMonth", func(t *testing.T) {
		screen, err := svc.SelectDate(ctx, models.DevicePhone, "2026-02-03")
		require.NoError(t, err)
		assert.Equal(t, 2026, screen.DisplayedYear)
		assert.Equal(t, 2, screen.DisplayedMonth)
	})

	assert.Equal(t, 3, changes)
}

func TestScreenReset(t *testing.T) {
	svc, _ := newScreenService(t)
	ctx := context.Background()

	_, err := svc.SelectTab(ctx, models.TabTablet)
	require.NoError(t, err)
	_, err = svc.ChangeMonth(ctx, 3)
	require.NoError(t, err)

	screen, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TabWhatsApp, screen.ActiveTab)
	assert.Equal(t, 11, screen.DisplayedMonth)
}

func TestScreenRepositoryError(t *testing.T) {
	logger := zerolog.Nop()
	repo := new(mockScreenRepo)
	svc := NewScreenService(repo, nil, nil, time.UTC, ScreenDefaults{}, &logger)
	ctx := context.Background()
	boom := errors.New("redis down")

	repo.On("GetScreen", ctx, models.DefaultScreenID).Return(nil, boom).Once()
	_, err := svc.SelectTab(ctx, models.TabInfo)
	assert.ErrorIs(t, err, boom)

	repo.On("GetScreen", ctx, models.DefaultScreenID).Return(&models.Screen{ID: models.DefaultScreenID}, nil).Once()
	repo.On("SetScreen", ctx, mock.Anything).Return(boom).Once()
	_, err = svc.SelectTab(ctx, models.TabInfo)
	assert.ErrorIs(t, err, boom)

	repo.AssertExpectations(t)
}

func TestIsPast(t *testing.T) {
	svc, _ := newScreenService(t)

	assert.True(t, svc.IsPast(time.Date(2025, 11, 21, 23, 0, 0, 0, time.UTC)))
	assert.False(t, svc.IsPast(time.Date(2025, 11, 22, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2025, 11, 22, 0, 0, 0, 0, time.UTC), svc.Today())
}
