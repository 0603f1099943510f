package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"citabot/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
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
	args := m.Called(ctx, screen)
	return args.Error(0)
}

func (m *mockScreenRepo) ClearScreen(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestFailoverScreenRepository(t *testing.T) {
	primary := new(mockScreenRepo)
	fallback := new(mockScreenRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverScreenRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		screen := &models.Screen{ID: "a"}
		primary.On("GetScreen", ctx, "a").Return(screen, nil).Once()

		got, err := repo.GetScreen(ctx, "a")
		assert.NoError(t, err)
		assert.Equal(t, screen, got)
		primary.AssertExpectations(t)
	})

	t.Run("SetWritesBoth", func(t *testing.T) {
		screen := &models.Screen{ID: "a"}
		primary.On("SetScreen", ctx, screen).Return(nil).Once()
		fallback.On("SetScreen", ctx, screen).Return(nil).Once()

		assert.NoError(t, repo.SetScreen(ctx, screen))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		screen := &models.Screen{ID: "b"}
		primary.On("GetScreen", ctx, "b").Return(nil, errors.New("fail")).Once()
		fallback.On("GetScreen", ctx, "b").Return(screen, nil).Once()

		got, err := repo.GetScreen(ctx, "b")
		assert.NoError(t, err)
		assert.Equal(t, screen, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("StaysOnFallbackWhileDown", func(t *testing.T) {
		screen := &models.Screen{ID: "c"}
		fallback.On("SetScreen", ctx, screen).Return(nil).Once()

		assert.NoError(t, repo.SetScreen(ctx, screen))
		primary.AssertNotCalled(t, "SetScreen", ctx, screen)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		screen := &models.Screen{ID: "d"}
		primary.On("GetScreen", ctx, "d").Return(screen, nil).Once()

		got, err := repo.GetScreen(ctx, "d")
		assert.NoError(t, err)
		assert.Equal(t, screen, got)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})
}
