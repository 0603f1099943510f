package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"citabot/internal/domain"
	"citabot/internal/models"

	"github.com/rs/zerolog"
)

// recoveryInterval is how long the failover store stays on the fallback
// before probing the primary again.
const recoveryInterval = time.Minute

// FailoverScreenRepository serves screen state from the primary store and
// switches to the fallback when the primary errors.
type FailoverScreenRepository struct {
	primary   domain.ScreenRepository
	fallback  domain.ScreenRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverScreenRepository(primary, fallback domain.ScreenRepository, logger *zerolog.Logger) *FailoverScreenRepository {
	return &FailoverScreenRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverScreenRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary screen repository failed, falling back to memory")
	r.isDown.Store(true)
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverScreenRepository) shouldProbe() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) <= recoveryInterval {
		return false
	}
	r.lastCheck = time.Now()
	return true
}

func (r *FailoverScreenRepository) GetScreen(ctx context.Context, id string) (*models.Screen, error) {
	if !r.isDown.Load() {
		screen, err := r.primary.GetScreen(ctx, id)
		if err == nil {
			return screen, nil
		}
		r.markDown(err)
	} else if r.shouldProbe() {
		screen, err := r.primary.GetScreen(ctx, id)
		if err == nil {
			r.logger.Info().Msg("Primary screen repository recovered")
			r.isDown.Store(false)
			return screen, nil
		}
	}

	return r.fallback.GetScreen(ctx, id)
}

func (r *FailoverScreenRepository) SetScreen(ctx context.Context, screen *models.Screen) error {
	if !r.isDown.Load() {
		err := r.primary.SetScreen(ctx, screen)
		if err == nil {
			// keep the fallback warm so a failover does not reset navigation
			_ = r.fallback.SetScreen(ctx, screen)
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetScreen(ctx, screen)
}

func (r *FailoverScreenRepository) ClearScreen(ctx context.Context, id string) error {
	_ = r.fallback.ClearScreen(ctx, id)
	if !r.isDown.Load() {
		err := r.primary.ClearScreen(ctx, id)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}
	return nil
}
