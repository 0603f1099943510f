package repository

import (
	"context"
	"sync"
	"time"

	"citabot/internal/models"
)

// MemoryBookingRepository keeps bookings in a slice, preserving insertion order.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings []models.Booking
	nextID   int64
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{nextID: 1}
}

func (r *MemoryBookingRepository) ListBookings(ctx context.Context) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return models.CloneBookings(r.bookings), nil
}

func (r *MemoryBookingRepository) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.bookings {
		if r.bookings[i].ID == id {
			b := r.bookings[i]
			return &b, nil
		}
	}
	return nil, nil
}

func (r *MemoryBookingRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if booking.ID == 0 {
		booking.ID = r.nextID
	}
	if booking.ID >= r.nextID {
		r.nextID = booking.ID + 1
	}
	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	r.bookings = append(r.bookings, *booking)
	return nil
}

func (r *MemoryBookingRepository) UpdateBooking(ctx context.Context, booking *models.Booking) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bookings {
		if r.bookings[i].ID == booking.ID {
			booking.UpdatedAt = time.Now()
			r.bookings[i] = *booking
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryBookingRepository) DeleteBooking(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.bookings {
		if r.bookings[i].ID == id {
			r.bookings = append(r.bookings[:i], r.bookings[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryBookingRepository) ClearBookings(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.bookings)
	r.bookings = nil
	return n, nil
}

func (r *MemoryBookingRepository) ReplaceBookings(ctx context.Context, bookings []models.Booking) error {
	r.mu.Lock()
	r.bookings = nil
	r.nextID = 1
	r.mu.Unlock()

	for i := range bookings {
		b := bookings[i]
		if err := r.CreateBooking(ctx, &b); err != nil {
			return err
		}
	}
	return nil
}

// MemoryMessageRepository is an append-only in-process chat log.
type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages []models.Message
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{}
}

func (r *MemoryMessageRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = int64(len(r.messages) + 1)
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *MemoryMessageRepository) ListMessages(ctx context.Context) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Message, len(r.messages))
	copy(out, r.messages)
	return out, nil
}

func (r *MemoryMessageRepository) CountMessages(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages), nil
}

func (r *MemoryMessageRepository) ClearMessages(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
	return nil
}

// MemoryScreenRepository keeps screen state per screen ID.
type MemoryScreenRepository struct {
	screens sync.Map
}

func NewMemoryScreenRepository() *MemoryScreenRepository {
	return &MemoryScreenRepository{}
}

func (r *MemoryScreenRepository) GetScreen(ctx context.Context, id string) (*models.Screen, error) {
	val, ok := r.screens.Load(id)
	if !ok {
		return nil, nil
	}
	s := val.(models.Screen)
	return &s, nil
}

func (r *MemoryScreenRepository) SetScreen(ctx context.Context, screen *models.Screen) error {
	r.screens.Store(screen.ID, *screen)
	return nil
}

func (r *MemoryScreenRepository) ClearScreen(ctx context.Context, id string) error {
	r.screens.Delete(id)
	return nil
}
