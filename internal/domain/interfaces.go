package domain

import (
	"context"

	"citabot/internal/models"
)

// BookingRepository keeps bookings in insertion order.
type BookingRepository interface {
	ListBookings(ctx context.Context) ([]models.Booking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	// CreateBooking assigns an ID when booking.ID is zero.
	CreateBooking(ctx context.Context, booking *models.Booking) error
	// UpdateBooking returns false when no booking has that ID.
	UpdateBooking(ctx context.Context, booking *models.Booking) (bool, error)
	DeleteBooking(ctx context.Context, id int64) (bool, error)
	// ClearBookings removes every booking and reports how many were dropped.
	ClearBookings(ctx context.Context) (int, error)
	ReplaceBookings(ctx context.Context, bookings []models.Booking) error
}

// MessageRepository is an append-only chat log.
type MessageRepository interface {
	AppendMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context) ([]models.Message, error)
	CountMessages(ctx context.Context) (int, error)
	ClearMessages(ctx context.Context) error
}

type ScreenRepository interface {
	GetScreen(ctx context.Context, id string) (*models.Screen, error)
	SetScreen(ctx context.Context, screen *models.Screen) error
	ClearScreen(ctx context.Context, id string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// MessageAppender is the slice of the message service the conversation
// player and the booking service write through.
type MessageAppender interface {
	Append(ctx context.Context, msg models.Message) (models.Message, error)
}
