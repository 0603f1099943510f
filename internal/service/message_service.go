package service

import (
	"context"
	"fmt"
	"time"

	"citabot/internal/domain"
	"citabot/internal/events"
	"citabot/internal/models"

	"github.com/rs/zerolog"
)

// MessageService owns the chat log.
type MessageService struct {
	repo     domain.MessageRepository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewMessageService(repo domain.MessageRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *MessageService {
	return &MessageService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Append stores msg at the end of the log and returns it with its ID.
func (s *MessageService) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	msg.ID = 0
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	if err := s.repo.AppendMessage(ctx, &msg); err != nil {
		return models.Message{}, fmt.Errorf("append message: %w", err)
	}

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventMessageAppended, msg); err != nil {
			s.logger.Error().Err(err).Int64("message_id", msg.ID).Msg("publish event error")
		}
	}

	s.logger.Debug().Int64("message_id", msg.ID).Str("sender", string(msg.Sender)).Msg("message appended")
	return msg, nil
}

func (s *MessageService) List(ctx context.Context) ([]models.Message, error) {
	return s.repo.ListMessages(ctx)
}

func (s *MessageService) Count(ctx context.Context) (int, error) {
	return s.repo.CountMessages(ctx)
}

// Reset empties the log and puts the greeting back.
func (s *MessageService) Reset(ctx context.Context) error {
	if err := s.repo.ClearMessages(ctx); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	_, err := s.Append(ctx, models.Greeting())
	return err
}
