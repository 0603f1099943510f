package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"citabot/internal/config"
	"citabot/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	keyBookingOrder = "bookings:order"
	keyBookingData  = "bookings:data"
	keyBookingSeq   = "bookings:seq"
	keyMessages     = "messages"
	keyMessageSeq   = "messages:seq"

	maxTxRetries = 5
)

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// RedisBookingRepository stores booking JSON in a hash and the insertion
// order in a list of IDs.
type RedisBookingRepository struct {
	client *redis.Client
}

func NewRedisBookingRepository(client *redis.Client) *RedisBookingRepository {
	return &RedisBookingRepository{client: client}
}

func (r *RedisBookingRepository) ListBookings(ctx context.Context) ([]models.Booking, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	ids, err := r.client.LRange(ctx, keyBookingOrder, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list booking ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	vals, err := r.client.HMGet(ctx, keyBookingData, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}

	out := make([]models.Booking, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var b models.Booking
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			return nil, fmt.Errorf("failed to unmarshal booking: %w", err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *RedisBookingRepository) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.HGet(ctx, keyBookingData, strconv.FormatInt(id, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking from redis: %w", err)
	}

	var b models.Booking
	if err := json.Unmarshal([]byte(val), &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking: %w", err)
	}
	return &b, nil
}

func (r *RedisBookingRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	if booking.ID == 0 {
		id, err := r.client.Incr(ctx, keyBookingSeq).Result()
		if err != nil {
			return fmt.Errorf("failed to allocate booking id: %w", err)
		}
		booking.ID = id
	} else if err := r.bumpSeq(ctx, booking.ID); err != nil {
		return err
	}

	now := time.Now()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	data, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}

	field := strconv.FormatInt(booking.ID, 10)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, keyBookingData, field, data)
		pipe.RPush(ctx, keyBookingOrder, field)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store booking in redis: %w", err)
	}
	return nil
}

// bumpSeq keeps the ID sequence ahead of explicitly numbered bookings.
func (r *RedisBookingRepository) bumpSeq(ctx context.Context, id int64) error {
	cur, err := r.client.Get(ctx, keyBookingSeq).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to read booking sequence: %w", err)
	}
	if cur >= id {
		return nil
	}
	if err := r.client.Set(ctx, keyBookingSeq, id, 0).Err(); err != nil {
		return fmt.Errorf("failed to advance booking sequence: %w", err)
	}
	return nil
}

// UpdateBooking rewrites an existing booking. The existence check and the
// write run under WATCH, so a concurrent delete cannot be undone by it.
func (r *RedisBookingRepository) UpdateBooking(ctx context.Context, booking *models.Booking) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	field := strconv.FormatInt(booking.ID, 10)

	updated := *booking
	updated.UpdatedAt = time.Now()
	data, err := json.Marshal(updated)
	if err != nil {
		return false, fmt.Errorf("failed to marshal booking: %w", err)
	}

	var found bool
	txf := func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, keyBookingData, field).Result()
		if err != nil {
			return err
		}
		found = exists
		if !exists {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, keyBookingData, field, data)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = r.client.Watch(ctx, txf, keyBookingData)
		if errors.Is(err, redis.TxFailedErr) {
			// ключ изменился между проверкой и записью, повторяем
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to update booking in redis: %w", err)
		}
		if found {
			booking.UpdatedAt = updated.UpdatedAt
		}
		return found, nil
	}
	return false, fmt.Errorf("failed to update booking %d: too many concurrent writes", booking.ID)
}

func (r *RedisBookingRepository) DeleteBooking(ctx context.Context, id int64) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	field := strconv.FormatInt(id, 10)

	var deleted *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.HDel(ctx, keyBookingData, field)
		pipe.LRem(ctx, keyBookingOrder, 0, field)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete booking from redis: %w", err)
	}
	return deleted.Val() > 0, nil
}

func (r *RedisBookingRepository) ClearBookings(ctx context.Context) (int, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	n, err := r.client.HLen(ctx, keyBookingData).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	if err := r.client.Del(ctx, keyBookingOrder, keyBookingData).Err(); err != nil {
		return 0, fmt.Errorf("failed to clear bookings: %w", err)
	}
	return int(n), nil
}

func (r *RedisBookingRepository) ReplaceBookings(ctx context.Context, bookings []models.Booking) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, keyBookingOrder, keyBookingData, keyBookingSeq).Err(); err != nil {
		return fmt.Errorf("failed to reset bookings: %w", err)
	}
	for i := range bookings {
		b := bookings[i]
		if err := r.CreateBooking(ctx, &b); err != nil {
			return err
		}
	}
	return nil
}

// RedisMessageRepository keeps the chat log as a redis list.
type RedisMessageRepository struct {
	client *redis.Client
}

func NewRedisMessageRepository(client *redis.Client) *RedisMessageRepository {
	return &RedisMessageRepository{client: client}
}

func (r *RedisMessageRepository) AppendMessage(ctx context.Context, msg *models.Message) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	id, err := r.client.Incr(ctx, keyMessageSeq).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate message id: %w", err)
	}
	msg.ID = id
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := r.client.RPush(ctx, keyMessages, data).Err(); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

func (r *RedisMessageRepository) ListMessages(ctx context.Context) ([]models.Message, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	vals, err := r.client.LRange(ctx, keyMessages, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	out := make([]models.Message, 0, len(vals))
	for _, v := range vals {
		var m models.Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *RedisMessageRepository) CountMessages(ctx context.Context) (int, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	n, err := r.client.LLen(ctx, keyMessages).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return int(n), nil
}

func (r *RedisMessageRepository) ClearMessages(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, keyMessages, keyMessageSeq).Err(); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

type RedisScreenRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisScreenRepository(client *redis.Client, ttl time.Duration) *RedisScreenRepository {
	return &RedisScreenRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisScreenRepository) GetScreen(ctx context.Context, id string) (*models.Screen, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, screenKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screen from redis: %w", err)
	}

	var screen models.Screen
	if err := json.Unmarshal([]byte(val), &screen); err != nil {
		return nil, fmt.Errorf("failed to unmarshal screen: %w", err)
	}
	return &screen, nil
}

func (r *RedisScreenRepository) SetScreen(ctx context.Context, screen *models.Screen) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	data, err := json.Marshal(screen)
	if err != nil {
		return fmt.Errorf("failed to marshal screen: %w", err)
	}
	if err := r.client.Set(ctx, screenKey(screen.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set screen in redis: %w", err)
	}
	return nil
}

func (r *RedisScreenRepository) ClearScreen(ctx context.Context, id string) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, screenKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete screen from redis: %w", err)
	}
	return nil
}

func screenKey(id string) string {
	return fmt.Sprintf("screen_state:%s", id)
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
