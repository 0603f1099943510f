// Package conversation replays the scripted booking chat on timers.
package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"citabot/internal/domain"
	"citabot/internal/events"
	"citabot/internal/metrics"
	"citabot/internal/models"
	"citabot/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNotAwaitingPayment = errors.New("conversation is not awaiting payment")
	ErrNoBooking          = errors.New("conversation has no booking to validate")
)

type Status string

const (
	StatusIdle            Status = "idle"
	StatusPlaying         Status = "playing"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusValidating      Status = "validating"
	StatusCompleted       Status = "completed"
	StatusTimedOut        Status = "timed_out"
)

const (
	timerPrefix   = "conversation:"
	timerTick     = timerPrefix + "tick"
	timerDeadline = timerPrefix + "deadline"
	timerAck      = timerPrefix + "ack"
)

// BookingWriter is what the player needs from the booking service.
type BookingWriter interface {
	Create(ctx context.Context, booking models.Booking) (models.Booking, error)
	ReleaseAll(ctx context.Context) (int, error)
}

type Settings struct {
	TurnInterval    time.Duration
	PaymentDeadline time.Duration
	AckDelay        time.Duration
}

// State is a snapshot of the current run. BookingID is set once the
// receipt was acknowledged and the requested booking created.
type State struct {
	RunID     string     `json:"run_id,omitempty"`
	Status    Status     `json:"status"`
	Played    int        `json:"played"`
	Total     int        `json:"total"`
	CanStart  bool       `json:"can_start"`
	CanPay    bool       `json:"can_pay"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	BookingID int64      `json:"booking_id,omitempty"`
}

// Player drives one scripted run at a time. Starting a run stops every
// timer of the previous one, and callbacks carry their run ID so a late
// one from an old run does nothing.
type Player struct {
	messages domain.MessageAppender
	bookings BookingWriter
	timers   *worker.Timers
	eventBus domain.EventPublisher
	settings Settings
	script   []Turn
	logger   *zerolog.Logger

	// op serialises operations and timer callbacks; mu guards the fields below
	op       sync.Mutex
	mu       sync.RWMutex
	runID    string
	status   Status
	played   int
	deadline time.Time
	booking  int64
}

func NewPlayer(messages domain.MessageAppender, bookings BookingWriter, timers *worker.Timers, eventBus domain.EventPublisher, settings Settings, logger *zerolog.Logger) *Player {
	return &Player{
		messages: messages,
		bookings: bookings,
		timers:   timers,
		eventBus: eventBus,
		settings: settings,
		script:   DefaultScript(),
		logger:   logger,
		status:   StatusIdle,
	}
}

// Start begins a new run. Any previous run is abandoned first, including a
// pending payment deadline.
func (p *Player) Start(ctx context.Context) (State, error) {
	p.op.Lock()
	defer p.op.Unlock()

	// сначала гасим таймеры прошлого прогона
	p.timers.CancelPrefix(timerPrefix)

	runID := uuid.NewString()
	p.mu.Lock()
	p.runID = runID
	p.status = StatusPlaying
	p.played = 0
	p.deadline = time.Time{}
	p.booking = 0
	p.mu.Unlock()

	p.timers.Schedule(timerTick, p.settings.TurnInterval, func() { p.tick(runID) })

	metrics.IncConversationStarted()
	p.logger.Info().Str("run_id", runID).Msg("conversation started")
	p.publish()
	return p.State(), nil
}

// SimulatePayment stands in for the client sending a receipt. It stops the
// deadline and schedules the acknowledgement.
func (p *Player) SimulatePayment(ctx context.Context) (State, error) {
	p.op.Lock()
	defer p.op.Unlock()

	p.mu.RLock()
	runID, status := p.runID, p.status
	p.mu.RUnlock()
	if status != StatusAwaitingPayment {
		return p.State(), ErrNotAwaitingPayment
	}

	p.timers.Cancel(timerDeadline)

	if _, err := p.messages.Append(ctx, receiptTurn.message(runID)); err != nil {
		return p.State(), err
	}

	p.mu.Lock()
	p.status = StatusValidating
	p.deadline = time.Time{}
	p.mu.Unlock()

	p.timers.Schedule(timerAck, p.settings.AckDelay, func() { p.acknowledge(runID) })

	metrics.IncPaymentSimulated()
	p.logger.Info().Str("run_id", runID).Msg("payment simulated")
	p.publish()
	return p.State(), nil
}

// Reset abandons the current run and returns to idle.
func (p *Player) Reset() {
	p.op.Lock()
	defer p.op.Unlock()

	p.timers.CancelPrefix(timerPrefix)
	p.mu.Lock()
	p.runID = ""
	p.status = StatusIdle
	p.played = 0
	p.deadline = time.Time{}
	p.booking = 0
	p.mu.Unlock()
	p.publish()
}

// Close stops every pending timer of the current run.
func (p *Player) Close() {
	p.timers.CancelPrefix(timerPrefix)
}

func (p *Player) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := State{
		RunID:     p.runID,
		Status:    p.status,
		Played:    p.played,
		Total:     len(p.script),
		CanPay:    p.status == StatusAwaitingPayment,
		BookingID: p.booking,
	}
	switch p.status {
	case StatusIdle, StatusCompleted, StatusTimedOut:
		st.CanStart = true
	}
	if !p.deadline.IsZero() {
		d := p.deadline
		st.Deadline = &d
	}
	return st
}

func (p *Player) current(runID string, want Status) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.runID == runID && p.status == want
}

func (p *Player) tick(runID string) {
	p.op.Lock()
	defer p.op.Unlock()

	if !p.current(runID, StatusPlaying) {
		return
	}

	p.mu.RLock()
	idx := p.played
	p.mu.RUnlock()
	if idx >= len(p.script) {
		return
	}
	turn := p.script[idx]

	if _, err := p.messages.Append(context.Background(), turn.message(runID)); err != nil {
		p.logger.Error().Err(err).Str("run_id", runID).Int("turn", idx).Msg("append scripted turn error")
	}

	p.mu.Lock()
	p.played = idx + 1
	switch {
	case turn.RequestsPayment:
		p.status = StatusAwaitingPayment
		p.deadline = time.Now().Add(p.settings.PaymentDeadline)
	case p.played >= len(p.script):
		p.status = StatusCompleted
	}
	status := p.status
	p.mu.Unlock()

	switch status {
	case StatusAwaitingPayment:
		p.timers.Schedule(timerDeadline, p.settings.PaymentDeadline, func() { p.expire(runID) })
		p.logger.Info().Str("run_id", runID).Dur("deadline", p.settings.PaymentDeadline).Msg("awaiting payment")
		p.publish()
	case StatusPlaying:
		p.timers.Schedule(timerTick, p.settings.TurnInterval, func() { p.tick(runID) })
	default:
		p.publish()
	}
}

// expire runs when the payment deadline elapses first: the whole booking
// list is released and the client is told.
func (p *Player) expire(runID string) {
	p.op.Lock()
	defer p.op.Unlock()

	if !p.current(runID, StatusAwaitingPayment) {
		return
	}

	ctx := context.Background()
	n, err := p.bookings.ReleaseAll(ctx)
	if err != nil {
		p.logger.Error().Err(err).Str("run_id", runID).Msg("release bookings error")
	}
	if _, err := p.messages.Append(ctx, timeoutTurn.message(runID)); err != nil {
		p.logger.Error().Err(err).Str("run_id", runID).Msg("append timeout message error")
	}

	p.mu.Lock()
	p.status = StatusTimedOut
	p.deadline = time.Time{}
	p.mu.Unlock()

	metrics.IncPaymentTimeout()
	p.logger.Warn().Str("run_id", runID).Int("released", n).Msg("payment deadline elapsed")
	p.publish()
}

func (p *Player) acknowledge(runID string) {
	p.op.Lock()
	defer p.op.Unlock()

	if !p.current(runID, StatusValidating) {
		return
	}

	ctx := context.Background()
	if _, err := p.messages.Append(ctx, acknowledgementTurn.message(runID)); err != nil {
		p.logger.Error().Err(err).Str("run_id", runID).Msg("append acknowledgement error")
	}
	booking, err := p.bookings.Create(ctx, RequestedBooking())
	if err != nil {
		p.logger.Error().Err(err).Str("run_id", runID).Msg("create requested booking error")
	}

	p.mu.Lock()
	p.status = StatusCompleted
	p.booking = booking.ID
	p.mu.Unlock()

	p.logger.Info().Str("run_id", runID).Int64("booking_id", booking.ID).Msg("receipt acknowledged")
	p.publish()
}

func (p *Player) publish() {
	if p.eventBus == nil {
		return
	}
	st := p.State()
	payload := events.ConversationEventPayload{RunID: st.RunID, Status: string(st.Status), Played: st.Played}
	if err := p.eventBus.PublishJSON(events.EventConversationChanged, payload); err != nil {
		p.logger.Error().Err(err).Msg("publish event error")
	}
}
