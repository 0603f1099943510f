package worker

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Timers is a set of named one-shot timers. Scheduling a name that is
// already pending stops the old timer first, so at most one callback per
// name is ever armed.
type Timers struct {
	mu      sync.Mutex
	pending map[string]*timerEntry
	gen     uint64
	stopped bool
	logger  *zerolog.Logger
}

type timerEntry struct {
	timer *time.Timer
	gen   uint64
	due   time.Time
}

func NewTimers(logger *zerolog.Logger) *Timers {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Timers{
		pending: make(map[string]*timerEntry),
		logger:  logger,
	}
}

// Schedule arms fn to run once after d under name. It reports false when
// the set has been stopped.
func (s *Timers) Schedule(name string, d time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	if old, ok := s.pending[name]; ok {
		old.timer.Stop()
	}

	s.gen++
	gen := s.gen
	entry := &timerEntry{gen: gen, due: time.Now().Add(d)}
	entry.timer = time.AfterFunc(d, func() { s.fire(name, gen, fn) })
	s.pending[name] = entry
	return true
}

func (s *Timers) fire(name string, gen uint64, fn func()) {
	s.mu.Lock()
	entry, ok := s.pending[name]
	// таймер уже заменён или отменён
	if !ok || entry.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.pending, name)
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("timer", name).Interface("panic", r).Msg("timer callback panicked")
		}
	}()
	fn()
}

// Cancel stops the timer registered under name.
func (s *Timers) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[name]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(s.pending, name)
	return true
}

// CancelPrefix stops every timer whose name starts with prefix and returns
// how many were stopped.
func (s *Timers) CancelPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for name, entry := range s.pending {
		if strings.HasPrefix(name, prefix) {
			entry.timer.Stop()
			delete(s.pending, name)
			n++
		}
	}
	return n
}

// Due returns when the named timer fires.
func (s *Timers) Due(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[name]
	if !ok {
		return time.Time{}, false
	}
	return entry.due, true
}

func (s *Timers) Pending(name string) bool {
	_, ok := s.Due(name)
	return ok
}

func (s *Timers) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels everything and refuses further schedules.
func (s *Timers) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for name, entry := range s.pending {
		entry.timer.Stop()
		delete(s.pending, name)
	}
	s.logger.Debug().Msg("timers stopped")
}
