package session

import (
	"context"
	"sync"
	"time"

	"github.com/habitloop/habitloop/internal/logger"
	"github.com/habitloop/habitloop/internal/models"
	"go.uber.org/zap"
)

// DefaultSessionTTL is how long an idle session survives before the
// janitor evicts it. Eviction equals cancellation: the next contact
// starts at the main menu.
const DefaultSessionTTL = time.Hour

// Store is the habit store contract the engine drives. Implemented by
// database.HabitStore; tests substitute fakes.
type Store interface {
	RegisterUser(ctx context.Context, user *models.User) error
	CreateHabit(ctx context.Context, userID int64, name, glyph string) (int64, error)
	ListActiveHabits(ctx context.Context, userID int64) ([]models.Habit, error)
	DeactivateHabit(ctx context.Context, habitID, userID int64) error
	RecordCompletion(ctx context.Context, userID, habitID int64, day time.Time, note string) (bool, error)
	TodaysStats(ctx context.Context, userID int64, day time.Time) (models.DayStats, error)
	TodaysCompletedHabitIDs(ctx context.Context, userID int64, day time.Time) (map[int64]bool, error)
}

// Engine runs one finite-state machine per user. Sessions are created
// lazily on first contact and evicted after idling for the TTL.
type Engine struct {
	store Store
	log   *zap.Logger

	now func() time.Time
	ttl time.Duration

	mu       sync.Mutex
	sessions map[int64]*Session
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the engine clock. Tests use this to pin "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSessionTTL overrides the idle-session eviction TTL.
func WithSessionTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// NewEngine creates a session engine over the given store.
func NewEngine(store Store, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		log:      log,
		now:      time.Now,
		ttl:      DefaultSessionTTL,
		sessions: make(map[int64]*Session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleEvent executes one transition for the originating user and
// returns the render instruction. Events for the same user are processed
// to completion one at a time; different users run concurrently.
func (e *Engine) HandleEvent(ctx context.Context, ev models.Event) *models.Instruction {
	s := e.session(ev)

	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ChatID != 0 {
		s.chatID = ev.ChatID
	}

	from := s.state
	out := e.dispatch(ctx, s, ev)

	e.log.Debug("transition",
		zap.Int64("user_id", s.userID),
		zap.String("event_kind", string(ev.Kind)),
		zap.String("text", logger.SanitizeChatText(ev.Text)),
		zap.String("from_state", from.String()),
		zap.String("to_state", s.state.String()),
	)

	return out
}

// session returns the user's session, creating it on first contact.
// lastSeen is touched here, under the engine lock, so the janitor never
// reads it concurrently with a write.
func (e *Engine) session(ev models.Event) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[ev.From.ID]
	if !ok {
		s = &Session{
			userID: ev.From.ID,
			chatID: ev.ChatID,
			state:  StateMainMenu,
		}
		e.sessions[ev.From.ID] = s
	}
	s.lastSeen = e.now()
	return s
}

// StartJanitor evicts idle sessions until ctx is cancelled.
func (e *Engine) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				evicted := e.EvictIdle()
				if evicted > 0 {
					e.log.Debug("evicted_idle_sessions", zap.Int("count", evicted))
				}
			}
		}
	}()
}

// EvictIdle drops sessions idle longer than the TTL and reports how many.
func (e *Engine) EvictIdle() int {
	cutoff := e.now().Add(-e.ttl)

	e.mu.Lock()
	defer e.mu.Unlock()

	var evicted int
	for id, s := range e.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(e.sessions, id)
			evicted++
		}
	}
	return evicted
}

// SessionCount reports how many sessions are live.
func (e *Engine) SessionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

// logStorageError records a storage failure with sanitized detail.
func (e *Engine) logStorageError(op string, userID int64, err error) {
	e.log.Error("storage_error",
		zap.String("op", op),
		zap.Int64("user_id", userID),
		zap.String("error", logger.SanitizeError(err)),
	)
}
