package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/ayatbot/core/logger"
	tghelpers "github.com/m3rciful/ayatbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type session struct {
	state State
	since time.Time
}

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryManager constructs an in-memory Manager. A positive ttl makes a
// state fall back to idle once it has been held that long; zero keeps states
// until they are cleared.
func NewMemoryManager(ttl time.Duration) Manager {
	return &memoryManager{
		sessions: make(map[int64]session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetState sets the FSM state for the given user. Setting StateIdle drops the session.
func (m *memoryManager) SetState(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st == StateIdle {
		delete(m.sessions, userID)
		return
	}
	m.sessions[userID] = session{state: st, since: m.now()}
}

// GetState returns the current FSM state of a user, or StateIdle if none exists.
func (m *memoryManager) GetState(userID int64) State {
	m.mu.RLock()
	sess, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok {
		return StateIdle
	}
	if m.expired(sess) {
		m.mu.Lock()
		// re-check under the write lock, SetState may have raced us
		if cur, ok := m.sessions[userID]; ok && m.expired(cur) {
			delete(m.sessions, userID)
		}
		m.mu.Unlock()
		return StateIdle
	}
	return sess.state
}

func (m *memoryManager) expired(sess session) bool {
	return m.ttl > 0 && m.now().Sub(sess.since) >= m.ttl
}

// ClearState resets the FSM state to idle for a user.
func (m *memoryManager) ClearState(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// HasState checks if a user has an active state other than idle.
func (m *memoryManager) HasState(userID int64) bool {
	return m.GetState(userID) != StateIdle
}

// InProgress reports whether the user currently has an active FSM state.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.HasState(userID)
}

// ManagerHandler executes the handler function registered for the user's current state, if any.
func (m *memoryManager) ManagerHandler(c tele.Context) error {
	userID := c.Sender().ID
	current := m.GetState(userID)
	ctx := tghelpers.BuildContext(c)
	logger.Debug(ctx, "tg", "fsm.manager",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("state", string(current)),
	)

	if handler, ok := lookupHandler(current); ok {
		return handler(c)
	}
	return nil
}
