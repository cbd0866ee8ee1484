package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

const awaiting State = "test.awaiting"

type textContext struct {
	tele.Context
	sender *tele.User
}

func (c *textContext) Sender() *tele.User     { return c.sender }
func (c *textContext) Chat() *tele.Chat       { return &tele.Chat{ID: c.sender.ID} }
func (c *textContext) Message() *tele.Message { return &tele.Message{Text: "hello"} }
func (c *textContext) Callback() *tele.Callback {
	return nil
}
func (c *textContext) Update() tele.Update {
	return tele.Update{ID: 1, Message: &tele.Message{Text: "hello"}}
}
func (c *textContext) Get(string) any  { return nil }
func (c *textContext) Set(string, any) {}

func TestMemoryManagerStates(t *testing.T) {
	m := NewMemoryManager(0)

	assert.Equal(t, StateIdle, m.GetState(1))
	assert.False(t, m.InProgress(1))

	m.SetState(1, awaiting)
	assert.Equal(t, awaiting, m.GetState(1))
	assert.True(t, m.HasState(1))
	assert.False(t, m.HasState(2))

	m.ClearState(1)
	assert.False(t, m.InProgress(1))

	m.SetState(1, awaiting)
	m.SetState(1, StateIdle)
	assert.Equal(t, StateIdle, m.GetState(1))
}

func TestMemoryManagerExpiresStates(t *testing.T) {
	m := NewMemoryManager(time.Minute).(*memoryManager)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.SetState(5, awaiting)
	now = now.Add(59 * time.Second)
	assert.True(t, m.InProgress(5))

	now = now.Add(time.Second)
	assert.False(t, m.InProgress(5))
	assert.Empty(t, m.sessions)

	m.SetState(5, awaiting)
	assert.Equal(t, awaiting, m.GetState(5))
}

func TestManagerHandlerDispatchesByState(t *testing.T) {
	const st State = "test.dispatch"
	errHandled := errors.New("handled")
	RegisterHandler(st, func(tele.Context) error { return errHandled })
	RegisterHandler("test.nil", nil)

	m := NewMemoryManager(0)
	c := &textContext{sender: &tele.User{ID: 9}}

	require.NoError(t, m.ManagerHandler(c), "idle users have no handler")

	m.SetState(9, st)
	require.ErrorIs(t, m.ManagerHandler(c), errHandled)

	m.SetState(9, "test.nil")
	require.NoError(t, m.ManagerHandler(c))
}

func TestMemoryManagerConcurrentAccess(t *testing.T) {
	m := NewMemoryManager(time.Millisecond)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for range 100 {
				m.SetState(id%3, awaiting)
				_ = m.InProgress(id % 3)
				m.ClearState(id % 3)
			}
		}(int64(i))
	}
	wg.Wait()
}
