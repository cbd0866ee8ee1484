package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/ayatbot/core/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func dialError() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
}

func TestDispatcherRunsJobs(t *testing.T) {
	d := NewDispatcher(Options{Workers: 2})
	var ran atomic.Int32
	for range 10 {
		require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
			ran.Add(1)
			return nil
		}))
	}
	d.Close()
	assert.Equal(t, int32(10), ran.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	d.Close()

	err := d.Enqueue(context.Background(), "send.text", "sendMessage", func() error { return nil })
	require.ErrorIs(t, err, ErrQueueClosed)
	require.Error(t, d.Enqueue(context.Background(), "send.text", "sendMessage", nil))
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	block := func() error {
		close(started)
		<-release
		return nil
	}
	require.NoError(t, d.Enqueue(context.Background(), "a", "sendMessage", block))
	<-started
	require.NoError(t, d.Enqueue(context.Background(), "b", "sendMessage", func() error { return nil }))

	err := d.Enqueue(context.Background(), "c", "sendMessage", func() error { return nil })
	require.ErrorIs(t, err, ErrQueueFull)

	close(release)
	d.Close()
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.batch", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return dialError()
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, int32(3), calls.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherCountsPermanentFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return tele.ErrBlockedByUser
	}))
	d.Close()
	assert.Equal(t, int32(1), calls.Load(), "4xx errors are not retried")
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherHonoursFloodWait(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 1, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		if calls.Add(1) == 1 {
			return tele.FloodError{RetryAfter: 0}
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, int32(2), calls.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherGivesUpWhenWaitExceedsDeadline(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 5, RetryBackoff: time.Second, MaxDuration: 50 * time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(context.Background(), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return dialError()
	}))
	d.Close()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4})
	ctx := logger.WithUpdateMeta(context.Background(), 1, 7, -100123)

	var (
		mu  sync.Mutex
		got []int
	)
	for i := range 40 {
		require.NoError(t, d.Enqueue(ctx, "send.batch", "sendMessage", func() error {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}))
	}
	d.Close()

	require.Len(t, got, 40)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "", classifyError(nil))
	assert.Equal(t, "timeout", classifyError(context.DeadlineExceeded))
	assert.Equal(t, "dial", classifyError(dialError()))
	assert.Equal(t, "http_4xx", classifyError(tele.ErrBlockedByUser))
	assert.Equal(t, "flood", classifyError(tele.FloodError{RetryAfter: 3}))
	assert.Equal(t, "http_5xx", classifyError(errors.New("telegram: Bad Gateway (502)")))
	assert.Equal(t, "unknown", classifyError(errors.New("boom")))
}

func TestSanitizeErrorMessage(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AAE-secret_token/sendMessage": EOF`)
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": EOF`, sanitizeErrorMessage(err))
}
