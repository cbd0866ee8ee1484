package middleware

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/m3rciful/ayatbot/core/logger"
	tghelpers "github.com/m3rciful/ayatbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	// Interval is the minimum gap between two updates of one user.
	Interval time.Duration
	// Exclude lists update kinds (see UpdateKind) that are never limited.
	Exclude []string
	// OnLimited, when set, runs for dropped updates.
	OnLimited tele.HandlerFunc
}

type userLimiter struct {
	interval time.Duration

	mu       sync.Mutex
	lastSeen map[int64]time.Time
	pruned   time.Time
}

// allow records an update of user at now and reports whether it may pass.
func (l *userLimiter) allow(user int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.pruned) > time.Minute {
		for id, ts := range l.lastSeen {
			if now.Sub(ts) >= l.interval {
				delete(l.lastSeen, id)
			}
		}
		l.pruned = now
	}
	if last, ok := l.lastSeen[user]; ok && now.Sub(last) < l.interval {
		return false
	}
	l.lastSeen[user] = now
	return true
}

// RateLimitMiddleware drops updates that arrive from the same user faster
// than opts.Interval.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Interval <= 0 {
		return func(next tele.HandlerFunc) tele.HandlerFunc { return next }
	}
	exclude := make(map[string]bool, len(opts.Exclude))
	for _, kind := range opts.Exclude {
		exclude[strings.ToLower(strings.TrimSpace(kind))] = true
	}
	lim := &userLimiter{interval: opts.Interval, lastSeen: make(map[int64]time.Time)}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			kind := UpdateKind(c.Update())
			if user == nil || exclude[kind] || lim.allow(user.ID, time.Now()) {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit",
				slog.String("kind", kind),
				slog.Duration("interval", opts.Interval),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
