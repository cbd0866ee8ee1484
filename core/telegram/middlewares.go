package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/ayatbot/core/config"
	"github.com/m3rciful/ayatbot/core/telegram/middleware"
)

// DefaultMiddlewares is the global chain, outermost first: panic recovery,
// per-user rate limit, logging context and reply counters.
func DefaultMiddlewares(cfg *coreconfig.Config) []Middleware {
	mws := []Middleware{{Name: "recover", Use: middleware.RecoverMiddleware}}
	if cfg != nil && cfg.RateLimit.IntervalMS > 0 {
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
				Exclude:  cfg.RateLimit.ExcludeUpdates,
			}),
		})
	}
	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}
