// Package health serves the ping page and a JSON health probe for the
// hosting platform.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/ayatbot/core/buildinfo"
	"github.com/m3rciful/ayatbot/core/logger"
)

// PingText is served on GET /.
const PingText = "🕌 بوت \"سُطورٌ من السَّماء ☁️\" يعمل بنجاح 💫"

const checkTimeout = 3 * time.Second

// Pinger reports whether a dependency is usable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Report is the /healthz body.
type Report struct {
	Status  string            `json:"status"`
	Time    time.Time         `json:"time"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// Server is the ping/health HTTP listener.
type Server struct {
	checks map[string]Pinger
	now    func() time.Time
	srv    *http.Server
	done   chan struct{}
}

// NewServer builds a server listening on addr. checks are probed on every
// /healthz request.
func NewServer(addr string, checks map[string]Pinger) *Server {
	s := &Server{checks: checks, now: time.Now}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Routes returns the router without binding a listener.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.ping)
	r.Head("/", s.ping)
	r.Get("/healthz", s.healthz)
	return r
}

func (s *Server) ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(PingText))
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	rep := Report{
		Status:  "ok",
		Time:    s.now().UTC(),
		Version: buildinfo.Version,
		Checks:  make(map[string]string, len(s.checks)),
	}
	code := http.StatusOK
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			rep.Checks[name] = err.Error()
			rep.Status = "degraded"
			code = http.StatusServiceUnavailable
			logger.HTTP.Warn("health check failed",
				slog.String("event", "healthz.check"),
				slog.String("check", name),
				slog.String("err", err.Error()),
			)
			continue
		}
		rep.Checks[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(rep)
}

// Start binds the listener and serves in the background. It returns once the
// port is bound so bind errors surface to the caller.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("health: listen %s: %w", s.srv.Addr, err)
	}
	s.done = make(chan struct{})
	logger.HTTP.Info("health listener started",
		slog.String("event", "listen"),
		slog.String("addr", ln.Addr().String()),
	)
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.HTTP.Error("health listener stopped",
				slog.String("event", "serve"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Shutdown stops the listener and waits for the serve loop to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.done == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	select {
	case <-s.done:
	case <-ctx.Done():
	}
	logger.HTTP.Info("health listener stopped",
		slog.String("event", "shutdown"),
	)
	if err != nil {
		return fmt.Errorf("health: shutdown: %w", err)
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.HTTP.Debug("request",
			slog.String("event", "http.request"),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", logger.RoundMS(time.Since(start))),
		)
	})
}
