package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/ayatbot/core/logger"
	tghelpers "github.com/m3rciful/ayatbot/core/telegram/helpers"
	"github.com/m3rciful/ayatbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// run tags the update with the handler name, runs fn and writes the
// handler.handled summary line.
func run(c tele.Context, name string, fn tele.HandlerFunc, extras ...slog.Attr) error {
	start := time.Now()
	ctx := tghelpers.WithHandler(c, name)
	err := fn(c)
	summarize(ctx, c, start, outcomeOf(err), err, extras...)
	return err
}

// skip writes the summary for an update no handler took.
func skip(c tele.Context, name string, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, name)
	summarize(ctx, c, time.Now(), "skip", nil, extras...)
}

func outcomeOf(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

func summarize(ctx context.Context, c tele.Context, start time.Time, outcome string, err error, extras ...slog.Attr) {
	msgs, kb := middleware.GetCounters(c)
	status := "ok"
	if err != nil {
		status = "fail"
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", errorCode(err)),
		)
	}
	attrs = append(attrs, extras...)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	logger.LogEvent(ctx, logger.TG, level, "handler.handled", attrs...)
}

func handlerName(key string) string {
	key = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(key), "/"))
	if key == "" {
		return "unknown"
	}
	return strings.ReplaceAll(key, " ", "_")
}

// errorCode is a short, stable label for the summary line.
func errorCode(err error) string {
	var (
		tgErr *tele.Error
		flood tele.FloodError
		coded interface{ Code() string }
	)
	switch {
	case errors.As(err, &coded) && coded.Code() != "":
		return strings.ToUpper(coded.Code())
	case errors.As(err, &flood):
		return "FLOOD"
	case errors.As(err, &tgErr):
		return fmt.Sprintf("TG_%d", tgErr.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	}
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(err) {
		err = inner
	}
	name := fmt.Sprintf("%T", err)
	name = name[strings.LastIndex(name, ".")+1:]
	if name == "errorString" {
		return "ERROR"
	}
	return strings.ToUpper(name)
}
