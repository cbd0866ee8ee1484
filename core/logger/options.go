package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	coreconfig "github.com/m3rciful/ayatbot/core/config"
)

// options is the logging setup resolved from configuration and environment.
type options struct {
	format    logFormat
	keyOrder  []string
	level     slog.Level
	sampleNum int
	sampleDen int
	trace     bool
	file      string
	profile   string
}

func resolveOptions(cfg *coreconfig.Config) options {
	opts := options{
		format:    formatJSON,
		keyOrder:  slices.Clone(defaultKeyOrder),
		level:     slog.LevelInfo,
		sampleNum: 1,
		sampleDen: 50,
		trace:     envFlag("TRACE") || envFlag("LOG_TRACE"),
		profile:   "prod",
	}
	if cfg == nil {
		return opts
	}
	lc := cfg.Logging
	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		opts.profile = p
	}
	opts.format = parseFormat(lc.Format, opts.profile)
	opts.level = parseLevel(lc.Level)
	if order := splitKeys(lc.KeysOrder); len(order) > 0 {
		opts.keyOrder = order
	}
	opts.sampleNum, opts.sampleDen = parseDebugSample(lc.DebugSample)
	if dir, file := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile); dir != "" && file != "" {
		opts.file = filepath.Join(dir, file)
	}
	return opts
}

func parseFormat(raw, profile string) logFormat {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	if profile == "debug" || profile == "dev" {
		return formatKV
	}
	return formatJSON
}

func parseLevel(raw string) slog.Level {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "warning") {
		return slog.LevelWarn
	}
	var lvl slog.Level
	if raw == "" || lvl.UnmarshalText([]byte(raw)) != nil {
		return slog.LevelInfo
	}
	return lvl
}

func splitKeys(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "default" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// parseDebugSample defaults to 1/50. An explicit invalid or zero ratio
// turns sampling off so every sampled event is logged.
func parseDebugSample(spec string) (int, int) {
	if strings.TrimSpace(spec) == "" {
		return 1, 50
	}
	num, den := parseRatioSpec(spec)
	if num == 0 && den == 0 {
		return 0, 0
	}
	if num <= 0 || den <= 0 {
		return 1, 50
	}
	return num, den
}

func envFlag(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
