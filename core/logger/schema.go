package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// enumRule lists the accepted values of a field. Unknown values are kept
// verbatim unless dropUnknown is set.
type enumRule struct {
	values      map[string]string
	dropUnknown bool
}

func enumOf(values ...string) map[string]string {
	m := make(map[string]string, len(values))
	for _, v := range values {
		m[v] = v
	}
	return m
}

var enumRules = map[string]enumRule{
	"status":  {values: enumOf("ok", "fail", "skip", "retry", "rate_limited", "cancelled")},
	"cache":   {values: enumOf("hit", "miss", "refresh"), dropUnknown: true},
	"outcome": {values: enumOf("ok", "fail", "cancelled", "rate_limited"), dropUnknown: true},
}

// defaultKeyOrder pins the leading keys of every line. Keys not listed
// follow in alphabetical order.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "handler",
	"operation", "op", "cb_key", "outcome", "duration_ms",
	"messages", "kb", "count", "page", "pages", "cache",
	"payload", "lang", "username", "mode", "listen", "public_url",
	"http_code", "db", "host", "port",
	"backend", "path", "verse_id", "chapter_id", "verse_key",
	"entries", "users", "policy", "results",
	"err", "err_code", "cause", "retryable",
	"attempts", "backoff_ms", "rate_limited", "collapsed", "repeats",
	"pending_count", "endpoint",
}
