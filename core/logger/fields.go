package logger

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// fields is one log record flattened to dotted keys.
type fields map[string]any

func (f fields) add(prefix string, a slog.Attr) {
	key := a.Key
	switch {
	case prefix == "":
	case key == "":
		key = prefix
	default:
		key = prefix + "." + key
	}
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, child := range v.Group() {
			f.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if k, val, ok := normalizeValue(key, v); ok {
		f[k] = val
	}
}

// setDefault stores v unless key already holds a non-empty value.
func (f fields) setDefault(key string, v any) {
	if cur, ok := f[key]; ok && cur != "" && cur != nil {
		return
	}
	f[key] = v
}

func (f fields) compactRID(keepFull bool) {
	rid, _ := f["rid"].(string)
	if rid == "" {
		return
	}
	if compact := CompactRID(rid); compact != rid {
		if keepFull {
			f.setDefault("rid_full", rid)
		}
		f["rid"] = compact
	}
}

func (f fields) normalizeEnums() {
	if lvl, ok := f["level"].(string); ok {
		f["level"] = normalizeLevel(lvl)
	}
	for key, rule := range enumRules {
		raw, ok := f[key].(string)
		if !ok || raw == "" {
			continue
		}
		if v, known := rule.values[strings.ToLower(strings.TrimSpace(raw))]; known {
			f[key] = v
		} else if rule.dropUnknown {
			delete(f, key)
		}
	}
}

func (f fields) prune() {
	for k, v := range f {
		if v == nil || v == "" {
			delete(f, k)
		}
	}
}

func normalizeValue(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return millisKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case fmt.Stringer:
		return key, x.String(), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// millisKey names a duration field after its unit: duration becomes duration_ms.
func millisKey(key string) string {
	if strings.HasSuffix(key, "_ms") {
		return key
	}
	return key + "_ms"
}
