package instrument

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
)

// MaskedValue replaces the value of every sensitive field.
const MaskedValue = "***"

// SensitiveFields are masked in every log line regardless of configuration.
var SensitiveFields = []string{"code", "code_hash", "verification_token", "verificationToken", "password", "pepper", "secret"}

// Masker replaces the values of sensitive keys, looking inside groups, maps
// and JSON encoded strings.
type Masker map[string]struct{}

// NewMasker returns a Masker for SensitiveFields plus extra.
func NewMasker(extra []string) Masker {
	m := make(Masker, len(SensitiveFields)+len(extra))
	for _, field := range append(append([]string{}, SensitiveFields...), extra...) {
		if field = strings.ToLower(strings.TrimSpace(field)); field != "" {
			m[field] = struct{}{}
		}
	}
	return m
}

// Sensitive reports whether key is masked, ignoring case.
func (m Masker) Sensitive(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

func (m Masker) attr(a slog.Attr) slog.Attr {
	if m.Sensitive(a.Key) {
		return slog.String(a.Key, MaskedValue)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = m.attr(ga)
		}
		a.Value = slog.GroupValue(out...)
	case slog.KindString:
		if s, ok := m.json([]byte(a.Value.String())); ok {
			a.Value = slog.StringValue(s)
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any, []any:
			a.Value = slog.AnyValue(m.Data(v))
		case map[string]string:
			conv := make(map[string]any, len(v))
			for k, s := range v {
				conv[k] = s
			}
			a.Value = slog.AnyValue(m.Data(conv))
		case []byte:
			if s, ok := m.json(v); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}

	return a
}

// json masks a JSON object or array payload. ok is false for anything else.
func (m Masker) json(payload []byte) (string, bool) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return "", false
	}

	var body any
	if err := json.Unmarshal([]byte(trimmed), &body); err != nil {
		return "", false
	}
	out, err := json.Marshal(m.Data(body))
	if err != nil {
		return "", false
	}
	return string(out), true
}

// Data masks sensitive keys in decoded JSON maps and slices.
func (m Masker) Data(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			if m.Sensitive(k) {
				out[k] = MaskedValue
				continue
			}
			out[k] = m.Data(v2)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = m.Data(v2)
		}
		return out
	default:
		return v
	}
}

type maskHandler struct {
	handler slog.Handler
	masker  Masker
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.masker.attr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.masker.attr(a)
	}
	return &maskHandler{handler: h.handler.WithAttrs(masked), masker: h.masker}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{handler: h.handler.WithGroup(name), masker: h.masker}
}
