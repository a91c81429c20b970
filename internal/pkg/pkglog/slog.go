package pkglog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Attribute keys with a dedicated place in Record.
const (
	ExceptionKey = "exception"
	StackKey     = "stack"
)

// contextHandler turns slog records into Records, stamps them with the
// correlation ID found in the context and hands them to the facility's sinks.
type contextHandler struct {
	f      *Facility
	attrs  []prefixedAttr
	groups []string
}

type prefixedAttr struct {
	prefix string
	attr   slog.Attr
}

func (h *contextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.f.level.Level()
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	rec := &Record{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Extra:   make(map[string]any, r.NumAttrs()+len(h.attrs)+2),
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	if r.PC != 0 {
		if frame := callSite(r.PC); frame.File != "" {
			rec.Source = shortSource(frame.File, frame.Line)
			rec.Function = frame.Function
		}
	}

	for _, pa := range h.attrs {
		addAttr(rec, pa.prefix, pa.attr)
	}
	prefix := strings.Join(h.groups, ".")
	r.Attrs(func(a slog.Attr) bool {
		addAttr(rec, prefix, a)
		return true
	})

	h.f.enrich(ctx, rec)
	h.f.dispatch(rec)
	return nil
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	prefix := strings.Join(h.groups, ".")
	h2 := *h
	h2.attrs = make([]prefixedAttr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, prefixedAttr{prefix: prefix, attr: a})
	}
	return &h2
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string(nil), h.groups...), name)
	return &h2
}

func addAttr(rec *Record, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = joinKey(prefix, a.Key)
		}
		for _, ga := range a.Value.Group() {
			addAttr(rec, p, ga)
		}
		return
	}

	if prefix == "" {
		switch a.Key {
		case ExceptionKey:
			rec.Exception = joinException(rec.Exception, exceptionText(a.Value.Any()))
			return
		case StackKey:
			rec.Exception = joinException(rec.Exception, exceptionText(a.Value.Any()))
			return
		}
	}

	rec.Extra[joinKey(prefix, a.Key)] = a.Value.Any()
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func exceptionText(v any) string {
	switch val := v.(type) {
	case error:
		return val.Error()
	case []byte:
		return string(val)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func joinException(cur, next string) string {
	if cur == "" {
		return next
	}
	return cur + "\n" + next
}

// ErrorAttr attaches err as the record's exception text.
func ErrorAttr(err error) slog.Attr {
	return slog.Any(ExceptionKey, err)
}
