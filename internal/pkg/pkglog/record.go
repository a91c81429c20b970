package pkglog

import (
	"log/slog"
	"time"
)

// Record is one log event as handed to the sinks.
//
// It is built once by the pipeline handler and must be treated as read-only
// afterwards: the same value is shared by every sink.
type Record struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Source    string // file:line of the call site
	Function  string
	Extra     map[string]any // always carries RequestIDKey
	Exception string
}

// RequestID returns the correlation ID carried by the record, if any.
func (r *Record) RequestID() (string, bool) {
	cid, ok := r.Extra[RequestIDKey].(string)
	if !ok || cid == "" {
		return "", false
	}
	return cid, true
}
