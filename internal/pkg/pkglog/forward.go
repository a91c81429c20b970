package pkglog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"unicode/utf8"
)

// maxForwardedField caps message and exception text so that an escaped
// record stays well below maxForwardedLine.
const maxForwardedField = 64 << 10

const truncatedMark = " [truncated]"

// ForwardSink ships records as JSON lines to the process that owns the log
// file, typically over a pipe inherited from the supervisor.
type ForwardSink struct {
	w     io.Writer
	level slog.Level
	q     *queue
}

// NewForwardSink returns a sink that writes to w from its own goroutine.
func NewForwardSink(w io.Writer, level slog.Level) *ForwardSink {
	s := &ForwardSink{w: w, level: level}
	s.q = newQueue(KindForward, defaultQueueSize, s.write)
	return s
}

func (s *ForwardSink) Enabled(level slog.Level) bool { return level >= s.level }

func (s *ForwardSink) Emit(rec *Record) { s.q.push(rec) }

func (s *ForwardSink) Spec() SinkSpec {
	return SinkSpec{Kind: KindForward, Level: LevelName(s.level), JSON: true, Stream: s.w}
}

func (s *ForwardSink) write(rec *Record) {
	if len(rec.Message) > maxForwardedField || len(rec.Exception) > maxForwardedField {
		short := *rec
		short.Message = truncateField(rec.Message)
		short.Exception = truncateField(rec.Exception)
		rec = &short
	}
	if _, err := s.w.Write(formatJSON(rec)); err != nil {
		fmt.Fprintf(os.Stderr, "pkglog: forward record: %v\n", err)
		return
	}
	recordsWritten.WithLabelValues(string(KindForward)).Inc()
}

// Close drains pending records and closes the underlying writer when it is
// closable.
func (s *ForwardSink) Close() error {
	s.q.close()
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func truncateField(s string) string {
	if len(s) <= maxForwardedField {
		return s
	}
	cut := maxForwardedField
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncatedMark
}
