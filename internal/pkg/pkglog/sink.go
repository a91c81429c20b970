package pkglog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// SinkKind names a sink implementation.
type SinkKind string

const (
	KindConsole SinkKind = "console"
	KindFile    SinkKind = "file"
	KindForward SinkKind = "forward"
)

const defaultQueueSize = 8192

// defaultPushWait bounds how long a producer blocks on a full queue before
// the record is dropped.
const defaultPushWait = 50 * time.Millisecond

// RotationPolicy configures the file sink's Rotator and archive handling.
type RotationPolicy struct {
	Size      int64         `json:"size"`      // bytes
	At        string        `json:"at"`        // daily cutover, "HH:MM"
	Retention time.Duration `json:"retention"` // archives older than this are deleted
}

// SinkSpec is the serializable description of a sink.
//
// Stream holds a live writer for console sinks and is never serialized; a
// spec carrying one cannot be handed to another process.
type SinkSpec struct {
	Kind     SinkKind       `json:"kind"`
	Path     string         `json:"path,omitempty"`
	Level    string         `json:"level"`
	JSON     bool           `json:"json"`
	Rotation RotationPolicy `json:"rotation"`
	Stream   io.Writer      `json:"-"`
}

// Sink receives records from the pipeline. Emit must not block for long.
type Sink interface {
	Enabled(level slog.Level) bool
	Emit(rec *Record)
	Spec() SinkSpec
	Close() error
}

func render(rec *Record, asJSON bool) []byte {
	if asJSON {
		return formatJSON(rec)
	}
	return formatText(rec)
}

// ConsoleSink writes synchronously to a stream such as stderr.
type ConsoleSink struct {
	mu    sync.Mutex
	w     io.Writer
	level slog.Level
	json  bool
}

// NewConsoleSink returns a sink writing to w, or stderr when w is nil.
func NewConsoleSink(w io.Writer, level slog.Level, asJSON bool) *ConsoleSink {
	if w == nil {
		w = os.Stderr
	}
	return &ConsoleSink{w: w, level: level, json: asJSON}
}

func (s *ConsoleSink) Enabled(level slog.Level) bool { return level >= s.level }

func (s *ConsoleSink) Emit(rec *Record) {
	line := render(rec, s.json)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(line); err == nil {
		recordsWritten.WithLabelValues(string(KindConsole)).Inc()
	}
}

func (s *ConsoleSink) Spec() SinkSpec {
	return SinkSpec{Kind: KindConsole, Level: LevelName(s.level), JSON: s.json, Stream: s.w}
}

func (s *ConsoleSink) Close() error { return nil }

// queue hands records to a single consumer goroutine. push blocks for at
// most wait when the buffer is full; after that the record is dropped and
// counted.
type queue struct {
	kind    SinkKind
	wait    time.Duration
	mu      sync.RWMutex
	closed  bool
	ch      chan *Record
	done    chan struct{}
	dropped atomic.Int64
	notice  *rate.Limiter
}

func newQueue(kind SinkKind, size int, consume func(*Record)) *queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	q := &queue{
		kind:   kind,
		wait:   defaultPushWait,
		ch:     make(chan *Record, size),
		done:   make(chan struct{}),
		notice: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
	go func() {
		defer close(q.done)
		for rec := range q.ch {
			consume(rec)
		}
	}()
	return q
}

func (q *queue) push(rec *Record) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.closed {
		select {
		case q.ch <- rec:
			return true
		default:
		}

		// Full: give the consumer a short grace period before dropping.
		t := time.NewTimer(q.wait)
		select {
		case q.ch <- rec:
			t.Stop()
			return true
		case <-t.C:
		}
	}

	n := q.dropped.Add(1)
	recordsDropped.WithLabelValues(string(q.kind)).Inc()
	if q.notice.Allow() {
		fmt.Fprintf(os.Stderr, "pkglog: %s sink dropped %d records\n", q.kind, n)
	}
	return false
}

// close stops accepting records and waits until the backlog is drained.
func (q *queue) close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()

	<-q.done
}
