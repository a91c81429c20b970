package pkglog

import (
	"log"
	"log/slog"
	"os"
	"sync"
	"testing"
)

type captureSink struct {
	mu    sync.Mutex
	level slog.Level
	recs  []*Record
}

func (c *captureSink) Enabled(level slog.Level) bool { return level >= c.level }

func (c *captureSink) Emit(rec *Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
}

func (c *captureSink) Spec() SinkSpec { return SinkSpec{Kind: KindConsole, Level: LevelName(c.level)} }

func (c *captureSink) Close() error { return nil }

func (c *captureSink) records() []*Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Record(nil), c.recs...)
}

func newCaptureFacility(t *testing.T) (*Facility, *captureSink) {
	t.Helper()
	f := New(Options{Level: slog.LevelDebug})
	capture := &captureSink{level: slog.LevelDebug}
	if err := f.AddSink(capture); err != nil {
		t.Fatalf("add sink: %v", err)
	}
	return f, capture
}

// restoreGlobalLoggers undoes Install for the rest of the test binary.
func restoreGlobalLoggers(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() {
		slog.SetDefault(prev)
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
		log.SetPrefix("")
	})
}

func tempDir(t *testing.T) string {
	t.Helper()
	// lumberjack compresses archives from a background goroutine that may
	// outlive the test, so cleanup errors are ignored.
	dir, err := os.MkdirTemp("", "pkglog-*")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}
