package pkgrouter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/shandysiswandi/goscaff/internal/pkg/pkglog"
)

type staticGenerator struct {
	mu     sync.Mutex
	values []string
	calls  int
}

func (g *staticGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.values[g.calls%len(g.values)]
	g.calls++
	return v
}

type logLine struct {
	Severity  string         `json:"severity"`
	RequestID *string        `json:"request_id"`
	Message   string         `json:"message"`
	Extra     map[string]any `json:"extra"`
	Exception string         `json:"exception"`
}

// captureLogs routes the default slog logger into a JSON buffer for the
// duration of the test.
func captureLogs(t *testing.T) func() []logLine {
	t.Helper()

	var buf syncBuffer
	f := pkglog.New(pkglog.Options{Level: slog.LevelDebug})
	if err := f.AddSink(pkglog.NewConsoleSink(&buf, slog.LevelDebug, true)); err != nil {
		t.Fatalf("add sink: %v", err)
	}

	prev := slog.Default()
	slog.SetDefault(f.Logger())
	t.Cleanup(func() {
		slog.SetDefault(prev)
		_ = f.Close()
	})

	return func() []logLine {
		var lines []logLine
		for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if raw == "" {
				continue
			}
			var l logLine
			if err := json.Unmarshal([]byte(raw), &l); err != nil {
				t.Fatalf("decode log line %q: %v", raw, err)
			}
			lines = append(lines, l)
		}
		return lines
	}
}

func findLine(lines []logLine, msg string) (logLine, bool) {
	for _, l := range lines {
		if l.Message == msg {
			return l, true
		}
	}
	return logLine{}, false
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
