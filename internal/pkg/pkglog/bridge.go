package pkglog

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"
)

// GenericRecord is a log event produced outside of slog, typically by a
// dependency writing through a standard library *log.Logger.
type GenericRecord struct {
	Logger    string
	LevelName string
	LevelNo   int
	Message   string
	Err       error
	Stack     string
	PC        uintptr // call site, resolved from the stack when zero
}

// DefaultLoggerNames are the std-log loggers wired by every Install.
//
//nolint:gochecknoglobals // fixed list
var DefaultLoggerNames = []string{"http.server", "httprouter", "cors", "app"}

const rootLoggerName = "root"

// Bridge re-emits std-log traffic through the structured pipeline. Every
// named logger writes through exactly one bridge writer.
type Bridge struct {
	handler  slog.Handler
	mu       sync.Mutex
	writers  map[string]*bridgeWriter
	registry map[string]*log.Logger
	wired    bool
}

func newBridge(h slog.Handler) *Bridge {
	return &Bridge{
		handler:  h,
		writers:  make(map[string]*bridgeWriter),
		registry: make(map[string]*log.Logger),
	}
}

// Emit converts rec into a structured record. Unknown level names fall back
// to the numeric level and never fail the call.
func (b *Bridge) Emit(ctx context.Context, rec GenericRecord) {
	if ctx == nil {
		ctx = context.Background()
	}
	level, ok := lookupLevel(rec.LevelName)
	if !ok {
		level = slog.Level(rec.LevelNo)
	}
	if !b.handler.Enabled(ctx, level) {
		return
	}

	pc := rec.PC
	if pc == 0 {
		pc = callerPC()
	}

	r := slog.NewRecord(time.Now(), level, rec.Message, pc)
	if rec.Logger != "" {
		r.AddAttrs(slog.String("logger", rec.Logger))
	}
	if rec.Err != nil {
		r.AddAttrs(slog.Any(ExceptionKey, rec.Err))
	}
	if rec.Stack != "" {
		r.AddAttrs(slog.String(StackKey, rec.Stack))
	}
	_ = b.handler.Handle(ctx, r)
}

// Logger returns the std-log logger registered under name, creating and
// wiring it when needed.
func (b *Bridge) Logger(name string) *log.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()

	if l, ok := b.registry[name]; ok {
		return l
	}
	l := log.New(b.writerLocked(name), "", 0)
	b.registry[name] = l
	return l
}

// ContextLogger returns a std-log logger whose lines carry the correlation
// ID bound to ctx. Hand it to a dependency for the lifetime of a request.
func (b *Bridge) ContextLogger(ctx context.Context, name string) *log.Logger {
	return log.New(&bridgeWriter{b: b, name: name, ctx: ctx}, "", 0)
}

// Register adds an existing logger to the registry. Once the bridge has been
// installed, the logger is rewired immediately.
func (b *Bridge) Register(name string, l *log.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.registry[name] = l
	if b.wired {
		b.wireLocked(name, l)
	}
}

// Names lists the registered logger names.
func (b *Bridge) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, 0, len(b.registry))
	for name := range b.registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Install routes the process default logger, the default names, the extra
// names and every registered logger through the bridge. Existing outputs are
// replaced, so repeated calls leave one bridge writer per logger.
func (b *Bridge) Install(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	root := log.Default()
	root.SetOutput(b.writerLocked(rootLoggerName))
	root.SetFlags(0)
	root.SetPrefix("")

	for _, name := range slices.Concat(DefaultLoggerNames, names) {
		if _, ok := b.registry[name]; !ok {
			b.registry[name] = log.New(b.writerLocked(name), "", 0)
		}
	}
	for name, l := range b.registry {
		b.wireLocked(name, l)
	}
	b.wired = true
}

// Uninstall points every registered logger back at stderr with the standard
// flags and a "name: " prefix. The process default logger is left to slog.
func (b *Bridge) Uninstall() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for name, l := range b.registry {
		l.SetOutput(os.Stderr)
		l.SetFlags(log.LstdFlags)
		l.SetPrefix(name + ": ")
	}
	b.wired = false
}

// Writer returns the bridge writer for name.
func (b *Bridge) Writer(name string) io.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writerLocked(name)
}

func (b *Bridge) wireLocked(name string, l *log.Logger) {
	l.SetOutput(b.writerLocked(name))
	l.SetFlags(0)
	l.SetPrefix("")
}

func (b *Bridge) writerLocked(name string) *bridgeWriter {
	w, ok := b.writers[name]
	if !ok {
		w = &bridgeWriter{b: b, name: name}
		b.writers[name] = w
	}
	return w
}

// bridgeWriter adapts one std-log logger. Each Write is one log line.
type bridgeWriter struct {
	b    *Bridge
	name string
	ctx  context.Context
}

func (w *bridgeWriter) Write(p []byte) (int, error) {
	levelName, msg := splitLevelTag(strings.TrimRight(string(p), "\n"))
	w.b.Emit(w.ctx, GenericRecord{
		Logger:    w.name,
		LevelName: levelName,
		LevelNo:   int(slog.LevelInfo),
		Message:   msg,
	})
	return len(p), nil
}

// splitLevelTag recognises "[LEVEL] msg" and "LEVEL: msg". Lines without a
// tag are INFO.
func splitLevelTag(line string) (string, string) {
	if strings.HasPrefix(line, "[") {
		if end := strings.IndexByte(line, ']'); end > 1 && isWord(line[1:end]) {
			return strings.ToUpper(line[1:end]), strings.TrimSpace(line[end+1:])
		}
	}
	if idx := strings.IndexByte(line, ':'); idx > 0 {
		if _, ok := lookupLevel(line[:idx]); ok && isWord(line[:idx]) {
			return strings.ToUpper(line[:idx]), strings.TrimSpace(line[idx+1:])
		}
	}
	return "INFO", line
}

func isWord(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}

//nolint:gochecknoglobals // resolved once
var bridgeFuncPrefixes = func() []string {
	pkg := reflect.TypeOf((*Bridge)(nil)).Elem().PkgPath() + "."
	return []string{
		pkg + "(*Bridge).",
		pkg + "(*bridgeWriter).",
		pkg + "callerPC",
	}
}()

func isBridgeFrame(fn string) bool {
	if strings.HasPrefix(fn, "log.") {
		return true
	}
	for _, p := range bridgeFuncPrefixes {
		if strings.HasPrefix(fn, p) {
			return true
		}
	}
	return false
}

// callerPC walks up past the bridge and the std-log package. When every
// frame belongs to them it returns the outermost frame it examined.
func callerPC() uintptr {
	var pcs [64]uintptr
	n := runtime.Callers(2, pcs[:])

	var last uintptr
	for _, pc := range pcs[:n] {
		last = pc
		// A single pc may cover inlined std-log frames and the caller.
		frames := runtime.CallersFrames([]uintptr{pc})
		for {
			frame, more := frames.Next()
			if !isBridgeFrame(frame.Function) {
				return pc
			}
			if !more {
				break
			}
		}
	}
	return last
}

// callSite resolves pc to the first frame outside the bridge.
func callSite(pc uintptr) runtime.Frame {
	frames := runtime.CallersFrames([]uintptr{pc})
	first, more := frames.Next()
	frame := first
	for isBridgeFrame(frame.Function) && more {
		frame, more = frames.Next()
	}
	if isBridgeFrame(frame.Function) {
		return first
	}
	return frame
}
