package pkglog

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shandysiswandi/goscaff/internal/pkg/pkguid"
)

// ErrClosed is returned by operations on a closed Facility.
var ErrClosed = errors.New("pkglog: facility closed")

// Options configures a Facility.
type Options struct {
	Level   slog.Level
	Service string           // added to every record as "service" when set
	Now     func() time.Time // clock used for rotation deadlines
	IDs     pkguid.NumberID  // owner tokens for Snapshot; snowflake when nil
}

// FileConfig describes the rotating log file owned by this process.
type FileConfig struct {
	Path     string
	JSON     bool
	Rotation RotationPolicy
}

// sinkSet is replaced wholesale on every change; its address identifies the
// active configuration.
type sinkSet struct {
	sinks []Sink
}

// Facility is the process-scoped logging object: it owns the severity level,
// the active sinks, the std-log bridge and the slog.Logger that feeds them.
//
// Configuration changes only through Setup, AddSink, Adopt and Close.
type Facility struct {
	mu        sync.Mutex
	level     slog.LevelVar
	service   string
	now       func() time.Time
	set       atomic.Pointer[sinkSet]
	logger    *slog.Logger
	bridge    *Bridge
	installed bool
	closed    bool
	owner     int64
	ids       pkguid.NumberID
}

// New creates a facility without sinks.
func New(opts Options) *Facility {
	f := &Facility{service: opts.Service, now: opts.Now, ids: opts.IDs}
	if f.now == nil {
		f.now = time.Now
	}
	f.level.Set(opts.Level)
	f.set.Store(&sinkSet{})

	h := &contextHandler{f: f}
	f.logger = slog.New(h)
	f.bridge = newBridge(h)
	return f
}

// Logger returns the structured logger backed by this facility.
func (f *Facility) Logger() *slog.Logger { return f.logger }

// Bridge returns the std-log bridge feeding this facility.
func (f *Facility) Bridge() *Bridge { return f.bridge }

// Level returns the minimum severity.
func (f *Facility) Level() slog.Level { return f.level.Level() }

// SetLevel changes the minimum severity.
func (f *Facility) SetLevel(l slog.Level) { f.level.Set(l) }

// Sinks describes the active sinks.
func (f *Facility) Sinks() []SinkSpec {
	set := f.set.Load()
	specs := make([]SinkSpec, 0, len(set.sinks))
	for _, s := range set.sinks {
		specs = append(specs, s.Spec())
	}
	return specs
}

// AddSink attaches a sink.
func (f *Facility) AddSink(s Sink) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	f.addSinkLocked(s)
	return nil
}

func (f *Facility) addSinkLocked(s Sink) {
	cur := f.set.Load()
	next := &sinkSet{sinks: make([]Sink, 0, len(cur.sinks)+1)}
	next.sinks = append(next.sinks, cur.sinks...)
	next.sinks = append(next.sinks, s)
	f.set.Store(next)
}

// Setup makes this process the owner of the log file described by cfg.
// Calling it again for the same path is a no-op.
func (f *Facility) Setup(cfg FileConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	for _, s := range f.set.Load().sinks {
		if fs, ok := s.(*FileSink); ok && fs.Path() == cfg.Path {
			return nil
		}
	}

	sink, err := NewFileSink(SinkSpec{
		Kind:     KindFile,
		Path:     cfg.Path,
		Level:    LevelName(f.level.Level()),
		JSON:     cfg.JSON,
		Rotation: cfg.Rotation,
	}, f.now())
	if err != nil {
		return err
	}
	f.addSinkLocked(sink)
	return nil
}

// Install makes the facility the slog default and routes the std-log
// loggers through the bridge. It is safe to call more than once.
func (f *Facility) Install(names ...string) {
	f.mu.Lock()
	f.installed = true
	f.mu.Unlock()

	slog.SetDefault(f.logger)
	f.bridge.Install(names...)
}

func (f *Facility) enrich(ctx context.Context, rec *Record) {
	if cid, ok := CorrelationID(ctx); ok {
		rec.Extra[RequestIDKey] = cid
	} else {
		rec.Extra[RequestIDKey] = nil
	}
	if f.service != "" {
		if _, ok := rec.Extra["service"]; !ok {
			rec.Extra["service"] = f.service
		}
	}
}

func (f *Facility) dispatch(rec *Record) {
	for _, s := range f.set.Load().sinks {
		if s.Enabled(rec.Level) {
			s.Emit(rec)
		}
	}
}

func (f *Facility) dispatchKind(rec *Record, kind SinkKind) int {
	n := 0
	for _, s := range f.set.Load().sinks {
		if s.Spec().Kind == kind && s.Enabled(rec.Level) {
			s.Emit(rec)
			n++
		}
	}
	return n
}

// Close detaches every sink and waits for queued records to be written.
func (f *Facility) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.closed = true
	old := f.set.Swap(&sinkSet{})
	installed := f.installed
	f.mu.Unlock()

	f.bridge.Uninstall()
	if installed {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	var errs []error
	for _, s := range old.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
