package pkglog

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shandysiswandi/goscaff/internal/pkg/pkguid"
)

// EnvDescriptor carries the encoded SinkDescriptor into worker processes.
const EnvDescriptor = "GOSCAFF_LOG_DESCRIPTOR"

const maxForwardedLine = 1 << 20

var (
	// ErrNotTransferable means a descriptor references a live stream.
	ErrNotTransferable = errors.New("pkglog: sink descriptor holds a live stream and cannot cross a process boundary")
	// ErrNoDescriptor means no usable descriptor was handed to this process.
	ErrNoDescriptor = errors.New("pkglog: no sink descriptor")
)

// Role tells whether this process writes the log file itself.
type Role int

const (
	RoleOwner Role = iota
	RoleWorker
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleWorker:
		return "worker"
	default:
		return "unknown"
	}
}

// SinkDescriptor is a snapshot of the sink configuration of the owning
// process. It never contains open files; the identity of the live sink set
// it was taken from is kept only in memory and is lost when encoded.
type SinkDescriptor struct {
	Owner int64      `json:"owner"`
	PID   int        `json:"pid"`
	Level string     `json:"level"`
	Sinks []SinkSpec `json:"sinks"`

	set *sinkSet
}

// AdoptOptions are the process-local resources used by Adopt.
type AdoptOptions struct {
	Console io.Writer // stderr when nil
	Forward io.Writer // pipe to the owner; no forwarding when nil
}

// Snapshot describes the active sinks for handing to worker processes. Take
// it before attaching console sinks: those hold live streams.
func (f *Facility) Snapshot() (SinkDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return SinkDescriptor{}, ErrClosed
	}
	if f.owner == 0 {
		if f.ids == nil {
			gen, err := pkguid.NewSnowflake()
			if err != nil {
				return SinkDescriptor{}, fmt.Errorf("pkglog: owner token: %w", err)
			}
			f.ids = gen
		}
		f.owner = f.ids.Generate()
	}

	set := f.set.Load()
	specs := make([]SinkSpec, 0, len(set.sinks))
	for _, s := range set.sinks {
		specs = append(specs, s.Spec())
	}
	return SinkDescriptor{
		Owner: f.owner,
		PID:   os.Getpid(),
		Level: LevelName(f.level.Level()),
		Sinks: specs,
		set:   set,
	}, nil
}

// EncodeDescriptor serializes d for an environment variable.
func EncodeDescriptor(d SinkDescriptor) (string, error) {
	for _, spec := range d.Sinks {
		if spec.Stream != nil {
			return "", fmt.Errorf("%w: %s sink", ErrNotTransferable, spec.Kind)
		}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("pkglog: encode descriptor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeDescriptor is the inverse of EncodeDescriptor.
func DecodeDescriptor(s string) (SinkDescriptor, error) {
	if s == "" {
		return SinkDescriptor{}, ErrNoDescriptor
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return SinkDescriptor{}, fmt.Errorf("pkglog: decode descriptor: %w", err)
	}
	var d SinkDescriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return SinkDescriptor{}, fmt.Errorf("pkglog: decode descriptor: %w", err)
	}
	if d.Owner == 0 {
		return SinkDescriptor{}, fmt.Errorf("%w: missing owner", ErrNoDescriptor)
	}
	return d, nil
}

// DescriptorFromEnv reads the descriptor handed down by the supervisor.
func DescriptorFromEnv() (SinkDescriptor, error) {
	return DecodeDescriptor(os.Getenv(EnvDescriptor))
}

// Adopt finishes logging setup in a process that received d.
//
// When the active sink set is the very one d was taken from, this process
// owns the file and only a console sink is added. Otherwise this is a
// spawned worker: it applies d's level and format, logs to the console and,
// when a forward pipe is available, ships records to the owner. A worker
// never opens the owner's files.
func (f *Facility) Adopt(d SinkDescriptor, opts AdoptOptions) (Role, error) {
	if d.Owner == 0 {
		return RoleWorker, ErrNoDescriptor
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return RoleWorker, ErrClosed
	}

	asJSON := false
	for _, spec := range d.Sinks {
		if spec.Kind == KindFile {
			asJSON = spec.JSON
			break
		}
	}

	if d.set != nil && d.set == f.set.Load() {
		f.addSinkLocked(NewConsoleSink(opts.Console, f.level.Level(), asJSON))
		return RoleOwner, nil
	}

	level, ok := parseLevelName(d.Level)
	if !ok {
		level = ResolveLevel(d.Level)
	}
	f.level.Set(level)
	f.owner = d.Owner

	f.addSinkLocked(NewConsoleSink(opts.Console, level, asJSON))
	if opts.Forward != nil {
		f.addSinkLocked(NewForwardSink(opts.Forward, level))
	}
	return RoleWorker, nil
}

// Ingest reads records forwarded by a worker and writes them to this
// process's file sinks until r is exhausted. Undecodable lines and lines
// longer than maxForwardedLine are counted and skipped; reading goes on, so
// one bad record never cuts a worker off.
func (f *Facility) Ingest(r io.Reader) error {
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		line     []byte
		oversize bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		if !oversize {
			if len(line)+len(chunk) > maxForwardedLine+1 {
				oversize, line = true, line[:0]
			} else {
				line = append(line, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}

		if oversize {
			recordsMalformed.Inc()
		} else {
			f.ingestLine(line)
		}
		line, oversize = line[:0], false

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("pkglog: ingest: %w", err)
		}
	}
}

func (f *Facility) ingestLine(line []byte) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return
	}
	rec, err := decodeRecord(line)
	if err != nil {
		recordsMalformed.Inc()
		return
	}
	recordsIngested.Inc()
	f.dispatchKind(rec, KindFile)
}
