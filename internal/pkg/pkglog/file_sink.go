package pkglog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	megabyte = 1024 * 1024

	DefaultRotationSize      = 10_000_000
	DefaultRotationAt        = "00:00"
	DefaultRotationRetention = 10 * 24 * time.Hour
)

// FileSink appends records to one file. A single goroutine owns the file: it
// consults the Rotator, performs rotations and writes, so no two writes or
// rotation decisions ever race.
//
// Archived files are renamed with a timestamp, gzip-compressed and removed
// once older than the retention horizon.
type FileSink struct {
	spec    SinkSpec
	level   slog.Level
	out     *lumberjack.Logger
	rotator *Rotator
	size    int64
	q       *queue
}

// NewFileSink prepares a file sink. The file itself is opened lazily on the
// first write.
func NewFileSink(spec SinkSpec, now time.Time) (*FileSink, error) {
	if spec.Path == "" {
		return nil, errors.New("pkglog: file sink requires a path")
	}
	spec.Kind = KindFile
	spec.Stream = nil
	if spec.Rotation.Size <= 0 {
		spec.Rotation.Size = DefaultRotationSize
	}
	if spec.Rotation.At == "" {
		spec.Rotation.At = DefaultRotationAt
	}
	if spec.Rotation.Retention <= 0 {
		spec.Rotation.Retention = DefaultRotationRetention
	}

	at, err := ParseTimeOfDay(spec.Rotation.At)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(spec.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("pkglog: create log directory: %w", err)
		}
	}

	level, ok := parseLevelName(spec.Level)
	if !ok {
		level = slog.LevelInfo
	}
	spec.Level = LevelName(level)

	s := &FileSink{
		spec:    spec,
		level:   level,
		rotator: NewRotator(spec.Rotation.Size, at, now),
		out: &lumberjack.Logger{
			Filename: spec.Path,
			// lumberjack's own size cut stays above ours so the Rotator decides.
			MaxSize:   int(spec.Rotation.Size/megabyte) + 2,
			MaxAge:    retentionDays(spec.Rotation.Retention),
			LocalTime: true,
			Compress:  true,
		},
	}
	if info, err := os.Stat(spec.Path); err == nil {
		s.size = info.Size()
	}
	s.q = newQueue(KindFile, defaultQueueSize, s.write)

	return s, nil
}

func retentionDays(d time.Duration) int {
	days := int((d + 24*time.Hour - 1) / (24 * time.Hour))
	if days < 1 {
		return 1
	}
	return days
}

func (s *FileSink) Enabled(level slog.Level) bool { return level >= s.level }

func (s *FileSink) Emit(rec *Record) { s.q.push(rec) }

func (s *FileSink) Spec() SinkSpec { return s.spec }

// Path returns the active file path.
func (s *FileSink) Path() string { return s.spec.Path }

func (s *FileSink) write(rec *Record) {
	line := render(rec, s.spec.JSON)

	// An empty file is never archived, even when a trigger fires.
	if s.rotator.ShouldRotate(len(line), s.size, rec.Time) && s.size > 0 {
		if err := s.out.Rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "pkglog: rotate %s: %v\n", s.spec.Path, err)
		} else {
			s.size = 0
			rotations.Inc()
		}
	}

	n, err := s.out.Write(line)
	s.size += int64(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pkglog: write %s: %v\n", s.spec.Path, err)
		return
	}
	recordsWritten.WithLabelValues(string(KindFile)).Inc()
}

// Close drains pending records and closes the file.
func (s *FileSink) Close() error {
	s.q.close()
	if err := s.out.Close(); err != nil {
		return fmt.Errorf("pkglog: close %s: %w", s.spec.Path, err)
	}
	return nil
}
