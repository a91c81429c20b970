package pkglog

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sinkKinds(specs []SinkSpec) []SinkKind {
	kinds := make([]SinkKind, 0, len(specs))
	for _, s := range specs {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}

func newOwner(t *testing.T) (*Facility, string) {
	t.Helper()
	path := filepath.Join(tempDir(t), "logs", "app.log")
	f := New(Options{Level: slog.LevelDebug})
	require.NoError(t, f.Setup(FileConfig{Path: path}))
	return f, path
}

func TestAdoptInOwnerProcess(t *testing.T) {
	f, path := newOwner(t)

	desc, err := f.Snapshot()
	require.NoError(t, err)
	assert.NotZero(t, desc.Owner)
	assert.Equal(t, os.Getpid(), desc.PID)

	var console bytes.Buffer
	role, err := f.Adopt(desc, AdoptOptions{Console: &console})
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, role)
	assert.Equal(t, []SinkKind{KindFile, KindConsole}, sinkKinds(f.Sinks()))

	f.Logger().Info("owner line")
	require.NoError(t, f.Close())

	assert.Contains(t, console.String(), "owner line")
	assert.Contains(t, readFile(t, path), "owner line")
}

func TestEncodeDescriptorRejectsLiveStreams(t *testing.T) {
	f, _ := newOwner(t)
	t.Cleanup(func() { _ = f.Close() })

	require.NoError(t, f.AddSink(NewConsoleSink(io.Discard, slog.LevelInfo, false)))
	desc, err := f.Snapshot()
	require.NoError(t, err)

	_, err = EncodeDescriptor(desc)
	assert.ErrorIs(t, err, ErrNotTransferable)
}

func TestDescriptorRoundTripDropsIdentity(t *testing.T) {
	f, path := newOwner(t)
	t.Cleanup(func() { _ = f.Close() })

	desc, err := f.Snapshot()
	require.NoError(t, err)

	encoded, err := EncodeDescriptor(desc)
	require.NoError(t, err)

	decoded, err := DecodeDescriptor(encoded)
	require.NoError(t, err)
	assert.Equal(t, desc.Owner, decoded.Owner)
	assert.Equal(t, desc.Level, decoded.Level)
	require.Len(t, decoded.Sinks, 1)
	assert.Equal(t, path, decoded.Sinks[0].Path)
	assert.Equal(t, int64(DefaultRotationSize), decoded.Sinks[0].Rotation.Size)
	assert.Nil(t, decoded.set)

	role, err := f.Adopt(decoded, AdoptOptions{Console: io.Discard})
	require.NoError(t, err)
	assert.Equal(t, RoleWorker, role, "equal values but different identity is a worker")
}

func TestAdoptInWorkerNeverOpensFile(t *testing.T) {
	owner, path := newOwner(t)
	t.Cleanup(func() { _ = owner.Close() })

	desc, err := owner.Snapshot()
	require.NoError(t, err)
	encoded, err := EncodeDescriptor(desc)
	require.NoError(t, err)

	t.Setenv(EnvDescriptor, encoded)
	received, err := DescriptorFromEnv()
	require.NoError(t, err)

	var console bytes.Buffer
	worker := New(Options{Level: slog.LevelError})
	role, err := worker.Adopt(received, AdoptOptions{Console: &console})
	require.NoError(t, err)
	assert.Equal(t, RoleWorker, role)
	assert.Equal(t, []SinkKind{KindConsole}, sinkKinds(worker.Sinks()))
	assert.Equal(t, slog.LevelDebug, worker.Level())

	worker.Logger().Debug("worker line")
	require.NoError(t, worker.Close())

	assert.Contains(t, console.String(), "worker line")
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "worker must not create the owner's file")
}

func TestWorkerForwardsToOwner(t *testing.T) {
	owner, path := newOwner(t)

	desc, err := owner.Snapshot()
	require.NoError(t, err)
	encoded, err := EncodeDescriptor(desc)
	require.NoError(t, err)
	received, err := DecodeDescriptor(encoded)
	require.NoError(t, err)

	var pipe bytes.Buffer
	worker := New(Options{})
	role, err := worker.Adopt(received, AdoptOptions{Console: io.Discard, Forward: &pipe})
	require.NoError(t, err)
	assert.Equal(t, RoleWorker, role)
	assert.Equal(t, []SinkKind{KindConsole, KindForward}, sinkKinds(worker.Sinks()))

	ctx := WithCorrelationID(context.Background(), "cid-fwd")
	worker.Logger().InfoContext(ctx, "forwarded line")
	require.NoError(t, worker.Close())

	pipe.WriteString("not json\n")
	require.NoError(t, owner.Ingest(&pipe))
	require.NoError(t, owner.Close())

	content := readFile(t, path)
	assert.Contains(t, content, "forwarded line")
	assert.Contains(t, content, "cid-fwd")
	assert.Equal(t, 1, strings.Count(content, "\n"))
}

func TestDecodeDescriptorErrors(t *testing.T) {
	_, err := DecodeDescriptor("")
	assert.ErrorIs(t, err, ErrNoDescriptor)

	_, err = DecodeDescriptor("%%%")
	assert.Error(t, err)

	_, err = DecodeDescriptor("e30=") // {}
	assert.ErrorIs(t, err, ErrNoDescriptor)

	_, err = New(Options{}).Adopt(SinkDescriptor{}, AdoptOptions{})
	assert.ErrorIs(t, err, ErrNoDescriptor)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "owner", RoleOwner.String())
	assert.Equal(t, "worker", RoleWorker.String())
	assert.Equal(t, "unknown", Role(9).String())
}

type fixedIDs struct{ calls int }

func (g *fixedIDs) Generate() int64 {
	g.calls++
	return 42
}

func TestSnapshotUsesInjectedOwnerIDs(t *testing.T) {
	ids := &fixedIDs{}
	f := New(Options{IDs: ids})
	require.NoError(t, f.Setup(FileConfig{Path: filepath.Join(tempDir(t), "app.log")}))
	t.Cleanup(func() { _ = f.Close() })

	first, err := f.Snapshot()
	require.NoError(t, err)
	second, err := f.Snapshot()
	require.NoError(t, err)

	assert.Equal(t, int64(42), first.Owner)
	assert.Equal(t, first.Owner, second.Owner)
	assert.Equal(t, 1, ids.calls)
}

func forwardedLine(msg string) []byte {
	return formatJSON(&Record{
		Time:    time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC),
		Level:   slog.LevelInfo,
		Message: msg,
		Extra:   map[string]any{RequestIDKey: nil},
	})
}

func TestIngestSkipsOversizeLineAndKeepsReading(t *testing.T) {
	owner, path := newOwner(t)

	var pipe bytes.Buffer
	pipe.Write(forwardedLine("before"))
	pipe.Write(forwardedLine(strings.Repeat("x", maxForwardedLine+10)))
	pipe.Write(forwardedLine("after"))
	pipe.Write(bytes.TrimSuffix(forwardedLine("unterminated"), []byte("\n")))

	require.NoError(t, owner.Ingest(&pipe))
	require.NoError(t, owner.Close())

	content := readFile(t, path)
	assert.Contains(t, content, "before")
	assert.Contains(t, content, "after")
	assert.Contains(t, content, "unterminated")
	assert.NotContains(t, content, "xxxx")
	assert.Equal(t, 3, strings.Count(content, "\n"))
}

func TestForwardSinkTruncatesLongFields(t *testing.T) {
	var pipe bytes.Buffer
	sink := NewForwardSink(&pipe, slog.LevelInfo)

	rec := &Record{
		Time:      time.Now(),
		Level:     slog.LevelError,
		Message:   strings.Repeat("é", maxForwardedField),
		Exception: "short",
		Extra:     map[string]any{RequestIDKey: nil},
	}
	sink.Emit(rec)
	require.NoError(t, sink.Close())

	got, err := decodeRecord(bytes.TrimSpace(pipe.Bytes()))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got.Message, truncatedMark))
	assert.LessOrEqual(t, len(got.Message), maxForwardedField+len(truncatedMark))
	assert.True(t, utf8.ValidString(got.Message))
	assert.Equal(t, "short", got.Exception)
	assert.Len(t, rec.Message, 2*maxForwardedField, "the shared record must stay untouched")
}
