package pkglog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHandlerAddsCorrelationID(t *testing.T) {
	f, capture := newCaptureFacility(t)

	ctx := WithCorrelationID(context.Background(), "cid-abc")
	f.Logger().InfoContext(ctx, "hello", "count", 3)

	recs := capture.records()
	require.Len(t, recs, 1)
	assert.Equal(t, "hello", recs[0].Message)
	assert.Equal(t, "cid-abc", recs[0].Extra[RequestIDKey])
	assert.Equal(t, int64(3), recs[0].Extra["count"])
	assert.Contains(t, recs[0].Source, "slog_test.go")
}

func TestContextHandlerKeepsRequestIDKeyWhenAbsent(t *testing.T) {
	f, capture := newCaptureFacility(t)

	f.Logger().Info("no request")

	recs := capture.records()
	require.Len(t, recs, 1)
	v, ok := recs[0].Extra[RequestIDKey]
	assert.True(t, ok, "request_id key must always be present")
	assert.Nil(t, v)
}

func TestContextHandlerAttrsAndGroups(t *testing.T) {
	f := New(Options{Level: slog.LevelInfo, Service: "goscaff"})
	capture := &captureSink{level: slog.LevelDebug}
	require.NoError(t, f.AddSink(capture))

	logger := f.Logger().With("component", "test").WithGroup("http")
	logger.Info("grouped", "status", 200, slog.Group("req", "method", "GET"))
	logger.Debug("filtered")

	recs := capture.records()
	require.Len(t, recs, 1)
	assert.Equal(t, "test", recs[0].Extra["component"])
	assert.Equal(t, int64(200), recs[0].Extra["http.status"])
	assert.Equal(t, "GET", recs[0].Extra["http.req.method"])
	assert.Equal(t, "goscaff", recs[0].Extra["service"])
}

func TestContextHandlerException(t *testing.T) {
	f, capture := newCaptureFacility(t)

	f.Logger().Error("failed", ErrorAttr(errors.New("boom")), slog.String(StackKey, "goroutine 1"))

	recs := capture.records()
	require.Len(t, recs, 1)
	assert.Equal(t, "boom\ngoroutine 1", recs[0].Exception)
	assert.NotContains(t, recs[0].Extra, ExceptionKey)
}

func TestContextHandlerConcurrentRequestsDoNotMix(t *testing.T) {
	f, capture := newCaptureFacility(t)

	var wg sync.WaitGroup
	for _, cid := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := WithCorrelationID(context.Background(), cid)
			for range 50 {
				f.Logger().InfoContext(ctx, cid)
			}
		}()
	}
	wg.Wait()

	recs := capture.records()
	require.Len(t, recs, 200)
	for _, rec := range recs {
		assert.Equal(t, rec.Message, rec.Extra[RequestIDKey])
	}
}

func TestFacilitySetupIsIdempotent(t *testing.T) {
	dir := tempDir(t)
	f := New(Options{Level: slog.LevelInfo})

	cfg := FileConfig{Path: dir + "/app.log"}
	require.NoError(t, f.Setup(cfg))
	require.NoError(t, f.Setup(cfg))

	specs := f.Sinks()
	require.Len(t, specs, 1)
	assert.Equal(t, KindFile, specs[0].Kind)
	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Close(), ErrClosed)
	assert.ErrorIs(t, f.AddSink(&captureSink{}), ErrClosed)
}
