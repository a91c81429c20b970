package pkgrouter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shandysiswandi/goscaff/internal/pkg/pkglog"
)

func TestMiddlewareCorrelationIDGeneratesPerRequest(t *testing.T) {
	gen := &staticGenerator{values: []string{"first", "second"}}
	mw := middlewareCorrelationID(gen)

	var seen []string
	wrapped := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, pkglog.GetCorrelationID(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	for _, want := range []string{"first", "second"} {
		req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
		rec := httptest.NewRecorder()

		wrapped.ServeHTTP(rec, req)

		if got := rec.Header().Get(HeaderRequestID); got != want {
			t.Fatalf("expected response header %q, got %q", want, got)
		}
	}

	if len(seen) != 2 || seen[0] != "first" || seen[1] != "second" {
		t.Fatalf("unexpected context ids: %#v", seen)
	}
}

func TestMiddlewareCorrelationIDIgnoresIncomingHeader(t *testing.T) {
	gen := &staticGenerator{values: []string{"generated"}}
	mw := middlewareCorrelationID(gen)

	var gotCID string
	wrapped := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCID = pkglog.GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set(HeaderRequestID, "client-supplied")
	rec := httptest.NewRecorder()

	wrapped.ServeHTTP(rec, req)

	if gotCID != "generated" {
		t.Fatalf("expected generated id, got %q", gotCID)
	}
	if got := rec.Header().Get(HeaderRequestID); got != "generated" {
		t.Fatalf("expected generated header, got %q", got)
	}
	if gen.calls != 1 {
		t.Fatalf("expected generator called once, got %d", gen.calls)
	}
}

func TestMiddlewareCorrelationIDUnboundAfterRequest(t *testing.T) {
	gen := &staticGenerator{values: []string{"scoped"}}
	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)

	middlewareCorrelationID(gen)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), req)

	if got := pkglog.GetCorrelationID(req.Context()); got != "" {
		t.Fatalf("expected original request context untouched, got %q", got)
	}
}
