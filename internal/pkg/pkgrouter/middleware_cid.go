package pkgrouter

import (
	"net/http"

	"github.com/shandysiswandi/goscaff/internal/pkg/pkglog"
)

// Generator generates a unique string (used for correlation/request IDs).
type Generator interface {
	Generate() string
}

// HeaderRequestID carries the correlation ID of a request back to the client.
const HeaderRequestID = "X-Request-ID"

// middlewareCorrelationID binds a fresh correlation ID to every request.
//
// Incoming X-Request-ID headers are ignored: the ID identifies this
// server's handling of the request, and reusing a client value would let two
// concurrent requests share one.
func middlewareCorrelationID(uid Generator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := uid.Generate()

			w.Header().Set(HeaderRequestID, cid)
			r = r.WithContext(pkglog.WithCorrelationID(r.Context(), cid))

			next.ServeHTTP(w, r)
		})
	}
}
