package inbound

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/shandysiswandi/goscaff/internal/pkg/pkgerror"
)

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Root(ctx context.Context, r *http.Request) (any, error) {
	if err := validateQuery(r); err != nil {
		return nil, err
	}

	value := h.uc.Resolve(ctx)

	slog.InfoContext(ctx, "message from root handler")

	if err := h.uc.Work(ctx); err != nil {
		return nil, err
	}

	return MessageResponse{Text: value}, nil
}

func (h *HTTPEndpoint) Foo(ctx context.Context, r *http.Request) (any, error) {
	if err := validateQuery(r); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "message from foo handler")

	return MessageResponse{Text: "Hello World"}, nil
}

// validateQuery rejects a query string with broken escapes; net/http would
// otherwise drop the bad pairs silently.
func validateQuery(r *http.Request) error {
	if _, err := url.ParseQuery(r.URL.RawQuery); err != nil {
		return pkgerror.NewInvalidInput(err)
	}
	return nil
}
