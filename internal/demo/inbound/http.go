package inbound

import (
	"context"

	"github.com/shandysiswandi/goscaff/internal/pkg/pkgrouter"
)

type uc interface {
	Resolve(ctx context.Context) string
	Work(ctx context.Context) error
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/", end.Root)
	r.GET("/foo", end.Foo)
}
