package demo

import (
	"context"

	"github.com/shandysiswandi/goscaff/internal/demo/inbound"
	"github.com/shandysiswandi/goscaff/internal/demo/usecase"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkgrouter"
)

type Dependency struct {
	Config pkgconfig.Config
	Router *pkgrouter.Router
}

func New(dep Dependency) (func(context.Context) error, error) {
	uc := usecase.New(usecase.Dependency{
		WorkDelay: dep.Config.GetDuration("modules.demo.work_delay"),
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil, nil
}
