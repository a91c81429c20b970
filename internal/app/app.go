package app

import (
	"context"
	"net"
	"net/http"

	"github.com/shandysiswandi/goscaff/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkglog"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkguid"
)

// mode tells how this process takes part in serving.
type mode int

const (
	modeSingle mode = iota // one process serving and owning the log file
	modeWorker             // spawned by the supervisor, serving only
)

// Options are the command-line settings.
type Options struct {
	Workers int
	Port    int
	PortSet bool // Port was given explicitly and overrides the config
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	mode   mode
	opts   Options

	// configuration
	config pkgconfig.Config

	// libraries
	log       *pkglog.Facility
	uuid      pkguid.StringID
	goroutine *pkgroutine.Manager

	// server
	router     *pkgrouter.Router
	listener   net.Listener
	httpServer *http.Server

	//
	closerFn map[string]func(context.Context) error
}

func New(opts Options, m mode) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		mode:   m,
		opts:   opts,
	}

	app.initConfig()
	app.initLogging()
	app.initLibraries()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
