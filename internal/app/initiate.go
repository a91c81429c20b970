package app

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/cors"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkglog"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkguid"
)

// Descriptors inherited by worker processes, after stdin, stdout and stderr.
const (
	listenerFD = 3
	forwardFD  = 4
)

func configPath() string {
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}
	return "/config/config.yaml"
}

func loadConfig(opts Options) (*pkgconfig.Viper, error) {
	cfg, err := pkgconfig.NewViper(configPath())
	if err != nil {
		return nil, err
	}

	if opts.PortSet {
		host, _, err := net.SplitHostPort(cfg.GetString("server.address.http"))
		if err != nil {
			host = ""
		}
		cfg.Set("server.address.http", net.JoinHostPort(host, strconv.Itoa(opts.Port)))
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	return cfg, nil
}

func fileConfig(cfg pkgconfig.Config) pkglog.FileConfig {
	return pkglog.FileConfig{
		Path: cfg.GetString("log.path"),
		JSON: cfg.GetBool("log.json"),
		Rotation: pkglog.RotationPolicy{
			Size:      cfg.GetInt("log.rotation.size"),
			At:        cfg.GetString("log.rotation.time"),
			Retention: cfg.GetDuration("log.retention"),
		},
	}
}

// ownLogFile makes f the owner of the configured log file and returns the
// descriptor handed to workers. The descriptor is taken before the console
// sink is attached, since a live stream cannot cross a process boundary.
func ownLogFile(f *pkglog.Facility, cfg pkgconfig.Config) (pkglog.SinkDescriptor, error) {
	if err := f.Setup(fileConfig(cfg)); err != nil {
		return pkglog.SinkDescriptor{}, err
	}
	desc, err := f.Snapshot()
	if err != nil {
		return pkglog.SinkDescriptor{}, err
	}
	return desc, nil
}

func (a *App) initConfig() {
	cfg, err := loadConfig(a.opts)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	a.config = cfg
}

func (a *App) initLogging() {
	a.log = pkglog.New(pkglog.Options{
		Level: pkglog.ResolveLevel(a.config.GetString("log.level")),
	})

	var (
		desc pkglog.SinkDescriptor
		opts pkglog.AdoptOptions
		err  error
	)
	switch a.mode {
	case modeWorker:
		desc, err = pkglog.DescriptorFromEnv()
		opts.Forward = os.NewFile(forwardFD, "log-forward")
	default:
		desc, err = ownLogFile(a.log, a.config)
	}
	if err != nil {
		slog.Error("failed to init logging", "error", err)
		os.Exit(1)
	}

	role, err := a.log.Adopt(desc, opts)
	if err != nil {
		slog.Error("failed to adopt log sinks", "error", err)
		os.Exit(1)
	}

	a.log.Install()
	slog.Debug("logging ready", "role", role.String(), "level", pkglog.LevelName(a.log.Level()), "pid", os.Getpid())
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(100)
	a.uuid = pkguid.NewUUID()
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)

	var handler http.Handler = a.router
	if a.config.GetBool("server.cors.enabled") {
		handler = cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodPut,
				http.MethodPatch,
				http.MethodDelete,
				http.MethodOptions,
			},
			AllowedHeaders: []string{"*"},
			ExposedHeaders: []string{pkgrouter.HeaderRequestID},
			Logger:         log.New(a.log.Bridge().Writer("cors"), "[DEBUG] ", 0),
		}).Handler(handler)
	}

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           gzhttp.GzipHandler(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          a.log.Bridge().Logger("http.server"),
	}

	var err error
	if a.mode == modeWorker {
		a.listener, err = net.FileListener(os.NewFile(listenerFD, "listener"))
	} else {
		a.listener, err = net.Listen("tcp", a.httpServer.Addr)
	}
	if err != nil {
		slog.Error("failed to open http listener", "address", a.httpServer.Addr, "error", err)
		os.Exit(1)
	}
}

//nolint:unparam // is always nil
func (a *App) initClosers() {
	if a.closerFn == nil {
		a.closerFn = map[string]func(context.Context) error{}
	}

	a.closerFn["HTTP Server"] = func(ctx context.Context) error {
		return a.httpServer.Shutdown(ctx)
	}
	a.closerFn["Config"] = func(context.Context) error {
		return a.config.Close()
	}
}
