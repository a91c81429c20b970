package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkglog"
	"github.com/shandysiswandi/goscaff/internal/pkg/pkgroutine"
	"golang.org/x/sync/errgroup"
)

// Supervisor binds the listening socket, owns the log file and runs worker
// processes that share the socket and forward their records over a pipe.
type Supervisor struct {
	workers    int
	log        *pkglog.Facility
	ingest     *pkgroutine.Manager
	listener   *net.TCPListener
	descriptor string
	executable string
}

// RunSupervisor serves with opts.Workers worker processes until ctx is
// canceled or a termination signal arrives.
func RunSupervisor(ctx context.Context, opts Options) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	f := pkglog.New(pkglog.Options{Level: pkglog.ResolveLevel(cfg.GetString("log.level"))})
	desc, err := ownLogFile(f, cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	encoded, err := pkglog.EncodeDescriptor(desc)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	if _, err := f.Adopt(desc, pkglog.AdoptOptions{}); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	f.Install()
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log sinks: %v\n", err)
		}
	}()

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	addr := cfg.GetString("server.address.http")
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	defer ln.Close()

	s := &Supervisor{
		workers:    opts.Workers,
		log:        f,
		ingest:     pkgroutine.NewManager(opts.Workers),
		listener:   ln.(*net.TCPListener),
		descriptor: encoded,
		executable: exe,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	return s.Run(ctx)
}

// Run starts the workers and waits for all of them to exit.
func (s *Supervisor) Run(ctx context.Context) error {
	lnFile, err := s.listener.File()
	if err != nil {
		return fmt.Errorf("listener file: %w", err)
	}
	defer lnFile.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	procs := make([]*os.Process, 0, s.workers)

	var spawnErr error
	for i := range s.workers {
		cmd, err := s.spawn(ctx, i, lnFile)
		if err != nil {
			spawnErr = fmt.Errorf("start worker %d: %w", i, err)
			cancel()
			break
		}
		procs = append(procs, cmd.Process)

		g.Go(func() error {
			err := cmd.Wait()
			if ctx.Err() != nil {
				return nil
			}
			if err == nil {
				err = errors.New("exited")
			}
			return fmt.Errorf("worker %d (pid %d): %w", i, cmd.Process.Pid, err)
		})
	}

	if spawnErr == nil {
		slog.InfoContext(ctx, "supervisor started", "address", s.listener.Addr().String(), "workers", len(procs), "pid", os.Getpid())
		notify(daemon.SdNotifyReady)
	}

	go func() {
		<-gctx.Done()
		notify(daemon.SdNotifyStopping)
		slog.Info("stopping workers", "workers", len(procs))
		terminate(procs)
	}()

	err = g.Wait()
	if ierr := s.ingest.Wait(); ierr != nil {
		slog.Error("failed to ingest worker logs", "error", ierr)
	}
	if err := errors.Join(spawnErr, err); err != nil {
		return err
	}

	slog.Info("supervisor gracefully shutdown")
	return nil
}

// spawn re-executes this binary as worker i. The worker inherits the
// listener on fd 3 and the write end of its forward pipe on fd 4.
func (s *Supervisor) spawn(ctx context.Context, i int, lnFile *os.File) (*exec.Cmd, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("forward pipe: %w", err)
	}

	cmd := exec.Command(s.executable, "worker")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{lnFile, pw}
	cmd.Env = append(os.Environ(), pkglog.EnvDescriptor+"="+s.descriptor)

	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, err
	}
	// Only the worker may hold the write end, so its exit ends the ingest.
	_ = pw.Close()

	s.ingest.Go(context.WithoutCancel(ctx), "ingest-"+strconv.Itoa(i), func(context.Context) error {
		defer pr.Close()
		return s.log.Ingest(pr)
	})

	return cmd, nil
}

func terminate(procs []*os.Process) {
	for _, p := range procs {
		if err := p.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
			slog.Warn("failed to signal worker", "pid", p.Pid, "error", err)
		}
	}
}
