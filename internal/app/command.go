package app

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewCommand builds the goscaff command line.
//
// With --workers 1 the process serves and writes the log file itself. With
// more, it becomes a supervisor that re-executes itself as hidden "worker"
// subcommands sharing one listening socket.
func NewCommand() *cobra.Command {
	var opts Options

	root := &cobra.Command{
		Use:           "goscaff",
		Short:         "HTTP service scaffold with request-correlated logging",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.PortSet = cmd.Flags().Changed("port")
			if opts.Workers > 1 {
				return RunSupervisor(cmd.Context(), opts)
			}
			return run(opts, modeSingle)
		},
	}
	root.Flags().IntVar(&opts.Workers, "workers", 1, "number of worker processes")
	root.Flags().IntVar(&opts.Port, "port", 8000, "port to listen on")

	root.AddCommand(&cobra.Command{
		Use:    "worker",
		Short:  "Serve on an inherited socket (started by the supervisor)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return run(opts, modeWorker)
		},
	})

	return root
}

// Execute runs the command line.
func Execute(ctx context.Context) error {
	return NewCommand().ExecuteContext(ctx)
}

func run(opts Options, m mode) error {
	application := New(opts, m)
	wait := application.Start()
	<-wait

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	application.Stop(ctx)
	return nil
}
