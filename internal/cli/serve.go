package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rowlock/internal/api"
	"github.com/roach88/rowlock/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
	Seed bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the work item HTTP API",
		Long: `Serve the assignment endpoints over HTTP until interrupted.

  POST /workItem/assign-pessimistic
  POST /workItem/assign-optimistic-row-version
  POST /workItem/assign-manual-optimistic-concurrency-token
  GET  /workItem/{strategy}/{id}

Example:
  rowlock serve --db ./rowlock.db --addr 127.0.0.1:8080 --seed`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "create the demo work items before serving")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	if opts.Seed {
		if _, err := sess.store.Seed(ctx, store.DefaultSeed()); err != nil {
			return WrapExitError(ExitCommandError, "failed to seed database", err)
		}
	}

	addr := sess.cfg.Server.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}
	serverCfg := api.DefaultServerConfig()
	serverCfg.Address = addr

	srv := api.NewServer(serverCfg, controllers(sess.cfg, sess.store, sess.logger), sess.store, sess.logger)
	if err := srv.Start(); err != nil {
		return WrapExitError(ExitCommandError, "failed to start server", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", srv.Addr())
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	select {
	case sig := <-sigChan:
		sess.logger.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
		// Parent context cancelled (e.g., from test)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "server shutdown error", err)
	}
	return nil
}
