package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/naveenspark/hackforge/internal/devserver"
	"github.com/naveenspark/hackforge/internal/logging"
)

func newDevserverCmd() *cobra.Command {
	var (
		addr     string
		seed     bool
		logLevel string
	)
	cmd := &cobra.Command{
		Use:         "devserver",
		Short:       "Run a local in-memory API server with demo data",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{standalone: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(cmd.ErrOrStderr(), logLevel, logging.FormatConsole)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			api := devserver.New(logger)
			defer api.Close()
			if seed {
				if err := api.Seed(); err != nil {
					return fmt.Errorf("seed: %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{Addr: addr, Handler: api, ReadHeaderTimeout: 10 * time.Second}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "devserver listening on %s\n", addr)
			if seed {
				fmt.Fprintf(out, "demo accounts: ada@hackforge.dev, grace@hackforge.dev (password %q)\n", devserver.DemoPassword)
			}

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			api.Close()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5000", "listen address")
	cmd.Flags().BoolVar(&seed, "seed", true, "load demo data")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}
