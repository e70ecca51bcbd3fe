package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naveenspark/hackforge/internal/app"
	"github.com/naveenspark/hackforge/internal/config"
	"github.com/naveenspark/hackforge/internal/logging"
)

// standalone marks commands that run without the client stack.
const standalone = "standalone"

// cli carries the state shared by every command of one invocation.
type cli struct {
	configPath string
	output     string

	cfg     *config.Config
	logger  *zap.Logger
	app     *app.App
	logFile io.Closer
	opts    []app.Option // tests inject storage and transport here
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "hackforge",
		Short: "Browse hackathons, teams and projects from the terminal",
		Long: `hackforge is a client for the hackathon platform API. Run it without
arguments to open the interactive browser, or use the subcommands for scripting.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, c)
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[standalone] == "true" {
				return nil
			}
			return c.setup(cmd.Context(), isTUI(cmd))
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default is $HOME/.hackforge/config.yaml)")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", formatTable, "output format: table, json or yaml")

	root.AddCommand(
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newAvatarCmd(c),
		newHackathonsCmd(c),
		newTeamsCmd(c),
		newProjectsCmd(c),
		newTUICmd(c),
		newDevserverCmd(),
		newVersionCmd(),
	)
	return root
}

func isTUI(cmd *cobra.Command) bool {
	return cmd.Name() == "tui" || !cmd.HasParent()
}

// setup loads configuration and starts the client stack. One-shot commands
// never open the realtime connection.
func (c *cli) setup(ctx context.Context, tui bool) error {
	if err := validFormat(c.output); err != nil {
		return err
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if !tui {
		cfg.Realtime.URL = ""
	}
	c.cfg = cfg

	logger, err := c.openLogger(tui)
	if err != nil {
		return err
	}
	c.logger = logger

	a, err := app.New(cfg, logger, c.opts...)
	if err != nil {
		return err
	}
	c.app = a
	if ctx == nil {
		ctx = context.Background()
	}
	return a.Start(ctx)
}

// openLogger writes to log.file when set. Without one, one-shot commands log
// to stderr and the TUI logs to a file so the screen stays clean.
func (c *cli) openLogger(tui bool) (*zap.Logger, error) {
	var w io.Writer = os.Stderr
	path := c.cfg.Log.File
	if path == "" && tui {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "hackforge.log")
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		c.logFile = f
		w = f
	}
	return logging.New(w, c.cfg.Log.Level, c.cfg.Log.Format)
}

func (c *cli) close() error {
	var errs []error
	if c.app != nil {
		errs = append(errs, c.app.Close())
		c.app = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	if c.logFile != nil {
		errs = append(errs, c.logFile.Close())
		c.logFile = nil
	}
	return errors.Join(errs...)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{standalone: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "hackforge "+version)
		},
	}
}
