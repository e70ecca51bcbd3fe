package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/naveenspark/hackforge/internal/app"
	"github.com/naveenspark/hackforge/internal/tui"
)

func newTUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive browser (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, c)
		},
	}
}

func runTUI(cmd *cobra.Command, c *cli) error {
	// Only a rejected token ends the session; the TUI then shows the login form.
	if err := c.app.Verify(cmd.Context()); err != nil && !errors.Is(err, app.ErrSessionExpired) {
		return err
	}

	p := tea.NewProgram(tui.NewApp(c.app, version), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
