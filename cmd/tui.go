package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/merchtrack/internal/shared"
	"github.com/desertthunder/merchtrack/internal/tasks"
	"github.com/desertthunder/merchtrack/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Dashboard launches the interactive reviewer dashboard.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("%w: the dashboard needs a terminal", shared.ErrServiceUnavailable)
	}
	if err := r.validate(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Logging.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Logging.Level))
	r.SetLogger(fileLogger)

	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}
	opts, err := r.dailyOpts(cmd.Bool("no-notify"), false)
	if err != nil {
		return err
	}
	run, err := tasks.NewDailyRun(opts)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, engine, run)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}

	return nil
}
