package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/merchtrack/internal/extract"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/repositories"
	"github.com/desertthunder/merchtrack/internal/services"
	"github.com/desertthunder/merchtrack/internal/shared"
	"github.com/desertthunder/merchtrack/internal/tasks"
	"github.com/urfave/cli/v3"
)

// GridOpener returns the grid backing a worksheet, creating it when absent.
type GridOpener func(ctx context.Context, title string) (models.Grid, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	extractor  tasks.Extractor
	notifier   services.Notifier
	grids      GridOpener
	clock      shared.Clock
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Grids and Notifier replace the configured backends when set.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Extractor  tasks.Extractor
	Notifier   services.Notifier
	Grids      GridOpener
	Clock      shared.Clock
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock{}
	}
	if opts.Extractor == nil {
		opts.Extractor = extract.NewDirExtractor(opts.Config.Extract, opts.Logger)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		extractor:  opts.Extractor,
		notifier:   opts.Notifier,
		grids:      opts.Grids,
		clock:      opts.Clock,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, runCommand, syncCommand, sheetCommand, reportCommand, runsCommand, notifyCommand, dashboardCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. with a file logger while the dashboard owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the run journal database, if it was opened.
func (r *Runner) Close() {
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
		r.db = nil
	}
}

// validate checks the configuration before any command touches the sheet.
func (r *Runner) validate() error {
	if err := r.config.Validate(); err != nil {
		return fmt.Errorf("%s: %w", r.configPath, err)
	}
	return nil
}

// database opens the journal database on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenStore(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", r.config.Database.Path, err)
	}
	r.db = db
	return db, nil
}

func (r *Runner) sheetsClient(ctx context.Context) (*services.SheetsClient, error) {
	cfg := r.config.Store.Sheets
	return services.NewSheetsClient(ctx, services.SheetsOpts{
		BaseURL:           cfg.BaseURL,
		SpreadsheetID:     cfg.SpreadsheetID,
		CredentialsFile:   cfg.CredentialsFile,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Logger:            r.logger,
	})
}

// openGrid resolves a worksheet on the configured backend.
func (r *Runner) openGrid(ctx context.Context, title string) (models.Grid, error) {
	if r.grids != nil {
		return r.grids(ctx, title)
	}

	switch r.config.Store.Backend {
	case shared.BackendSQLite:
		db, err := r.database()
		if err != nil {
			return nil, err
		}
		grid, err := repositories.OpenSQLiteGrid(ctx, db, title)
		if err != nil {
			return nil, err
		}
		return grid, nil
	default:
		client, err := r.sheetsClient(ctx)
		if err != nil {
			return nil, err
		}
		grid, err := client.Worksheet(ctx, title)
		if err != nil {
			return nil, err
		}
		return grid, nil
	}
}

func (r *Runner) openStore(ctx context.Context, title string) (tasks.Store, error) {
	grid, err := r.openGrid(ctx, title)
	if err != nil {
		return nil, err
	}
	return repositories.NewTrackingStore(grid, r.logger), nil
}

// openDryRunStore copies the worksheet into memory so nothing is written back.
func (r *Runner) openDryRunStore(ctx context.Context, title string) (tasks.Store, error) {
	grid, err := r.openGrid(ctx, title)
	if err != nil {
		return nil, err
	}
	mem, err := repositories.CopyGrid(ctx, grid)
	if err != nil {
		return nil, err
	}
	return repositories.NewTrackingStore(mem, r.logger), nil
}

func (r *Runner) tracker() (*tasks.Tracker, error) {
	return tasks.NewTracker(tasks.TrackerOpts{Config: r.config, Clock: r.clock, Logger: r.logger})
}

// engine returns an engine over the worksheet named by --worksheet, or the current one.
func (r *Runner) engine(ctx context.Context, cmd *cli.Command) (*tasks.Engine, error) {
	tracker, err := r.tracker()
	if err != nil {
		return nil, err
	}
	store, err := r.openStore(ctx, r.worksheet(cmd))
	if err != nil {
		return nil, err
	}
	return tasks.NewEngine(tracker, store, r.logger), nil
}

func (r *Runner) worksheet(cmd *cli.Command) string {
	if title := strings.TrimSpace(cmd.String("worksheet")); title != "" {
		return title
	}
	if title := strings.TrimSpace(r.config.Store.Worksheet); title != "" {
		return title
	}
	return shared.MonthTitle(r.clock.Now())
}

func (r *Runner) telegram() (services.Notifier, error) {
	if r.notifier != nil {
		return r.notifier, nil
	}
	return services.NewTelegramNotifier(r.config.Telegram, r.httpClient, r.logger)
}

// dailyOpts wires a daily run. A dry run reads a copy of the sheet, keeps no journal and takes no lock.
func (r *Runner) dailyOpts(skipNotify, dryRun bool) (tasks.DailyOpts, error) {
	tracker, err := r.tracker()
	if err != nil {
		return tasks.DailyOpts{}, err
	}

	opts := tasks.DailyOpts{
		Config:     r.config,
		Tracker:    tracker,
		Stores:     r.openStore,
		Extractor:  r.extractor,
		Clock:      r.clock,
		Logger:     r.logger,
		SkipNotify: skipNotify || dryRun,
	}

	if dryRun {
		opts.Stores = r.openDryRunStore
		return opts, nil
	}

	if db, err := r.database(); err != nil {
		r.logger.Warn("run journal unavailable", "error", err)
	} else {
		opts.Journal = repositories.NewRunRepository(db)
	}

	lock, err := shared.NewRunLock(r.config.Logging.LockPath)
	if err != nil {
		return tasks.DailyOpts{}, err
	}
	opts.Lock = lock

	if !opts.SkipNotify {
		notifier, err := r.telegram()
		if err != nil {
			r.logger.Warn("notifications disabled", "error", err)
			opts.SkipNotify = true
		} else {
			opts.Notifier = notifier
		}
	}
	return opts, nil
}

// acquireLock takes the run lock shared with the daily run. Writers to the store hold it for the whole command.
func (r *Runner) acquireLock() (func(), error) {
	lock, err := shared.NewRunLock(r.config.Logging.LockPath)
	if err != nil {
		return nil, err
	}
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(); err != nil {
			r.logger.Warn("failed to release run lock", "error", err)
		}
	}, nil
}

// printProgress writes progress messages until the returned channel is closed; wait blocks until all are written.
func (r *Runner) printProgress() (chan<- tasks.ProgressUpdate, func()) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.Extract:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Ingest, tasks.Sweep, tasks.Derive:
				r.writePlain("   %s\n", update.Message)
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()
	return progress, func() {
		close(progress)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
