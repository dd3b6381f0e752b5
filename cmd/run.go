package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/desertthunder/merchtrack/internal/extract"
	"github.com/desertthunder/merchtrack/internal/formatter"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/server"
	"github.com/desertthunder/merchtrack/internal/shared"
	"github.com/desertthunder/merchtrack/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Run executes the daily job once, or keeps it on its schedule with --schedule.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	if err := r.validate(); err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")
	if dryRun && cmd.Bool("schedule") {
		return fmt.Errorf("%w: --dry-run cannot be combined with --schedule", shared.ErrInvalidFlag)
	}
	if cmd.String("listen") != "" && !cmd.Bool("schedule") {
		return fmt.Errorf("%w: --listen requires --schedule", shared.ErrInvalidFlag)
	}
	if title := strings.TrimSpace(cmd.String("worksheet")); title != "" {
		r.config.Store.Worksheet = title
	}

	opts, err := r.dailyOpts(cmd.Bool("no-notify"), dryRun)
	if err != nil {
		return err
	}
	run, err := tasks.NewDailyRun(opts)
	if err != nil {
		return err
	}

	if cmd.Bool("schedule") {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		status := r.statusHandler(run, opts.Journal)
		serverErr := make(chan error, 1)
		if addr := cmd.String("listen"); addr != "" {
			router := server.NewBasicRouter()
			router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
			router.Handler(status)
			go func() { serverErr <- server.Listen(ctx, addr, router, r.logger) }()
		} else {
			close(serverErr)
		}

		r.logger.Info("scheduler started", "hour", r.config.Schedule.Hour, "minute", r.config.Schedule.Minute)
		err := run.Serve(ctx, nil, func(result *tasks.DailyResult) {
			status.Record(result)
			added, merged, disappeared := result.Totals()
			r.logger.Info("scheduled run complete", "worksheet", result.Worksheet,
				"added", added, "merged", merged, "disappeared", disappeared, "failures", result.Failures())
		})
		stop()
		if srvErr := <-serverErr; srvErr != nil {
			r.logger.Error("status server failed", "error", srvErr)
		}
		if errors.Is(err, context.Canceled) {
			r.logger.Info("scheduler stopped")
			return nil
		}
		return err
	}

	progress, wait := r.printProgress()
	result, err := run.Execute(ctx, progress)
	wait()
	if err != nil {
		return err
	}

	if dryRun {
		r.writePlainHeader("Dry run: nothing was written or sent")
	}
	return r.printDailyResult(result)
}

// statusHandler reports on the scheduler; /loads reads the worksheet the next run will use.
func (r *Runner) statusHandler(run *tasks.DailyRun, journal models.Repository[*models.RunRecord]) *server.StatusHandler {
	return server.NewStatusHandler(server.StatusOpts{
		Journal: journal,
		Clock:   r.clock,
		NextRun: func(now time.Time) time.Time {
			return shared.NextRun(now, r.config.Schedule.Hour, r.config.Schedule.Minute)
		},
		Loads: func(ctx context.Context) ([]tasks.ReviewerLoad, error) {
			store, err := r.openStore(ctx, run.WorksheetTitle(r.clock.Now()))
			if err != nil {
				return nil, err
			}
			sheet, err := store.Load(ctx)
			if err != nil {
				return nil, err
			}
			return tasks.NewLoads(r.config.Tracker.Roster, sheet.Items).List(), nil
		},
	})
}

func (r *Runner) printDailyResult(result *tasks.DailyResult) error {
	r.writePlainln("%s", result.Report)

	headers := []string{"Кабинет", "Added", "Merged", "Tracked", "Disappeared", "Inconsistent", "Status"}
	aligns := []formatter.Alignment{formatter.AlignLeft, formatter.AlignRight, formatter.AlignRight, formatter.AlignRight, formatter.AlignRight, formatter.AlignRight}
	var rows [][]string
	for _, s := range result.Syncs {
		rows = append(rows, syncRow(s))
	}
	for _, name := range result.Skipped {
		rows = append(rows, []string{name, "", "", "", "", "", "export unavailable"})
	}
	added, merged, disappeared := result.Totals()
	footer := []string{"ИТОГО", strconv.Itoa(added), strconv.Itoa(merged), "", strconv.Itoa(disappeared)}

	r.writePlainln("Worksheet %s", result.Worksheet)
	r.writePlain("%s\n", formatter.RenderTable(headers, rows, aligns, footer))

	switch {
	case result.NotifyErr != nil:
		r.writePlain("⚠ Summary not fully delivered: %v\n", result.NotifyErr)
	case result.MessageID != 0:
		r.writePlain("✓ Summary sent (message %d", result.MessageID)
		if result.Attached {
			r.writePlain(", open tasks attached")
		}
		r.writePlain(")\n")
	}

	if n := result.Failures(); n > 0 {
		return fmt.Errorf("%d account(s) could not be synced", n)
	}
	return nil
}

func syncRow(s tasks.SyncResult) []string {
	status := "ok"
	switch {
	case s.Err != nil:
		status = s.Err.Error()
	case s.Degraded:
		status = "sheet unreadable, started empty"
	}
	return []string{
		s.Account,
		strconv.Itoa(s.Ingest.Added),
		strconv.Itoa(s.Ingest.Merged),
		strconv.Itoa(s.Ingest.Skipped),
		strconv.Itoa(s.Disappeared),
		strconv.Itoa(s.Derive.Inconsistent),
		status,
	}
}

// findAccount matches a configured account by display name or portal id.
func (r *Runner) findAccount(key string) (shared.AccountConfig, error) {
	key = strings.TrimSpace(key)
	for _, a := range r.config.Accounts {
		if strings.EqualFold(a.Name, key) || a.ID == key {
			return a, nil
		}
	}
	return shared.AccountConfig{}, fmt.Errorf("%w: unknown account %q (configured: %s)",
		shared.ErrInvalidInput, key, strings.Join(r.config.AccountNames(), ", "))
}

// Sync runs one account cycle from a local export file.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.validate(); err != nil {
		return err
	}

	account, err := r.findAccount(cmd.String("account"))
	if err != nil {
		return err
	}

	release, err := r.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	path := cmd.String("file")
	items, err := extract.ReadFile(path, extract.NewSchema(r.config.Extract))
	if err != nil {
		return err
	}
	r.logger.Info("read export", "file", path, "items", len(items))

	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}
	if err := engine.Store().Prepare(ctx, r.config.Tracker.DefaultAccount); err != nil {
		r.logger.Warn("failed to prepare worksheet header", "error", err)
	}

	progress, wait := r.printProgress()
	res := engine.Sync(ctx, account.Name, items, progress)
	wait()

	headers := []string{"Кабинет", "Added", "Merged", "Tracked", "Disappeared", "Inconsistent", "Status"}
	r.writePlain("%s\n", formatter.RenderTable(headers, [][]string{syncRow(res)}, nil, nil))
	return res.Err
}
