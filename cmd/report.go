package main

import (
	"context"
	"strconv"

	"github.com/desertthunder/merchtrack/internal/formatter"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/repositories"
	"github.com/desertthunder/merchtrack/internal/shared"
	"github.com/desertthunder/merchtrack/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ReportPreview extracts every account and prints the summary without touching the sheet or the chat.
func (r *Runner) ReportPreview(ctx context.Context, cmd *cli.Command) error {
	if err := r.validate(); err != nil {
		return err
	}

	opts, err := r.dailyOpts(true, true)
	if err != nil {
		return err
	}
	run, err := tasks.NewDailyRun(opts)
	if err != nil {
		return err
	}

	report := formatter.RenderSummary(run.Preview(ctx))
	if cmd.Bool("html") {
		r.writePlain("%s\n", formatter.TelegramHTML(report, run.Link()))
		return nil
	}
	r.writePlain("%s\n", report)
	return nil
}

// Runs lists past daily runs from the journal.
func (r *Runner) Runs(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if title := cmd.String("worksheet"); title != "" {
		criteria["worksheet"] = title
	}
	runs, err := repositories.NewRunRepository(db).List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}
	if len(runs) == 0 {
		r.writePlain("No runs recorded\n")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, runRow(run))
	}
	r.writePlain("%s\n", formatter.RenderTable(
		[]string{"#", "ID", "Worksheet", "Started", "Added", "Merged", "Disappeared", "Failures"},
		rows,
		[]formatter.Alignment{formatter.AlignRight, formatter.AlignLeft, formatter.AlignLeft, formatter.AlignLeft,
			formatter.AlignRight, formatter.AlignRight, formatter.AlignRight, formatter.AlignRight},
		nil,
	))
	return nil
}

func runRow(run *models.RunRecord) []string {
	failures := strconv.Itoa(run.Failures)
	if run.FinishedAt == nil {
		failures = "unfinished"
	}
	return []string{
		strconv.Itoa(run.Sequence),
		shared.ShortID(run.RunID),
		run.Worksheet,
		run.StartedAt.Local().Format("2006-01-02 15:04"),
		strconv.Itoa(run.Added),
		strconv.Itoa(run.Merged),
		strconv.Itoa(run.Disappeared),
		failures,
	}
}
