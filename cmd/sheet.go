package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/desertthunder/merchtrack/internal/formatter"
	"github.com/desertthunder/merchtrack/internal/repositories"
	"github.com/desertthunder/merchtrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// SheetMigrate brings the worksheet header up to date, adding the account column to older sheets.
func (r *Runner) SheetMigrate(ctx context.Context, cmd *cli.Command) error {
	if err := r.validate(); err != nil {
		return err
	}

	account := cmd.String("default-account")
	if account == "" {
		account = r.config.Tracker.DefaultAccount
	}
	if account == "" {
		return fmt.Errorf("%w: --default-account or tracker.default_account is required", shared.ErrMissingArgument)
	}
	if _, err := r.findAccount(account); err != nil {
		return err
	}

	release, err := r.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	title := r.worksheet(cmd)
	store, err := r.openStore(ctx, title)
	if err != nil {
		return err
	}
	if err := store.Prepare(ctx, account); err != nil {
		return err
	}

	r.writePlain("✓ Worksheet %s is up to date\n", title)
	return nil
}

// SheetLoads prints the open items per reviewer.
func (r *Runner) SheetLoads(ctx context.Context, cmd *cli.Command) error {
	if err := r.validate(); err != nil {
		return err
	}

	engine, err := r.engine(ctx, cmd)
	if err != nil {
		return err
	}
	loads, sheet, err := engine.Loads(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(loads.List(), cmd.Bool("pretty"))
	}

	var rows [][]string
	total := 0
	for _, l := range loads.List() {
		rows = append(rows, []string{l.Reviewer, strconv.Itoa(l.Open)})
		total += l.Open
	}

	r.writePlainln("Worksheet %s: %d rows, spread %d", sheet.Title, len(sheet.Items), loads.Spread())
	r.writePlain("%s\n", formatter.RenderTable(
		[]string{"Reviewer", "Open"},
		rows,
		[]formatter.Alignment{formatter.AlignLeft, formatter.AlignRight},
		[]string{"ИТОГО", strconv.Itoa(total)},
	))
	return nil
}

// SheetList prints the worksheets of the configured backend.
func (r *Runner) SheetList(ctx context.Context, cmd *cli.Command) error {
	var titles []string

	switch r.config.Store.Backend {
	case shared.BackendSQLite:
		db, err := r.database()
		if err != nil {
			return err
		}
		if titles, err = repositories.Worksheets(ctx, db); err != nil {
			return err
		}
	default:
		client, err := r.sheetsClient(ctx)
		if err != nil {
			return err
		}
		sheets, err := client.Worksheets(ctx)
		if err != nil {
			return err
		}
		for title := range sheets {
			titles = append(titles, title)
		}
		sort.Strings(titles)
	}

	if len(titles) == 0 {
		r.writePlain("No worksheets found\n")
		return nil
	}
	for _, title := range titles {
		r.writePlain("%s\n", title)
	}
	return nil
}

// SheetOpen opens the spreadsheet in the browser, or prints its link with --print.
func (r *Runner) SheetOpen(ctx context.Context, cmd *cli.Command) error {
	if r.config.Store.Backend != shared.BackendSheets {
		return fmt.Errorf("%w: store backend %q has no browser view", shared.ErrInvalidArgument, r.config.Store.Backend)
	}
	id := r.config.Store.Sheets.SpreadsheetID
	if id == "" {
		return fmt.Errorf("%w: store.sheets.spreadsheet_id is empty", shared.ErrMissingConfig)
	}

	link := shared.SpreadsheetURL(id)
	if cmd.Bool("print") {
		r.writePlain("%s\n", link)
		return nil
	}

	r.logger.Info("opening spreadsheet", "url", link)
	return shared.OpenURL(link)
}
