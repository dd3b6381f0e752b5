// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func worksheetFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "worksheet",
		Aliases: []string{"w"},
		Usage:   "Worksheet title (default: store.worksheet, or the current month)",
	}
}

// setupCommand handles setup operations for the configuration file and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a configuration file from the built-in template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// runCommand runs the daily job once or on its schedule.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Extract every account, update the tracking sheet and send the daily summary",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "schedule",
				Usage: "Keep running and execute every day at schedule.hour:schedule.minute",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Work on an in-memory copy of the sheet and send nothing",
			},
			&cli.BoolFlag{
				Name:  "no-notify",
				Usage: "Update the sheet but do not send the summary",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "With --schedule, serve /healthz, /runs and /loads on this address (e.g. :8080)",
			},
			worksheetFlag(),
		},
		Action: r.Run,
	}
}

// syncCommand runs one account cycle from a local export file.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Ingest one export file for an account and sweep items that left it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "account",
				Aliases:  []string{"a"},
				Usage:    "Account name or portal id",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Export file (.xlsx or .csv)",
				Required: true,
			},
			worksheetFlag(),
		},
		Action: r.Sync,
	}
}

// sheetCommand handles tracking sheet maintenance.
func sheetCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sheet",
		Usage: "Tracking sheet operations",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Add the account column to old sheets and repair the header",
				Flags: []cli.Flag{
					worksheetFlag(),
					&cli.StringFlag{
						Name:  "default-account",
						Usage: "Label for rows that predate the account column (default: tracker.default_account)",
					},
				},
				Action: r.SheetMigrate,
			},
			{
				Name:  "loads",
				Usage: "Show open items per reviewer",
				Flags: []cli.Flag{
					worksheetFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SheetLoads,
			},
			{
				Name:   "list",
				Usage:  "List worksheets of the store",
				Action: r.SheetList,
			},
			{
				Name:  "open",
				Usage: "Open the spreadsheet in a browser",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "print",
						Usage: "Print the link instead of opening it",
					},
				},
				Action: r.SheetOpen,
			},
		},
	}
}

// reportCommand renders the summary without running the job.
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Summary report commands",
		Commands: []*cli.Command{
			{
				Name:  "preview",
				Usage: "Render the daily summary from the current exports",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "html",
						Usage: "Print the Telegram HTML instead of the plain table",
					},
				},
				Action: r.ReportPreview,
			},
		},
	}
}

// runsCommand lists the run journal.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Show recent daily runs",
		Flags: []cli.Flag{
			worksheetFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Runs,
	}
}

// notifyCommand checks the chat integration.
func notifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "notify",
		Usage: "Notification commands",
		Commands: []*cli.Command{
			{
				Name:  "test",
				Usage: "Send a test message to the configured chat",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "message",
						Aliases: []string{"m"},
						Usage:   "Message text",
						Value:   "merchtrack: test message",
					},
				},
				Action: r.NotifyTest,
			},
		},
	}
}

// dashboardCommand returns the top-level TUI command for browsing reviewer loads.
func dashboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch interactive TUI with reviewer loads and their open items",
		Flags: []cli.Flag{
			worksheetFlag(),
			&cli.BoolFlag{
				Name:  "no-notify",
				Usage: "Do not send the summary when syncing from the dashboard",
			},
		},
		Action: r.Dashboard,
	}
}
