package tasks

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/merchtrack/internal/formatter"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/services"
	"github.com/desertthunder/merchtrack/internal/shared"
)

// Extractor reads the current product list of one (account, category) pair.
//
// Errors wrap [shared.ErrExtractionUnavailable] when no list could be produced.
type Extractor interface {
	Extract(ctx context.Context, account shared.AccountConfig, category shared.CategoryConfig) (*models.Export, error)
}

// StoreOpener returns the store backing a worksheet, creating the worksheet when needed.
type StoreOpener func(ctx context.Context, title string) (Store, error)

// Locker guards a run against concurrent writers.
type Locker interface {
	Acquire() error
	Release() error
}

// DailyOpts configures a [DailyRun]. Config, Tracker, Stores and Extractor are required.
type DailyOpts struct {
	Config     *shared.Config
	Tracker    *Tracker
	Stores     StoreOpener
	Extractor  Extractor
	Notifier   services.Notifier
	Journal    models.Repository[*models.RunRecord]
	Lock       Locker
	Clock      shared.Clock
	Logger     *log.Logger
	SkipNotify bool
}

// DailyRun is the scheduled job: extract every account, sync the tracked category, report to the chat.
type DailyRun struct {
	opts DailyOpts
}

// DailyResult summarizes one execution.
type DailyResult struct {
	RunID     string
	Worksheet string
	Summary   formatter.Summary
	Report    string
	Syncs     []SyncResult
	Skipped   []string // accounts whose tracked export was unavailable
	Attached  bool
	MessageID int64
	NotifyErr error
}

// Failures counts account cycles that ended with a write error or were skipped.
func (r *DailyResult) Failures() int {
	n := len(r.Skipped)
	for _, s := range r.Syncs {
		if s.Err != nil {
			n++
		}
	}
	return n
}

// Totals sums the ingest and sweep counters over all accounts.
func (r *DailyResult) Totals() (added, merged, disappeared int) {
	for _, s := range r.Syncs {
		added += s.Ingest.Added
		merged += s.Ingest.Merged
		disappeared += s.Disappeared
	}
	return added, merged, disappeared
}

// NewDailyRun validates the options and fills defaults.
func NewDailyRun(opts DailyOpts) (*DailyRun, error) {
	if opts.Config == nil || opts.Tracker == nil {
		return nil, fmt.Errorf("%w: daily run needs a config and a tracker", shared.ErrMissingConfig)
	}
	if opts.Stores == nil || opts.Extractor == nil {
		return nil, fmt.Errorf("%w: daily run needs a store and an extractor", shared.ErrMissingArgument)
	}
	if _, ok := opts.Config.TrackedCategory(); !ok {
		return nil, fmt.Errorf("%w: no tracked category", shared.ErrInvalidConfig)
	}
	if opts.Notifier == nil {
		opts.Notifier = services.NoopNotifier{}
	}
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &DailyRun{opts: opts}, nil
}

// WorksheetTitle returns the configured worksheet, or the month of now when none is set.
func (d *DailyRun) WorksheetTitle(now time.Time) string {
	if title := strings.TrimSpace(d.opts.Config.Store.Worksheet); title != "" {
		return title
	}
	return shared.MonthTitle(now)
}

// Execute performs one daily run.
//
// Only a failure to open the store or take the lock is returned as an error. Per-account extraction and write
// failures are logged and reflected in the result; notification failures land in [DailyResult.NotifyErr].
func (d *DailyRun) Execute(ctx context.Context, progress chan<- ProgressUpdate) (*DailyResult, error) {
	cfg := d.opts.Config
	now := d.opts.Clock.Now()

	if d.opts.Lock != nil {
		if err := d.opts.Lock.Acquire(); err != nil {
			return nil, err
		}
		defer func() {
			if err := d.opts.Lock.Release(); err != nil {
				d.opts.Logger.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	result := &DailyResult{RunID: shared.GenerateID(), Worksheet: d.WorksheetTitle(now)}
	logger := shared.WithLogger(d.opts.Logger, "run", shared.ShortID(result.RunID))
	logger.Info("daily run started", "worksheet", result.Worksheet)

	sendProgress(progress, prepareUpdate(result.Worksheet))
	store, err := d.opts.Stores(ctx, result.Worksheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open worksheet %s: %w", result.Worksheet, err)
	}
	if err := store.Prepare(ctx, cfg.Tracker.DefaultAccount); err != nil {
		logger.Warn("failed to prepare worksheet header", "error", err)
	}

	record := &models.RunRecord{RunID: result.RunID, Worksheet: result.Worksheet, StartedAt: now}
	d.journal(logger, record, false)

	engine := NewEngine(d.opts.Tracker, store, logger)
	result.Summary = d.newSummary(now)

	total := len(cfg.Accounts) * len(cfg.Categories)
	step := 0
	for _, account := range cfg.Accounts {
		row := formatter.SummaryRow{Account: account.Name}
		for _, cat := range cfg.Categories {
			step++
			sendProgress(progress, extractUpdate(step, total, account.Name, cat.Label))

			stats, export := d.extract(ctx, logger, account, cat)
			if stats.Err != nil {
				sendProgress(progress, extractFailedUpdate(step, total, account.Name, cat.Label, stats.Err))
			}
			row.Stats = append(row.Stats, stats)

			if !cat.Tracked {
				continue
			}
			if export == nil {
				logger.Warn("tracked export unavailable, skipping ingest and sweep", "account", account.Name)
				result.Skipped = append(result.Skipped, account.Name)
				continue
			}
			result.Syncs = append(result.Syncs, engine.Sync(ctx, account.Name, export.Items, progress))
		}
		result.Summary.Rows = append(result.Summary.Rows, row)
	}

	sendProgress(progress, reportUpdate())
	result.Report = formatter.RenderSummary(result.Summary)
	attachment := d.attachment(ctx, logger, store)

	if !d.opts.SkipNotify {
		result.MessageID, result.Attached, result.NotifyErr = d.notify(ctx, progress, result, attachment)
		if result.NotifyErr != nil {
			logger.Error("failed to deliver daily summary", "error", result.NotifyErr)
		}
	}

	added, merged, disappeared := result.Totals()
	record.Finish(d.opts.Clock.Now(), added, merged, disappeared, result.Failures())
	d.journal(logger, record, true)

	logger.Info("daily run finished",
		"added", added,
		"merged", merged,
		"disappeared", disappeared,
		"failures", result.Failures(),
	)
	return result, nil
}

func (d *DailyRun) newSummary(now time.Time) formatter.Summary {
	summary := formatter.Summary{
		Title: d.opts.Config.Telegram.Title,
		Date:  shared.FormatDate(now),
	}
	for _, cat := range d.opts.Config.Categories {
		summary.Categories = append(summary.Categories, cat.Label)
	}
	return summary
}

// Preview extracts every account and category and builds the summary without touching the store or the chat.
func (d *DailyRun) Preview(ctx context.Context) formatter.Summary {
	summary := d.newSummary(d.opts.Clock.Now())
	for _, account := range d.opts.Config.Accounts {
		row := formatter.SummaryRow{Account: account.Name}
		for _, cat := range d.opts.Config.Categories {
			stats, _ := d.extract(ctx, d.opts.Logger, account, cat)
			row.Stats = append(row.Stats, stats)
		}
		summary.Rows = append(summary.Rows, row)
	}
	return summary
}

func (d *DailyRun) extract(ctx context.Context, logger *log.Logger, account shared.AccountConfig, cat shared.CategoryConfig) (models.CategoryStats, *models.Export) {
	export, err := d.opts.Extractor.Extract(ctx, account, cat)
	if err != nil {
		logger.Warn("extraction unavailable", "account", account.Name, "category", cat.Key, "error", err)
		return models.CategoryStats{Err: err}, nil
	}

	stats := models.CategoryStats{Total: len(export.Items), Source: export.Source}
	classifier := d.opts.Tracker.Classifier()
	for _, it := range export.Items {
		if classifier.Standard(it.ID) {
			stats.Standard++
		}
	}
	return stats, export
}

func (d *DailyRun) attachment(ctx context.Context, logger *log.Logger, store Store) []byte {
	sheet, err := store.Load(ctx)
	if err != nil {
		logger.Warn("cannot read sheet for the open tasks attachment", "error", err)
		return nil
	}
	data, err := formatter.OpenTasksCSV(sheet.Items)
	if err != nil {
		logger.Warn("cannot build open tasks attachment", "error", err)
		return nil
	}
	return data
}

func (d *DailyRun) notify(ctx context.Context, progress chan<- ProgressUpdate, result *DailyResult, attachment []byte) (int64, bool, error) {
	cfg := d.opts.Config
	n := d.opts.Notifier

	steps := 1
	if cfg.Telegram.Pin {
		steps++
	}
	if attachment != nil {
		steps++
	}

	step := 1
	sendProgress(progress, notifyUpdate(step, steps, "summary to "+n.Name()))
	id, err := n.SendMessage(ctx, formatter.TelegramHTML(result.Report, d.Link()))
	if err != nil {
		return 0, false, fmt.Errorf("%w: summary: %v", shared.ErrNotifyFailed, err)
	}

	var errs []error
	if cfg.Telegram.Pin {
		step++
		sendProgress(progress, notifyUpdate(step, steps, "pin"))
		if err := n.PinMessage(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("%w: pin: %v", shared.ErrNotifyFailed, err))
		}
	}

	attached := false
	if attachment != nil {
		step++
		sendProgress(progress, notifyUpdate(step, steps, "open tasks"))
		name := fmt.Sprintf("open_tasks_%s.csv", result.Summary.Date)
		caption := fmt.Sprintf("Открытые задачи, %s", result.Worksheet)
		if err := n.SendDocument(ctx, name, attachment, caption); err != nil {
			errs = append(errs, fmt.Errorf("%w: attachment: %v", shared.ErrNotifyFailed, err))
		} else {
			attached = true
		}
	}

	return id, attached, errors.Join(errs...)
}

// Link is the address appended to the summary: the configured link, or the spreadsheet when Sheets is the backend.
func (d *DailyRun) Link() string {
	if link := strings.TrimSpace(d.opts.Config.Telegram.Link); link != "" {
		return link
	}
	if d.opts.Config.Store.Backend == shared.BackendSheets {
		return shared.SpreadsheetURL(d.opts.Config.Store.Sheets.SpreadsheetID)
	}
	return ""
}

func (d *DailyRun) journal(logger *log.Logger, record *models.RunRecord, finished bool) {
	if d.opts.Journal == nil {
		return
	}
	var err error
	if finished {
		err = d.opts.Journal.Update(record)
	} else {
		err = d.opts.Journal.Create(record)
	}
	if err != nil {
		logger.Warn("failed to journal run", "error", err)
	}
}

// ReportFailure tells the chat that a run could not complete.
func (d *DailyRun) ReportFailure(ctx context.Context, runErr error) error {
	if d.opts.SkipNotify {
		return nil
	}
	msg := fmt.Sprintf("<b>%s</b> | %s\n%s",
		html.EscapeString(d.opts.Config.Telegram.Title),
		shared.FormatDate(d.opts.Clock.Now()),
		html.EscapeString(runErr.Error()),
	)
	if _, err := d.opts.Notifier.SendMessage(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotifyFailed, err)
	}
	return nil
}

// Serve runs [DailyRun.Execute] every day at the configured time until ctx is cancelled.
//
// A run that fails is reported to the chat; a run still holding the lock is skipped until the next day.
func (d *DailyRun) Serve(ctx context.Context, progress chan<- ProgressUpdate, done func(*DailyResult)) error {
	sched := d.opts.Config.Schedule
	if err := shared.ValidateSchedule(sched.Hour, sched.Minute); err != nil {
		return err
	}

	for {
		next := shared.NextRun(d.opts.Clock.Now(), sched.Hour, sched.Minute)
		d.opts.Logger.Info("next daily run scheduled", "at", next.Format(time.DateTime))
		if err := shared.SleepUntil(ctx, next); err != nil {
			return err
		}

		result, err := d.Execute(ctx, progress)
		if err != nil {
			d.opts.Logger.Error("daily run failed", "error", err)
			if errors.Is(err, shared.ErrRunInProgress) {
				continue
			}
			if nerr := d.ReportFailure(ctx, err); nerr != nil {
				d.opts.Logger.Error("failed to report run failure", "error", nerr)
			}
			continue
		}
		if done != nil {
			done(result)
		}
	}
}
