package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/shared"
)

// Store is the tracking store as the engine sees it.
type Store interface {
	models.Store

	// Prepare makes sure the header is current, migrating sheets that predate the account column.
	Prepare(ctx context.Context, defaultAccount string) error
}

// SyncResult is the outcome of one account cycle.
type SyncResult struct {
	Account     string
	Ingest      IngestResult
	Disappeared int
	Derive      DeriveResult
	Degraded    bool  // the store could not be read and the cycle started from an empty sheet
	Err         error // first write failure, if any
}

// Engine runs ingest, sweep and derive for one account against a [Store].
type Engine struct {
	tracker *Tracker
	store   Store
	logger  *log.Logger
}

// NewEngine wires a tracker to a store.
func NewEngine(tracker *Tracker, store Store, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{tracker: tracker, store: store, logger: logger}
}

// Tracker returns the engine's rules.
func (e *Engine) Tracker() *Tracker { return e.tracker }

// Store returns the engine's store.
func (e *Engine) Store() Store { return e.store }

// Sync runs one cycle for account with the items currently listed on the portal.
//
// A failed read degrades to an empty sheet. A failed write is logged and returned in [SyncResult.Err]; the caller
// moves on to the next account.
func (e *Engine) Sync(ctx context.Context, account string, items []models.ExtractedItem, progress chan<- ProgressUpdate) SyncResult {
	logger := shared.WithLogger(e.logger, "account", account)
	res := SyncResult{Account: account}

	sheet, err := e.store.Load(ctx)
	if err != nil {
		logger.Warn("tracking store unreadable, continuing with an empty sheet", "error", err)
		sheet = models.NewSheet("", nil)
		res.Degraded = true
	}

	res.Ingest = e.tracker.Ingest(sheet, items, account)
	sendProgress(progress, ingestUpdate(account, res.Ingest))
	if err := e.store.Commit(ctx, sheet); err != nil {
		logger.Error("failed to persist ingested items", "error", err)
		res.Err = err
		sendProgress(progress, syncFailedUpdate(account, err))
		return res
	}

	res.Disappeared = e.tracker.Sweep(sheet, ItemIDs(items), account)
	sendProgress(progress, sweepUpdate(account, res.Disappeared))

	res.Derive = e.tracker.DeriveResolution(sheet)
	sendProgress(progress, deriveUpdate(account, res.Derive))

	if err := e.store.Commit(ctx, sheet); err != nil {
		logger.Error("failed to persist sweep and resolution updates", "error", err)
		res.Err = err
		sendProgress(progress, syncFailedUpdate(account, err))
		return res
	}

	logger.Info("account synced",
		"added", res.Ingest.Added,
		"merged", res.Ingest.Merged,
		"skipped", res.Ingest.Skipped,
		"disappeared", res.Disappeared,
		"inconsistent", res.Derive.Inconsistent,
	)
	return res
}

// Loads reads the sheet and returns the current reviewer loads.
func (e *Engine) Loads(ctx context.Context) (*Loads, *models.Sheet, error) {
	sheet, err := e.store.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return NewLoads(e.tracker.Roster(), sheet.Items), sheet, nil
}
