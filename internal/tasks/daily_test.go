package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/repositories"
	"github.com/desertthunder/merchtrack/internal/shared"
	tu "github.com/desertthunder/merchtrack/internal/testing"
)

type dailyFixture struct {
	cfg       *shared.Config
	grid      *repositories.MemoryGrid
	extractor *tu.MockExtractor
	notifier  *tu.MockNotifier
	journal   *repositories.RunRepository
	opts      DailyOpts
}

func newDailyFixture(t *testing.T) *dailyFixture {
	t.Helper()

	cfg := testConfig()
	cfg.Store.Backend = shared.BackendSQLite
	cfg.Telegram.Title = "Kaspi"
	cfg.Telegram.Pin = true
	cfg.Telegram.Link = "https://example.com/sheet"

	db, err := shared.OpenStore(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &dailyFixture{
		cfg: cfg,
		grid: repositories.NewMemoryGrid("2026-03", [][]string{
			models.Header(),
			{"Motorola", "900", "Old phone", "01.03.2026", "Данияр"},
		}),
		extractor: &tu.MockExtractor{},
		notifier:  &tu.MockNotifier{},
		journal:   repositories.NewRunRepository(db),
	}
	f.extractor.Set("Sulpak", "unassigned", tu.Items("501", "Widget ARG", "502", "Gadget")...)
	f.extractor.Set("ARG", "unassigned", tu.Items("501", "Widget ARG")...)
	f.extractor.Set("Sulpak", "on_review", tu.Items("30000777", "Phone")...)
	f.extractor.Set("ARG", "needs_rework", tu.Items("12", "Cable", "30000013", "Case")...)

	f.opts = DailyOpts{
		Config:    cfg,
		Tracker:   newTestTracker(t, cfg, nil),
		Stores:    f.opener(nil),
		Extractor: f.extractor,
		Notifier:  f.notifier,
		Journal:   f.journal,
		Clock:     shared.FixedClock{T: testToday},
	}
	return f
}

func (f *dailyFixture) opener(err error) StoreOpener {
	return func(ctx context.Context, title string) (Store, error) {
		if err != nil {
			return nil, err
		}
		return repositories.NewTrackingStore(f.grid, nil), nil
	}
}

func (f *dailyFixture) run(t *testing.T) *DailyResult {
	t.Helper()
	run, err := NewDailyRun(f.opts)
	if err != nil {
		t.Fatalf("NewDailyRun failed: %v", err)
	}
	result, err := run.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	return result
}

func TestNewDailyRun(t *testing.T) {
	f := newDailyFixture(t)

	tests := []struct {
		name   string
		mutate func(o *DailyOpts)
		want   error
	}{
		{"missing config", func(o *DailyOpts) { o.Config = nil }, shared.ErrMissingConfig},
		{"missing tracker", func(o *DailyOpts) { o.Tracker = nil }, shared.ErrMissingConfig},
		{"missing store", func(o *DailyOpts) { o.Stores = nil }, shared.ErrMissingArgument},
		{"missing extractor", func(o *DailyOpts) { o.Extractor = nil }, shared.ErrMissingArgument},
		{"no tracked category", func(o *DailyOpts) {
			cfg := *o.Config
			cfg.Categories = []shared.CategoryConfig{{Key: "on_review", Label: "На проверке"}}
			o.Config = &cfg
		}, shared.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := f.opts
			tt.mutate(&opts)
			if _, err := NewDailyRun(opts); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	t.Run("Defaults", func(t *testing.T) {
		opts := f.opts
		opts.Notifier, opts.Clock, opts.Logger = nil, nil, nil
		run, err := NewDailyRun(opts)
		if err != nil {
			t.Fatalf("NewDailyRun failed: %v", err)
		}
		if run.opts.Notifier.Name() != "none" {
			t.Errorf("expected the no-op notifier, got %s", run.opts.Notifier.Name())
		}
	})
}

func TestDailyRunWorksheetTitle(t *testing.T) {
	f := newDailyFixture(t)
	run, _ := NewDailyRun(f.opts)

	if got := run.WorksheetTitle(testToday); got != "2026-03" {
		t.Errorf("expected monthly title, got %q", got)
	}
	f.cfg.Store.Worksheet = " Лист1 "
	if got := run.WorksheetTitle(testToday); got != "Лист1" {
		t.Errorf("expected configured title, got %q", got)
	}
}

func TestDailyRunExecute(t *testing.T) {
	t.Run("Full Run", func(t *testing.T) {
		f := newDailyFixture(t)
		result := f.run(t)

		if result.Worksheet != "2026-03" {
			t.Errorf("unexpected worksheet %q", result.Worksheet)
		}
		if len(result.Syncs) != 2 || result.Syncs[0].Account != "Sulpak" || result.Syncs[1].Account != "ARG" {
			t.Fatalf("unexpected syncs %+v", result.Syncs)
		}
		if len(result.Skipped) != 1 || result.Skipped[0] != "Motorola" {
			t.Errorf("expected Motorola to be skipped, got %v", result.Skipped)
		}
		if added, merged, disappeared := result.Totals(); added != 2 || merged != 1 || disappeared != 0 {
			t.Errorf("unexpected totals %d/%d/%d", added, merged, disappeared)
		}
		if result.Failures() != 1 {
			t.Errorf("expected 1 failure, got %d", result.Failures())
		}

		rows, _ := f.grid.ReadAll(context.Background())
		if len(rows) != 4 {
			t.Fatalf("expected header plus 3 rows, got %d", len(rows))
		}
		if len(rows[1]) >= models.ColDateDisappeared && rows[1][models.ColDateDisappeared-1] != "" {
			t.Errorf("rows of an account without an export must not be swept: %v", rows[1])
		}
		if rows[2][models.ColAccount-1] != "Sulpak+ARG" {
			t.Errorf("expected merged label, got %v", rows[2])
		}
	})

	t.Run("Summary", func(t *testing.T) {
		f := newDailyFixture(t)
		result := f.run(t)

		sulpak := result.Summary.Rows[0]
		if sulpak.Stats[0].Total != 2 || sulpak.Stats[0].Standard != 0 {
			t.Errorf("unexpected tracked stats %+v", sulpak.Stats[0])
		}
		if sulpak.Stats[1].Err == nil {
			t.Error("missing export should carry its error")
		}
		if sulpak.Stats[2].Total != 1 || sulpak.Stats[2].Standard != 1 {
			t.Errorf("unexpected on_review stats %+v", sulpak.Stats[2])
		}
		if arg := result.Summary.Rows[1]; arg.Stats[1].Total != 2 || arg.Stats[1].Standard != 1 {
			t.Errorf("unexpected needs_rework stats %+v", arg.Stats[1])
		}
		if len(result.Summary.Categories) != 4 || len(result.Summary.Rows) != 3 {
			t.Errorf("unexpected summary shape %+v", result.Summary)
		}

		for _, want := range []string{"Kaspi | 02.03.2026", "ИТОГО", "Motorola"} {
			if !strings.Contains(result.Report, want) {
				t.Errorf("report should contain %q:\n%s", want, result.Report)
			}
		}
	})

	t.Run("Notification", func(t *testing.T) {
		f := newDailyFixture(t)
		result := f.run(t)

		if result.NotifyErr != nil {
			t.Fatalf("unexpected notify error: %v", result.NotifyErr)
		}
		if len(f.notifier.Messages) != 1 || result.MessageID != 1 {
			t.Fatalf("expected one message, got %d (id %d)", len(f.notifier.Messages), result.MessageID)
		}
		msg := f.notifier.Messages[0]
		if !strings.HasPrefix(msg, "<pre>") || !strings.Contains(msg, "https://example.com/sheet") {
			t.Errorf("unexpected message %q", msg)
		}
		if len(f.notifier.Pinned) != 1 || f.notifier.Pinned[0] != 1 {
			t.Errorf("expected message 1 to be pinned, got %v", f.notifier.Pinned)
		}

		doc, ok := f.notifier.Documents["open_tasks_02.03.2026.csv"]
		if !ok || !result.Attached {
			t.Fatalf("expected the open tasks attachment, got %v", f.notifier.Documents)
		}
		if !strings.Contains(string(doc), "501") || !strings.Contains(string(doc), "900") {
			t.Errorf("attachment should list open rows:\n%s", doc)
		}
		if f.notifier.Captions[0] != "Открытые задачи, 2026-03" {
			t.Errorf("unexpected caption %q", f.notifier.Captions[0])
		}
	})

	t.Run("No Pin", func(t *testing.T) {
		f := newDailyFixture(t)
		f.cfg.Telegram.Pin = false
		f.run(t)
		if len(f.notifier.Pinned) != 0 {
			t.Errorf("nothing should be pinned, got %v", f.notifier.Pinned)
		}
	})

	t.Run("Skip Notify", func(t *testing.T) {
		f := newDailyFixture(t)
		f.opts.SkipNotify = true
		result := f.run(t)
		if len(f.notifier.Messages) != 0 || result.MessageID != 0 {
			t.Error("no message expected")
		}
		if result.Report == "" {
			t.Error("report should still be built")
		}
	})

	t.Run("Summary Delivery Failure", func(t *testing.T) {
		f := newDailyFixture(t)
		f.notifier.FailMessage = errors.New("bot blocked")
		result := f.run(t)
		if !errors.Is(result.NotifyErr, shared.ErrNotifyFailed) {
			t.Errorf("expected ErrNotifyFailed, got %v", result.NotifyErr)
		}
		if len(result.Syncs) != 2 {
			t.Error("syncs should complete before notification")
		}
	})

	t.Run("Pin And Document Failures", func(t *testing.T) {
		f := newDailyFixture(t)
		f.notifier.FailPin = errors.New("not admin")
		f.notifier.FailDocument = errors.New("too large")
		result := f.run(t)
		if !errors.Is(result.NotifyErr, shared.ErrNotifyFailed) || result.Attached {
			t.Errorf("unexpected notify outcome: %v, attached %v", result.NotifyErr, result.Attached)
		}
		if result.MessageID != 1 {
			t.Errorf("summary should still be delivered, got id %d", result.MessageID)
		}
	})

	t.Run("Journal", func(t *testing.T) {
		f := newDailyFixture(t)
		result := f.run(t)

		runs, err := f.journal.List(map[string]any{"worksheet": "2026-03"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(runs) != 1 || runs[0].RunID != result.RunID {
			t.Fatalf("expected the run to be journaled, got %+v", runs)
		}
		if runs[0].FinishedAt == nil || runs[0].Added != 2 || runs[0].Merged != 1 || runs[0].Failures != 1 {
			t.Errorf("unexpected journal entry %+v", runs[0])
		}
	})

	t.Run("Idempotent Rerun", func(t *testing.T) {
		f := newDailyFixture(t)
		f.run(t)
		again := f.run(t)
		if added, merged, _ := again.Totals(); added != 0 || merged != 0 {
			t.Errorf("second run should change nothing, got %d added, %d merged", added, merged)
		}
	})

	t.Run("Progress", func(t *testing.T) {
		f := newDailyFixture(t)
		run, _ := NewDailyRun(f.opts)
		progress := make(chan ProgressUpdate, 100)

		if _, err := run.Execute(context.Background(), progress); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		close(progress)

		seen := map[Phase]int{}
		for u := range progress {
			seen[u.Phase]++
		}
		if seen[Prepare] != 1 || seen[Extract] < 12 || seen[Report] != 1 || seen[Notify] != 3 {
			t.Errorf("unexpected phase counts %v", seen)
		}
	})

	t.Run("Store Unavailable", func(t *testing.T) {
		f := newDailyFixture(t)
		f.opts.Stores = f.opener(shared.ErrMissingCredentials)
		run, _ := NewDailyRun(f.opts)

		_, err := run.Execute(context.Background(), nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
		if len(f.extractor.Calls) != 0 {
			t.Error("nothing should be extracted without a store")
		}

		if err := run.ReportFailure(context.Background(), err); err != nil {
			t.Fatalf("ReportFailure failed: %v", err)
		}
		if len(f.notifier.Messages) != 1 || !strings.Contains(f.notifier.Messages[0], "missing credentials") {
			t.Errorf("unexpected failure message %v", f.notifier.Messages)
		}
	})

	t.Run("Lock Held", func(t *testing.T) {
		f := newDailyFixture(t)
		path := filepath.Join(t.TempDir(), "run.lock")

		held, err := shared.NewRunLock(path)
		if err != nil {
			t.Fatalf("NewRunLock failed: %v", err)
		}
		if err := held.Acquire(); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		defer held.Release()

		lock, _ := shared.NewRunLock(path)
		f.opts.Lock = lock
		run, _ := NewDailyRun(f.opts)

		if _, err := run.Execute(context.Background(), nil); !errors.Is(err, shared.ErrRunInProgress) {
			t.Errorf("expected ErrRunInProgress, got %v", err)
		}
		if len(f.extractor.Calls) != 0 {
			t.Error("a locked run must not extract")
		}
	})

	t.Run("Lock Released", func(t *testing.T) {
		f := newDailyFixture(t)
		lock, _ := shared.NewRunLock(filepath.Join(t.TempDir(), "run.lock"))
		f.opts.Lock = lock

		f.run(t)
		if err := lock.Acquire(); err != nil {
			t.Errorf("lock should be free after the run: %v", err)
		}
		lock.Release()
	})
}

func TestDailyRunServe(t *testing.T) {
	t.Run("Cancelled", func(t *testing.T) {
		f := newDailyFixture(t)
		f.opts.Clock = shared.SystemClock{}
		run, _ := NewDailyRun(f.opts)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if err := run.Serve(ctx, nil, nil); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline error, got %v", err)
		}
		if len(f.extractor.Calls) != 0 {
			t.Error("no run should start before the scheduled time")
		}
	})

	t.Run("Invalid Schedule", func(t *testing.T) {
		f := newDailyFixture(t)
		f.cfg.Schedule.Hour = 25
		run, _ := NewDailyRun(f.opts)
		if err := run.Serve(context.Background(), nil, nil); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestDailyRunPreview(t *testing.T) {
	f := newDailyFixture(t)
	run, _ := NewDailyRun(f.opts)

	summary := run.Preview(context.Background())
	if summary.Date != "02.03.2026" || summary.Title != "Kaspi" {
		t.Errorf("unexpected heading %q | %q", summary.Title, summary.Date)
	}
	if len(summary.Rows) != 3 || summary.Rows[0].Stats[0].Total != 2 {
		t.Errorf("unexpected rows %+v", summary.Rows)
	}
	if rows, _ := f.grid.ReadAll(context.Background()); len(rows) != 2 {
		t.Errorf("preview must not write, grid has %d rows", len(rows))
	}
	if len(f.notifier.Messages) != 0 {
		t.Error("preview must not notify")
	}
}
