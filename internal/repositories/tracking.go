package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/shared"
)

// HeaderStyler is implemented by grids that can style their header row.
type HeaderStyler interface {
	StyleHeader(ctx context.Context) error
}

// TrackingStore persists [models.Sheet] snapshots to a [models.Grid].
type TrackingStore struct {
	grid   models.Grid
	logger *log.Logger
}

// NewTrackingStore wraps a grid.
func NewTrackingStore(grid models.Grid, logger *log.Logger) *TrackingStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TrackingStore{grid: grid, logger: shared.WithLogger(logger, "worksheet", grid.Title())}
}

// Grid returns the underlying grid.
func (s *TrackingStore) Grid() models.Grid { return s.grid }

// Load reads the whole grid into a sheet.
func (s *TrackingStore) Load(ctx context.Context) (*models.Sheet, error) {
	rows, err := s.grid.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrStoreRead, err)
	}
	return models.NewSheet(s.grid.Title(), rows), nil
}

// Commit writes queued appends as one batch, paints their bands, then writes queued cell updates as one batch.
//
// A failed highlight is logged and does not fail the commit.
func (s *TrackingStore) Commit(ctx context.Context, sheet *models.Sheet) error {
	if rows := sheet.PendingRows(); len(rows) > 0 {
		first, err := s.grid.AppendRows(ctx, rows)
		if err != nil {
			return fmt.Errorf("%w: append %d rows: %v", shared.ErrStoreWrite, len(rows), err)
		}
		bands := sheet.MarkAppended(first)
		s.logger.Debug("appended rows", "first", first, "count", len(rows))

		if len(bands) > 0 {
			if err := s.grid.HighlightRows(ctx, bands); err != nil {
				s.logger.Warn("failed to highlight rows", "count", len(bands), "error", err)
			}
		}
	}

	if cells := sheet.PendingCells(); len(cells) > 0 {
		if err := s.grid.UpdateCells(ctx, cells); err != nil {
			return fmt.Errorf("%w: update %d cells: %v", shared.ErrStoreWrite, len(cells), err)
		}
		sheet.ClearCells()
		s.logger.Debug("updated cells", "count", len(cells))
	}
	return nil
}

// Prepare brings the header up to date.
//
// An empty grid gets the full header. A grid whose first header cell is not the account caption predates the
// account column: a column is inserted before it and every existing data row is labelled with defaultAccount.
// Blank header captions are filled in; captions already present are left as typed.
func (s *TrackingStore) Prepare(ctx context.Context, defaultAccount string) error {
	rows, err := s.grid.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStoreRead, err)
	}

	var header []string
	var updates []models.CellUpdate
	created := len(rows) == 0 || blankRow(rows[0])

	if !created && strings.TrimSpace(rows[0][0]) != models.HeaderAccount {
		if err := s.grid.InsertColumn(ctx, models.ColAccount); err != nil {
			return fmt.Errorf("%w: insert account column: %v", shared.ErrStoreWrite, err)
		}

		labelled := 0
		for i, cells := range rows[1:] {
			if blankRow(cells) {
				continue
			}
			updates = append(updates, models.CellUpdate{Row: i + 2, Col: models.ColAccount, Value: defaultAccount})
			labelled++
		}
		rows[0] = append([]string{""}, rows[0]...)
		s.logger.Info("added account column", "default", defaultAccount, "rows", labelled)
	}
	if !created {
		header = rows[0]
	}

	for i, want := range models.Header() {
		if i >= len(header) || strings.TrimSpace(header[i]) == "" {
			updates = append(updates, models.CellUpdate{Row: 1, Col: i + 1, Value: want})
		}
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.grid.UpdateCells(ctx, updates); err != nil {
		return fmt.Errorf("%w: header: %v", shared.ErrStoreWrite, err)
	}

	if styler, ok := s.grid.(HeaderStyler); ok && created {
		if err := styler.StyleHeader(ctx); err != nil {
			s.logger.Warn("failed to style header", "error", err)
		}
	}
	return nil
}
