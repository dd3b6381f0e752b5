package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenStore(shared.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	return db
}

func TestRunRepository(t *testing.T) {
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := &models.RunRecord{Worksheet: "2026-03", StartedAt: started}

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.RunID == "" {
			t.Error("run ID should be generated")
		}
		if run.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence)
		}

		second := &models.RunRecord{RunID: "second", Worksheet: "2026-03", StartedAt: started}
		if err := repo.Create(second); err != nil {
			t.Fatalf("failed to create second run: %v", err)
		}
		if second.Sequence != 2 {
			t.Errorf("expected sequence 2, got %d", second.Sequence)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := &models.RunRecord{RunID: "run-1", Worksheet: "2026-03", StartedAt: started}
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Get("run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Worksheet != "2026-03" || !got.StartedAt.Equal(started) {
			t.Errorf("unexpected run %+v", got)
		}
		if got.FinishedAt != nil {
			t.Error("unfinished run should have no finish time")
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := &models.RunRecord{RunID: "run-1", Worksheet: "2026-03", StartedAt: started}
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.Finish(started.Add(2*time.Minute), 5, 2, 1, 0)
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, err := repo.Get("run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.FinishedAt == nil || !got.FinishedAt.Equal(started.Add(2*time.Minute)) {
			t.Errorf("unexpected finish time %v", got.FinishedAt)
		}
		if got.Added != 5 || got.Merged != 2 || got.Disappeared != 1 {
			t.Errorf("unexpected totals %+v", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := &models.RunRecord{RunID: "run-1", Worksheet: "2026-03", StartedAt: started}
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if err := repo.Delete("run-1"); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if _, err := repo.Get("run-1"); err == nil {
			t.Error("deleted run should not be found")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		for _, ws := range []string{"2026-02", "2026-03", "2026-03"} {
			if err := repo.Create(&models.RunRecord{Worksheet: ws, StartedAt: started}); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(all))
		}
		if all[0].Sequence != 3 {
			t.Errorf("expected newest first, got sequence %d", all[0].Sequence)
		}

		march, err := repo.List(map[string]any{"worksheet": "2026-03", "limit": 1})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(march) != 1 || march[0].Worksheet != "2026-03" {
			t.Errorf("unexpected filtered runs %+v", march)
		}
	})
}

func TestSQLiteGrid(t *testing.T) {
	ctx := context.Background()

	open := func(t *testing.T, db *sql.DB, title string) *SQLiteGrid {
		t.Helper()
		g, err := OpenSQLiteGrid(ctx, db, title)
		if err != nil {
			t.Fatalf("failed to open grid: %v", err)
		}
		return g
	}

	t.Run("Empty", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		rows, err := open(t, db, "2026-03").ReadAll(ctx)
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("expected empty grid, got %v", rows)
		}
	})

	t.Run("AppendAndRead", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		g := open(t, db, "2026-03")
		first, err := g.AppendRows(ctx, [][]string{models.Header()})
		if err != nil || first != 1 {
			t.Fatalf("expected header at row 1, got %d (%v)", first, err)
		}

		first, err = g.AppendRows(ctx, [][]string{{"Sulpak", "1", "Phone"}, {"ARG", "2", "Cable, \"long\""}})
		if err != nil {
			t.Fatalf("AppendRows failed: %v", err)
		}
		if first != 2 {
			t.Errorf("expected first appended row 2, got %d", first)
		}

		rows, err := g.ReadAll(ctx)
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		if len(rows) != 3 || rows[2][2] != "Cable, \"long\"" {
			t.Errorf("unexpected rows %v", rows)
		}
	})

	t.Run("WorksheetsAreIsolated", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		march := open(t, db, "2026-03")
		april := open(t, db, "2026-04")
		if _, err := march.AppendRows(ctx, [][]string{{"a"}}); err != nil {
			t.Fatalf("AppendRows failed: %v", err)
		}

		rows, err := april.ReadAll(ctx)
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("april should be empty, got %v", rows)
		}

		titles, err := Worksheets(ctx, db)
		if err != nil {
			t.Fatalf("Worksheets failed: %v", err)
		}
		if len(titles) != 2 {
			t.Errorf("expected 2 worksheets, got %v", titles)
		}
	})

	t.Run("UpdateCells", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		g := open(t, db, "2026-03")
		if _, err := g.AppendRows(ctx, [][]string{{"h1", "h2"}, {"a", "b"}}); err != nil {
			t.Fatalf("AppendRows failed: %v", err)
		}

		err := g.UpdateCells(ctx, []models.CellUpdate{
			{Row: 2, Col: 2, Value: "B"},
			{Row: 2, Col: 4, Value: "D"},
			{Row: 4, Col: 1, Value: "far"},
		})
		if err != nil {
			t.Fatalf("UpdateCells failed: %v", err)
		}

		rows, _ := g.ReadAll(ctx)
		if len(rows) != 4 {
			t.Fatalf("expected 4 rows including the gap, got %d", len(rows))
		}
		if rows[1][1] != "B" || rows[1][3] != "D" || rows[1][2] != "" {
			t.Errorf("unexpected row 2 %v", rows[1])
		}
		if len(rows[2]) != 0 || rows[3][0] != "far" {
			t.Errorf("unexpected tail %v", rows[2:])
		}

		if err := g.UpdateCells(ctx, []models.CellUpdate{{Row: 0, Col: 1}}); err == nil {
			t.Error("expected error for row 0")
		}
	})

	t.Run("InsertColumn", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		g := open(t, db, "2026-03")
		if _, err := g.AppendRows(ctx, [][]string{{"Артикул", "Название товара"}, {"1", "Phone"}}); err != nil {
			t.Fatalf("AppendRows failed: %v", err)
		}
		if err := g.InsertColumn(ctx, 1); err != nil {
			t.Fatalf("InsertColumn failed: %v", err)
		}

		rows, _ := g.ReadAll(ctx)
		if rows[0][0] != "" || rows[0][1] != "Артикул" || rows[1][2] != "Phone" {
			t.Errorf("unexpected rows after insert %v", rows)
		}
	})

	t.Run("HighlightRows", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		g := open(t, db, "2026-03")
		if _, err := g.AppendRows(ctx, [][]string{{"h"}, {"a"}}); err != nil {
			t.Fatalf("AppendRows failed: %v", err)
		}
		if err := g.HighlightRows(ctx, []models.RowBand{{Row: 2, Flag: models.FlagBrand}}); err != nil {
			t.Fatalf("HighlightRows failed: %v", err)
		}

		band, err := g.Band(ctx, 2)
		if err != nil || band != "brand" {
			t.Errorf("expected brand band, got %q (%v)", band, err)
		}
		if band, _ := g.Band(ctx, 1); band != "" {
			t.Errorf("header should be unstyled, got %q", band)
		}
	})
}

func TestMemoryGrid(t *testing.T) {
	ctx := context.Background()

	t.Run("AppendAfterLastFilledRow", func(t *testing.T) {
		g := NewMemoryGrid("mem", [][]string{{"h"}, {"a"}, {""}, {" "}})
		first, err := g.AppendRows(ctx, [][]string{{"b"}})
		if err != nil {
			t.Fatalf("AppendRows failed: %v", err)
		}
		if first != 3 {
			t.Errorf("expected append at row 3, got %d", first)
		}
		rows, _ := g.ReadAll(ctx)
		if len(rows) != 3 || rows[2][0] != "b" {
			t.Errorf("unexpected rows %v", rows)
		}
	})

	t.Run("CopiesInput", func(t *testing.T) {
		src := [][]string{{"h"}}
		g := NewMemoryGrid("mem", src)
		src[0][0] = "changed"

		rows, _ := g.ReadAll(ctx)
		if rows[0][0] != "h" {
			t.Error("grid should not alias its input")
		}
		rows[0][0] = "changed"
		again, _ := g.ReadAll(ctx)
		if again[0][0] != "h" {
			t.Error("ReadAll should return a copy")
		}
	})

	t.Run("CopyGrid", func(t *testing.T) {
		g := NewMemoryGrid("2026-03", [][]string{{"h"}, {"a"}})
		cp, err := CopyGrid(ctx, g)
		if err != nil {
			t.Fatalf("CopyGrid failed: %v", err)
		}
		if _, err := cp.AppendRows(ctx, [][]string{{"b"}}); err != nil {
			t.Fatalf("AppendRows failed: %v", err)
		}
		rows, _ := g.ReadAll(ctx)
		if len(rows) != 2 {
			t.Error("writes to the copy must not reach the source")
		}
		if cp.Title() != "2026-03" {
			t.Errorf("unexpected title %q", cp.Title())
		}
	})

	t.Run("InsertColumnSkipsShortRows", func(t *testing.T) {
		g := NewMemoryGrid("mem", [][]string{{"a", "b"}, nil})
		if err := g.InsertColumn(ctx, 2); err != nil {
			t.Fatalf("InsertColumn failed: %v", err)
		}
		rows, _ := g.ReadAll(ctx)
		if len(rows[0]) != 3 || rows[0][1] != "" || rows[0][2] != "b" {
			t.Errorf("unexpected first row %v", rows[0])
		}
		if len(rows[1]) != 0 {
			t.Errorf("short row should stay empty, got %v", rows[1])
		}
	})

	t.Run("Bands", func(t *testing.T) {
		g := NewMemoryGrid("mem", nil)
		_ = g.HighlightRows(ctx, []models.RowBand{{Row: 3, Flag: models.FlagNonStandard}})
		if g.Band(3) != models.FlagNonStandard || g.Band(2) != models.FlagDefault {
			t.Error("unexpected bands")
		}
	})
}
