package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/merchtrack/internal/shared"
	"github.com/xuri/excelize/v2"
)

func testSchema() Schema {
	return NewSchema(shared.DefaultConfig().Extract)
}

func writeXLSX(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestSchema(t *testing.T) {
	s := testSchema()

	t.Run("Locate", func(t *testing.T) {
		tests := []struct {
			name    string
			header  []string
			id      int
			nameCol int
			wantErr bool
		}{
			{"exact", []string{"Артикул", "Название товара"}, 0, 1, false},
			{"case and spaces", []string{" Цена ", "  sku ", "НАЗВАНИЕ"}, 1, 2, false},
			{"bom", []string{"\uFEFFАртикул", "Наименование"}, 0, 1, false},
			{"no id", []string{"Код", "Название"}, -1, -1, true},
			{"no name", []string{"Артикул", "Цена"}, -1, -1, true},
			{"partial caption", []string{"Артикул продавца", "Название"}, -1, -1, true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				id, name, err := s.Locate(tt.header)
				if (err != nil) != tt.wantErr {
					t.Fatalf("Locate(%v) error = %v, wantErr %v", tt.header, err, tt.wantErr)
				}
				if err != nil && !errors.Is(err, shared.ErrSchemaMismatch) {
					t.Errorf("expected ErrSchemaMismatch, got %v", err)
				}
				if id != tt.id || name != tt.nameCol {
					t.Errorf("Locate(%v) = %d, %d; want %d, %d", tt.header, id, name, tt.id, tt.nameCol)
				}
			})
		}
	})

	t.Run("Items", func(t *testing.T) {
		rows := [][]string{
			{},
			{"Название товара", "Артикул"},
			{"Phone ARG", " 30000001 "},
			{"No id", ""},
			{"Cable"},
			{"Duplicate", "30000001"},
			{"Case", "123"},
		}
		items, err := s.Items(rows)
		if err != nil {
			t.Fatalf("Items failed: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %+v", items)
		}
		if items[0].ID != "30000001" || items[0].Name != "Phone ARG" || items[1].ID != "123" {
			t.Errorf("unexpected items %+v", items)
		}
	})

	t.Run("Items Empty Export", func(t *testing.T) {
		if _, err := s.Items(nil); !errors.Is(err, shared.ErrSchemaMismatch) {
			t.Errorf("expected ErrSchemaMismatch, got %v", err)
		}
		items, err := s.Items([][]string{{"Артикул", "Название"}})
		if err != nil || len(items) != 0 {
			t.Errorf("header-only export should give no items, got %v %v", items, err)
		}
	})
}

func TestReadCSV(t *testing.T) {
	t.Run("Comma", func(t *testing.T) {
		rows, err := ReadCSV(strings.NewReader("Артикул,Название\n1,\"Cable, 2m\"\n"))
		if err != nil {
			t.Fatalf("ReadCSV failed: %v", err)
		}
		if len(rows) != 2 || rows[1][1] != "Cable, 2m" {
			t.Errorf("unexpected rows %v", rows)
		}
	})

	t.Run("Semicolon With BOM", func(t *testing.T) {
		rows, err := ReadCSV(strings.NewReader("\uFEFFАртикул;Название\n1;Phone, black\n2;Case\n"))
		if err != nil {
			t.Fatalf("ReadCSV failed: %v", err)
		}
		if rows[0][0] != "Артикул" || rows[1][1] != "Phone, black" || len(rows) != 3 {
			t.Errorf("unexpected rows %v", rows)
		}
	})

	t.Run("Ragged Rows", func(t *testing.T) {
		rows, err := ReadCSV(strings.NewReader("a,b,c\n1\n"))
		if err != nil || len(rows[1]) != 1 {
			t.Errorf("ragged rows should be accepted, got %v %v", rows, err)
		}
	})
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("XLSX", func(t *testing.T) {
		path := filepath.Join(dir, "unassigned.xlsx")
		writeXLSX(t, path, [][]any{
			{"Артикул", "Название товара"},
			{"30000001", "Phone"},
			{"ABC-1", "Чехол ARG"},
		})

		items, err := ReadFile(path, testSchema())
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if len(items) != 2 || items[1].ID != "ABC-1" || items[1].Name != "Чехол ARG" {
			t.Errorf("unexpected items %+v", items)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		path := filepath.Join(dir, "export.json")
		writeFile(t, path, "{}")
		if _, err := ReadFile(path, testSchema()); !errors.Is(err, shared.ErrExtractionUnavailable) {
			t.Errorf("expected ErrExtractionUnavailable, got %v", err)
		}
	})

	t.Run("Schema Mismatch", func(t *testing.T) {
		path := filepath.Join(dir, "bad.csv")
		writeFile(t, path, "Code,Title\n1,x\n")
		_, err := ReadFile(path, testSchema())
		if !errors.Is(err, shared.ErrExtractionUnavailable) || !errors.Is(err, shared.ErrSchemaMismatch) {
			t.Errorf("expected both sentinels, got %v", err)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := ReadFile(filepath.Join(dir, "none.csv"), testSchema()); !errors.Is(err, shared.ErrExtractionUnavailable) {
			t.Errorf("expected ErrExtractionUnavailable, got %v", err)
		}
	})
}

func TestDirExtractor(t *testing.T) {
	ctx := context.Background()
	account := shared.AccountConfig{ID: "30409770", Name: "ARG"}
	category := shared.CategoryConfig{Key: "unassigned", Label: "Без привязки", Tracked: true}

	newExtractor := func(dir string) *DirExtractor {
		cfg := shared.DefaultConfig().Extract
		cfg.DownloadsDir = dir
		return NewDirExtractor(cfg, nil)
	}

	t.Run("Newest File Wins", func(t *testing.T) {
		dir := t.TempDir()
		old := filepath.Join(dir, account.ID, "unassigned_old.csv")
		fresh := filepath.Join(dir, account.ID, "unassigned_new.xlsx")
		writeFile(t, old, "Артикул,Название\n1,Old\n")
		writeXLSX(t, fresh, [][]any{{"Артикул", "Название"}, {"2", "New"}})

		past := time.Now().Add(-time.Hour)
		if err := os.Chtimes(old, past, past); err != nil {
			t.Fatal(err)
		}

		export, err := newExtractor(dir).Extract(ctx, account, category)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if export.Source != fresh || len(export.Items) != 1 || export.Items[0].ID != "2" {
			t.Errorf("unexpected export %+v", export)
		}
		if export.Account != "ARG" || export.Category != "unassigned" {
			t.Errorf("export should carry account and category, got %+v", export)
		}
	})

	t.Run("Ignores Other Categories And Extensions", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, account.ID, "rejected.csv"), "Артикул,Название\n1,x\n")
		writeFile(t, filepath.Join(dir, account.ID, "unassigned.txt"), "Артикул,Название\n1,x\n")

		_, err := newExtractor(dir).Extract(ctx, account, category)
		if !errors.Is(err, shared.ErrExtractionUnavailable) {
			t.Errorf("expected ErrExtractionUnavailable, got %v", err)
		}
	})

	t.Run("Missing Account Directory", func(t *testing.T) {
		_, err := newExtractor(t.TempDir()).Extract(ctx, account, category)
		if !errors.Is(err, shared.ErrExtractionUnavailable) {
			t.Errorf("expected ErrExtractionUnavailable, got %v", err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := newExtractor(t.TempDir()).Extract(cctx, account, category); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
