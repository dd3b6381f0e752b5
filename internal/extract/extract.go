// package extract reads portal product exports (XLSX or CSV) into extracted items
package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/shared"
	"github.com/xuri/excelize/v2"
)

// Schema maps export header captions to the id and name columns.
//
// Captions match a configured alias exactly after trimming and case folding. An export without both columns is
// rejected rather than guessed at.
type Schema struct {
	IDColumns   []string
	NameColumns []string
}

// NewSchema builds a schema from the extract section of the config.
func NewSchema(cfg shared.ExtractConfig) Schema {
	return Schema{IDColumns: cfg.IDColumns, NameColumns: cfg.NameColumns}
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\uFEFF")))
}

func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		want := fold(alias)
		for i, caption := range header {
			if fold(caption) == want {
				return i
			}
		}
	}
	return -1
}

// Locate returns the 0-based id and name columns of header.
func (s Schema) Locate(header []string) (idCol, nameCol int, err error) {
	idCol = findColumn(header, s.IDColumns)
	if idCol < 0 {
		return -1, -1, fmt.Errorf("%w: no id column among %v", shared.ErrSchemaMismatch, header)
	}
	nameCol = findColumn(header, s.NameColumns)
	if nameCol < 0 {
		return -1, -1, fmt.Errorf("%w: no name column among %v", shared.ErrSchemaMismatch, header)
	}
	return idCol, nameCol, nil
}

// Items maps rows to extracted items. The first non-blank row is the header. Rows without an id are skipped and
// an id repeated within the export keeps its first row.
func (s Schema) Items(rows [][]string) ([]models.ExtractedItem, error) {
	start := -1
	for i, r := range rows {
		if !blank(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%w: export has no header row", shared.ErrSchemaMismatch)
	}

	idCol, nameCol, err := s.Locate(rows[start])
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	items := []models.ExtractedItem{}
	for _, r := range rows[start+1:] {
		id := strings.TrimSpace(cell(r, idCol))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		items = append(items, models.ExtractedItem{ID: id, Name: strings.TrimSpace(cell(r, nameCol))})
	}
	return items, nil
}

func cell(r []string, i int) string {
	if i < len(r) {
		return r[i]
	}
	return ""
}

func blank(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadCSV parses a CSV export. The delimiter is ';' when the first line has more semicolons than commas.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))

	first := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		first = data[:i]
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if bytes.Count(first, []byte(";")) > bytes.Count(first, []byte(",")) {
		reader.Comma = ';'
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return rows, nil
}

// ReadXLSX returns the rows of the first worksheet of a workbook.
func ReadXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no worksheets", filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", sheets[0], err)
	}
	return rows, nil
}

// ReadFile reads an export by extension (.xlsx or .csv) and maps it with schema.
func ReadFile(path string, schema Schema) ([]models.ExtractedItem, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = ReadXLSX(path)
	case ".csv":
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			break
		}
		defer f.Close()
		rows, err = ReadCSV(f)
	default:
		return nil, fmt.Errorf("%w: unsupported export %s", shared.ErrExtractionUnavailable, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrExtractionUnavailable, err)
	}

	items, err := schema.Items(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", shared.ErrExtractionUnavailable, filepath.Base(path), err)
	}
	return items, nil
}

// DirExtractor reads the newest export for each (account, category) from a downloads directory laid out as
// <dir>/<account id>/<category key>*.xlsx|csv.
type DirExtractor struct {
	dir    string
	schema Schema
	logger *log.Logger
}

// NewDirExtractor uses the extract section of the config.
func NewDirExtractor(cfg shared.ExtractConfig, logger *log.Logger) *DirExtractor {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &DirExtractor{dir: cfg.DownloadsDir, schema: NewSchema(cfg), logger: logger}
}

// Locate returns the newest export file for the pair.
func (d *DirExtractor) Locate(account shared.AccountConfig, category shared.CategoryConfig) (string, error) {
	pattern := filepath.Join(d.dir, account.ID, category.Key+"*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrExtractionUnavailable, err)
	}

	type candidate struct {
		path string
		mod  int64
	}
	var files []candidate
	for _, m := range matches {
		ext := strings.ToLower(filepath.Ext(m))
		if ext != ".xlsx" && ext != ".csv" {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, candidate{path: m, mod: info.ModTime().UnixNano()})
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: no %s export for %s in %s", shared.ErrExtractionUnavailable, category.Key, account.Name, filepath.Dir(pattern))
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].mod != files[j].mod {
			return files[i].mod > files[j].mod
		}
		return files[i].path > files[j].path
	})
	return files[0].path, nil
}

// Extract implements the tracker's extractor.
func (d *DirExtractor) Extract(ctx context.Context, account shared.AccountConfig, category shared.CategoryConfig) (*models.Export, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := d.Locate(account, category)
	if err != nil {
		return nil, err
	}

	items, err := ReadFile(path, d.schema)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("read export", "account", account.Name, "category", category.Key, "file", path, "items", len(items))
	return &models.Export{Account: account.Name, Category: category.Key, Source: path, Items: items}, nil
}
