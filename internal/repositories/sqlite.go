package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/tidwall/gjson"
)

// SQLiteGrid implements [models.Grid] over the grid_rows table, one worksheet per title.
//
// Each row is stored as a JSON array of cell strings. Row 1 is the header.
type SQLiteGrid struct {
	db    *sql.DB
	title string
}

// OpenSQLiteGrid registers the worksheet when it does not exist yet.
func OpenSQLiteGrid(ctx context.Context, db *sql.DB, title string) (*SQLiteGrid, error) {
	if title == "" {
		return nil, fmt.Errorf("worksheet title is required")
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO worksheets (title, created_at) VALUES (?, ?)`, title, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to register worksheet: %w", err)
	}
	return &SQLiteGrid{db: db, title: title}, nil
}

// Worksheets lists the titles stored in db, oldest first.
func Worksheets(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT title FROM worksheets ORDER BY created_at ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query worksheets: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan worksheet: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return titles, nil
}

func (g *SQLiteGrid) Title() string { return g.title }

func (g *SQLiteGrid) ReadAll(ctx context.Context) ([][]string, error) {
	return g.readRows(ctx, g.db)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// readRows returns every row up to the highest stored row number; gaps read as empty rows.
func (g *SQLiteGrid) readRows(ctx context.Context, q querier) ([][]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT row_num, cells FROM grid_rows WHERE worksheet = ? ORDER BY row_num ASC`, g.title)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var (
			num   int
			cells string
		)
		if err := rows.Scan(&num, &cells); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for len(out) < num-1 {
			out = append(out, nil)
		}
		out = append(out, decodeCells(cells))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func decodeCells(raw string) []string {
	arr := gjson.Parse(raw).Array()
	cells := make([]string, len(arr))
	for i, v := range arr {
		cells[i] = v.String()
	}
	return cells
}

func encodeCells(cells []string) (string, error) {
	if cells == nil {
		cells = []string{}
	}
	data, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("failed to encode cells: %w", err)
	}
	return string(data), nil
}

func (g *SQLiteGrid) writeRow(ctx context.Context, tx *sql.Tx, num int, cells []string) error {
	encoded, err := encodeCells(cells)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO grid_rows (worksheet, row_num, cells, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(worksheet, row_num) DO UPDATE SET cells = excluded.cells, updated_at = excluded.updated_at
	`, g.title, num, encoded, time.Now())
	if err != nil {
		return fmt.Errorf("failed to write row %d: %w", num, err)
	}
	return nil
}

func (g *SQLiteGrid) AppendRows(ctx context.Context, rows [][]string) (int, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := g.readRows(ctx, tx)
	if err != nil {
		return 0, err
	}
	first := lastFilledRow(existing) + 1
	for i, cells := range rows {
		if err := g.writeRow(ctx, tx, first+i, cells); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit append: %w", err)
	}
	return first, nil
}

func (g *SQLiteGrid) UpdateCells(ctx context.Context, updates []models.CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return g.rewrite(ctx, func(rows [][]string) ([][]string, map[int]bool, error) {
		touched := make(map[int]bool, len(updates))
		for _, u := range updates {
			if u.Row < 1 || u.Col < 1 {
				return nil, nil, fmt.Errorf("invalid cell %d:%d", u.Row, u.Col)
			}
			rows = setCell(rows, u.Row, u.Col, u.Value)
			touched[u.Row] = true
		}
		return rows, touched, nil
	})
}

func (g *SQLiteGrid) InsertColumn(ctx context.Context, col int) error {
	if col < 1 {
		return fmt.Errorf("invalid column %d", col)
	}
	return g.rewrite(ctx, func(rows [][]string) ([][]string, map[int]bool, error) {
		touched := make(map[int]bool, len(rows))
		for i, cells := range rows {
			if cells == nil {
				continue
			}
			rows[i] = insertCell(cells, col)
			touched[i+1] = true
		}
		return rows, touched, nil
	})
}

// rewrite loads the grid in a transaction, applies fn and writes back the rows it touched.
func (g *SQLiteGrid) rewrite(ctx context.Context, fn func([][]string) ([][]string, map[int]bool, error)) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := g.readRows(ctx, tx)
	if err != nil {
		return err
	}
	rows, touched, err := fn(rows)
	if err != nil {
		return err
	}
	for num := range touched {
		if err := g.writeRow(ctx, tx, num, rows[num-1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (g *SQLiteGrid) HighlightRows(ctx context.Context, bands []models.RowBand) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, b := range bands {
		_, err := tx.ExecContext(ctx, `UPDATE grid_rows SET band = ? WHERE worksheet = ? AND row_num = ?`,
			b.Flag.String(), g.title, b.Row)
		if err != nil {
			return fmt.Errorf("failed to paint row %d: %w", b.Row, err)
		}
	}
	return tx.Commit()
}

// Band returns the flag name painted on row, "" when unstyled.
func (g *SQLiteGrid) Band(ctx context.Context, row int) (string, error) {
	var band string
	err := g.db.QueryRowContext(ctx, `SELECT band FROM grid_rows WHERE worksheet = ? AND row_num = ?`, g.title, row).Scan(&band)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read band: %w", err)
	}
	return band, nil
}
