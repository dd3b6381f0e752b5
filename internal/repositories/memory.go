package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/merchtrack/internal/models"
)

// MemoryGrid is a [models.Grid] held in memory. Dry runs copy the live sheet into one.
type MemoryGrid struct {
	mu    sync.Mutex
	title string
	rows  [][]string
	bands map[int]models.Flag
}

// NewMemoryGrid copies rows into a new grid.
func NewMemoryGrid(title string, rows [][]string) *MemoryGrid {
	return &MemoryGrid{title: title, rows: copyRows(rows), bands: make(map[int]models.Flag)}
}

// CopyGrid snapshots any grid into memory.
func CopyGrid(ctx context.Context, src models.Grid) (*MemoryGrid, error) {
	rows, err := src.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to copy %s: %w", src.Title(), err)
	}
	return NewMemoryGrid(src.Title(), rows), nil
}

func (g *MemoryGrid) Title() string { return g.title }

func (g *MemoryGrid) ReadAll(ctx context.Context) ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyRows(g.rows), nil
}

func (g *MemoryGrid) AppendRows(ctx context.Context, rows [][]string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	last := lastFilledRow(g.rows)
	g.rows = append(g.rows[:last], copyRows(rows)...)
	return last + 1, nil
}

func (g *MemoryGrid) UpdateCells(ctx context.Context, updates []models.CellUpdate) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, u := range updates {
		if u.Row < 1 || u.Col < 1 {
			return fmt.Errorf("invalid cell %d:%d", u.Row, u.Col)
		}
		g.rows = setCell(g.rows, u.Row, u.Col, u.Value)
	}
	return nil
}

func (g *MemoryGrid) InsertColumn(ctx context.Context, col int) error {
	if col < 1 {
		return fmt.Errorf("invalid column %d", col)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, cells := range g.rows {
		g.rows[i] = insertCell(cells, col)
	}
	return nil
}

func (g *MemoryGrid) HighlightRows(ctx context.Context, bands []models.RowBand) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, b := range bands {
		g.bands[b.Row] = b.Flag
	}
	return nil
}

// Band returns the flag painted on row.
func (g *MemoryGrid) Band(row int) models.Flag {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bands[row]
}
