package models

import (
	"context"
	"strings"
)

// Export is the product list extracted for one (account, category) pair.
type Export struct {
	Account  string
	Category string
	Source   string // file the items were read from
	Items    []ExtractedItem
}

// Sheet is an in-memory copy of the tracking sheet plus the writes queued against it.
//
// Positions index [Sheet.Items]; rows are 1-based sheet row numbers. Items appended in memory have Row 0 until
// [Sheet.MarkAppended] assigns their rows.
type Sheet struct {
	Title  string
	Header []string
	Items  []TrackedItem

	appends []int
	cells   []CellUpdate
	bands   map[int]Flag
}

// NewSheet builds a sheet from a full grid read. Row 1 is the header; blank rows are skipped but keep their numbers.
func NewSheet(title string, rows [][]string) *Sheet {
	s := &Sheet{Title: title}
	if len(rows) == 0 {
		return s
	}
	s.Header = rows[0]
	for i, cells := range rows[1:] {
		if blankRow(cells) {
			continue
		}
		s.Items = append(s.Items, ItemFromCells(i+2, cells))
	}
	return s
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// LastRow returns the highest row number known to the sheet, counting the header.
func (s *Sheet) LastRow() int {
	last := 0
	if len(s.Header) > 0 {
		last = 1
	}
	for _, it := range s.Items {
		if it.Row > last {
			last = it.Row
		}
	}
	return last
}

// Append queues a new row and returns its position. Flags other than [FlagDefault] are painted after the append.
func (s *Sheet) Append(item TrackedItem, flag Flag) int {
	item.Row = 0
	s.Items = append(s.Items, item)
	pos := len(s.Items) - 1
	s.appends = append(s.appends, pos)
	if flag != FlagDefault {
		if s.bands == nil {
			s.bands = make(map[int]Flag)
		}
		s.bands[pos] = flag
	}
	return pos
}

// Set changes one field of the item at pos. Persisted rows also queue a cell update.
func (s *Sheet) Set(pos, col int, value string) {
	item := &s.Items[pos]
	switch col {
	case ColAccount:
		item.Accounts = ParseAccountLabel(value)
	case ColItemID:
		item.ItemID = value
	case ColName:
		item.Name = value
	case ColDateAdded:
		item.DateAdded = value
	case ColReviewer:
		item.Reviewer = value
	case ColResolutionMark:
		item.ResolutionMark = value
	case ColDateDisappeared:
		item.DateDisappeared = value
	case ColResolutionDays:
		item.ResolutionDays = value
	default:
		return
	}
	if item.Row > 0 {
		s.cells = append(s.cells, CellUpdate{Row: item.Row, Col: col, Value: value})
	}
}

// PendingRows returns the cells of every queued append, in order.
func (s *Sheet) PendingRows() [][]string {
	rows := make([][]string, len(s.appends))
	for i, pos := range s.appends {
		rows[i] = s.Items[pos].Cells()
	}
	return rows
}

// PendingCells returns queued single-cell updates.
func (s *Sheet) PendingCells() []CellUpdate {
	out := make([]CellUpdate, len(s.cells))
	copy(out, s.cells)
	return out
}

// MarkAppended assigns rows to queued appends starting at firstRow and returns the bands to paint.
func (s *Sheet) MarkAppended(firstRow int) []RowBand {
	var bands []RowBand
	for i, pos := range s.appends {
		s.Items[pos].Row = firstRow + i
		if flag, ok := s.bands[pos]; ok {
			bands = append(bands, RowBand{Row: firstRow + i, Flag: flag})
		}
	}
	s.appends = nil
	s.bands = nil
	return bands
}

// ClearCells drops queued cell updates once written.
func (s *Sheet) ClearCells() {
	s.cells = nil
}

// Dirty reports whether any write is queued.
func (s *Sheet) Dirty() bool {
	return len(s.appends) > 0 || len(s.cells) > 0
}

// Store loads and persists [Sheet] snapshots.
type Store interface {
	Load(ctx context.Context) (*Sheet, error)
	Commit(ctx context.Context, sheet *Sheet) error
}
