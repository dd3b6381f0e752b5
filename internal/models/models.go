// package models defines the data model of the merchant task tracker
package models

import (
	"context"
	"strings"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Column positions of the tracking sheet, 1-based as in a spreadsheet.
const (
	ColAccount = iota + 1
	ColItemID
	ColName
	ColDateAdded
	ColReviewer
	ColResolutionMark
	ColDateDisappeared
	ColResolutionDays

	ColumnCount = ColResolutionDays
)

// Header captions of the tracking sheet, in column order.
const (
	HeaderAccount         = "Кабинет"
	HeaderItemID          = "Артикул"
	HeaderName            = "Название товара"
	HeaderDateAdded       = "Дата добавления"
	HeaderReviewer        = "Менеджер"
	HeaderResolutionMark  = "Отметка менеджера"
	HeaderDateDisappeared = "Дата исчезновения"
	HeaderResolutionDays  = "Дней до решения"
)

// Header returns the full header row.
func Header() []string {
	return []string{
		HeaderAccount,
		HeaderItemID,
		HeaderName,
		HeaderDateAdded,
		HeaderReviewer,
		HeaderResolutionMark,
		HeaderDateDisappeared,
		HeaderResolutionDays,
	}
}

// InconsistentMark is written to the resolution column when a reviewer marked an item that never disappeared.
const InconsistentMark = "INCONSISTENT"

// TrackedItem is one data row of the tracking sheet.
//
// Date fields keep the cell text as typed; parsing happens where a date is needed.
type TrackedItem struct {
	Row             int // 1-based sheet row, 0 until persisted
	Accounts        AccountLabel
	ItemID          string
	Name            string
	DateAdded       string
	Reviewer        string
	ResolutionMark  string
	DateDisappeared string
	ResolutionDays  string
}

// Resolved reports whether a reviewer has entered a resolution mark. Whitespace-only marks are blank.
func (t TrackedItem) Resolved() bool {
	return strings.TrimSpace(t.ResolutionMark) != ""
}

// Open reports whether the item still counts against its reviewer's load.
func (t TrackedItem) Open() bool {
	return !t.Resolved()
}

// Disappeared reports whether the sweep has stamped the item.
func (t TrackedItem) Disappeared() bool {
	return t.DateDisappeared != ""
}

// Cells renders the item as a sheet row in column order.
func (t TrackedItem) Cells() []string {
	return []string{
		t.Accounts.String(),
		t.ItemID,
		t.Name,
		t.DateAdded,
		t.Reviewer,
		t.ResolutionMark,
		t.DateDisappeared,
		t.ResolutionDays,
	}
}

// ItemFromCells parses a sheet row. Short rows are padded; extra cells are ignored.
func ItemFromCells(row int, cells []string) TrackedItem {
	cell := func(col int) string {
		if col-1 < len(cells) {
			return cells[col-1]
		}
		return ""
	}
	return TrackedItem{
		Row:             row,
		Accounts:        ParseAccountLabel(cell(ColAccount)),
		ItemID:          cell(ColItemID),
		Name:            cell(ColName),
		DateAdded:       cell(ColDateAdded),
		Reviewer:        cell(ColReviewer),
		ResolutionMark:  cell(ColResolutionMark),
		DateDisappeared: cell(ColDateDisappeared),
		ResolutionDays:  cell(ColResolutionDays),
	}
}

// Flag is the classification that drives row highlighting.
type Flag int

const (
	FlagDefault Flag = iota
	FlagBrand
	FlagNonStandard
)

func (f Flag) String() string {
	switch f {
	case FlagBrand:
		return "brand"
	case FlagNonStandard:
		return "nonstandard"
	default:
		return "default"
	}
}

// Color is an RGB background with components in [0,1], as the Sheets API expects.
type Color struct {
	Red   float64
	Green float64
	Blue  float64
}

// Background returns the highlight for a flag; ok is false for rows left unstyled.
func (f Flag) Background() (Color, bool) {
	switch f {
	case FlagBrand:
		return Color{Red: 1, Green: 0.8, Blue: 0.8}, true
	case FlagNonStandard:
		return Color{Red: 0.8, Green: 1, Blue: 0.8}, true
	default:
		return Color{}, false
	}
}

// ExtractedItem is one product row read from a portal export.
type ExtractedItem struct {
	ID   string
	Name string
}

// CategoryStats counts one (account, category) export.
type CategoryStats struct {
	Total    int
	Standard int // ids carrying the standard prefix
	Source   string
	Err      error
}

// CellUpdate targets one cell by 1-based row and column.
type CellUpdate struct {
	Row   int
	Col   int
	Value string
}

// RowBand applies a flag's highlight to one row.
type RowBand struct {
	Row  int
	Flag Flag
}

// Grid is the tracking store: a two-dimensional text grid with a header in row 1.
//
// Implementations batch what they can; the tracker calls each method at most a few times per account.
type Grid interface {
	// Title names the worksheet or table backing the grid.
	Title() string

	// ReadAll returns every row including the header.
	ReadAll(ctx context.Context) ([][]string, error)

	// AppendRows writes rows after the last non-empty row and returns the row number of the first one.
	AppendRows(ctx context.Context, rows [][]string) (int, error)

	// UpdateCells writes individual cells.
	UpdateCells(ctx context.Context, updates []CellUpdate) error

	// InsertColumn inserts an empty column before col, shifting existing cells right.
	InsertColumn(ctx context.Context, col int) error

	// HighlightRows paints row backgrounds by flag.
	HighlightRows(ctx context.Context, bands []RowBand) error
}
