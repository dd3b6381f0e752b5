package tasks

import (
	"strconv"
	"strings"

	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/shared"
)

// DeriveResult counts the outcome of recomputing the resolution column.
type DeriveResult struct {
	Updated      int
	Inconsistent int
	Unparseable  int
}

// ResolutionDays computes the derived resolution cell for one item:
//
//   - resolution mark set but no disappearance date: [models.InconsistentMark]
//   - disappearance date set: whole days from date added to date disappeared, negative when out of order
//   - otherwise blank
//
// ok is false when a date needed for the count cannot be parsed; the cell is then blank.
func ResolutionDays(item models.TrackedItem) (value string, ok bool) {
	gone := strings.TrimSpace(item.DateDisappeared)

	if item.Resolved() && gone == "" {
		return models.InconsistentMark, true
	}
	if gone == "" {
		return "", true
	}

	added, err := shared.ParseDate(item.DateAdded)
	if err != nil {
		return "", false
	}
	disappeared, err := shared.ParseDate(gone)
	if err != nil {
		return "", false
	}
	return strconv.Itoa(shared.DaysBetween(added, disappeared)), true
}

// DeriveResolution recomputes the resolution column of every row and queues only the cells that change.
func (t *Tracker) DeriveResolution(sheet *models.Sheet) DeriveResult {
	var res DeriveResult
	for pos, it := range sheet.Items {
		if it.ItemID == "" {
			continue
		}
		value, ok := ResolutionDays(it)
		if !ok {
			res.Unparseable++
			t.logger.Warn("cannot compute resolution days", "row", it.Row, "item", it.ItemID,
				"added", it.DateAdded, "disappeared", it.DateDisappeared)
		}
		if value == models.InconsistentMark {
			res.Inconsistent++
		}
		if value != it.ResolutionDays {
			sheet.Set(pos, models.ColResolutionDays, value)
			res.Updated++
		}
	}
	return res
}
