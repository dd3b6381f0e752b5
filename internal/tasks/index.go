package tasks

import "github.com/desertthunder/merchtrack/internal/models"

// Location points at the row that owns an item id in the global namespace.
type Location struct {
	Position int
	Label    models.AccountLabel
}

type presence struct {
	account string
	itemID  string
}

// Index answers the two dedup questions of ingestion: is (account, item) already tracked, and which row owns an
// item id regardless of account. Ids are global across accounts; the first row seen for an id owns it.
type Index struct {
	present map[presence]struct{}
	owners  map[string]Location
}

// BuildIndex scans items once. Rows without an item id are ignored.
func BuildIndex(items []models.TrackedItem) *Index {
	x := &Index{
		present: make(map[presence]struct{}, len(items)),
		owners:  make(map[string]Location, len(items)),
	}
	for pos, it := range items {
		x.Record(pos, it)
	}
	return x
}

// Record registers the row at pos, for example after it was appended or merged.
func (x *Index) Record(pos int, item models.TrackedItem) {
	if item.ItemID == "" {
		return
	}
	for _, name := range item.Accounts.Names() {
		x.present[presence{account: name, itemID: item.ItemID}] = struct{}{}
	}
	if loc, ok := x.owners[item.ItemID]; !ok || loc.Position == pos {
		x.owners[item.ItemID] = Location{Position: pos, Label: item.Accounts}
	}
}

// Present reports whether some row with itemID lists account among its labels.
func (x *Index) Present(account, itemID string) bool {
	_, ok := x.present[presence{account: account, itemID: itemID}]
	return ok
}

// Locate returns the owning row of itemID.
func (x *Index) Locate(itemID string) (Location, bool) {
	loc, ok := x.owners[itemID]
	return loc, ok
}

// Size returns the number of distinct item ids.
func (x *Index) Size() int {
	return len(x.owners)
}
