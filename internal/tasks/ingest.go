package tasks

import (
	"strings"

	"github.com/desertthunder/merchtrack/internal/models"
)

// IngestResult counts what ingestion did with one account's items.
type IngestResult struct {
	Added   int
	Merged  int
	Skipped int
}

// Duplicates returns the merged-or-skipped total.
func (r IngestResult) Duplicates() int {
	return r.Merged + r.Skipped
}

// Ingest folds the account's current items into the sheet, in order:
//
//  1. an item already tracked for this account is skipped;
//  2. an item tracked under other accounts gets this account added to its label;
//  3. anything else becomes a new row with the least loaded reviewer, its flag and today's date.
//
// New rows are queued as one append. Re-running with the same items changes nothing.
func (t *Tracker) Ingest(sheet *models.Sheet, items []models.ExtractedItem, account string) IngestResult {
	account = strings.TrimSpace(account)
	idx := BuildIndex(sheet.Items)
	loads := NewLoads(t.roster, sheet.Items)
	today := t.today()
	logger := t.logger.With("account", account)

	var res IngestResult
	for _, ex := range items {
		id := strings.TrimSpace(ex.ID)
		if id == "" {
			continue
		}

		if idx.Present(account, id) {
			res.Skipped++
			continue
		}

		if loc, ok := idx.Locate(id); ok {
			label := sheet.Items[loc.Position].Accounts.Add(account)
			sheet.Set(loc.Position, models.ColAccount, label.String())
			idx.Record(loc.Position, sheet.Items[loc.Position])
			res.Merged++
			logger.Debug("merged account into existing row", "item", id, "label", label.String())
			continue
		}

		flag := t.classifier.Classify(ex.Name, id)
		item := models.TrackedItem{
			Accounts:  models.NewAccountLabel(account),
			ItemID:    id,
			Name:      strings.TrimSpace(ex.Name),
			DateAdded: today,
			Reviewer:  t.balancer.Select(loads),
		}
		pos := sheet.Append(item, flag)
		idx.Record(pos, sheet.Items[pos])
		res.Added++
		logger.Debug("queued new row", "item", id, "reviewer", item.Reviewer, "flag", flag)
	}

	return res
}
