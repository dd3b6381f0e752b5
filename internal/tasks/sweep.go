package tasks

import (
	"strings"

	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/shared"
)

// Sweep stamps today's date on rows of account whose item is no longer in currentIDs.
//
// In exact mode only rows labelled with the account alone are considered, so merged rows such as "Sulpak+ARG"
// are left alone; member mode also sweeps rows where the account is one of several labels. A date already set is
// never overwritten. Returns the number of rows newly stamped.
func (t *Tracker) Sweep(sheet *models.Sheet, currentIDs []string, account string) int {
	account = strings.TrimSpace(account)
	current := make(map[string]struct{}, len(currentIDs))
	for _, id := range currentIDs {
		current[strings.TrimSpace(id)] = struct{}{}
	}

	today := t.today()
	marked := 0
	for pos, it := range sheet.Items {
		if !t.sweeps(it.Accounts, account) || it.Disappeared() || it.ItemID == "" {
			continue
		}
		if _, ok := current[it.ItemID]; ok {
			continue
		}
		sheet.Set(pos, models.ColDateDisappeared, today)
		marked++
	}

	if marked > 0 {
		t.logger.Info("marked disappeared items", "account", account, "count", marked)
	}
	return marked
}

func (t *Tracker) sweeps(label models.AccountLabel, account string) bool {
	if t.sweepMode == shared.SweepMember {
		return label.Has(account)
	}
	return label.Is(account)
}

// ItemIDs collects the ids of extracted items.
func ItemIDs(items []models.ExtractedItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
