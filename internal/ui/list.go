package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/tasks"
)

var (
	_ list.Item = reviewerItem{}
	_ list.Item = trackedItem{}
)

// reviewerItem wraps [tasks.ReviewerLoad] to implement [list.Item].
type reviewerItem struct {
	load tasks.ReviewerLoad
}

func (i reviewerItem) FilterValue() string { return i.load.Reviewer }
func (i reviewerItem) Title() string       { return i.load.Reviewer }
func (i reviewerItem) Description() string {
	return fmt.Sprintf("%d open", i.load.Open)
}

// trackedItem wraps [models.TrackedItem] to implement [list.Item].
type trackedItem struct {
	item models.TrackedItem
	flag models.Flag
}

func (i trackedItem) FilterValue() string { return i.item.ItemID + " " + i.item.Name }
func (i trackedItem) Title() string {
	return flagStyle(i.flag).Render(fmt.Sprintf("%s  %s", i.item.ItemID, i.item.Name))
}
func (i trackedItem) Description() string {
	parts := []string{i.item.Accounts.String(), "added " + i.item.DateAdded}
	if i.item.Disappeared() {
		parts = append(parts, "gone "+i.item.DateDisappeared)
	}
	return strings.Join(parts, " • ")
}
