// Package ui implements the reviewer dashboard using bubbletea's Elm architecture.
//
// The dashboard walks the tracking sheet of the current worksheet:
//  1. [ReviewerListView] : every roster member with their open item count
//  2. [ItemListView] : the open items of the selected reviewer
//  3. [ConfirmView] : confirm a sync run from the dashboard
//  4. [RunView] : monitor progress updates of the run
//  5. [ResultView] : per-account outcome, then back to refreshed loads
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg
// union type. Progress updates flow through a channel from [tasks.DailyRun], so the run never blocks rendering.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, y/n, r, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
