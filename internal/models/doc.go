// Package models defines the entities shared by the tracker, its stores and its collaborators.
//
// The package contains three groups of types:
//
// 1. Sheet rows
//   - [TrackedItem] : one row of the tracking sheet, parsed with [ItemFromCells] and written with [TrackedItem.Cells]
//   - [AccountLabel] : ordered set of accounts behind the "Sulpak+ARG" label cell
//   - [Flag] : highlight classification with its background [Color]
//
// 2. Collaborator data
//   - [ExtractedItem] : one product read from a portal export
//   - [CategoryStats] : totals of one (account, category) export for the daily report
//
// 3. Persistence
//   - [Grid] : the tracking store boundary (Google Sheets, SQLite or memory)
//   - [RunRecord] : journal entry of one daily run, stored through [Repository]
package models
