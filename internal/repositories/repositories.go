// package repositories provides persistence layer implementations for the tracking store and the run journal.
package repositories

import (
	"database/sql"
	"fmt"
	"strings"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers provide human-readable ordering for entities (e.g., run #42).
func NextSequence(db *sql.DB, table string) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// lastFilledRow returns the 1-based number of the last non-blank row, 0 for an empty grid.
func lastFilledRow(rows [][]string) int {
	for i := len(rows) - 1; i >= 0; i-- {
		if !blankRow(rows[i]) {
			return i + 1
		}
	}
	return 0
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// setCell writes value at 1-based (row, col), growing rows and cells as needed.
func setCell(rows [][]string, row, col int, value string) [][]string {
	for len(rows) < row {
		rows = append(rows, nil)
	}
	cells := rows[row-1]
	for len(cells) < col {
		cells = append(cells, "")
	}
	cells[col-1] = value
	rows[row-1] = cells
	return rows
}

// insertCell shifts cells right from 1-based col. Rows too short to reach col are left alone.
func insertCell(cells []string, col int) []string {
	if len(cells) < col-1 {
		return cells
	}
	out := make([]string, 0, len(cells)+1)
	out = append(out, cells[:col-1]...)
	out = append(out, "")
	return append(out, cells[col-1:]...)
}
