// Package repositories implements the tracking store and the SQLite run journal.
//
// Key Implementations:
//   - [TrackingStore] : loads and commits [models.Sheet] snapshots against any [models.Grid], and migrates
//     sheets that predate the account column
//   - [MemoryGrid] : in-memory grid for dry runs and tests
//   - [SQLiteGrid] : local grid stored in the grid_rows table, one worksheet per title
//   - [RunRepository] : journal of daily runs with sequence numbers
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
