package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/merchtrack/internal/models"
	"github.com/desertthunder/merchtrack/internal/shared"
)

// RunRepository implements models.Repository[*models.RunRecord] for the run journal.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.RunRecord] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run with the next sequence number. A missing id is generated.
func (r *RunRepository) Create(run *models.RunRecord) error {
	if run.RunID == "" {
		run.RunID = shared.GenerateID()
	}
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	run.Sequence = sequence

	query := `
		INSERT INTO runs (id, sequence, worksheet, started_at, finished_at, added, merged, disappeared, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.RunID,
		run.Sequence,
		run.Worksheet,
		run.StartedAt,
		finishedAt(run),
		run.Added,
		run.Merged,
		run.Disappeared,
		run.Failures,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

func finishedAt(run *models.RunRecord) any {
	if run.FinishedAt == nil {
		return nil
	}
	return *run.FinishedAt
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.RunRecord, error) {
	query := `
		SELECT id, sequence, worksheet, started_at, finished_at, added, merged, disappeared, failures
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	return run, err
}

// Update stores the end time and totals of a run
func (r *RunRepository) Update(run *models.RunRecord) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE runs
		SET finished_at = ?, added = ?, merged = ?, disappeared = ?, failures = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, finishedAt(run), run.Added, run.Merged, run.Disappeared, run.Failures, run.RunID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", run.RunID)
	}

	return nil
}

// Delete removes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// List retrieves runs newest first.
//
// Criteria: "worksheet" (string) filters by worksheet, "limit" (int) caps the result.
func (r *RunRepository) List(criteria map[string]any) ([]*models.RunRecord, error) {
	query := `
		SELECT id, sequence, worksheet, started_at, finished_at, added, merged, disappeared, failures
		FROM runs
		WHERE 1 = 1
	`

	args := []any{}

	if worksheet, ok := criteria["worksheet"].(string); ok && worksheet != "" {
		query += " AND worksheet = ?"
		args = append(args, worksheet)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.RunRecord, error) {
	var (
		run      models.RunRecord
		finished sql.NullTime
	)

	err := row.Scan(
		&run.RunID,
		&run.Sequence,
		&run.Worksheet,
		&run.StartedAt,
		&finished,
		&run.Added,
		&run.Merged,
		&run.Disappeared,
		&run.Failures,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}
