package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Run is one batch invocation over a manifest.
type Run struct {
	ID           string
	Manifest     string
	AugmentCount int
	Entries      int
	Tables       int
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// RunRepository provides operations on batch runs.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the run repository for this store.
func (s *Store) Runs() *RunRepository {
	return &RunRepository{db: s.db}
}

// Create inserts a new run, assigning its ID and start time.
func (r *RunRepository) Create(manifest string, augmentCount int) (*Run, error) {
	run := &Run{
		ID:           uuid.NewString(),
		Manifest:     manifest,
		AugmentCount: augmentCount,
		StartedAt:    time.Now(),
	}

	_, err := r.db.Exec(
		`INSERT INTO runs (id, manifest, augment_count, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Manifest, run.AugmentCount, run.StartedAt,
	)
	if err != nil {
		return nil, err
	}

	return run, nil
}

// Finish records the end of a run with its totals.
func (r *RunRepository) Finish(id string, entries, tables int) error {
	result, err := r.db.Exec(
		`UPDATE runs SET entries = ?, tables = ?, finished_at = ? WHERE id = ?`,
		entries, tables, time.Now(), id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*Run, error) {
	run := &Run{}
	var finished sql.NullTime

	err := r.db.QueryRow(
		`SELECT id, manifest, augment_count, entries, tables, started_at, finished_at
		 FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.Manifest, &run.AugmentCount, &run.Entries, &run.Tables, &run.StartedAt, &finished)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return run, nil
}
