package store

import (
	"database/sql"
	"time"
)

// OriginalVariant marks a table extracted from the unaugmented video.
const OriginalVariant = -1

// LandmarkTable is a catalog row for one written .npy file.
type LandmarkTable struct {
	ID         int64
	RunID      string
	Gloss      string
	SourceFile string
	Variant    int
	Path       string
	Rows       int
	CreatedAt  time.Time
}

// TableRepository provides operations on catalogued landmark tables.
type TableRepository struct {
	db *sql.DB
}

// Tables returns the landmark table repository for this store.
func (s *Store) Tables() *TableRepository {
	return &TableRepository{db: s.db}
}

// Create inserts a landmark table and sets its ID.
func (r *TableRepository) Create(t *LandmarkTable) error {
	t.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO landmark_tables (run_id, gloss, source_file, variant, path, row_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Gloss, t.SourceFile, t.Variant, t.Path, t.Rows, t.CreatedAt,
	)
	if err != nil {
		return err
	}

	t.ID, err = result.LastInsertId()
	return err
}

// ListByRun returns the tables of a run in insertion order.
func (r *TableRepository) ListByRun(runID string) ([]*LandmarkTable, error) {
	return r.query(
		`SELECT id, run_id, gloss, source_file, variant, path, row_count, created_at
		 FROM landmark_tables WHERE run_id = ? ORDER BY id`,
		runID,
	)
}

// ListByGloss returns every table recorded for a gloss across runs.
func (r *TableRepository) ListByGloss(gloss string) ([]*LandmarkTable, error) {
	return r.query(
		`SELECT id, run_id, gloss, source_file, variant, path, row_count, created_at
		 FROM landmark_tables WHERE gloss = ? ORDER BY id`,
		gloss,
	)
}

// CountByGloss returns the number of tables per gloss for a run.
func (r *TableRepository) CountByGloss(runID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT gloss, COUNT(*) FROM landmark_tables WHERE run_id = ? GROUP BY gloss`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var gloss string
		var n int
		if err := rows.Scan(&gloss, &n); err != nil {
			return nil, err
		}
		counts[gloss] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *TableRepository) query(q string, args ...any) ([]*LandmarkTable, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []*LandmarkTable
	for rows.Next() {
		t := &LandmarkTable{}
		err := rows.Scan(&t.ID, &t.RunID, &t.Gloss, &t.SourceFile, &t.Variant, &t.Path, &t.Rows, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tables, nil
}
