// Package dataset accumulates per-frame landmark vectors into tables and persists them as .npy files.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/ayusman/signprep/internal/detector"
)

// Ext is the file extension of persisted tables.
const Ext = ".npy"

// ErrEmptyTable is returned by Finalize when no row was ever appended.
var ErrEmptyTable = errors.New("landmark table is empty")

// Table is an ordered sequence of landmark vectors, one row per processed frame.
// The zero value is an empty table ready for use.
type Table struct {
	data []float64
	rows int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Append adds v as the last row.
func (t *Table) Append(v detector.Vector) {
	t.data = append(t.data, v[:]...)
	t.rows++
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Empty reports whether no row has been appended.
func (t *Table) Empty() bool {
	return t.rows == 0
}

// Row returns a copy of row i.
func (t *Table) Row(i int) detector.Vector {
	var v detector.Vector
	copy(v[:], t.data[i*detector.VectorLen:(i+1)*detector.VectorLen])
	return v
}

// Dense returns the table as a rows x 169 matrix sharing the table's storage.
// It returns nil for an empty table.
func (t *Table) Dense() *mat.Dense {
	if t.Empty() {
		return nil
	}
	return mat.NewDense(t.rows, detector.VectorLen, t.data)
}

// Finalize writes the table to path as a float64 .npy array of shape (rows, 169),
// creating parent directories as needed. An empty path discards the table.
// An empty table is never written; Finalize returns ErrEmptyTable instead.
func (t *Table) Finalize(path string) error {
	if path == "" {
		return nil
	}
	if t.Empty() {
		return ErrEmptyTable
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create table directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := npyio.Write(f, t.Dense()); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}

// Load reads a table written by Finalize.
func Load(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m mat.Dense
	if err := npyio.Read(f, &m); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if _, c := m.Dims(); c != detector.VectorLen {
		return nil, fmt.Errorf("read %s: %d columns, want %d", path, c, detector.VectorLen)
	}

	return &m, nil
}
