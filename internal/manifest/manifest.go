// Package manifest reads the corpus manifest: a CSV mapping video files to glosses.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column names the manifest must carry.
const (
	ColumnGloss = "gloss"
	ColumnFile  = "file"
)

var (
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("manifest column missing")
	// ErrInvalidGloss is returned for a gloss that cannot name a single directory.
	ErrInvalidGloss = errors.New("invalid gloss")
)

// Entry is one labeled video of the corpus.
type Entry struct {
	Index int
	Gloss string
	File  string
}

// Load reads the manifest at path.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	entries, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Read parses a manifest with a header row. The gloss and file columns are
// located by name. When the first header cell is empty the first column is
// taken as the row index; otherwise rows are numbered from 0.
func Read(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty manifest")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	glossCol, fileCol := -1, -1
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
		switch header[i] {
		case ColumnGloss:
			glossCol = i
		case ColumnFile:
			fileCol = i
		}
	}
	if glossCol < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnGloss)
	}
	if fileCol < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColumnFile)
	}
	hasIndex := header[0] == ""

	var entries []Entry
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		line, _ := cr.FieldPos(0)
		if glossCol >= len(rec) || fileCol >= len(rec) {
			return nil, fmt.Errorf("line %d: %d fields, want at least %d", line, len(rec), max(glossCol, fileCol)+1)
		}

		e := Entry{
			Index: row,
			Gloss: strings.TrimSpace(rec[glossCol]),
			File:  strings.TrimSpace(rec[fileCol]),
		}
		if hasIndex {
			idx, err := strconv.Atoi(strings.TrimSpace(rec[0]))
			if err != nil {
				return nil, fmt.Errorf("line %d: index %q: %w", line, rec[0], err)
			}
			e.Index = idx
		}
		if e.Gloss == "" || e.File == "" {
			return nil, fmt.Errorf("line %d: empty %s or %s", line, ColumnGloss, ColumnFile)
		}
		if !validGloss(e.Gloss) {
			return nil, fmt.Errorf("line %d: %w %q", line, ErrInvalidGloss, e.Gloss)
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// validGloss reports whether gloss is a plain directory name, so output
// tables stay under the output root.
func validGloss(gloss string) bool {
	if gloss == "." || gloss == ".." {
		return false
	}
	return !strings.ContainsAny(gloss, `/\`)
}

// Glosses returns the distinct labels in first-seen order.
func Glosses(entries []Entry) []string {
	seen := make(map[string]bool)
	var glosses []string
	for _, e := range entries {
		if !seen[e.Gloss] {
			seen[e.Gloss] = true
			glosses = append(glosses, e.Gloss)
		}
	}
	return glosses
}
