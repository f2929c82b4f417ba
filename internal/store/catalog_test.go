package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestRunRepository(t *testing.T) {
	s := setupTestStore(t)

	run, err := s.Runs().Create("data/WLASL_100.csv", 2)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if run.ID == "" {
		t.Fatal("Create() should assign an ID")
	}

	got, err := s.Runs().GetByID(run.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Manifest != "data/WLASL_100.csv" || got.AugmentCount != 2 {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.FinishedAt != nil {
		t.Error("unfinished run should have no finish time")
	}

	if err := s.Runs().Finish(run.ID, 2, 6); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err = s.Runs().GetByID(run.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Entries != 2 || got.Tables != 6 || got.FinishedAt == nil {
		t.Errorf("finished run = %+v", got)
	}
}

func TestRunRepository_NotFound(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.Runs().GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if err := s.Runs().Finish("missing", 0, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish() error = %v, want ErrNotFound", err)
	}
}

func TestTableRepository(t *testing.T) {
	s := setupTestStore(t)

	run, err := s.Runs().Create("manifest.csv", 1)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tables := []*LandmarkTable{
		{RunID: run.ID, Gloss: "cat", SourceFile: "a.mp4", Variant: OriginalVariant, Path: "out/cat/a.npy", Rows: 40},
		{RunID: run.ID, Gloss: "cat", SourceFile: "a.mp4", Variant: 0, Path: "out/cat/a_0.npy", Rows: 31},
		{RunID: run.ID, Gloss: "dog", SourceFile: "b.mp4", Variant: OriginalVariant, Path: "out/dog/b.npy", Rows: 52},
	}
	for _, tbl := range tables {
		if err := s.Tables().Create(tbl); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if tbl.ID == 0 {
			t.Error("Create() should assign an ID")
		}
	}

	byRun, err := s.Tables().ListByRun(run.ID)
	if err != nil {
		t.Fatalf("ListByRun() error = %v", err)
	}
	if len(byRun) != 3 {
		t.Fatalf("ListByRun() = %d tables, want 3", len(byRun))
	}
	if byRun[1].Path != "out/cat/a_0.npy" || byRun[1].Variant != 0 || byRun[1].Rows != 31 {
		t.Errorf("ListByRun()[1] = %+v", byRun[1])
	}

	byGloss, err := s.Tables().ListByGloss("dog")
	if err != nil {
		t.Fatalf("ListByGloss() error = %v", err)
	}
	if len(byGloss) != 1 || byGloss[0].SourceFile != "b.mp4" {
		t.Errorf("ListByGloss() = %+v", byGloss)
	}

	counts, err := s.Tables().CountByGloss(run.ID)
	if err != nil {
		t.Fatalf("CountByGloss() error = %v", err)
	}
	if counts["cat"] != 2 || counts["dog"] != 1 {
		t.Errorf("CountByGloss() = %v", counts)
	}
}

func TestTableRepository_RequiresRun(t *testing.T) {
	s := setupTestStore(t)

	err := s.Tables().Create(&LandmarkTable{RunID: "nope", Gloss: "cat", SourceFile: "a.mp4", Variant: OriginalVariant, Path: "x", Rows: 1})
	if err == nil {
		t.Error("Create() should fail for an unknown run with foreign keys on")
	}
}

func TestTableRepository_CascadeDelete(t *testing.T) {
	s := setupTestStore(t)

	run, _ := s.Runs().Create("manifest.csv", 0)
	s.Tables().Create(&LandmarkTable{RunID: run.ID, Gloss: "cat", SourceFile: "a.mp4", Variant: OriginalVariant, Path: "x", Rows: 1})

	if _, err := s.DB().Exec(`DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		t.Fatalf("delete run: %v", err)
	}

	tables, err := s.Tables().ListByRun(run.ID)
	if err != nil {
		t.Fatalf("ListByRun() error = %v", err)
	}
	if len(tables) != 0 {
		t.Errorf("tables should be removed with their run, got %d", len(tables))
	}
}
