package backfill

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckpointSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "backfill.json")
	s := NewCheckpointStore(path)

	cp := FromReport(Report{RunID: "run-1", LastID: 420, Read: 400, Written: 398})
	if err := s.Save(cp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil checkpoint")
	}
	if got.Version != CheckpointVersion {
		t.Errorf("Version = %d, want %d", got.Version, CheckpointVersion)
	}
	if got.LastID != 420 || got.RunID != "run-1" || got.Written != 398 {
		t.Errorf("checkpoint = %+v", got)
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt should be set")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind")
	}
}

func TestCheckpointLoadMissing(t *testing.T) {
	s := NewCheckpointStore(filepath.Join(t.TempDir(), "none.json"))
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("Load = %+v, want nil", got)
	}
}

func TestCheckpointLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewCheckpointStore(path).Load(); err == nil {
		t.Error("expected error for corrupt checkpoint")
	}
}

func TestCheckpointClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.json")
	s := NewCheckpointStore(path)

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear without file: %v", err)
	}
	if err := s.Save(&Checkpoint{LastID: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := s.Load(); got != nil {
		t.Errorf("checkpoint still present: %+v", got)
	}
}
