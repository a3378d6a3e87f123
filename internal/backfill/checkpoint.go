package backfill

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CheckpointVersion is the current checkpoint file format version.
const CheckpointVersion = 1

// Checkpoint records how far a backfill got so a later run can resume.
type Checkpoint struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	RunID   string    `json:"run_id"`

	// LastID is the highest device message ID fully processed.
	LastID int64 `json:"last_id"`

	Read    int `json:"read"`
	Written int `json:"written"`
}

// CheckpointStore handles checkpoint persistence in a JSON file.
type CheckpointStore struct {
	mu   sync.Mutex
	path string
}

// NewCheckpointStore creates a store for the given file path.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Save writes the checkpoint, creating the directory if needed.
func (s *CheckpointStore) Save(cp *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	cp.Version = CheckpointVersion
	if cp.SavedAt.IsZero() {
		cp.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}

	// Write then rename so a crash never leaves a truncated file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the checkpoint. Returns nil, nil if none exists.
func (s *CheckpointStore) Load() (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cp := &Checkpoint{}
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// Clear removes the checkpoint file.
func (s *CheckpointStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// FromReport builds a checkpoint from a run report.
func FromReport(r Report) *Checkpoint {
	return &Checkpoint{
		RunID:   r.RunID,
		LastID:  r.LastID,
		Read:    r.Read,
		Written: r.Written,
	}
}
