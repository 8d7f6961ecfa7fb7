package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrNotTrained is returned when no trained artifact exists yet.
var ErrNotTrained = errors.New("no trained model artifact")

const artifactVersion = 1

// Artifact is the persisted form of a trained model.
type Artifact struct {
	Version   int         `json:"version"`
	TrainedAt time.Time   `json:"trained_at"`
	Neighbors int         `json:"neighbors"`
	Labels    []string    `json:"labels"`
	Vectors   [][]float64 `json:"vectors"`
}

// Store persists model artifacts to a single file and serves the
// current model to readers. Save swaps the in-memory model atomically.
type Store struct {
	path string

	mu    sync.RWMutex
	model *Model
}

// NewStore creates a store for the given artifact path. A missing file
// is not an error; the model simply starts untrained.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil && !errors.Is(err, ErrNotTrained) {
		return nil, err
	}
	return s, nil
}

// Current returns the loaded model, or ErrNotTrained.
func (s *Store) Current() (*Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return nil, ErrNotTrained
	}
	return s.model, nil
}

// Trained reports whether a usable model is loaded.
func (s *Store) Trained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model != nil
}

// Save writes the model atomically via a temp file rename and then
// publishes it to readers.
func (s *Store) Save(m *Model) error {
	artifact := Artifact{
		Version:   artifactVersion,
		TrainedAt: time.Now().UTC(),
		Neighbors: m.Neighbors,
		Labels:    m.Labels,
		Vectors:   m.Vectors,
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("encode model artifact: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("publish model artifact: %w", err)
	}

	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotTrained
		}
		return fmt.Errorf("read model artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return fmt.Errorf("decode model artifact: %w", err)
	}
	if artifact.Version != artifactVersion {
		return fmt.Errorf("unsupported artifact version %d", artifact.Version)
	}
	model := NewModel(artifact.Neighbors)
	model.Labels = artifact.Labels
	model.Vectors = artifact.Vectors

	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
	return nil
}
