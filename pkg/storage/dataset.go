package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".gif":  {},
}

// DatasetStore keeps enrollment images on disk, one folder per student.
// Folder name is the student identifier; files inside are raw uploads.
type DatasetStore struct {
	baseDir string
}

// NewDatasetStore ensures the dataset root exists and returns a handle.
func NewDatasetStore(baseDir string) (*DatasetStore, error) {
	if baseDir == "" {
		baseDir = "./dataset"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create dataset directory: %w", err)
	}
	return &DatasetStore{baseDir: baseDir}, nil
}

// Dir returns the dataset root path.
func (s *DatasetStore) Dir() string {
	return s.baseDir
}

// EnsureStudent creates the per-student folder if missing.
func (s *DatasetStore) EnsureStudent(studentID string) error {
	if err := os.MkdirAll(s.studentDir(studentID), 0o755); err != nil {
		return fmt.Errorf("create student dataset folder: %w", err)
	}
	return nil
}

// SaveImage appends one raw image to a student's folder and returns the
// stored file name. Names embed the upload instant so the set stays ordered.
func (s *DatasetStore) SaveImage(studentID string, seq int, data []byte) (string, error) {
	if err := s.EnsureStudent(studentID); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d_%d.jpg", time.Now().UTC().UnixNano(), seq)
	path := filepath.Join(s.studentDir(studentID), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write enrollment image: %w", err)
	}
	return name, nil
}

// StudentIDs lists the student folders present under the dataset root.
func (s *DatasetStore) StudentIDs() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dataset directory: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ImagePaths returns the image files stored for one student, oldest first.
func (s *DatasetStore) ImagePaths(studentID string) ([]string, error) {
	dir := s.studentDir(studentID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read student dataset folder: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := imageExtensions[ext]; !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// CountImages reports how many enrollment images a student has.
func (s *DatasetStore) CountImages(studentID string) (int, error) {
	paths, err := s.ImagePaths(studentID)
	if err != nil {
		return 0, err
	}
	return len(paths), nil
}

// RemoveStudent deletes a student's folder and everything in it.
func (s *DatasetStore) RemoveStudent(studentID string) error {
	if err := os.RemoveAll(s.studentDir(studentID)); err != nil {
		return fmt.Errorf("remove student dataset folder: %w", err)
	}
	return nil
}

func (s *DatasetStore) studentDir(studentID string) string {
	return filepath.Join(s.baseDir, studentID)
}
