// Package artifacts collects run outputs (setup logs, manifest
// snapshots, the node address file) into a local directory and
// optionally mirrors them to S3-compatible object storage.
package artifacts

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store is the local artifacts directory for one run.
type Store struct {
	dir string
}

// NewStore creates the artifacts directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifacts directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes an artifact under the store and returns its path. The
// name may contain slashes for grouping.
func (s *Store) Save(name string, data []byte) (string, error) {
	path := filepath.Join(s.dir, name)
	if dir := filepath.Dir(path); dir != s.dir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	return path, nil
}

// CopyFile copies an existing file into the store under name.
func (s *Store) CopyFile(name, srcPath string) (string, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s for collection: %w", srcPath, err)
	}
	return s.Save(name, data)
}

// Files lists every artifact in the store as a path relative to the
// store directory, using forward slashes so the names double as object
// storage keys.
func (s *Store) Files() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts in %s: %w", s.dir, err)
	}
	return files, nil
}

// Read returns the contents of a stored artifact.
func (s *Store) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	return data, nil
}
