package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	stagingDir = "staging"
	reportsDir = "reports"
)

// LocalStore keeps attachments on the local filesystem. Staged uploads live in
// <base>/staging and committed files in <base>/reports.
type LocalStore struct {
	BaseDir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	for _, dir := range []string{stagingDir, reportsDir} {
		if err := os.MkdirAll(filepath.Join(baseDir, dir), 0o755); err != nil {
			return nil, err
		}
	}
	return &LocalStore{BaseDir: baseDir}, nil
}

func (s *LocalStore) Stage(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	key := uuid.New().String() + ".tmp"

	f, err := os.Create(filepath.Join(s.BaseDir, stagingDir, key))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return key, nil
}

func (s *LocalStore) Commit(ctx context.Context, stagingKey, storedName string) error {
	return os.Rename(
		filepath.Join(s.BaseDir, stagingDir, stagingKey),
		filepath.Join(s.BaseDir, reportsDir, storedName),
	)
}

func (s *LocalStore) Discard(ctx context.Context, stagingKey string) error {
	return os.Remove(filepath.Join(s.BaseDir, stagingDir, stagingKey))
}

func (s *LocalStore) PermanentPath(storedName string) string {
	return filepath.Join(s.BaseDir, reportsDir, storedName)
}
