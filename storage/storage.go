package storage

import (
	"context"
	"io"
	"os"
)

// Store persists report attachments in two phases. Uploads are staged first;
// once the report and its file rows are committed to the database, staged
// files are moved to permanent storage. A failed submission discards its
// staged files, so no permanent file ever exists without a matching row.
type Store interface {
	// Stage writes an upload to temporary storage and returns its staging key.
	Stage(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
	// Commit moves a staged file to permanent storage under storedName.
	Commit(ctx context.Context, stagingKey, storedName string) error
	// Discard removes a staged file that will not be committed.
	Discard(ctx context.Context, stagingKey string) error
	// PermanentPath returns the path a committed file will live at. It is
	// deterministic so database rows can be written before Commit runs.
	PermanentPath(storedName string) string
}

// FromEnv selects the backend: Cloudflare R2 when STORAGE_BACKEND=r2,
// otherwise the local disk store under UPLOAD_DIR (default "uploads").
func FromEnv() (Store, error) {
	if os.Getenv("STORAGE_BACKEND") == "r2" {
		return NewR2Store(), nil
	}

	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return NewLocalStore(dir)
}
