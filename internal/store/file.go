package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dashboard-sync/internal/domain"
)

// SnapshotFileName is the backup file written under the data directory.
const SnapshotFileName = "latest_prices.json"

// FileWriter mirrors each snapshot to a JSON file. The file is a backup only;
// nothing reads it back.
type FileWriter struct {
	path string
}

func NewFileWriter(dataDir string) *FileWriter {
	return &FileWriter{path: filepath.Join(dataDir, SnapshotFileName)}
}

func (w *FileWriter) Path() string {
	return w.path
}

// SaveSnapshot overwrites the backup file. The write goes through a temp file
// in the same directory so a crash never leaves a truncated snapshot.
func (w *FileWriter) SaveSnapshot(_ context.Context, snap domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, SnapshotFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
