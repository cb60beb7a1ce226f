// Package export writes run backups and CSV extracts to the local filesystem.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const backupTimeLayout = "20060102_150405"

// Backup writes one raw collection payload per run into the backup directory,
// named after the collection time and source.
type Backup struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewBackup constructs a Backup writer rooted at dir.
func NewBackup(dir string, logger *zap.Logger) *Backup {
	return &Backup{
		dir:    dir,
		logger: logger.Named("backup"),
		now:    time.Now,
	}
}

// SaveRawBundle writes the payload as indented JSON and returns the file path.
// The directory is created on first use.
func (b *Backup) SaveRawBundle(payload any, source string) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("blockchair_snapshot_%s_%s.json", b.now().UTC().Format(backupTimeLayout), source)
	path := filepath.Join(b.dir, name)

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal backup payload: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write backup file: %w", err)
	}

	b.logger.Debug("raw bundle backed up", zap.String("path", path))
	return path, nil
}
