// Package persist reads and writes the pinned-entry collections as JSON
// files. Writes are atomic (temp file then rename) so a crash mid-write never
// leaves a partially written file behind. Loads treat absent or corrupt files
// as empty collections; the in-memory state is authoritative for the session.
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/marmotbay/clippin/internal/types"
)

// On-disk file names inside the data directory.
const (
	TextFile  = "pinned.json"
	ImageFile = "pinned-images.json"
)

// Legacy location: a single JSON blob in the bbolt database, written by
// versions that predate the JSON files. Read once, then deleted.
const (
	legacyBucket = "clipboard"
	legacyKey    = "pinned"
)

// Adapter persists pinned entries beneath dir. db is the key-value store
// consulted for the one-time legacy migration; it may be nil.
type Adapter struct {
	dir    string
	db     *bbolt.DB
	logger *zap.Logger
}

// New returns an adapter rooted at dir.
func New(dir string, db *bbolt.DB, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{dir: dir, db: db, logger: logger}
}

// LoadPinnedTexts returns the persisted pinned text entries, newest first.
// If the primary file is absent, the legacy key-value blob is migrated first.
// Corrupt data yields an empty collection, never an error.
func (a *Adapter) LoadPinnedTexts() []*types.TextEntry {
	path := filepath.Join(a.dir, TextFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if migrated := a.migrateLegacy(); migrated != nil {
			return migrated
		}
		return nil
	}
	if err != nil {
		a.logger.Warn("Failed to read pinned file", zap.String("path", path), zap.Error(err))
		return nil
	}

	var entries []*types.TextEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		a.logger.Warn("Corrupt pinned file, starting empty", zap.String("path", path), zap.Error(err))
		return nil
	}
	for _, e := range entries {
		e.Pinned = true
	}
	return entries
}

// LoadPinnedImages returns the persisted pinned image entries, newest first.
func (a *Adapter) LoadPinnedImages() []*types.ImageEntry {
	path := filepath.Join(a.dir, ImageFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			a.logger.Warn("Failed to read pinned images file", zap.String("path", path), zap.Error(err))
		}
		return nil
	}

	var entries []*types.ImageEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		a.logger.Warn("Corrupt pinned images file, starting empty", zap.String("path", path), zap.Error(err))
		return nil
	}
	for _, e := range entries {
		e.Pinned = true
	}
	return entries
}

// SavePinnedTexts writes the full pinned text collection as one document.
func (a *Adapter) SavePinnedTexts(entries []*types.TextEntry) error {
	return a.writeAtomic(TextFile, entries)
}

// SavePinnedImages writes the full pinned image collection as one document.
func (a *Adapter) SavePinnedImages(entries []*types.ImageEntry) error {
	return a.writeAtomic(ImageFile, entries)
}

// writeAtomic marshals v and replaces name under the data directory via a
// temp file and rename, so readers never observe a torn write.
func (a *Adapter) writeAtomic(name string, v any) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(a.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	target := filepath.Join(a.dir, name)
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// migrateLegacy decodes the old single-blob pinned set from bbolt, persists
// it to the JSON file and deletes the blob. Every decoded entry is treated as
// pinned. Returns nil when there is nothing to migrate.
func (a *Adapter) migrateLegacy() []*types.TextEntry {
	if a.db == nil {
		return nil
	}

	var raw []byte
	err := a.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(legacyBucket))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(legacyKey)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil
	}

	var entries []*types.TextEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		a.logger.Warn("Corrupt legacy pinned blob, ignoring", zap.Error(err))
		return nil
	}
	for _, e := range entries {
		e.Pinned = true
	}

	if err := a.SavePinnedTexts(entries); err != nil {
		// Keep the legacy blob so the migration retries on the next start.
		a.logger.Warn("Failed to persist migrated pinned entries", zap.Error(err))
		return entries
	}

	err = a.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(legacyBucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(legacyKey))
	})
	if err != nil {
		a.logger.Warn("Failed to delete legacy pinned blob", zap.Error(err))
	}

	a.logger.Info("Migrated legacy pinned entries", zap.Int("count", len(entries)))
	return entries
}
