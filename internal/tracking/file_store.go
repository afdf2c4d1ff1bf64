// Package tracking implements the durable idempotency ledger: which
// (record, author) pairs have already triggered notifications.
package tracking

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jhornung97/ETPApprover/internal/domain"
	"github.com/jhornung97/ETPApprover/internal/ports"
)

// ledgerDocument is the on-disk layout: a single record holding the ordered
// entry sequence, read fully at start and rewritten as entries are appended.
type ledgerDocument struct {
	Processed []domain.TrackingEntry `json:"processed"`
}

// FileStore keeps the ledger in a JSON file. An absent or corrupt file is
// treated as an empty ledger rather than a fatal error: a missed dedup beats
// a crashed run.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries []domain.TrackingEntry
	loaded  bool
}

var _ ports.TrackingStore = (*FileStore)(nil)

// NewFileStore wires the ledger location; the file is read lazily.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// IsProcessed reports whether an entry exists matching exactly this record ID
// and author. Title and type do not participate in the match.
func (s *FileStore) IsProcessed(_ context.Context, recordID, author string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	for _, entry := range s.entries {
		if entry.Matches(recordID, author) {
			return true, nil
		}
	}
	return false, nil
}

// Record appends the entry and persists the ledger. It never deduplicates at
// write time; callers check IsProcessed first, and a duplicate append only
// produces a redundant entry, not a corrupt ledger.
func (s *FileStore) Record(_ context.Context, entry domain.TrackingEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	s.entries = append(s.entries, entry)
	return s.save()
}

// Entries returns the ledger in insertion (processing) order.
func (s *FileStore) Entries(_ context.Context) ([]domain.TrackingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	return append([]domain.TrackingEntry(nil), s.entries...), nil
}

// Remove deletes every entry with the given record ID and reports whether
// anything was removed.
func (s *FileStore) Remove(_ context.Context, recordID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded()

	kept := s.entries[:0]
	removed := false
	for _, entry := range s.entries {
		if entry.RecordID == recordID {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	s.entries = kept

	if !removed {
		return false, nil
	}
	return true, s.save()
}

// Clear empties the ledger.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.loaded = true
	return s.save()
}

func (s *FileStore) ensureLoaded() {
	if s.loaded {
		return
	}
	s.loaded = true

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) && s.logger != nil {
			s.logger.Warn("cannot read tracking ledger, starting empty", "path", s.path, "error", err)
		}
		return
	}

	var doc ledgerDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		if s.logger != nil {
			s.logger.Warn("corrupt tracking ledger, starting empty", "path", s.path, "error", err)
		}
		return
	}

	s.entries = doc.Processed
}

func (s *FileStore) save() error {
	raw, err := json.MarshalIndent(ledgerDocument{Processed: s.entries}, "", "  ")
	if err != nil {
		return err
	}

	// Write-then-rename so a crash mid-save never truncates the ledger.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// DefaultPath places the ledger next to the executable when no explicit path
// is configured, mirroring where operators expect to find it.
func DefaultPath(filename string) string {
	exe, err := os.Executable()
	if err != nil {
		return filename
	}
	return filepath.Join(filepath.Dir(exe), filename)
}
