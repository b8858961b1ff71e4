package media

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediarename/internal/logger"
)

// HistoryFileName is the per-directory history file. The leading dot
// hides it on Unix; on Windows the hidden attribute is set after every
// save.
const HistoryFileName = ".mediarename_history.json"

// maxHistoryEntries bounds the ledger per directory. Recording an
// entry beyond the limit evicts the oldest one.
const maxHistoryEntries = 10

// ErrNothingToUndo is returned by Undo when a directory has no history.
var ErrNothingToUndo = errors.New("nothing to undo")

// HistoryOperation is one recorded rename. Paths are stored relative to
// the directory the batch was run against, so the history survives the
// directory being moved as a whole.
type HistoryOperation struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Kind        Kind   `json:"kind"`
}

// HistoryEntry is one undo-able batch.
type HistoryEntry struct {
	Timestamp  string             `json:"timestamp"`
	Operations []HistoryOperation `json:"operations"`
}

// UndoResult summarises one undo attempt. An entry can succeed
// partially: failed operations are reported, the rest are still
// restored, and the entry is removed either way.
type UndoResult struct {
	// Restored is the number of files moved back to their source path.
	Restored int
	// Failures describes the operations that could not be reversed.
	Failures []string
}

// HistoryLedger persists executed batches per processed directory and
// supports reversal. It owns the history file exclusively; callers must
// not run two concurrent batches against the same directory.
type HistoryLedger struct{}

// NewHistoryLedger creates a HistoryLedger.
func NewHistoryLedger() *HistoryLedger {
	return &HistoryLedger{}
}

func historyPath(dir string) string {
	return filepath.Join(dir, HistoryFileName)
}

// List returns the entries recorded for a directory, oldest first. A
// missing, corrupt or unreadable history file reads as empty.
func (l *HistoryLedger) List(dir string) []HistoryEntry {
	data, err := os.ReadFile(historyPath(dir))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Cannot read history file, treating as empty", "dir", dir, "error", err)
		}
		return nil
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("Corrupt history file, treating as empty", "dir", dir, "error", err)
		return nil
	}
	return entries
}

// save writes the entries back, replacing the file via a temp-file
// rename, or removes the file when no entries remain.
func (l *HistoryLedger) save(dir string, entries []HistoryEntry) error {
	path := historyPath(dir)

	if len(entries) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove history file: %w", err)
		}
		return nil
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		// Windows refuses to rename over an existing file.
		_ = os.Remove(path)
		if err := os.Rename(tmp, path); err != nil {
			return fmt.Errorf("failed to replace history file: %w", err)
		}
	}

	markHidden(path)
	return nil
}

// Record appends one entry for the executed operations and evicts the
// oldest entry beyond the retention limit.
func (l *HistoryLedger) Record(dir string, operations []RenameOperation) error {
	if len(operations) == 0 {
		return nil
	}

	entry := HistoryEntry{Timestamp: time.Now().Format(time.RFC3339)}
	for _, op := range operations {
		entry.Operations = append(entry.Operations, HistoryOperation{
			Source:      relativeTo(dir, op.Source),
			Destination: relativeTo(dir, op.Destination),
			Kind:        op.Kind,
		})
	}

	entries := append(l.List(dir), entry)
	if len(entries) > maxHistoryEntries {
		entries = entries[len(entries)-maxHistoryEntries:]
	}
	return l.save(dir, entries)
}

// Undo reverses the most recent entry. Operations are replayed in
// reverse order: later operations in the original batch may have
// claimed paths that earlier sources need back, so undoing forward
// could destroy data. Directories left empty by the moves are pruned
// up to, but not including, the base directory. The entry is removed
// once the attempt completes, whether or not every operation
// succeeded.
func (l *HistoryLedger) Undo(dir string) (*UndoResult, error) {
	entries := l.List(dir)
	if len(entries) == 0 {
		return nil, ErrNothingToUndo
	}

	entry := entries[len(entries)-1]
	result := &UndoResult{}

	for i := len(entry.Operations) - 1; i >= 0; i-- {
		op := entry.Operations[i]
		current := filepath.Join(dir, op.Destination)
		original := filepath.Join(dir, op.Source)

		if _, err := os.Stat(current); err != nil {
			result.Failures = append(result.Failures,
				fmt.Sprintf("destination no longer exists: %s", op.Destination))
			continue
		}
		if _, err := os.Stat(original); err == nil {
			result.Failures = append(result.Failures,
				fmt.Sprintf("source path already occupied: %s", op.Source))
			continue
		}

		if err := os.MkdirAll(filepath.Dir(original), 0755); err != nil {
			result.Failures = append(result.Failures,
				fmt.Sprintf("cannot recreate directory for %s: %v", op.Source, err))
			continue
		}
		if err := os.Rename(current, original); err != nil {
			result.Failures = append(result.Failures,
				fmt.Sprintf("cannot restore %s: %v", op.Destination, err))
			continue
		}

		result.Restored++
		logger.Debug("Restored file", "from", op.Destination, "to", op.Source)
		pruneEmptyDirs(filepath.Dir(current), dir)
	}

	if err := l.save(dir, entries[:len(entries)-1]); err != nil {
		return result, err
	}
	return result, nil
}

// Clear discards the whole history of a directory.
func (l *HistoryLedger) Clear(dir string) error {
	return l.save(dir, nil)
}

// relativeTo stores paths relative to the batch directory, falling back
// to the absolute path when they do not share a root.
func relativeTo(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return path
	}
	return rel
}

// pruneEmptyDirs removes directories left empty after an undo, walking
// up from start until the base directory, exclusive. os.Remove refuses
// non-empty directories, which ends the walk.
func pruneEmptyDirs(start, base string) {
	base = filepath.Clean(base)
	for d := filepath.Clean(start); d != base; d = filepath.Dir(d) {
		rel, err := filepath.Rel(base, d)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return
		}
		if err := os.Remove(d); err != nil {
			return
		}
		logger.Debug("Removed empty directory", "dir", d)
	}
}
