package media

import (
	"fmt"
	"os"
	"path/filepath"

	"mediarename/internal/logger"
)

// Executor carries out a plan's rename operations and records the
// executed batch in the history ledger. Per-file failures are counted
// and the batch continues; only the base directory disappearing aborts
// it.
type Executor struct {
	ledger *HistoryLedger
}

// NewExecutor creates an Executor. The ledger may be nil, in which case
// executed batches are not recorded.
func NewExecutor(ledger *HistoryLedger) *Executor {
	return &Executor{ledger: ledger}
}

// Execute runs every operation in the plan. The returned stats include
// the plan's skip counts. The caller is expected not to invoke Execute
// for a dry run.
func (e *Executor) Execute(plan *Plan, progressChan chan<- ProgressEvent) (BatchStats, error) {
	stats := plan.Stats
	total := len(plan.Operations)
	var executed []RenameOperation

	for i, op := range plan.Operations {
		if _, err := os.Stat(plan.BaseDir); err != nil {
			return stats, fmt.Errorf("base directory no longer accessible: %w", err)
		}

		if progressChan != nil {
			select {
			case progressChan <- ProgressEvent{Current: i + 1, Total: total, File: op.Source}:
			default:
				logger.Debug("Progress event dropped (channel full)")
			}
		}

		if err := os.MkdirAll(filepath.Dir(op.Destination), 0755); err != nil {
			logger.Error("Failed to create destination directory", "file", op.Source, "error", err)
			stats.Failed++
			continue
		}
		if err := os.Rename(op.Source, op.Destination); err != nil {
			logger.Error("Failed to rename file", "from", op.Source, "to", op.Destination, "error", err)
			stats.Failed++
			continue
		}

		executed = append(executed, op)
		stats.Renamed++
	}

	if len(executed) > 0 && e.ledger != nil {
		if err := e.ledger.Record(plan.BaseDir, executed); err != nil {
			logger.Warn("Failed to record batch in history", "dir", plan.BaseDir, "error", err)
		}
	}

	return stats, nil
}
