package history

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/engine"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/yaml"
)

// Writer provides thread-safe history logging with automatic pruning.
type Writer struct {
	// StateDir is the directory containing the history file.
	StateDir string
	// MaxEntries is the maximum number of entries to retain. 0 disables recording.
	MaxEntries int

	logger *slog.Logger
	mu     sync.Mutex
}

// NewWriter creates a new history writer.
func NewWriter(stateDir string, maxEntries int, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
		logger:     logger,
	}
}

// LogEntry adds a new entry to the history file.
// Errors are non-fatal: they are logged and don't fail the validation that produced the entry.
func (w *Writer) LogEntry(entry HistoryEntry) {
	if err := w.Append(entry); err != nil {
		w.logger.Warn("failed to log history", "error", err)
	}
}

// Append loads the existing history, appends entry, prunes if needed, and saves.
func (w *Writer) Append(entry HistoryEntry) error {
	if w.MaxEntries == 0 {
		return nil
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	history, err := LoadHistory(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	history.Entries = append(history.Entries, entry)

	// Prune oldest entries if over limit
	if w.MaxEntries > 0 && len(history.Entries) > w.MaxEntries {
		excess := len(history.Entries) - w.MaxEntries
		history.Entries = history.Entries[excess:]
	}

	if err := SaveHistory(w.StateDir, history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}

	return nil
}

// LogVerdict records the outcome of one validation run.
func (w *Writer) LogVerdict(source, target string, verdict engine.Verdict, duration time.Duration) {
	w.LogEntry(EntryFromVerdict(source, target, verdict, duration))
}

// EntryFromVerdict builds a history entry for verdict.
func EntryFromVerdict(source, target string, verdict engine.Verdict, duration time.Duration) HistoryEntry {
	return HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
		Target:    target,
		Success:   verdict.Valid,
		Code:      string(verdict.Code),
		Message:   verdict.Message,
		Key:       verdict.Key,
		Line:      verdict.Line,
		Duration:  duration.String(),
	}
}

// LogLint records the outcome of one syntax lint run.
func (w *Writer) LogLint(source, target string, problems []*yaml.ValidationError, duration time.Duration) {
	w.LogEntry(EntryFromLint(source, target, problems, duration))
}

// EntryFromLint builds a history entry for a lint run. A failed run carries CodeLint and the first
// problem.
func EntryFromLint(source, target string, problems []*yaml.ValidationError, duration time.Duration) HistoryEntry {
	entry := HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
		Target:    target,
		Success:   len(problems) == 0,
		Duration:  duration.String(),
	}
	if len(problems) > 0 {
		entry.Code = CodeLint
		entry.Message = fmt.Sprintf("%s (%d problem(s))", problems[0].Message, len(problems))
		entry.Line = problems[0].Line
	}
	return entry
}
