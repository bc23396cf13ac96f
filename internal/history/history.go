// Package history stores a bounded log of validation runs on disk.
package history

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// HistoryFileName is the name of the history file.
	HistoryFileName = "history.yaml"
	// BackupSuffix is the suffix for backup files when corruption is detected.
	BackupSuffix = ".backup"
)

// Source labels for history entries.
const (
	SourceCLI    = "cli"
	SourceAPI    = "api"
	SourceUpload = "upload"
)

// CodeLint is the entry code of a run that failed the syntax lint.
const CodeLint = "lint"

// HistoryEntry represents a single validation run.
type HistoryEntry struct {
	// ID is a random UUID assigned when the entry is recorded.
	ID string `yaml:"id"`
	// Timestamp is when the validation finished (RFC3339 format in YAML).
	Timestamp time.Time `yaml:"timestamp"`
	// Source is where the document came from: cli, api or upload.
	Source string `yaml:"source"`
	// Target is the file name or request ID of the validated document (may be empty).
	Target string `yaml:"target,omitempty"`
	// Success reports whether the document passed every rule.
	Success bool `yaml:"success"`
	// Code is the error code of a failed run, empty on success.
	Code string `yaml:"code,omitempty"`
	// Message is the error message of a failed run.
	Message string `yaml:"message,omitempty"`
	// Key is the offending key when it was located in the source.
	Key string `yaml:"key,omitempty"`
	// Line is the 1-based line of Key, 0 when not located.
	Line int `yaml:"line,omitempty"`
	// Duration is the validation duration in Go duration format (e.g., "1.2ms").
	Duration string `yaml:"duration"`
}

// HistoryFile represents the YAML file containing all history entries.
type HistoryFile struct {
	// Entries is an ordered list of validation runs (newest entries appended at end).
	Entries []HistoryEntry `yaml:"entries"`
}

// DefaultHistoryPath returns the default path for the history file.
// Location: ~/.yamlcheck/state/history.yaml
func DefaultHistoryPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".yamlcheck", "state", HistoryFileName), nil
}

// LoadHistory loads the history file from the given state directory.
// Returns empty history if file doesn't exist.
// Handles corrupted files by backing them up and creating a fresh history.
func LoadHistory(stateDir string) (*HistoryFile, error) {
	historyPath := filepath.Join(stateDir, HistoryFileName)

	data, err := os.ReadFile(historyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &HistoryFile{Entries: []HistoryEntry{}}, nil
		}
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var history HistoryFile
	if err := yaml.Unmarshal(data, &history); err != nil {
		if backupErr := backupCorruptedFile(historyPath); backupErr != nil {
			return nil, fmt.Errorf("backing up corrupted history file: %w", backupErr)
		}
		return &HistoryFile{Entries: []HistoryEntry{}}, nil
	}

	if history.Entries == nil {
		history.Entries = []HistoryEntry{}
	}

	return &history, nil
}

func backupCorruptedFile(path string) error {
	backupPath := path + BackupSuffix
	if err := os.Rename(path, backupPath); err != nil {
		return fmt.Errorf("renaming corrupted file to backup: %w", err)
	}
	return nil
}

// SaveHistory saves the history file to the given state directory using atomic writes.
// Creates parent directories if needed.
func SaveHistory(stateDir string, history *HistoryFile) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(history)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	historyPath := filepath.Join(stateDir, HistoryFileName)
	tmpPath := historyPath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing temp history file: %w", err)
	}

	if err := os.Rename(tmpPath, historyPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp history file: %w", err)
	}

	return nil
}

// ClearHistory removes all entries from the history file.
func ClearHistory(stateDir string) error {
	return SaveHistory(stateDir, &HistoryFile{Entries: []HistoryEntry{}})
}

// Last returns up to n of the newest entries, newest first. n <= 0 returns all of them.
func (h *HistoryFile) Last(n int) []HistoryEntry {
	total := len(h.Entries)
	if n <= 0 || n > total {
		n = total
	}
	out := make([]HistoryEntry, 0, n)
	for i := total - 1; i >= total-n; i-- {
		out = append(out, h.Entries[i])
	}
	return out
}
