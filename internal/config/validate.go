package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	json "github.com/goccy/go-json"
)

// ValidationError represents a configuration validation error with context
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	Field    string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// ValidateJSONSyntax checks if the config file is well-formed JSON.
// Returns nil if valid, or a ValidationError with line/column information if invalid.
func ValidateJSONSyntax(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Missing file is not an error - will use defaults
		}
		if os.IsPermission(err) {
			return &ValidationError{
				FilePath: filePath,
				Message:  "permission denied",
			}
		}
		return &ValidationError{
			FilePath: filePath,
			Message:  err.Error(),
		}
	}
	return ValidateJSONSyntaxFromBytes(data, filePath)
}

// ValidateJSONSyntaxFromBytes checks if config data is well-formed JSON.
func ValidateJSONSyntaxFromBytes(data []byte, filePath string) error {
	// Empty data is valid - will use defaults
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var v map[string]interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			line, column := offsetToLineColumn(data, syntaxErr.Offset)
			return &ValidationError{
				FilePath: filePath,
				Line:     line,
				Column:   column,
				Message:  syntaxErr.Error(),
			}
		}
		return &ValidationError{
			FilePath: filePath,
			Message:  "config must be a JSON object",
		}
	}

	return nil
}

// ValidateConfigValues validates configuration values against expected types and constraints.
// Returns nil if valid, or a ValidationError with field information if invalid.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	if cfg.ListenAddr == "" {
		return &ValidationError{
			FilePath: filePath,
			Field:    "listen_addr",
			Message:  "is required",
		}
	}
	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return &ValidationError{
			FilePath: filePath,
			Field:    "listen_addr",
			Message:  fmt.Sprintf("must be host:port: %s", err),
		}
	}
	if cfg.StateDir == "" {
		return &ValidationError{
			FilePath: filePath,
			Field:    "state_dir",
			Message:  "is required",
		}
	}

	if !oneOf(cfg.LogLevel, "debug", "info", "warn", "error") {
		return &ValidationError{
			FilePath: filePath,
			Field:    "log_level",
			Message:  "must be one of: debug, info, warn, error",
		}
	}
	if !oneOf(cfg.LogFormat, "text", "json") {
		return &ValidationError{
			FilePath: filePath,
			Field:    "log_format",
			Message:  "must be one of: text, json",
		}
	}

	// MaxHistory: min=0, max=10000
	if cfg.MaxHistory < 0 || cfg.MaxHistory > 10000 {
		return &ValidationError{
			FilePath: filePath,
			Field:    "max_history",
			Message:  "must be between 0 and 10000",
		}
	}
	if cfg.MaxBodyBytes < 1024 {
		return &ValidationError{
			FilePath: filePath,
			Field:    "max_body_bytes",
			Message:  "must be at least 1024",
		}
	}

	// RulesFile: if specified, must exist
	if cfg.RulesFile != "" {
		if _, err := os.Stat(cfg.RulesFile); err != nil {
			if os.IsNotExist(err) {
				return &ValidationError{
					FilePath: filePath,
					Field:    "rules_file",
					Message:  fmt.Sprintf("file does not exist: %s", cfg.RulesFile),
				}
			}
			return &ValidationError{
				FilePath: filePath,
				Field:    "rules_file",
				Message:  fmt.Sprintf("cannot access file: %s", err),
			}
		}
	}
	if cfg.WatchRules && cfg.RulesFile == "" {
		return &ValidationError{
			FilePath: filePath,
			Field:    "watch_rules",
			Message:  "requires rules_file",
		}
	}

	return nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// offsetToLineColumn converts a byte offset into 1-based line and column numbers.
func offsetToLineColumn(data []byte, offset int64) (line, column int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	if offset < 1 {
		return 1, 1
	}
	prefix := string(data[:offset])
	line = strings.Count(prefix, "\n") + 1
	column = len(prefix) - strings.LastIndex(prefix, "\n")
	return line, column
}
