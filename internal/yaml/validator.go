// Package yaml checks YAML syntax and reports problems with line numbers.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"
)

// ValidationError is a syntax problem at a position in a YAML file.
type ValidationError struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// ValidateSyntax decodes every document in r and returns the first syntax error.
func ValidateSyntax(r io.Reader) error {
	dec := yamlv3.NewDecoder(r)
	for {
		var node yamlv3.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			line, column := extractLineColumn(err.Error())
			return &ValidationError{
				Line:    line,
				Column:  column,
				Message: "YAML syntax error: " + cleanYAMLError(err.Error()),
			}
		}
	}
}

// ValidateFile checks the syntax of the YAML file at path.
func ValidateFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	if err := ValidateSyntax(f); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			ve.File = path
			return ve
		}
		return fmt.Errorf("validating %s: %w", path, err)
	}
	return nil
}

// ValidateFileWithDetails is ValidateFile that always reports through a ValidationError, or nil.
func ValidateFileWithDetails(path string) *ValidationError {
	err := ValidateFile(path)
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return &ValidationError{File: path, Message: err.Error()}
}

// extractLineColumn pulls the position out of a yaml.v3 error message. Returns 0, 0 if none is present.
func extractLineColumn(errMsg string) (line, column int) {
	// yaml.v3 errors look like: "yaml: line 5: could not find expected ':'"
	var l, c int
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d: column %d:", &l, &c); n == 2 {
		return l, c
	}
	if n, _ := fmt.Sscanf(errMsg, "yaml: line %d:", &l); n == 1 {
		return l, 1
	}
	return 0, 0
}

// cleanYAMLError strips the "yaml: line X:" prefix.
func cleanYAMLError(errMsg string) string {
	if !strings.HasPrefix(errMsg, "yaml:") {
		return errMsg
	}
	msg := strings.TrimSpace(strings.TrimPrefix(errMsg, "yaml:"))
	var l int
	if n, _ := fmt.Sscanf(msg, "line %d:", &l); n == 1 {
		if idx := strings.Index(msg, ": "); idx > 0 {
			return msg[idx+2:]
		}
	}
	return msg
}
