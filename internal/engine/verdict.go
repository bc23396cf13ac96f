package engine

import (
	json "github.com/goccy/go-json"
)

// Code identifies the rule category that rejected a document.
type Code string

const (
	CodeInvalidInput Code = "E000"
	CodeMissingKey   Code = "E001"
	CodeEmptyValue   Code = "E002"
	CodeTypeMismatch Code = "E101"
	CodeNotAllowed   Code = "E102"
	CodeInternal     Code = "E999"
)

// Locatable reports whether failures of this code point at a single value in the source text.
func (c Code) Locatable() bool {
	switch c {
	case CodeEmptyValue, CodeTypeMismatch, CodeNotAllowed:
		return true
	}
	return false
}

// Verdict is the single result of validating one document. The zero value is not meaningful;
// use Pass or Fail.
type Verdict struct {
	Valid   bool
	Code    Code
	Message string
	// Key and Line are set only when the failing value was found in the source text.
	Key  string
	Line int
}

// Pass returns a successful verdict.
func Pass() Verdict { return Verdict{Valid: true} }

// Fail returns a failed verdict.
func Fail(code Code, message string) Verdict {
	return Verdict{Code: code, Message: message}
}

// Located returns a copy of v carrying the source location of the failing key.
func (v Verdict) Located(key string, line int) Verdict {
	v.Key = key
	v.Line = line
	return v
}

type verdictError struct {
	Code       Code   `json:"code"`
	Message    string `json:"message"`
	Key        string `json:"key,omitempty"`
	LineNumber int    `json:"lineNumber,omitempty"`
}

type verdictJSON struct {
	Success bool          `json:"success"`
	Error   *verdictError `json:"error,omitempty"`
}

// MarshalJSON renders {"success": bool, "error": {...}} with the error omitted on success.
func (v Verdict) MarshalJSON() ([]byte, error) {
	out := verdictJSON{Success: v.Valid}
	if !v.Valid {
		out.Error = &verdictError{
			Code:       v.Code,
			Message:    v.Message,
			Key:        v.Key,
			LineNumber: v.Line,
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var in verdictJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*v = Verdict{Valid: in.Success}
	if in.Error != nil {
		v.Code = in.Error.Code
		v.Message = in.Error.Message
		v.Key = in.Error.Key
		v.Line = in.Error.LineNumber
	}
	return nil
}
