package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/document"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/engine"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/history"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/logging"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/yaml"
)

// Failure messages returned in the envelope msg field.
const (
	MsgMissingData   = "Missing yamlData in request body"
	MsgInvalidJSON   = "Invalid JSON in request body"
	MsgBodyTooLarge  = "Request body too large"
	MsgMissingFile   = "Missing file in multipart form"
	MsgInvalidUTF8   = "File is not valid UTF-8"
	MsgLintFailed    = "YAML validation failed"
	MsgUploadSuccess = "File uploaded and validated successfully"
)

// ValidateRequest is the body of POST /api/yaml-check/validate. YAMLData is kept raw so key order
// survives decoding. YAMLText, when present, is the source text used for line numbers; on its own it
// is parsed as the document.
type ValidateRequest struct {
	YAMLData json.RawMessage `json:"yamlData"`
	YAMLText string          `json:"yamlText"`
}

// UploadResult is the data of an upload response.
type UploadResult struct {
	FileName    string                  `json:"file_name"`
	FileSize    int64                   `json:"file_size"`
	FileContent string                  `json:"file_content"`
	Lines       []string                `json:"lines"`
	Errors      []*yaml.ValidationError `json:"errors,omitempty"`
	ErrorCount  int                     `json:"error_count,omitempty"`
	Message     string                  `json:"message,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		writeEnvelope(w, bodyError(err))
		return
	}

	var req ValidateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeEnvelope(w, fail(http.StatusBadRequest, MsgInvalidJSON, nil))
		return
	}

	v := s.validator.Load()
	start := time.Now()

	var verdict engine.Verdict
	switch {
	case hasData(req.YAMLData):
		doc, err := document.FromJSON(req.YAMLData)
		if err != nil {
			writeEnvelope(w, fail(http.StatusBadRequest, MsgInvalidJSON, nil))
			return
		}
		verdict = v.Validate(doc, req.YAMLText)
	case strings.TrimSpace(req.YAMLText) != "":
		verdict = v.ValidateText([]byte(req.YAMLText))
	default:
		writeEnvelope(w, fail(http.StatusBadRequest, MsgMissingData, nil))
		return
	}

	if s.history != nil {
		s.history.LogVerdict(history.SourceAPI, logging.RequestID(r.Context()), verdict, time.Since(start))
	}
	writeEnvelope(w, succeed(verdict))
}

func hasData(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null"
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := r.ParseMultipartForm(s.maxBodyBytes); err != nil {
		writeEnvelope(w, bodyError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeEnvelope(w, fail(http.StatusBadRequest, MsgMissingFile, nil))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeEnvelope(w, fail(http.StatusInternalServerError, fmt.Sprintf("Internal server error: %v", err), nil))
		return
	}
	if !utf8.Valid(data) {
		writeEnvelope(w, fail(http.StatusBadRequest, MsgInvalidUTF8, nil))
		return
	}

	content := string(data)
	result := UploadResult{
		FileName:    header.Filename,
		FileSize:    header.Size,
		FileContent: content,
		Lines:       strings.Split(content, "\n"),
	}

	start := time.Now()
	problems := yaml.Lint(content)
	if s.history != nil {
		s.history.LogLint(history.SourceUpload, header.Filename, problems, time.Since(start))
	}
	if len(problems) > 0 {
		s.logger.InfoContext(r.Context(), "upload failed lint", "file", header.Filename, "errors", len(problems))
		result.Errors = problems
		result.ErrorCount = len(problems)
		writeEnvelope(w, fail(http.StatusBadRequest, MsgLintFailed, result))
		return
	}

	result.Message = MsgUploadSuccess
	writeEnvelope(w, succeed(result))
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, succeed(s.validator.Load().Table().Summary()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeEnvelope(w, fail(http.StatusBadRequest, "limit must be a non-negative integer", nil))
			return
		}
		limit = n
	}

	h, err := history.LoadHistory(s.stateDir)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "loading history", "error", err)
		writeEnvelope(w, fail(http.StatusInternalServerError, "Failed to load history", nil))
		return
	}
	writeEnvelope(w, succeed(h.Last(limit)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeEnvelope(w, succeed(map[string]bool{"passed": true}))
		return
	}
	report := s.health()
	if !report.Passed {
		writeEnvelope(w, fail(http.StatusServiceUnavailable, "unhealthy", report))
		return
	}
	writeEnvelope(w, succeed(report))
}

func bodyError(err error) Envelope {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fail(http.StatusRequestEntityTooLarge, MsgBodyTooLarge, nil)
	}
	return fail(http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err), nil)
}
