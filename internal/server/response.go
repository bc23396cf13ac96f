package server

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// Default envelope messages.
const (
	MsgSuccess = "success"
	MsgFailed  = "failed"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
	Data    any    `json:"data"`
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`
}

func succeed(data any) Envelope {
	return Envelope{
		Success:   true,
		Code:      http.StatusOK,
		Msg:       MsgSuccess,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

func fail(code int, msg string, data any) Envelope {
	if msg == "" {
		msg = MsgFailed
	}
	return Envelope{
		Code:      code,
		Msg:       msg,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

// writeEnvelope writes env with its code as the HTTP status.
func writeEnvelope(w http.ResponseWriter, env Envelope) {
	writeJSON(w, env.Code, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
