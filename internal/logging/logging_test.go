package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg     Config
		wantErr string
	}{
		"text info":      {cfg: Config{Level: "info", Format: "text"}},
		"json debug":     {cfg: Config{Level: "debug", Format: "json"}},
		"empty defaults": {cfg: Config{}},
		"warning alias":  {cfg: Config{Level: "WARNING"}},
		"invalid level":  {cfg: Config{Level: "trace"}, wantErr: "invalid log level"},
		"invalid format": {cfg: Config{Format: "xml"}, wantErr: "invalid log format"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			tt.cfg.Writer = &bytes.Buffer{}
			logger, err := New(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestNew_LevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "text", Writer: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestNew_JSONIncludesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Config{Level: "info", Format: "json", Writer: &buf})
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "req-42")
	logger.With("component", "server").InfoContext(ctx, "validated", "code", "E001")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &record))
	assert.Equal(t, "validated", record["msg"])
	assert.Equal(t, "req-42", record["request_id"])
	assert.Equal(t, "server", record["component"])
	assert.Equal(t, "E001", record["code"])
}

func TestNew_NoRequestIDWithoutContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	require.NoError(t, err)

	logger.Info("plain")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := Discard()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Error("dropped")
}
