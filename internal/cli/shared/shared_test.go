package shared

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err      error
		wantCode int
		wantExit bool
	}{
		"nil":          {err: nil, wantCode: ExitSuccess},
		"plain error":  {err: errors.New("boom"), wantCode: ExitValidationFailed},
		"exit error":   {err: NewExitError(ExitInvalidArguments), wantCode: ExitInvalidArguments, wantExit: true},
		"wrapped exit": {err: fmt.Errorf("outer: %w", NewExitError(ExitValidationFailed)), wantCode: ExitValidationFailed, wantExit: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantCode, ExitCode(tt.err))
			assert.Equal(t, tt.wantExit, IsExitError(tt.err))
		})
	}
}

func TestConfigureColor(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	// A buffer is never a terminal.
	ConfigureColor(&bytes.Buffer{}, false)
	assert.True(t, color.NoColor)

	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func newTestCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	AddPersistentFlags(cmd)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadRuntime(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "local.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"log_level": "warn", "max_history": 7}`), 0o644))

	rt, err := LoadRuntime(newTestCmd(t, "--config", configPath, "--log-format", "json"))
	require.NoError(t, err)

	assert.Equal(t, configPath, rt.ConfigPath)
	assert.Equal(t, "warn", rt.Config.LogLevel)
	assert.Equal(t, "json", rt.Config.LogFormat)
	assert.Equal(t, 7, rt.Config.MaxHistory)
	assert.Equal(t, filepath.Join(home, ".yamlcheck", "state"), rt.Config.StateDir)
	require.NotNil(t, rt.Logger)
}

func TestLoadRuntime_Errors(t *testing.T) {
	tests := map[string]struct {
		config  string
		args    []string
		wantErr string
	}{
		"malformed config": {
			config:  `{"log_level": `,
			wantErr: "loading config",
		},
		"bad level flag": {
			config:  `{}`,
			args:    []string{"--log-level", "chatty"},
			wantErr: "creating logger",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			configPath := filepath.Join(t.TempDir(), "local.json")
			require.NoError(t, os.WriteFile(configPath, []byte(tt.config), 0o644))

			_, err := LoadRuntime(newTestCmd(t, append([]string{"--config", configPath}, tt.args...)...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRuntime_LoadRules(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	configured := filepath.Join(dir, "configured.json")
	override := filepath.Join(dir, "override.json")
	require.NoError(t, os.WriteFile(configured, []byte(`{"required_keys": ["configured"]}`), 0o644))
	require.NoError(t, os.WriteFile(override, []byte(`{"required_keys": ["override"]}`), 0o644))

	rt, err := LoadRuntime(newTestCmd(t, "--config", filepath.Join(dir, "none.json")))
	require.NoError(t, err)

	table, err := rt.LoadRules("")
	require.NoError(t, err)
	assert.Contains(t, table.RequiredKeys, "metadata.generated")
	assert.Empty(t, rt.RulesPath(""))

	rt.Config.RulesFile = configured
	table, err = rt.LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, []string{"configured"}, table.RequiredKeys)

	table, err = rt.LoadRules(override)
	require.NoError(t, err)
	assert.Equal(t, []string{"override"}, table.RequiredKeys)
	assert.Equal(t, override, rt.RulesPath(override))

	_, err = rt.LoadRules(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading rules")
}
