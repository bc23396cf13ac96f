package check

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/cli/shared"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/history"
)

const testRulesJSON = `{
  "required_keys": ["hardware"],
  "can_be_empty_keys": ["description"],
  "value_types": {"ipAddress": "IPv4"},
  "value_ranges": {"hardware.type": ["debian", "rhel"]}
}`

const (
	validDoc   = "hardware:\n  type: debian\n  ipAddress: 10.0.0.1\n"
	missingDoc = "software:\n  type: debian\n"
	emptyDoc   = "hardware:\n  type: debian\n  gpu:\n"
	badIPDoc   = "hardware:\n  type: debian\n  ipAddress: 10.0.0\n"
)

// testEnv isolates HOME and returns a directory holding the rules file.
func testEnv(t *testing.T) (dir, rulesPath string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	dir = t.TempDir()
	rulesPath = writeFile(t, dir, "rules.json", testRulesJSON)
	return dir, rulesPath
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes args against a fresh root holding only the check commands.
func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	root := &cobra.Command{Use: "yamlcheck", SilenceErrors: true, SilenceUsage: true}
	root.AddGroup(&cobra.Group{ID: shared.GroupValidation, Title: "Validation:"})
	root.AddGroup(&cobra.Group{ID: shared.GroupConfiguration, Title: "Configuration:"})
	shared.AddPersistentFlags(root)
	Register(root)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.json")}, args...))

	err := root.Execute()
	if err != nil && !shared.IsExitError(err) {
		errOut.WriteString(err.Error())
	}
	return out.String(), errOut.String(), shared.ExitCode(err)
}

func TestValidateCmd(t *testing.T) {
	tests := map[string]struct {
		doc      string
		wantCode int
		wantOut  []string
	}{
		"valid document": {
			doc:      validDoc,
			wantCode: shared.ExitSuccess,
			wantOut:  []string{"✓"},
		},
		"missing key": {
			doc:      missingDoc,
			wantCode: shared.ExitValidationFailed,
			wantOut:  []string{"✗", "E001 Unsupported: missing mandatory key [hardware]"},
		},
		"empty value located": {
			doc:      emptyDoc,
			wantCode: shared.ExitValidationFailed,
			wantOut:  []string{"E002 Unsupported: empty value for [hardware.gpu]", ":3 (hardware.gpu)"},
		},
		"bad ip located": {
			doc:      badIPDoc,
			wantCode: shared.ExitValidationFailed,
			wantOut:  []string{"E101", ":3 (hardware.ipAddress)"},
		},
		"unparsable document": {
			doc:      "a: [1, 2\n",
			wantCode: shared.ExitValidationFailed,
			wantOut:  []string{"Invalid YAML data object"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir, rulesPath := testEnv(t)
			path := writeFile(t, dir, "plan.yaml", tt.doc)

			out, _, code := run(t, "", "validate", "--rules", rulesPath, path)
			assert.Equal(t, tt.wantCode, code)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestValidateCmd_JSONKeepsArgumentOrder(t *testing.T) {
	dir, rulesPath := testEnv(t)
	var paths []string
	for i, doc := range []string{validDoc, missingDoc, emptyDoc, validDoc, badIPDoc} {
		paths = append(paths, writeFile(t, dir, "plan"+string(rune('a'+i))+".yaml", doc))
	}

	args := append([]string{"validate", "--json", "-p", "2", "--rules", rulesPath}, paths...)
	out, _, code := run(t, "", args...)
	assert.Equal(t, shared.ExitValidationFailed, code)

	var results []FileVerdict
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, len(paths))

	wantValid := []bool{true, false, false, true, false}
	for i, r := range results {
		assert.Equal(t, paths[i], r.File)
		require.NotNil(t, r.Verdict)
		assert.Equal(t, wantValid[i], r.Verdict.Valid, r.File)
	}
	assert.Equal(t, 3, results[2].Verdict.Line)
	assert.Equal(t, "hardware.gpu", results[2].Verdict.Key)
}

func TestValidateCmd_Stdin(t *testing.T) {
	_, rulesPath := testEnv(t)

	out, _, code := run(t, validDoc, "validate", "--rules", rulesPath, "-")
	assert.Equal(t, shared.ExitSuccess, code)
	assert.Contains(t, out, "✓ -")
}

func TestValidateCmd_StdinRepeated(t *testing.T) {
	_, rulesPath := testEnv(t)

	out, _, code := run(t, emptyDoc, "validate", "--json", "-p", "4", "--rules", rulesPath, "-", "-", "-")
	assert.Equal(t, shared.ExitValidationFailed, code)

	var results []FileVerdict
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, "-", r.File)
		assert.Empty(t, r.ReadError)
		require.NotNil(t, r.Verdict)
		assert.Equal(t, "hardware.gpu", r.Verdict.Key)
		assert.Equal(t, 3, r.Verdict.Line)
	}
}

func TestValidateCmd_UnreadableFile(t *testing.T) {
	dir, rulesPath := testEnv(t)
	good := writeFile(t, dir, "plan.yaml", validDoc)

	out, _, code := run(t, "", "validate", "--rules", rulesPath, good, filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, shared.ExitInvalidArguments, code)
	assert.Contains(t, out, "missing.yaml")
}

func TestValidateCmd_BadRules(t *testing.T) {
	dir, _ := testEnv(t)
	path := writeFile(t, dir, "plan.yaml", validDoc)

	_, errOut, code := run(t, "", "validate", "--rules", filepath.Join(dir, "nope.json"), path)
	assert.Equal(t, shared.ExitInvalidArguments, code)
	assert.Contains(t, errOut, "loading rules")
}

func TestValidateCmd_InvalidParallel(t *testing.T) {
	dir, rulesPath := testEnv(t)
	path := writeFile(t, dir, "plan.yaml", validDoc)

	_, errOut, code := run(t, "", "validate", "-p", "0", "--rules", rulesPath, path)
	assert.Equal(t, shared.ExitValidationFailed, code)
	assert.Contains(t, errOut, "parallel must be at least 1")
}

func TestValidateCmd_RecordsHistory(t *testing.T) {
	dir, rulesPath := testEnv(t)
	path := writeFile(t, dir, "plan.yaml", emptyDoc)

	_, _, code := run(t, "", "validate", "--rules", rulesPath, path)
	require.Equal(t, shared.ExitValidationFailed, code)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	hf, err := history.LoadHistory(filepath.Join(home, ".yamlcheck", "state"))
	require.NoError(t, err)
	require.Len(t, hf.Entries, 1)

	entry := hf.Entries[0]
	assert.Equal(t, history.SourceCLI, entry.Source)
	assert.Equal(t, path, entry.Target)
	assert.False(t, entry.Success)
	assert.Equal(t, "E002", entry.Code)
	assert.Equal(t, 3, entry.Line)
}

func TestLintCmd(t *testing.T) {
	tests := map[string]struct {
		content  string
		wantCode int
		wantOut  string
	}{
		"clean file": {
			content:  validDoc,
			wantCode: shared.ExitSuccess,
			wantOut:  "is valid YAML",
		},
		"missing colon": {
			content:  "hardware:\n  type debian\n",
			wantCode: shared.ExitValidationFailed,
			wantOut:  ":2:5: syntax error: could not find expected ':'",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir, _ := testEnv(t)
			path := writeFile(t, dir, "plan.yaml", tt.content)

			out, _, code := run(t, "", "lint", path)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestLintCmd_JSON(t *testing.T) {
	dir, _ := testEnv(t)
	path := writeFile(t, dir, "plan.yaml", "hardware:\n  type debian\n")

	out, _, code := run(t, "", "lint", "--json", path)
	assert.Equal(t, shared.ExitValidationFailed, code)

	var problems []struct {
		File    string `json:"file"`
		Line    int    `json:"line"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &problems))
	require.NotEmpty(t, problems)
	assert.Equal(t, path, problems[0].File)
	assert.Equal(t, 2, problems[0].Line)
}

func TestLintCmd_CleanJSONIsEmptyArray(t *testing.T) {
	dir, _ := testEnv(t)
	path := writeFile(t, dir, "plan.yaml", validDoc)

	out, _, code := run(t, "", "lint", "--json", path)
	assert.Equal(t, shared.ExitSuccess, code)
	assert.JSONEq(t, "[]", out)
}

func TestLintCmd_SyntaxOnly(t *testing.T) {
	tests := map[string]struct {
		content  string
		wantCode int
		wantOut  string
	}{
		"heuristic problems are skipped": {
			content:  "hardware:\n  type debian\n",
			wantCode: shared.ExitSuccess,
			wantOut:  "is valid YAML",
		},
		"parser error is reported": {
			content:  "a: [1, 2\nb: c\n",
			wantCode: shared.ExitValidationFailed,
			wantOut:  "YAML syntax error: ",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir, _ := testEnv(t)
			path := writeFile(t, dir, "plan.yaml", tt.content)

			out, _, code := run(t, "", "lint", "--syntax-only", path)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, out, tt.wantOut)
			if tt.wantCode != shared.ExitSuccess {
				assert.Contains(t, out, path+":")
			}
		})
	}
}

func TestLintCmd_MissingFile(t *testing.T) {
	dir, _ := testEnv(t)

	for _, args := range [][]string{{"lint"}, {"lint", "--syntax-only"}} {
		_, errOut, code := run(t, "", append(args, filepath.Join(dir, "missing.yaml"))...)
		assert.Equal(t, shared.ExitInvalidArguments, code)
		assert.Contains(t, errOut, "failed to open file")
	}
}

func TestLocateCmd(t *testing.T) {
	content := "hardware:\n  machines:\n    - id: 1\n      hostname: a\n    - id: 2\n      hostname: b\n"

	tests := map[string]struct {
		path     string
		wantCode int
		wantOut  string
	}{
		"nested key": {
			path:     "hardware.machines",
			wantCode: shared.ExitSuccess,
			wantOut:  "2\n",
		},
		"sequence item by index": {
			path:     "hardware.machines.1.hostname",
			wantCode: shared.ExitSuccess,
			wantOut:  "6\n",
		},
		"unknown key": {
			path:     "software.os",
			wantCode: shared.ExitValidationFailed,
			wantOut:  "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir, _ := testEnv(t)
			file := writeFile(t, dir, "plan.yaml", content)

			out, errOut, code := run(t, "", "locate", file, tt.path)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantOut, out)
			if tt.wantCode != shared.ExitSuccess {
				assert.Contains(t, errOut, "not found")
			}
		})
	}
}

func TestRulesCmd(t *testing.T) {
	_, rulesPath := testEnv(t)

	out, _, code := run(t, "", "rules", "--rules", rulesPath)
	require.Equal(t, shared.ExitSuccess, code)
	assert.True(t, strings.HasPrefix(out, "# rules: "+rulesPath+"\n"))

	var summary map[string]any
	require.NoError(t, yamlv3.Unmarshal([]byte(out), &summary))
	assert.Equal(t, []any{"hardware"}, summary["required_keys"])
	assert.Equal(t, map[string]any{"ipAddress": "IPv4"}, summary["value_types"])
}

func TestRulesCmd_BuiltInJSON(t *testing.T) {
	testEnv(t)

	out, _, code := run(t, "", "rules", "--json")
	require.Equal(t, shared.ExitSuccess, code)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Contains(t, summary["required_keys"], "metadata.generated")
}
