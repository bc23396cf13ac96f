package engine

import (
	"testing"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/document"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/flatten"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/rules"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseDoc = `
metadata:
  generated: t
  version: "1.0"
hardware:
  cpu: Ryzen Threadripper
  gpu: X
  machines:
    - id: 1
      ipAddress: 192.168.1.1
test_suites:
  - id: 1
    name: n
    order: 1
`

func testTable() *rules.Table {
	return rules.New(
		[]string{"metadata.generated", "hardware.cpu"},
		[]string{"description"},
		[]rules.TypeRule{
			{Key: "id", Type: rules.TypeInt},
			{Key: "ipAddress", Type: rules.TypeIPv4},
		},
		[]rules.RangeRule{{
			Key:     "hardware.cpu",
			Allowed: []document.Value{document.String("Ryzen Threadripper"), document.String("EPYC")},
		}},
	)
}

func evaluate(t *testing.T, tbl *rules.Table, src string) Verdict {
	t.Helper()
	doc, err := document.FromYAML([]byte(src))
	require.NoError(t, err)
	return Evaluate(tbl, doc, flatten.Flatten(doc))
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		src     string
		code    Code
		message string
	}{
		"valid document": {
			src: baseDoc,
		},
		"missing required key": {
			src: `
metadata: {generated: t}
hardware: {gpu: X}
`,
			code:    CodeMissingKey,
			message: "E001 Unsupported: missing mandatory key [hardware.cpu]",
		},
		"empty value": {
			src: `
metadata: {generated: t}
hardware:
  cpu: EPYC
  machines:
    - id: 1
      ipAddress: ""
`,
			code:    CodeEmptyValue,
			message: "E002 Unsupported: empty value for [hardware.machines.0.ipAddress]",
		},
		"null value is empty": {
			src: `
metadata: {generated: t}
hardware: {cpu: EPYC, gpu: ~}
`,
			code:    CodeEmptyValue,
			message: "E002 Unsupported: empty value for [hardware.gpu]",
		},
		"empty list is empty": {
			src: `
metadata: {generated: t}
hardware: {cpu: EPYC, machines: []}
`,
			code:    CodeEmptyValue,
			message: "E002 Unsupported: empty value for [hardware.machines]",
		},
		"exempt key may be empty": {
			src: `
metadata: {generated: t, description: ""}
hardware: {cpu: EPYC}
`,
		},
		"zero and false are not empty": {
			src: `
metadata: {generated: t, retries: 0, dry_run: false}
hardware: {cpu: EPYC}
`,
		},
		"type mismatch": {
			src: `
metadata: {generated: t}
hardware:
  cpu: EPYC
  machines:
    - id: one
`,
			code:    CodeTypeMismatch,
			message: "E101 Unsupported: value type error for [hardware.machines.0.id]. Expected int, got string",
		},
		"invalid ip literal": {
			src: `
metadata: {generated: t}
hardware:
  cpu: EPYC
  machines:
    - ipAddress: 999.999.999.999
`,
			code:    CodeTypeMismatch,
			message: "E101 Unsupported: value type error for [hardware.machines.0.ipAddress]. Expected IPv4, got invalid IP: 999.999.999.999",
		},
		"ip that is not a string": {
			src: `
metadata: {generated: t}
hardware: {cpu: EPYC, ipAddress: 10}
`,
			code:    CodeTypeMismatch,
			message: "E101 Unsupported: value type error for [hardware.ipAddress]. Expected IPv4, got int",
		},
		"whitelist violation": {
			src: `
metadata: {generated: t}
hardware: {cpu: Unknown CPU}
`,
			code:    CodeNotAllowed,
			message: `E102 Unsupported: invalid value range for [hardware.cpu]. Value "Unknown CPU" is not in whitelist [Ryzen Threadripper, EPYC]`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			v := evaluate(t, testTable(), tt.src)
			if tt.code == "" {
				assert.True(t, v.Valid, "unexpected failure: %s", v.Message)
				return
			}
			assert.False(t, v.Valid)
			assert.Equal(t, tt.code, v.Code)
			assert.Equal(t, tt.message, v.Message)
			assert.Empty(t, v.Key, "the engine never locates")
			assert.Zero(t, v.Line)
		})
	}
}

func TestEvaluate_RuleOrder(t *testing.T) {
	t.Parallel()

	// Fails every category at once.
	src := `
metadata: {generated: t}
hardware:
  cpu: Unknown CPU
  gpu: ""
  machines:
    - id: one
`
	tbl := rules.New(
		[]string{"metadata.version"},
		nil,
		[]rules.TypeRule{{Key: "id", Type: rules.TypeInt}},
		[]rules.RangeRule{{Key: "hardware.cpu", Allowed: []document.Value{document.String("EPYC")}}},
	)

	assert.Equal(t, CodeMissingKey, evaluate(t, tbl, src).Code)

	tbl.RequiredKeys = nil
	assert.Equal(t, CodeEmptyValue, evaluate(t, tbl, src).Code)

	src = `
hardware:
  cpu: Unknown CPU
  machines:
    - id: one
`
	assert.Equal(t, CodeTypeMismatch, evaluate(t, tbl, src).Code)

	tbl.Types = nil
	assert.Equal(t, CodeNotAllowed, evaluate(t, tbl, src).Code)
}

func TestCheckRequired(t *testing.T) {
	t.Parallel()

	doc, err := document.FromYAML([]byte(`
metadata:
  generated: t
  version: ~
hardware:
  machines:
    - id: 1
      hostname: a
    - id: 2
config:
  nested:
    hardware_profile: {cpu: x}
`))
	require.NoError(t, err)
	flat := flatten.Flatten(doc)

	tests := map[string]struct {
		required []string
		missing  string
	}{
		"dotted exact":          {required: []string{"metadata.generated"}},
		"dotted null counts":    {required: []string{"metadata.version"}},
		"bare root key":         {required: []string{"hardware"}},
		"bare key found deep":   {required: []string{"hardware_profile"}},
		"bare key absent":       {required: []string{"software"}, missing: "software"},
		"dotted absent":         {required: []string{"metadata.owner"}, missing: "metadata.owner"},
		"array pattern":         {required: []string{"hardware.machines[].id"}},
		"array pattern missing": {required: []string{"hardware.machines[].hostname"}, missing: "hardware.machines.1.hostname"},
		"first missing wins":    {required: []string{"a.b", "c.d"}, missing: "a.b"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			tbl := rules.New(tt.required, nil, nil, nil)
			v, failed := CheckRequired(tbl, doc, flat)
			if tt.missing == "" {
				assert.False(t, failed, v.Message)
				return
			}
			require.True(t, failed)
			assert.Contains(t, v.Message, "["+tt.missing+"]")
		})
	}
}

func TestCheckTypes_MatchesEveryLeafName(t *testing.T) {
	t.Parallel()

	src := `
hardware:
  machines:
    - id: 1
test_suites:
  - id: 2
  - id: "3"
`
	tbl := rules.New(nil, nil, []rules.TypeRule{{Key: "id", Type: rules.TypeInt}}, nil)
	v := evaluate(t, tbl, src)
	require.False(t, v.Valid)
	assert.Contains(t, v.Message, "[test_suites.1.id]")
}

func TestCheckTypes_FullPathOverridesLeafName(t *testing.T) {
	t.Parallel()

	tbl := rules.New(nil, nil, []rules.TypeRule{
		{Key: "hardware.machines.0.id", Type: rules.TypeString},
		{Key: "id", Type: rules.TypeInt},
	}, nil)

	assert.True(t, evaluate(t, tbl, "hardware:\n  machines:\n    - id: abc\n").Valid)

	v := evaluate(t, tbl, "hardware:\n  machines:\n    - id: abc\n    - id: def\n")
	require.False(t, v.Valid)
	assert.Equal(t, "E101 Unsupported: value type error for [hardware.machines.1.id]. Expected int, got string", v.Message)

	v = evaluate(t, tbl, "hardware:\n  machines:\n    - id: 7\n")
	require.False(t, v.Valid)
	assert.Equal(t, "E101 Unsupported: value type error for [hardware.machines.0.id]. Expected string, got int", v.Message)
}

func TestCheckTypes_Containers(t *testing.T) {
	t.Parallel()

	tbl := rules.New(nil, nil, []rules.TypeRule{
		{Key: "hardware.machines", Type: rules.TypeArray},
		{Key: "hardware", Type: rules.TypeObject},
	}, nil)

	assert.True(t, evaluate(t, tbl, "hardware:\n  machines:\n    - id: 1\n").Valid)

	v := evaluate(t, tbl, "hardware:\n  machines:\n    id: 1\n")
	require.False(t, v.Valid)
	assert.Equal(t, "E101 Unsupported: value type error for [hardware.machines]. Expected array, got object", v.Message)
}

func TestCheckTypes_SkipsNull(t *testing.T) {
	t.Parallel()

	tbl := rules.New(nil, []string{"id"}, []rules.TypeRule{{Key: "id", Type: rules.TypeInt}}, nil)
	assert.True(t, evaluate(t, tbl, "machine:\n  id: ~\n").Valid)
}

func TestCheckRanges_RoundTrip(t *testing.T) {
	t.Parallel()

	rule := rules.RangeRule{
		Key:     "hardware.cpu",
		Allowed: []document.Value{document.String("Ryzen Threadripper"), document.String("EPYC")},
	}
	tbl := rules.New(nil, nil, nil, []rules.RangeRule{rule})

	for _, allowed := range rule.Allowed {
		doc := document.Object(document.F("hardware", document.Object(document.F("cpu", allowed))))
		assert.True(t, Evaluate(tbl, doc, flatten.Flatten(doc)).Valid)
	}

	for _, bad := range []document.Value{document.String("Xeon"), document.Int(7), document.Bool(true)} {
		doc := document.Object(document.F("hardware", document.Object(document.F("cpu", bad))))
		v := Evaluate(tbl, doc, flatten.Flatten(doc))
		require.False(t, v.Valid)
		assert.Equal(t, CodeNotAllowed, v.Code)
		assert.Contains(t, v.Message, "[hardware.cpu]")
	}
}

func TestCheckRanges_AbsentPasses(t *testing.T) {
	t.Parallel()

	tbl := rules.New(nil, nil, nil, []rules.RangeRule{{Key: "hardware.cpu", Allowed: []document.Value{document.String("EPYC")}}})
	assert.True(t, evaluate(t, tbl, "hardware:\n  gpu: X\n").Valid)
}

func TestEvaluate_DefaultTable(t *testing.T) {
	t.Parallel()

	src := `
metadata:
  generated: "2024-01-01"
  version: "1.0"
  description: ""
hardware:
  machines:
    - id: 1
      hostname: host-a
      productName: p
      asicName: a
      ipAddress: 10.0.0.1
      gpuModel: g
environment:
  machines:
    host-a:
      configurations:
        - config_id: 1
          os: {id: 1, family: linux, version: "22.04"}
          deployment_method: bare_metal
          kernel: {kernel_version: "6.8"}
          test_type: smoke
          execution_case_list: [a]
`
	v := evaluate(t, rules.Default(), src)
	assert.True(t, v.Valid, v.Message)
}

func TestCode_Locatable(t *testing.T) {
	t.Parallel()

	assert.False(t, CodeInvalidInput.Locatable())
	assert.False(t, CodeMissingKey.Locatable())
	assert.True(t, CodeEmptyValue.Locatable())
	assert.True(t, CodeTypeMismatch.Locatable())
	assert.True(t, CodeNotAllowed.Locatable())
	assert.False(t, CodeInternal.Locatable())
}

func TestVerdict_JSON(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(Pass())
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true}`, string(out))

	out, err = json.Marshal(Fail(CodeMissingKey, "E001 Unsupported: missing mandatory key [a.b]"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": false, "error": {"code": "E001", "message": "E001 Unsupported: missing mandatory key [a.b]"}}`, string(out))

	located := Fail(CodeEmptyValue, "E002 Unsupported: empty value for [a.b]").Located("a.b", 3)
	out, err = json.Marshal(located)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": false, "error": {"code": "E002", "message": "E002 Unsupported: empty value for [a.b]", "key": "a.b", "lineNumber": 3}}`, string(out))

	var back Verdict
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, located, back)
}
