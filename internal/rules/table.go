// Package rules holds the static rule table that drives structural validation.
package rules

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/document"
)

// Declared type names understood by the type checker.
const (
	TypeInt     = "int"
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeIPv4    = "IPv4"
)

// TypeRule binds a full path or leaf key name to a declared type.
type TypeRule struct {
	Key  string
	Type string
}

// RangeRule restricts the value at an exact path to a set of literals.
type RangeRule struct {
	Key     string
	Allowed []document.Value
}

// Table is the read-only rule configuration. Build it once and share it; nothing mutates it after
// construction.
type Table struct {
	// RequiredKeys are dotted patterns that must resolve. "[]" iterates an array and "*" iterates
	// the children of an object.
	RequiredKeys []string
	// CanBeEmpty lists leaf key names allowed to hold an empty value.
	CanBeEmpty []string
	Types      []TypeRule
	Ranges     []RangeRule

	exempt    map[string]struct{}
	typedKeys map[string]struct{}
}

// New builds a table from its sections. Type and range rules are evaluated in the order given.
func New(required, canBeEmpty []string, types []TypeRule, ranges []RangeRule) *Table {
	t := &Table{
		RequiredKeys: append([]string(nil), required...),
		CanBeEmpty:   append([]string(nil), canBeEmpty...),
		Types:        append([]TypeRule(nil), types...),
		Ranges:       append([]RangeRule(nil), ranges...),
		exempt:       make(map[string]struct{}, len(canBeEmpty)),
		typedKeys:    make(map[string]struct{}, len(types)),
	}
	for _, k := range canBeEmpty {
		t.exempt[k] = struct{}{}
	}
	for _, r := range types {
		t.typedKeys[r.Key] = struct{}{}
	}
	return t
}

// HasTypeRule reports whether a type rule is keyed by exactly key.
func (t *Table) HasTypeRule(key string) bool {
	_, ok := t.typedKeys[key]
	return ok
}

// Exempt reports whether a leaf key name may hold an empty value.
func (t *Table) Exempt(leaf string) bool {
	_, ok := t.exempt[leaf]
	return ok
}

// Default returns the built-in rule table for test-plan documents.
func Default() *Table {
	return New(
		[]string{
			"metadata.generated",
			"metadata.version",
			"metadata.description",

			"hardware.machines",
			"hardware.machines[].id",
			"hardware.machines[].hostname",
			"hardware.machines[].productName",
			"hardware.machines[].asicName",
			"hardware.machines[].ipAddress",
			"hardware.machines[].gpuModel",

			"environment.machines",
			"environment.machines.*.configurations",
			"environment.machines.*.configurations[].config_id",
			"environment.machines.*.configurations[].os",
			"environment.machines.*.configurations[].os.id",
			"environment.machines.*.configurations[].os.family",
			"environment.machines.*.configurations[].os.version",
			"environment.machines.*.configurations[].deployment_method",
			"environment.machines.*.configurations[].kernel",
			"environment.machines.*.configurations[].kernel.kernel_version",
			"environment.machines.*.configurations[].test_type",
			"environment.machines.*.configurations[].execution_case_list",
		},
		[]string{"description"},
		[]TypeRule{
			{Key: "id", Type: TypeInt},
			{Key: "ipAddress", Type: TypeIPv4},
		},
		nil,
	)
}

// fileTable is the on-disk shape of a rules file.
type fileTable struct {
	RequiredKeys []string          `koanf:"required_keys" validate:"dive,required"`
	CanBeEmpty   []string          `koanf:"can_be_empty_keys" validate:"dive,required"`
	ValueTypes   map[string]string `koanf:"value_types" validate:"dive,keys,required,endkeys,required"`
	ValueRanges  map[string][]any  `koanf:"value_ranges" validate:"dive,keys,required,endkeys,min=1"`
}

// keyDelim separates nested koanf keys. Rule keys are dotted paths themselves, so "." cannot be used.
const keyDelim = "/"

// Load reads a JSON rules file. An empty path yields Default(). Map sections are ordered by key so
// evaluation order does not depend on map iteration.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load rules file %s: %w", path, err)
	}

	var ft fileTable
	if err := k.Unmarshal("", &ft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules: %w", err)
	}
	if err := validator.New().Struct(ft); err != nil {
		return nil, fmt.Errorf("rules validation failed: %w", err)
	}

	return ft.table()
}

func (ft fileTable) table() (*Table, error) {
	typeKeys := sortedKeys(ft.ValueTypes)
	types := make([]TypeRule, 0, len(typeKeys))
	for _, key := range typeKeys {
		types = append(types, TypeRule{Key: key, Type: ft.ValueTypes[key]})
	}

	rangeKeys := make([]string, 0, len(ft.ValueRanges))
	for key := range ft.ValueRanges {
		rangeKeys = append(rangeKeys, key)
	}
	sort.Strings(rangeKeys)

	ranges := make([]RangeRule, 0, len(rangeKeys))
	for _, key := range rangeKeys {
		allowed := make([]document.Value, 0, len(ft.ValueRanges[key]))
		for _, raw := range ft.ValueRanges[key] {
			v, err := document.FromAny(raw)
			if err != nil {
				return nil, fmt.Errorf("value_ranges[%s]: %w", key, err)
			}
			allowed = append(allowed, v)
		}
		ranges = append(ranges, RangeRule{Key: key, Allowed: allowed})
	}

	return New(ft.RequiredKeys, ft.CanBeEmpty, types, ranges), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summary renders the table as a plain map, used by the CLI to print the effective rules.
func (t *Table) Summary() map[string]any {
	types := make(map[string]string, len(t.Types))
	for _, r := range t.Types {
		types[r.Key] = r.Type
	}
	ranges := make(map[string][]string, len(t.Ranges))
	for _, r := range t.Ranges {
		vals := make([]string, len(r.Allowed))
		for i, v := range r.Allowed {
			vals[i] = v.String()
		}
		ranges[r.Key] = vals
	}
	return map[string]any{
		"required_keys":     t.RequiredKeys,
		"can_be_empty_keys": t.CanBeEmpty,
		"value_types":       types,
		"value_ranges":      ranges,
	}
}

// AllowedString joins the allowed literals for messages.
func (r RangeRule) AllowedString() string {
	parts := make([]string, len(r.Allowed))
	for i, v := range r.Allowed {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// Allows reports whether v is one of the allowed literals.
func (r RangeRule) Allows(v document.Value) bool {
	for _, a := range r.Allowed {
		if a.Equal(v) {
			return true
		}
	}
	return false
}
