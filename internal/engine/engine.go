// Package engine runs the ordered rule checks over a flattened document.
//
// The checks run in a fixed order and the first failure wins:
//
//	E001  required keys are present
//	E002  no value is empty unless its leaf key is exempt
//	E101  values match their declared types
//	E102  values fall inside their whitelists
package engine

import (
	"fmt"
	"strings"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/document"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/flatten"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/rules"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/typecheck"
)

// Check is one rule category. It returns a failed verdict and true, or false when the document passes.
type Check func(t *rules.Table, doc document.Value, flat *flatten.Map) (Verdict, bool)

// Checks lists the rule categories in evaluation order.
var Checks = []Check{
	CheckRequired,
	CheckNonEmpty,
	CheckTypes,
	CheckRanges,
}

// Evaluate runs every check in order and returns the first failure, or Pass.
func Evaluate(t *rules.Table, doc document.Value, flat *flatten.Map) Verdict {
	for _, check := range Checks {
		if v, failed := check(t, doc, flat); failed {
			return v
		}
	}
	return Pass()
}

// CheckRequired fails on the first required key that does not resolve. Patterns are expanded first.
// A dotted key resolves through an exact flattened key or a non-null nested lookup. A bare key
// resolves if it or anything below it was flattened, or if it appears as a mapping key at any depth.
func CheckRequired(t *rules.Table, doc document.Value, flat *flatten.Map) (Verdict, bool) {
	for _, pattern := range t.RequiredKeys {
		for _, key := range rules.Expand(pattern, doc) {
			if !present(key, doc, flat) {
				return Fail(CodeMissingKey, fmt.Sprintf("E001 Unsupported: missing mandatory key [%s]", key)), true
			}
		}
	}
	return Verdict{}, false
}

func present(key string, doc document.Value, flat *flatten.Map) bool {
	if strings.Contains(key, ".") {
		if flat.Has(key) {
			return true
		}
		v, ok := doc.Lookup(key)
		return ok && !v.IsNull()
	}
	return flat.HasPrefix(key) || doc.HasKeyDeep(key)
}

// CheckNonEmpty sweeps every leaf, not just required ones. Non-leaf entries are non-empty containers.
func CheckNonEmpty(t *rules.Table, _ document.Value, flat *flatten.Map) (Verdict, bool) {
	for _, e := range flat.Leaves() {
		if e.Empty && !t.Exempt(flatten.LeafName(e.Key)) {
			return Fail(CodeEmptyValue, fmt.Sprintf("E002 Unsupported: empty value for [%s]", e.Key)), true
		}
	}
	return Verdict{}, false
}

// CheckTypes applies each type rule to every entry whose full path or leaf name equals the rule key.
// A rule on an entry's full path overrides leaf-name rules for that entry. Null values are skipped.
func CheckTypes(t *rules.Table, _ document.Value, flat *flatten.Map) (Verdict, bool) {
	for _, rule := range t.Types {
		for _, e := range flat.Entries() {
			if e.Key != rule.Key {
				if flatten.LeafName(e.Key) != rule.Key || t.HasTypeRule(e.Key) {
					continue
				}
			}
			if e.Value.IsNull() {
				continue
			}
			res := typecheck.Check(rule.Type, e.Value)
			if res.OK {
				continue
			}
			got := res.Actual
			if res.Invalid != "" {
				got = "invalid IP: " + res.Invalid
			}
			return Fail(CodeTypeMismatch, fmt.Sprintf(
				"E101 Unsupported: value type error for [%s]. Expected %s, got %s", e.Key, rule.Type, got)), true
		}
	}
	return Verdict{}, false
}

// CheckRanges looks up each whitelisted path exactly. Absent and null values pass.
func CheckRanges(t *rules.Table, _ document.Value, flat *flatten.Map) (Verdict, bool) {
	for _, rule := range t.Ranges {
		e, ok := flat.Get(rule.Key)
		if !ok || !e.Leaf || e.Value.IsNull() {
			continue
		}
		if !rule.Allows(e.Value) {
			return Fail(CodeNotAllowed, fmt.Sprintf(
				"E102 Unsupported: invalid value range for [%s]. Value \"%s\" is not in whitelist [%s]",
				rule.Key, e.Value.String(), rule.AllowedString())), true
		}
	}
	return Verdict{}, false
}
