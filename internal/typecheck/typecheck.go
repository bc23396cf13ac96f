// Package typecheck matches document values against declared rule types.
package typecheck

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/document"
	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/rules"
)

// Result is the outcome of a single check.
type Result struct {
	OK bool
	// Actual is the runtime kind name of the value, e.g. "string".
	Actual string
	// Invalid holds the offending literal when an IPv4 string failed to parse.
	Invalid string
}

var validate = validator.New()

// Check reports whether v satisfies the declared type. Unknown declared types match the runtime kind
// name exactly.
func Check(expected string, v document.Value) Result {
	actual := v.Kind().String()
	res := Result{Actual: actual}

	switch expected {
	case rules.TypeInt:
		res.OK = v.Kind() == document.KindInt
	case rules.TypeString:
		res.OK = v.Kind() == document.KindString
	case rules.TypeBoolean:
		res.OK = v.Kind() == document.KindBool
	case rules.TypeArray:
		res.OK = v.Kind() == document.KindArray
	case rules.TypeObject:
		res.OK = v.Kind() == document.KindObject
	case rules.TypeIPv4:
		s, ok := v.AsString()
		if !ok {
			return res
		}
		if !IsIPv4(s) {
			res.Invalid = s
			return res
		}
		res.OK = true
	default:
		res.OK = expected == actual
	}
	return res
}

// IsIPv4 reports whether s is a strict dotted quad: four base-10 octets in 0-255 and nothing else.
func IsIPv4(s string) bool {
	if validate.Var(s, "ipv4") != nil {
		return false
	}
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 {
			return false
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return false
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}
