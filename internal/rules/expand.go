package rules

import (
	"strconv"
	"strings"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/document"
)

// IsPattern reports whether a required key contains "[]" or "*" segments.
func IsPattern(key string) bool {
	if strings.Contains(key, "[]") {
		return true
	}
	for _, seg := range strings.Split(key, ".") {
		if seg == "*" {
			return true
		}
	}
	return false
}

// Expand resolves a required-key pattern against doc into concrete dotted paths. A "name[]" segment
// fans out over the elements of the array stored under name and "*" over the children of an object.
// A wildcard over a missing or mismatched container yields nothing; presence of the container itself
// is a separate rule. Once a literal segment is missing the remaining pattern is emitted as-is so the
// caller reports the exact path that could not be resolved.
func Expand(pattern string, doc document.Value) []string {
	if !IsPattern(pattern) {
		return []string{pattern}
	}
	var out []string
	expand(strings.Split(pattern, "."), doc, "", true, &out)
	return out
}

func expand(segs []string, cur document.Value, prefix string, present bool, out *[]string) {
	if len(segs) == 0 {
		*out = append(*out, prefix)
		return
	}
	seg := segs[0]

	if !present {
		*out = append(*out, document.Join(prefix, literal(strings.Join(segs, "."))))
		return
	}

	switch {
	case seg == "*":
		for _, f := range cur.Fields() {
			expand(segs[1:], f.Value, document.Join(prefix, f.Key), true, out)
		}
	case strings.HasSuffix(seg, "[]"):
		name := strings.TrimSuffix(seg, "[]")
		arr, ok := cur.Get(name)
		if !ok || arr.Kind() != document.KindArray {
			return
		}
		base := document.Join(prefix, name)
		for i, it := range arr.Items() {
			expand(segs[1:], it, document.Join(base, strconv.Itoa(i)), true, out)
		}
	default:
		next, ok := child(cur, seg)
		expand(segs[1:], next, document.Join(prefix, seg), ok, out)
	}
}

func child(cur document.Value, seg string) (document.Value, bool) {
	if cur.Kind() == document.KindArray {
		i, err := strconv.Atoi(seg)
		if err != nil {
			return document.Value{}, false
		}
		return cur.Index(i)
	}
	return cur.Get(seg)
}

// literal strips wildcard markers from an unresolved tail so the reported path stays readable.
func literal(tail string) string {
	return strings.ReplaceAll(tail, "[]", "")
}
