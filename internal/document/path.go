package document

import (
	"strconv"
	"strings"
)

// Join appends a segment to a dotted path.
func Join(parent, segment string) string {
	if parent == "" {
		return segment
	}
	return parent + "." + segment
}

// Lookup walks a dotted path from v. Object segments match keys; array segments are decimal indexes.
func (v Value) Lookup(path string) (Value, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch cur.kind {
		case KindObject:
			next, ok := cur.Get(seg)
			if !ok {
				return Value{}, false
			}
			cur = next
		case KindArray:
			idx, err := strconv.Atoi(seg)
			if err != nil {
				return Value{}, false
			}
			next, ok := cur.Index(idx)
			if !ok {
				return Value{}, false
			}
			cur = next
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// HasKeyDeep reports whether key appears as an object key at any depth. Only nested objects are
// searched; arrays are not descended into.
func (v Value) HasKeyDeep(key string) bool {
	if v.kind != KindObject {
		return false
	}
	if _, ok := v.Get(key); ok {
		return true
	}
	for _, f := range v.fields {
		if f.Value.kind == KindObject && f.Value.HasKeyDeep(key) {
			return true
		}
	}
	return false
}
