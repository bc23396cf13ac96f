// Package flatten converts a nested document into dotted-path entries.
package flatten

import (
	"strconv"
	"strings"

	"github.com/XMY-ONE-LIFE/xadmin-zx/internal/document"
)

// Entry is one flattened path.
type Entry struct {
	Key   string
	Value document.Value
	// Leaf is true for scalars and empty containers. Non-empty containers are recorded as
	// non-leaf entries ahead of their children.
	Leaf bool
	// Empty caches Value.IsEmpty().
	Empty bool
}

// Map is an ordered, read-only flattening result.
type Map struct {
	entries []Entry
	index   map[string]int
}

// Flatten walks v depth-first in document order. Object fields extend the path with their key and
// array elements with their decimal index.
func Flatten(v document.Value) *Map {
	m := &Map{index: make(map[string]int)}
	if v.IsScalar() || v.Len() == 0 {
		m.add("", v, true)
		return m
	}
	m.walk("", v)
	return m
}

func (m *Map) walk(path string, v document.Value) {
	switch v.Kind() {
	case document.KindObject:
		for _, f := range v.Fields() {
			m.visit(document.Join(path, f.Key), f.Value)
		}
	case document.KindArray:
		for i, it := range v.Items() {
			m.visit(document.Join(path, strconv.Itoa(i)), it)
		}
	}
}

func (m *Map) visit(path string, v document.Value) {
	if v.IsScalar() || v.Len() == 0 {
		m.add(path, v, true)
		return
	}
	m.add(path, v, false)
	m.walk(path, v)
}

func (m *Map) add(key string, v document.Value, leaf bool) {
	if i, ok := m.index[key]; ok {
		// Keys containing dots can collide with nested paths; the later value wins.
		m.entries[i] = Entry{Key: key, Value: v, Leaf: leaf, Empty: v.IsEmpty()}
		return
	}
	m.index[key] = len(m.entries)
	m.entries = append(m.entries, Entry{Key: key, Value: v, Leaf: leaf, Empty: v.IsEmpty()})
}

// Len returns the number of entries, leaf and non-leaf.
func (m *Map) Len() int { return len(m.entries) }

// Entries returns every entry in document order.
func (m *Map) Entries() []Entry { return m.entries }

// Leaves returns the leaf entries in document order.
func (m *Map) Leaves() []Entry {
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Leaf {
			out = append(out, e)
		}
	}
	return out
}

// Get returns the entry stored at key.
func (m *Map) Get(key string) (Entry, bool) {
	i, ok := m.index[key]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Has reports whether key was recorded.
func (m *Map) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// HasPrefix reports whether any entry equals key or lies below it.
func (m *Map) HasPrefix(key string) bool {
	if m.Has(key) {
		return true
	}
	prefix := key + "."
	for _, e := range m.entries {
		if strings.HasPrefix(e.Key, prefix) {
			return true
		}
	}
	return false
}

// LeafName returns the final dotted segment of key.
func LeafName(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return key
}
