// Package locator maps dotted key paths back to line numbers in raw YAML text.
//
// The scan is a heuristic over indentation. It assumes two-space indentation and block style; flow
// collections and multi-document streams are not understood. A sequence nested directly in a
// sequence ("- - x") is not descended, so paths below its outer items are not found. A miss is never
// an error, callers just go without a line number.
package locator

import (
	"regexp"
	"strconv"
	"strings"
)

// NotFound is returned by FindLine when the path could not be matched.
const NotFound = -1

var bracketPattern = regexp.MustCompile(`\[([^\]]+)\]`)

// ExtractPath returns the first non-empty bracketed token in msg, e.g. "hardware.cpu" from
// "E002 Unsupported: empty value for [hardware.cpu]".
func ExtractPath(msg string) (string, bool) {
	m := bracketPattern.FindStringSubmatch(msg)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// line is a significant source line: not blank, not a comment.
type line struct {
	no   int    // 1-based line number
	col  int    // leading whitespace width
	text string // trimmed content
}

func (l line) level() int { return l.col / 2 }

func (l line) isItem() bool {
	return l.text == "-" || strings.HasPrefix(l.text, "- ")
}

// FindLine returns the 1-based line on which the final segment of path is declared, or NotFound.
//
// Segments are matched in order at increasing indentation levels. When a matched key is followed by a
// sequence, the remaining segments are searched inside the sequence items: a numeric segment selects
// an item by index, any other segment is tried against each item in turn.
func FindLine(source, path string) int {
	if source == "" || path == "" {
		return NotFound
	}
	return seek(scan(source), strings.Split(path, "."), 0)
}

func scan(source string) []line {
	raw := strings.Split(source, "\n")
	out := make([]line, 0, len(raw))
	for i, l := range raw {
		l = strings.TrimRight(l, "\r")
		text := strings.TrimSpace(l)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		out = append(out, line{no: i + 1, col: len(l) - len(strings.TrimLeft(l, " \t")), text: text})
	}
	return out
}

// seek matches segs in order starting at the given indentation level. A line that does not match is
// skipped without changing state.
func seek(lines []line, segs []string, level int) int {
	i := 0
	for pos, l := range lines {
		if l.level() != level || !matchesKey(l.text, segs[i]) {
			continue
		}
		i++
		if i == len(segs) {
			return l.no
		}
		if pos+1 < len(lines) && lines[pos+1].isItem() {
			return inSequence(lines[pos+1:], segs[i:])
		}
		level = l.level() + 1
	}
	return NotFound
}

// inSequence searches the items of the sequence that starts at lines[0].
func inSequence(lines []line, segs []string) int {
	items := splitItems(lines)

	if idx, err := strconv.Atoi(segs[0]); err == nil {
		if idx < 0 || idx >= len(items) {
			return NotFound
		}
		item := items[idx]
		if len(segs) == 1 {
			return item[0].no
		}
		return inItem(item, segs[1:])
	}

	for _, item := range items {
		if n := inItem(item, segs); n != NotFound {
			return n
		}
	}
	return NotFound
}

// splitItems cuts a sequence into item blocks. An item runs from its dash line to the next line
// indented at or left of the dash; the sequence ends at the first such line that is not another item.
func splitItems(lines []line) [][]line {
	dash := lines[0].col
	var items [][]line
	for _, l := range lines {
		switch {
		case l.col == dash && l.isItem():
			items = append(items, []line{l})
		case l.col <= dash:
			return items
		default:
			items[len(items)-1] = append(items[len(items)-1], l)
		}
	}
	return items
}

// inItem searches one sequence item. The content after the dash becomes a virtual line indented to
// where that content starts, so "- id: 1" and the keys below it share a level.
func inItem(item []line, segs []string) int {
	first := item[0]
	rest := strings.TrimLeft(strings.TrimPrefix(first.text, "-"), " ")
	if rest == "" {
		if len(item) == 1 {
			return NotFound
		}
		return seek(item[1:], segs, item[1].level())
	}

	virtual := line{no: first.no, col: first.col + len(first.text) - len(rest), text: rest}
	lines := append([]line{virtual}, item[1:]...)
	return seek(lines, segs, virtual.level())
}

// matchesKey reports whether text declares key, allowing quotes and spaces before the colon.
func matchesKey(text, key string) bool {
	for _, candidate := range []string{key, `"` + key + `"`, `'` + key + `'`} {
		if !strings.HasPrefix(text, candidate) {
			continue
		}
		after := strings.TrimLeft(text[len(candidate):], " \t")
		if strings.HasPrefix(after, ":") {
			return true
		}
	}
	return false
}
