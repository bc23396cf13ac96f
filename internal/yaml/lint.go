package yaml

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// listKeys are keys that test plans expect to hold a list or nested content, never nothing.
var listKeys = map[string]bool{
	"machines":              true,
	"firmware":              true,
	"kernel_drivers":        true,
	"ras_reliability_tools": true,
}

// recentSyntaxWindow is how far back a missing-colon error suppresses indentation reports it likely caused.
const recentSyntaxWindow = 100

var rangePattern = regexp.MustCompile(`in lines (\d+)-(\d+)`)

type srcLine struct {
	raw     string
	content string
	indent  int
}

func (l srcLine) skip() bool {
	return l.content == "" || strings.HasPrefix(l.content, "#")
}

// Lint runs heuristic checks for the mistakes people make when hand-editing test plans, then the
// parser itself. Problems are sorted by line. A problem spanning a range of lines hides single-line
// problems inside that range. Returns nil for a clean document.
func Lint(content string) []*ValidationError {
	l := &linter{lines: splitLines(content), syntaxLines: map[int]bool{}}
	for i := range l.lines {
		l.check(i)
	}
	if err := ValidateSyntax(strings.NewReader(content)); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			l.problems = append(l.problems, &ValidationError{Line: ve.Line, Column: ve.Column, Message: ve.Message})
		}
	}
	return dedupe(l.problems)
}

type linter struct {
	lines       []srcLine
	syntaxLines map[int]bool
	problems    []*ValidationError
	// inBlock is set while scanning the body of a block scalar opened at blockIndent.
	inBlock     bool
	blockIndent int
}

func splitLines(content string) []srcLine {
	raw := strings.Split(content, "\n")
	out := make([]srcLine, len(raw))
	for i, r := range raw {
		r = strings.TrimRight(r, "\r")
		trimmed := strings.TrimSpace(r)
		out[i] = srcLine{raw: r, content: trimmed, indent: len(r) - len(strings.TrimLeft(r, " \t"))}
	}
	return out
}

func (l *linter) add(line, column int, format string, args ...any) {
	l.problems = append(l.problems, &ValidationError{Line: line, Column: column, Message: fmt.Sprintf(format, args...)})
}

// next returns the line immediately after i, blank or not.
func (l *linter) next(i int) (srcLine, bool) {
	if i+1 >= len(l.lines) {
		return srcLine{}, false
	}
	return l.lines[i+1], true
}

func (l *linter) check(i int) {
	cur := l.lines[i]
	if cur.skip() {
		return
	}
	if l.inBlock {
		if cur.indent > l.blockIndent {
			return
		}
		l.inBlock = false
	}

	lineNo := i + 1
	l.checkMissingColon(lineNo, cur)
	l.checkBareParent(i, cur)
	if strings.HasPrefix(cur.content, "- ") {
		l.checkItemSiblings(i, cur)
		l.checkDashedParent(i, cur)
	}
	l.checkEmptyList(i, cur)

	if opensBlockScalar(cur.content) {
		l.inBlock = true
		l.blockIndent = cur.indent
	}
}

// checkMissingColon flags "type debian" where "type: debian" was meant.
func (l *linter) checkMissingColon(lineNo int, cur srcLine) {
	c := cur.content
	if strings.HasPrefix(c, "-") || !strings.Contains(c, " ") || strings.Contains(c, ":") {
		return
	}
	key, rest, _ := strings.Cut(c, " ")
	if strings.HasPrefix(rest, "#") || strings.ContainsAny(key, "[]{},") {
		return
	}
	l.syntaxLines[lineNo] = true
	l.add(lineNo, len(key)+1, "syntax error: could not find expected ':'")
}

// checkBareParent flags a single word followed by more deeply indented content.
func (l *linter) checkBareParent(i int, cur srcLine) {
	c := cur.content
	if strings.HasPrefix(c, "-") || strings.Contains(c, " ") || strings.Contains(c, ":") || strings.Contains(c, "[]") {
		return
	}
	nxt, ok := l.next(i)
	if !ok || nxt.skip() || nxt.indent <= cur.indent {
		return
	}
	l.syntaxLines[i+1] = true
	l.add(i+1, len(c)+1, "syntax error: could not find expected ':' (missing colon after '%s')", c)
}

// checkItemSiblings flags keys of a "- key: value" item indented left of the inline key.
func (l *linter) checkItemSiblings(i int, cur srcLine) {
	if !strings.Contains(cur.content[2:], ":") {
		return
	}
	expected := cur.indent + 2

	var siblings []int
	for j := i + 1; j < len(l.lines); j++ {
		nxt := l.lines[j]
		if nxt.skip() {
			continue
		}
		dashed := strings.HasPrefix(nxt.content, "-")
		if dashed && nxt.indent == cur.indent {
			break
		}
		if !strings.Contains(nxt.content, ":") || dashed {
			continue
		}
		if nxt.indent < cur.indent {
			break
		}
		if nxt.indent < expected {
			siblings = append(siblings, j+1)
		}
	}
	if len(siblings) == 0 {
		return
	}

	first, last := siblings[0], siblings[len(siblings)-1]
	for errLine := range l.syntaxLines {
		if errLine < first && first-errLine < recentSyntaxWindow {
			return
		}
	}

	actual := l.lines[first-1].indent
	if len(siblings) > 1 {
		l.add(first, 1, "wrong indentation in lines %d-%d: expected %d but found %d", first, last, expected, actual)
		return
	}
	l.add(first, 1, "wrong indentation: expected %d but found %d", expected, actual)
}

// checkDashedParent flags "- key:" whose children sit deeper than an item's keys would, meaning the
// dash is a mistake.
func (l *linter) checkDashedParent(i int, cur srcLine) {
	if !strings.Contains(cur.content, ":") {
		return
	}
	nxt, ok := l.next(i)
	if !ok || nxt.content == "" || !strings.Contains(nxt.content, ":") || strings.HasPrefix(nxt.content, "-") {
		return
	}
	if nxt.indent <= cur.indent+2 {
		return
	}
	key, _, _ := strings.Cut(cur.content[2:], ":")
	l.add(i+1, 1, "syntax error: could not find expected ':' (should be '%s:' without '-')", key)
}

// checkEmptyList flags list keys left without a value when the next line is a sibling.
func (l *linter) checkEmptyList(i int, cur srcLine) {
	if !strings.Contains(cur.content, ":") || strings.HasPrefix(cur.content, "-") {
		return
	}
	key, value, _ := strings.Cut(cur.content, ":")
	key = strings.TrimSpace(key)
	if strings.TrimSpace(value) != "" || !listKeys[key] {
		return
	}
	nxt, ok := l.next(i)
	if !ok || nxt.content == "" || !strings.Contains(nxt.content, ":") || strings.HasPrefix(nxt.content, "-") {
		return
	}
	if nxt.indent > cur.indent {
		return
	}
	l.add(i+1, len(key)+2, "empty value for '%s' (should be explicit empty list '[]' or nested content)", key)
}

func opensBlockScalar(content string) bool {
	_, value, ok := strings.Cut(content, ":")
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	switch value[0] {
	case '|', '>':
		return true
	}
	return false
}

func dedupe(problems []*ValidationError) []*ValidationError {
	if len(problems) == 0 {
		return nil
	}
	sort.SliceStable(problems, func(a, b int) bool { return problems[a].Line < problems[b].Line })

	covered := map[int]bool{}
	for _, p := range problems {
		m := rangePattern.FindStringSubmatch(p.Message)
		if m == nil {
			continue
		}
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		for n := start + 1; n <= end; n++ {
			covered[n] = true
		}
	}

	type seenKey struct {
		line int
		msg  string
	}
	seen := map[seenKey]bool{}
	var out []*ValidationError
	for _, p := range problems {
		if covered[p.Line] {
			continue
		}
		k := seenKey{p.Line, p.Message}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return out
}
