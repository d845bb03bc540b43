package yamlform

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Mark addresses a position in the document text.
type Mark struct {
	Offset int // byte offset
	Line   int // zero based
	Column int // zero based, counted in characters
}

// lineIndex translates the parser's line/column coordinates into byte offsets.
type lineIndex struct {
	src    string
	starts []int
}

func newLineIndex(src string) *lineIndex {
	starts := []int{0}
	if strings.HasPrefix(src, "\ufeff") {
		starts[0] = len("\ufeff")
	}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{src: src, starts: starts}
}

// mark converts yaml.v3's one-based line and character column to a Mark.
func (li *lineIndex) mark(line, column int) Mark {
	l := line - 1
	if l < 0 {
		return Mark{}
	}
	if l >= len(li.starts) {
		return li.markAt(len(li.src))
	}
	off := li.starts[l]
	for c := 0; c < column-1 && off < len(li.src) && li.src[off] != '\n'; c++ {
		_, w := utf8.DecodeRuneInString(li.src[off:])
		off += w
	}
	return Mark{Offset: off, Line: l, Column: column - 1}
}

// markAt builds the Mark of a byte offset.
func (li *lineIndex) markAt(offset int) Mark {
	if offset > len(li.src) {
		offset = len(li.src)
	}
	l := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	if l < 0 {
		l = 0
	}
	start := li.starts[l]
	if start > offset {
		start = offset
	}
	return Mark{Offset: offset, Line: l, Column: utf8.RuneCountInString(li.src[start:offset])}
}

func lineStart(src string, pos int) int {
	return strings.LastIndexByte(src[:pos], '\n') + 1
}

// lineEnd returns the offset of the line break ending the line holding pos, or the end
// of the text. A carriage return before the break is not part of the line.
func lineEnd(src string, pos int) int {
	i := strings.IndexByte(src[pos:], '\n')
	if i < 0 {
		return len(src)
	}
	e := pos + i
	if e > pos && src[e-1] == '\r' {
		e--
	}
	return e
}

// rowEnd returns the offset just past the line break ending the line holding pos.
func rowEnd(src string, pos int) int {
	i := strings.IndexByte(src[pos:], '\n')
	if i < 0 {
		return len(src)
	}
	return pos + i + 1
}

// rowBounds widens [start, last] to whole lines so that removing it leaves no blank
// line behind. When the row is the unterminated last line, the preceding line break
// goes instead of the (missing) trailing one.
func rowBounds(src string, start, last int) (int, int) {
	end := rowEnd(src, last)
	if end == len(src) && !strings.HasSuffix(src, "\n") && start > 0 && start == lineStart(src, start) {
		start--
		if start > 0 && src[start-1] == '\r' {
			start--
		}
	}
	return start, end
}

func leadingSpaces(line string) int {
	i := 0
	for i < len(line) && line[i] == ' ' {
		i++
	}
	return i
}

// indentOf returns the indentation of the line holding pos.
func indentOf(src string, pos int) int {
	ls := lineStart(src, pos)
	return leadingSpaces(src[ls:lineEnd(src, ls)])
}

// firstOnLine reports whether only blanks precede pos on its line.
func firstOnLine(src string, pos int) bool {
	return strings.TrimLeft(src[lineStart(src, pos):pos], " \t") == ""
}

func isBlankOrCommentLine(line string) bool {
	t := strings.TrimSpace(line)
	return t == "" || t[0] == '#'
}

// commentStart returns the offset of the '#' opening a comment on the line segment
// [from, lineEnd), or -1.
func commentStart(src string, from int) int {
	end := lineEnd(src, from)
	for i := from; i < end; i++ {
		if src[i] == '#' && (i == 0 || src[i-1] == ' ' || src[i-1] == '\t' || i == from) {
			return i
		}
	}
	return -1
}

// effectiveEnd extends pos to the end of its line and then past the comment-only lines
// that directly follow and are indented at least minIndent, so text inserted there
// does not separate trailing comments from the block they describe.
func effectiveEnd(src string, pos, minIndent int) int {
	p := lineEnd(src, pos)
	for {
		next := rowEnd(src, p)
		if next >= len(src) {
			return p
		}
		le := lineEnd(src, next)
		line := src[next:le]
		t := strings.TrimLeft(line, " \t")
		if t == "" || t[0] != '#' || leadingSpaces(line) < minIndent {
			return p
		}
		p = le
	}
}

// dashBefore finds the '-' sequence entry indicator preceding an item that starts at
// pos, skipping blanks, line breaks and comments. It returns -1 when none is found.
func dashBefore(src string, pos int) int {
	i := pos - 1
	for i >= 0 {
		switch c := src[i]; {
		case c == '-':
			return i
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i--
		default:
			ls := lineStart(src, i)
			cs := commentStart(src, ls)
			if cs < 0 || cs > i {
				return -1
			}
			i = cs - 1
		}
	}
	return -1
}

// colonAfter returns the offset just past the ':' value indicator following a key
// that ends at pos, or -1.
func colonAfter(src string, pos int) int {
	for i := pos; i < len(src); i++ {
		switch src[i] {
		case ' ', '\t':
			continue
		case ':':
			return i + 1
		}
		return -1
	}
	return -1
}

// plainCut returns where a plain scalar stops on one line segment.
func plainCut(seg string, flow bool) int {
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case c == '#' && (i == 0 || seg[i-1] == ' ' || seg[i-1] == '\t'):
			return i
		case c == ':' && (i+1 == len(seg) || seg[i+1] == ' ' || seg[i+1] == '\t' || seg[i+1] == '\r' ||
			(flow && strings.IndexByte(",[]{}", seg[i+1]) >= 0)):
			return i
		case flow && strings.IndexByte(",[]{}", c) >= 0:
			return i
		}
	}
	return len(seg)
}

// plainEnd finds the end of a plain scalar starting at start. Multi-line plain scalars
// are followed line by line until their words add up to the decoded value.
func plainEnd(src string, start int, flow bool, value string) int {
	want := len(strings.Fields(value))
	if want == 0 {
		return start
	}
	pos, end, got := start, start, 0
	for pos <= len(src) {
		le := strings.IndexByte(src[pos:], '\n')
		if le < 0 {
			le = len(src)
		} else {
			le += pos
		}
		seg := src[pos:le]
		cut := plainCut(seg, flow)
		if t := strings.TrimRight(seg[:cut], " \t\r"); strings.TrimSpace(t) != "" {
			got += len(strings.Fields(t))
			end = pos + len(t)
		}
		if got >= want || cut < len(seg) || le >= len(src) {
			break
		}
		pos = le + 1
	}
	return end
}

// quotedEnd returns the offset just past the closing quote of a quoted scalar.
func quotedEnd(src string, start int) int {
	quote := src[start]
	for i := start + 1; i < len(src); i++ {
		switch c := src[i]; {
		case quote == '"' && c == '\\':
			i++
		case c == quote:
			if quote == '\'' && i+1 < len(src) && src[i+1] == '\'' {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(src)
}

// blockScalarEnd returns the end of the last non-blank content line of a literal or
// folded scalar whose indicator is at start. Content must be indented deeper than
// parentIndent.
func blockScalarEnd(src string, start, parentIndent int) int {
	end := start + 1
	for end < len(src) && strings.IndexByte("+-0123456789", src[end]) >= 0 {
		end++
	}
	contentIndent := -1
	for i := start + 1; i < end; i++ {
		if src[i] >= '1' && src[i] <= '9' {
			contentIndent = parentIndent + int(src[i]-'0')
			if parentIndent < 0 {
				contentIndent = int(src[i] - '0')
			}
		}
	}
	pos := rowEnd(src, start)
	if pos == len(src) && !strings.HasSuffix(src, "\n") {
		return end
	}
	for pos < len(src) {
		le := lineEnd(src, pos)
		line := src[pos:le]
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			pos = rowEnd(src, pos)
			continue
		}
		ind := leadingSpaces(line)
		if contentIndent < 0 {
			if ind <= parentIndent {
				break
			}
			contentIndent = ind
		}
		if ind < contentIndent {
			break
		}
		end = pos + len(trimmed)
		pos = rowEnd(src, pos)
	}
	return end
}

// aliasEnd returns the end of an alias or anchor token starting at start.
func aliasEnd(src string, start int) int {
	i := start + 1
	for i < len(src) && strings.IndexByte(" \t\r\n,[]{}", src[i]) < 0 {
		i++
	}
	return i
}

// flowEnd returns the offset just past the closing bracket of a flow collection, scanning
// from pos, which must be past every child of the collection.
func flowEnd(src string, pos int) int {
	for i := pos; i < len(src); i++ {
		switch src[i] {
		case ']', '}':
			return i + 1
		case '#':
			if i == 0 || strings.IndexByte(" \t\n", src[i-1]) >= 0 {
				i = lineEnd(src, i)
			}
		}
	}
	return len(src)
}

// newlineOf returns the line break sequence used by src.
func newlineOf(src string) string {
	if strings.Contains(src, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// indentLines prefixes every non-empty line of text with n spaces.
func indentLines(text string, n int) string {
	if n <= 0 {
		return text
	}
	pad := strings.Repeat(" ", n)
	lines := strings.Split(text, "\n")
	for i, ln := range lines {
		if strings.TrimRight(ln, "\r") != "" {
			lines[i] = pad + ln
		}
	}
	return strings.Join(lines, "\n")
}

// dedentLines removes the indentation common to every non-blank line of text.
func dedentLines(text string) string {
	lines := strings.Split(text, "\n")
	n := -1
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		if sp := leadingSpaces(ln); n < 0 || sp < n {
			n = sp
		}
	}
	if n <= 0 {
		return text
	}
	for i, ln := range lines {
		if len(ln) >= n {
			lines[i] = ln[n:]
		} else {
			lines[i] = strings.TrimLeft(ln, " ")
		}
	}
	return strings.Join(lines, "\n")
}
