package yamlform

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	gyaml "github.com/goccy/go-yaml"
)

var errMismatch = errors.New("yamlform: patched text does not decode to the target value")

// Decode parses text into the ordered value model: gyaml.MapSlice for mappings, []any
// for sequences, int64, float64, bool, string or nil for scalars.
func Decode(text string) (any, error) {
	root, err := Compose(text)
	if err != nil {
		return nil, err
	}
	return root.Value, nil
}

// Patch returns text rewritten so that it decodes to target. Every region of text whose
// value is unchanged is kept byte for byte, including comments and layout. When target
// equals the current value the text is returned as is; when target is Undefined the
// result is empty.
func Patch(text string, target any) (string, error) {
	return patch(text, target, log.NewNopLogger())
}

func patch(text string, target any, logger log.Logger) (string, error) {
	want, err := normalize(target)
	if err != nil {
		return "", err
	}
	root, err := Compose(text)
	if err != nil {
		return "", err
	}
	if equalNormalized(root.Value, want) {
		return text, nil
	}
	if isUndefined(want) {
		return "", nil
	}

	p := newPatcher(text)
	walk(root, want, p)
	out, err := p.result()
	if err == nil {
		err = verify(out, want)
	}
	if err != nil {
		level.Warn(logger).Log("msg", "patching failed, serializing the document from scratch", "err", err)
		return p.fresh(want)
	}
	level.Debug(logger).Log("msg", "patched document", "edits", p.edits.count(), "bytes", len(out))
	return out, nil
}

func verify(out string, want any) error {
	got, err := Decode(out)
	if err != nil {
		return err
	}
	if !equalNormalized(got, want) {
		return errMismatch
	}
	return nil
}

// patcher turns the differences reported by walk into edits of the original text.
type patcher struct {
	src    string
	li     *lineIndex
	layout layout
	edits  editList
	// ends records where a block container's kept content now ends after trailing
	// children were removed.
	ends map[*Node]int
	err  error
}

var _ visitor = (*patcher)(nil)

func newPatcher(src string) *patcher {
	return &patcher{
		src:    src,
		li:     newLineIndex(src),
		layout: detectLayout(src),
		ends:   map[*Node]int{},
	}
}

func (p *patcher) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *patcher) result() (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.edits.apply(p.src)
}

// fresh serializes want without reusing the original text.
func (p *patcher) fresh(want any) (string, error) {
	out, err := p.layout.render(want, p.layout.indent, false)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(p.src, "\n") || p.src == "" {
		out += "\n"
	}
	return p.layout.lines(out), nil
}

func (p *patcher) replace(start, end int, text string) {
	p.edits.replace(start, end, p.layout.lines(text))
}

func (p *patcher) insert(pos int, text string) {
	p.edits.insert(pos, p.layout.lines(text))
}

func (p *patcher) column(pos int) int {
	return p.li.markAt(pos).Column
}

// nodeEnd returns where the kept content of n ends in the original text.
func (p *patcher) nodeEnd(n *Node) int {
	if e, ok := p.ends[n]; ok {
		return e
	}
	switch {
	case n.Inline || n.Alias:
		return n.End.Offset
	case len(n.Pairs) > 0:
		return p.pairEnd(n.Pairs[len(n.Pairs)-1])
	case len(n.Items) > 0:
		return p.nodeEnd(n.Items[len(n.Items)-1])
	}
	return n.End.Offset
}

func (p *patcher) pairEnd(pr Pair) int {
	return max(pr.Key.End.Offset, p.nodeEnd(pr.Value))
}

// valueStart returns where the value text of n begins. An anchor stays in place so the
// aliases pointing at it keep resolving.
func (p *patcher) valueStart(n *Node) int {
	pos := n.Start.Offset
	if pos < len(p.src) && p.src[pos] == '&' {
		pos = aliasEnd(p.src, pos)
		for pos < len(p.src) && (p.src[pos] == ' ' || p.src[pos] == '\t') {
			pos++
		}
		pos = min(pos, n.End.Offset)
	}
	return pos
}

// bodyIndent is the column block literal content is written at for a value at n.
func (p *patcher) bodyIndent(n *Node) int {
	switch {
	case n.Key != nil:
		return n.Key.Start.Column + p.layout.indent
	case n.Parent != nil && n.Parent.Kind == KindSequence:
		if d := dashBefore(p.src, n.Start.Offset); d >= 0 {
			return p.column(d) + p.layout.indent
		}
	}
	return indentOf(p.src, n.Start.Offset) + p.layout.indent
}

// trailingComment returns the comment following pos on its line, and the line end.
func (p *patcher) trailingComment(pos int) (string, int) {
	le := lineEnd(p.src, pos)
	if cs := commentStart(p.src, pos); cs >= 0 {
		return p.src[cs:le], le
	}
	return "", le
}

func (p *patcher) scalarChanged(n *Node, target any) {
	text, err := p.layout.scalar(target, p.bodyIndent(n), n.Flow)
	if err != nil {
		p.fail(err)
		return
	}
	start, end := p.valueStart(n), n.End.Offset
	if start == end && start > 0 && !isBlank(p.src[start-1]) {
		text = " " + text
	}
	if strings.Contains(text, "\n") {
		// a comment cannot follow the last line of a block literal
		if c, le := p.trailingComment(end); c != "" {
			text, end = withComment(text, c), le
		}
	}
	p.replace(start, end, text)
}

func (p *patcher) replaced(n *Node, target any) {
	switch {
	case n.Flow:
		p.replaceFlow(n, target)
	case n.Parent == nil:
		p.replaceRoot(n, target)
	case n.Key != nil:
		p.replaceValue(n, target)
	case n.Parent.Kind == KindSequence:
		p.replaceItem(n, target)
	default:
		p.replaceFlow(n, target)
	}
}

// keepsFlow reports whether n is a non-empty flow collection, whose replacement stays
// in flow style.
func keepsFlow(n *Node) bool {
	return n.Inline && !n.Empty()
}

func isBlockContainer(v any, flow bool) bool {
	switch v.(type) {
	case gyaml.MapSlice, []any:
		return !flow && !isEmptyContainer(v)
	}
	return false
}

func (p *patcher) replaceFlow(n *Node, target any) {
	text, err := p.layout.flow(target)
	if err != nil {
		p.fail(err)
		return
	}
	start, end := p.valueStart(n), n.End.Offset
	if start == end && start > 0 && p.src[start-1] == ':' {
		text = " " + text
	}
	p.replace(start, end, text)
}

func (p *patcher) replaceRoot(n *Node, target any) {
	flow := keepsFlow(n)
	text, err := p.layout.render(target, p.layout.indent, flow)
	if err != nil {
		p.fail(err)
		return
	}
	start, end := p.valueStart(n), n.End.Offset
	first := firstOnLine(p.src, start)
	if isBlockContainer(target, flow) {
		col := 0
		if first && start != end {
			col = p.column(start)
		}
		text = indentLines(text, col)
		if first {
			start = lineStart(p.src, start)
		}
	}
	if start == end {
		if !first {
			text = "\n" + text
		}
		if end == len(p.src) && strings.HasSuffix(p.src, "\n") {
			text += "\n"
		}
	}
	p.replace(start, end, text)
}

// replaceValue rewrites the value of a block mapping entry from just after its ':'.
func (p *patcher) replaceValue(n *Node, target any) {
	colon := colonAfter(p.src, n.Key.End.Offset)
	if colon < 0 {
		p.replaceFlow(n, target)
		return
	}
	keyCol := n.Key.Start.Column
	flow := keepsFlow(n)
	text, err := p.layout.render(target, keyCol+p.layout.indent, flow)
	if err != nil {
		p.fail(err)
		return
	}

	end := n.End.Offset
	sameLine := p.li.markAt(colon).Line == n.Start.Line
	comment, commentEnd := "", end
	if sameLine {
		comment, commentEnd = p.trailingComment(end)
	} else {
		comment, _ = p.trailingComment(colon)
	}

	if isBlockContainer(target, flow) {
		col := keyCol + p.layout.indent
		if _, ok := target.([]any); ok && !p.layout.indentSeq {
			col = keyCol
		}
		text = "\n" + indentLines(text, col)
		if comment != "" {
			text = " " + comment + text
			end = max(end, commentEnd)
		}
		p.replace(colon, end, text)
		return
	}

	text = " " + text
	switch {
	case !sameLine && comment != "":
		text = withComment(text, comment)
	case sameLine && comment != "" && strings.Contains(text, "\n"):
		text, end = withComment(text, comment), commentEnd
	}
	p.replace(colon, end, text)
}

// replaceItem rewrites a block sequence entry from just after its '-' indicator.
func (p *patcher) replaceItem(n *Node, target any) {
	d := dashBefore(p.src, n.Start.Offset)
	if d < 0 {
		p.replaceFlow(n, target)
		return
	}
	dashCol := p.column(d)
	flow := keepsFlow(n)
	text, err := p.layout.render(target, dashCol+p.layout.indent, flow)
	if err != nil {
		p.fail(err)
		return
	}
	end := n.End.Offset
	if isBlockContainer(target, flow) {
		// the first line follows "- ", the rest align with it
		col := dashCol + 2
		text = indentLines(text, col)[col:]
	} else if strings.Contains(text, "\n") {
		if c, le := p.trailingComment(end); c != "" {
			text, end = withComment(text, c), le
		}
	}
	p.replace(d+1, end, " "+text)
}

func (p *patcher) keysRemoved(m *Node, removed []int) {
	gone := make(map[int]bool, len(removed))
	for _, i := range removed {
		gone[i] = true
	}
	nextKept := func(i int) int {
		for j := i + 1; j < len(m.Pairs); j++ {
			if !gone[j] {
				return j
			}
		}
		return -1
	}
	lastKept := -1
	for j := len(m.Pairs) - 1; j >= 0; j-- {
		if !gone[j] {
			lastKept = j
			break
		}
	}

	for _, i := range removed {
		pr := m.Pairs[i]
		start, last := pr.Key.Start.Offset, max(pr.Key.End.Offset, pr.Value.End.Offset)
		next := nextKept(i)
		switch {
		case m.Inline && next >= 0:
			p.edits.remove(start, m.Pairs[next].Key.Start.Offset)
		case m.Inline:
			p.edits.remove(p.pairEnd(m.Pairs[lastKept]), last)
		case firstOnLine(p.src, start):
			s, e := rowBounds(p.src, lineStart(p.src, start), last)
			p.edits.remove(s, e)
		case next >= 0:
			// entry shares its line with a "- " or "? " indicator: pull the next kept
			// entry up in its place
			p.edits.remove(start, m.Pairs[next].Key.Start.Offset)
		default:
			p.fail(fmt.Errorf("yamlform: cannot remove key %q", keyString(pr.Key.Value)))
			return
		}
	}
	if !m.Inline && lastKept < len(m.Pairs)-1 {
		p.ends[m] = p.pairEnd(m.Pairs[lastKept])
	}
}

func (p *patcher) keysAdded(m *Node, after Pair, items gyaml.MapSlice) {
	if m.Inline {
		text, err := p.layout.flowEntries(items)
		if err != nil {
			p.fail(err)
			return
		}
		p.insert(p.pairEnd(after), ", "+text)
		return
	}
	text, err := p.layout.block(items)
	if err != nil {
		p.fail(err)
		return
	}
	keyCol := m.Pairs[0].Key.Start.Column
	pos := effectiveEnd(p.src, p.pairEnd(after), keyCol)
	p.insert(pos, "\n"+indentLines(text, keyCol))
}

func (p *patcher) elementsRemoved(s *Node, from int) {
	lastItem := s.Items[len(s.Items)-1]
	if s.Inline {
		p.edits.remove(s.Items[from-1].End.Offset, lastItem.End.Offset)
		return
	}
	for _, it := range s.Items[from:] {
		d := dashBefore(p.src, it.Start.Offset)
		if d < 0 {
			p.fail(fmt.Errorf("yamlform: no sequence entry indicator before offset %d", it.Start.Offset))
			return
		}
		start, end := rowBounds(p.src, lineStart(p.src, d), it.End.Offset)
		p.edits.remove(start, end)
	}
	p.ends[s] = p.nodeEnd(s.Items[from-1])
}

func (p *patcher) elementsAdded(s *Node, items []any) {
	last := s.Items[len(s.Items)-1]
	if s.Inline {
		text, err := p.layout.flowEntries(items)
		if err != nil {
			p.fail(err)
			return
		}
		p.insert(last.End.Offset, ", "+text)
		return
	}
	d := dashBefore(p.src, last.Start.Offset)
	if d < 0 {
		p.fail(fmt.Errorf("yamlform: no sequence entry indicator before offset %d", last.Start.Offset))
		return
	}
	text, err := p.layout.block(items)
	if err != nil {
		p.fail(err)
		return
	}
	col := p.column(d)
	pos := effectiveEnd(p.src, p.nodeEnd(last), col)
	p.insert(pos, "\n"+indentLines(text, col))
}

// withComment appends comment to the first line of text.
func withComment(text, comment string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i] + " " + comment + text[i:]
	}
	return text + " " + comment
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
