package yamlform

import (
	"fmt"
	"sort"
	"strings"
)

// edit replaces src[start:end] of the original text with text.
type edit struct {
	start, end int
	text       string
	seq        int
}

// editList collects the replacements of one patch pass. Every edit addresses the
// original text; nothing is spliced until apply runs.
type editList struct {
	edits []edit
}

func (l *editList) replace(start, end int, text string) {
	if start == end && text == "" {
		return
	}
	l.edits = append(l.edits, edit{start: start, end: end, text: text, seq: len(l.edits)})
}

func (l *editList) insert(pos int, text string) {
	l.replace(pos, pos, text)
}

func (l *editList) remove(start, end int) {
	if start < end {
		l.replace(start, end, "")
	}
}

func (l *editList) count() int { return len(l.edits) }

// apply splices the edits into src in a single left to right pass. Edits at the same
// position keep the order in which they were recorded. Overlapping deletions merge;
// any other overlap is an error. Trailing blanks left on lines an edit touched are
// trimmed.
func (l *editList) apply(src string) (string, error) {
	if len(l.edits) == 0 {
		return src, nil
	}
	sorted := make([]edit, len(l.edits))
	copy(sorted, l.edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end != b.end {
			return a.end < b.end
		}
		return a.seq < b.seq
	})

	merged := sorted[:1]
	for _, e := range sorted[1:] {
		prev := &merged[len(merged)-1]
		if e.start < prev.end {
			if e.text != "" || prev.text != "" {
				return "", fmt.Errorf("%w: [%d,%d) and [%d,%d)", ErrOverlappingEdits, prev.start, prev.end, e.start, e.end)
			}
			if e.end > prev.end {
				prev.end = e.end
			}
			continue
		}
		merged = append(merged, e)
	}

	var (
		b       strings.Builder
		touched [][2]int
		last    int
	)
	b.Grow(len(src))
	for _, e := range merged {
		if e.end > len(src) || e.start < last {
			return "", fmt.Errorf("%w: [%d,%d) outside text", ErrOverlappingEdits, e.start, e.end)
		}
		b.WriteString(src[last:e.start])
		s := b.Len()
		b.WriteString(e.text)
		touched = append(touched, [2]int{s, b.Len()})
		last = e.end
	}
	b.WriteString(src[last:])
	return trimTouched(b.String(), touched), nil
}

// trimTouched removes trailing blanks from the lines that received text, and from a
// line that now ends exactly where a deletion happened.
func trimTouched(out string, touched [][2]int) string {
	var cuts [][2]int
	for _, r := range touched {
		s, e := r[0], r[1]
		for ls := lineStart(out, s); ls <= e && ls <= len(out); {
			le := lineEnd(out, ls)
			w := le
			for w > ls && (out[w-1] == ' ' || out[w-1] == '\t') {
				w--
			}
			hit := w < le && ((s == e && le == s) || (w < e && le > s))
			if hit && (len(cuts) == 0 || cuts[len(cuts)-1][0] != w) {
				cuts = append(cuts, [2]int{w, le})
			}
			next := rowEnd(out, ls)
			if next == ls || next >= len(out) && le == len(out) {
				break
			}
			ls = next
		}
	}
	if len(cuts) == 0 {
		return out
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i][0] < cuts[j][0] })
	var b strings.Builder
	last := 0
	for _, c := range cuts {
		if c[0] < last {
			continue
		}
		b.WriteString(out[last:c[0]])
		last = c[1]
	}
	b.WriteString(out[last:])
	return b.String()
}
