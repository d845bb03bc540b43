package yamlform

import (
	"fmt"
	"strconv"
	"strings"

	gyaml "github.com/goccy/go-yaml"
)

// layout is the formatting detected from a document and reused for every piece of
// freshly serialized text spliced into it.
type layout struct {
	indent    int    // detected indent (2 or 4 spaces typically)
	indentSeq bool   // whether sequences under a key are indented
	newline   string // line break used by the document
}

func detectLayout(text string) layout {
	ind, seq := detectIndentAndSequence(text)
	return layout{indent: ind, indentSeq: seq, newline: newlineOf(text)}
}

// block serializes a value in block style at column 0, without the trailing line break.
func (l layout) block(v any) (string, error) {
	if isEmptyContainer(v) {
		return emptyForm(v), nil
	}
	b, err := gyaml.MarshalWithOptions(v,
		gyaml.Indent(l.indent),
		gyaml.IndentSequence(l.indentSeq),
		gyaml.UseLiteralStyleIfMultiline(true),
	)
	if err != nil {
		return "", fmt.Errorf("yamlform: failed to serialize value: %w", err)
	}
	out := strings.TrimRight(string(b), "\n")
	if _, ok := v.([]any); ok && l.indentSeq {
		// IndentSequence shifts a top-level sequence too; callers place the text.
		out = dedentLines(out)
	}
	return out, nil
}

// flow serializes a value in flow style on a single line.
func (l layout) flow(v any) (string, error) {
	if isEmptyContainer(v) {
		return emptyForm(v), nil
	}
	switch v.(type) {
	case gyaml.MapSlice, []any:
	default:
		return l.scalar(v, 0, true)
	}
	b, err := gyaml.MarshalWithOptions(v, gyaml.Flow(true))
	if err != nil {
		return "", fmt.Errorf("yamlform: failed to serialize value: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// flowEntries serializes the entries of a mapping or sequence as they appear between
// the brackets of a flow collection.
func (l layout) flowEntries(v any) (string, error) {
	s, err := l.flow(v)
	if err != nil {
		return "", err
	}
	if len(s) >= 2 {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s, nil
}

// scalar renders a scalar value. Multi-line strings outside flow context become block
// literals whose content lines are indented to the absolute column indent.
func (l layout) scalar(v any, indent int, flow bool) (string, error) {
	if s, ok := v.(string); ok {
		if strings.Contains(s, "\n") {
			if !flow {
				if lit, ok := literal(s, indent); ok {
					return lit, nil
				}
			}
			return strconv.Quote(s), nil
		}
		if flow && strings.ContainsAny(s, ",[]{}#:") {
			return strconv.Quote(s), nil
		}
	}
	if v == nil {
		return "null", nil
	}
	b, err := gyaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("yamlform: failed to serialize value: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// render serializes v according to the context it is spliced into: scalars inline,
// containers in flow or block style.
func (l layout) render(v any, indent int, flow bool) (string, error) {
	switch {
	case isEmptyContainer(v):
		return emptyForm(v), nil
	case flow:
		return l.flow(v)
	}
	switch v.(type) {
	case gyaml.MapSlice, []any:
		return l.block(v)
	}
	return l.scalar(v, indent, false)
}

// lines converts generated text to the document's line break.
func (l layout) lines(text string) string {
	if l.newline == "\n" {
		return text
	}
	return strings.ReplaceAll(text, "\n", l.newline)
}

// literal renders s as a block literal ("|-", "|" or "|+" chomping is chosen from
// the trailing line breaks). It reports false when s cannot be written as a literal
// without an indentation indicator or without losing trailing blanks.
func literal(s string, indent int) (string, bool) {
	header, body := "|-", s
	switch {
	case strings.HasSuffix(s, "\n\n"):
		return "", false
	case strings.HasSuffix(s, "\n"):
		header, body = "|", strings.TrimSuffix(s, "\n")
	}
	if strings.ContainsAny(body, "\r\x00") || strings.HasPrefix(body, " ") || strings.HasPrefix(body, "\t") {
		return "", false
	}
	pad := strings.Repeat(" ", indent)
	lines := strings.Split(body, "\n")
	for i, ln := range lines {
		if strings.TrimRight(ln, " \t") != ln {
			return "", false
		}
		if ln != "" {
			lines[i] = pad + ln
		}
	}
	if strings.TrimSpace(body) == "" {
		return "", false
	}
	return header + "\n" + strings.Join(lines, "\n"), true
}

func isEmptyContainer(v any) bool {
	switch t := v.(type) {
	case gyaml.MapSlice:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

func emptyForm(v any) string {
	if _, ok := v.(gyaml.MapSlice); ok {
		return "{}"
	}
	return "[]"
}

// detectIndentAndSequence returns the base indent, and whether sequences that are values
// of mapping keys are indented one level (true) or "indentless" (false).
func detectIndentAndSequence(text string) (int, bool) {
	indent := detectIndent(text)
	lines := strings.Split(text, "\n")
	votes := 0 // >0 prefer indented seq, <0 prefer indentless

	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		if isBlankOrCommentLine(ln) {
			continue
		}
		if endsWithMappingKey(ln) {
			keyIndent := leadingSpaces(ln)
			// look ahead to the first non-blank, non-comment line
			for j := i + 1; j < len(lines); j++ {
				nxt := lines[j]
				if isBlankOrCommentLine(nxt) {
					continue
				}
				lsp := leadingSpaces(nxt)
				trimmed := strings.TrimLeft(nxt, " ")
				if len(trimmed) > 0 && trimmed[0] == '-' {
					if lsp == keyIndent+indent {
						votes++
					} else if lsp == keyIndent {
						votes--
					}
				}
				break
			}
		}
	}
	if votes < 0 {
		return indent, false
	}
	// no evidence either way: default to indented sequences
	return indent, true
}

// endsWithMappingKey returns true if the line is a block mapping key of the form "key:" possibly
// followed by spaces and/or a comment.
func endsWithMappingKey(ln string) bool {
	idx := strings.IndexByte(ln, ':')
	if idx < 0 {
		return false
	}
	rest := strings.TrimSpace(ln[idx+1:])
	return len(rest) == 0 || rest[0] == '#'
}

func detectIndent(text string) int {
	// Collect all non-zero indents from non-blank, non-comment lines
	indents := []int{}
	for _, ln := range strings.Split(text, "\n") {
		if isBlankOrCommentLine(ln) {
			continue
		}
		if n := leadingSpaces(ln); n > 0 {
			indents = append(indents, n)
		}
	}

	if len(indents) == 0 {
		return 2
	}

	// Find the GCD of all indents to get base indent
	result := indents[0]
	for i := 1; i < len(indents); i++ {
		result = gcd(result, indents[i])
		if result == 1 {
			break
		}
	}

	if result > 1 && result <= 8 {
		return result
	}
	return 2
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
