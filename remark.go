package yamlform

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// SplitPath splits a dotted path such as "spec.containers.0.image" into segments.
// An empty string is the root path.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// GetRemark returns the comment trailing the node at path, without the '#' and the
// blanks around it. It returns "" when the path does not resolve or there is no comment.
func GetRemark(text string, path ...string) string {
	root, err := Compose(text)
	if err != nil {
		return ""
	}
	n := root.Lookup(path...)
	if n == nil {
		return ""
	}
	from := remarkAnchor(text, n)
	cs := commentStart(text, from)
	if cs < 0 {
		return ""
	}
	return strings.TrimSpace(text[cs+1 : lineEnd(text, from)])
}

// lineBreaks turns the line breaks of a remark into spaces; a comment cannot span lines.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// SetRemark sets the comment trailing the node at path. An existing comment keeps its
// '#' and spacing and only has its text replaced. It reports false, leaving text
// unchanged, when the path does not resolve.
func SetRemark(text, remark string, path ...string) (string, bool) {
	root, err := Compose(text)
	if err != nil {
		return text, false
	}
	n := root.Lookup(path...)
	if n == nil {
		return text, false
	}
	remark = lineBreaks.Replace(remark)
	from := remarkAnchor(text, n)
	le := lineEnd(text, from)
	cs := commentStart(text, from)
	if cs < 0 {
		pos := from
		for pos < le && (text[pos] == ' ' || text[pos] == '\t') {
			pos++
		}
		if pos == le {
			// trailing blanks after the node
			return text[:from] + " # " + remark + text[le:], true
		}
		return text[:le] + " # " + remark + text[le:], true
	}
	i := cs
	for i < le && (text[i] == '#' || text[i] == ' ') {
		i++
	}
	return text[:i] + remark + text[le:], true
}

// remarkAnchor returns where the search for a node's trailing comment starts. Block
// scalars carry their comment on the indicator line, since a '#' after the last
// content line would be part of the content.
func remarkAnchor(text string, n *Node) int {
	if n.Kind == KindString && n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 && !n.Alias {
		pos := n.Start.Offset
		for pos < len(text) && (text[pos] == '&' || text[pos] == '!') {
			pos = aliasEnd(text, pos)
			for pos < len(text) && (text[pos] == ' ' || text[pos] == '\t') {
				pos++
			}
		}
		if pos < len(text) && (text[pos] == '|' || text[pos] == '>') {
			pos++
			for pos < len(text) && strings.IndexByte("+-0123456789", text[pos]) >= 0 {
				pos++
			}
			return pos
		}
	}
	return n.End.Offset
}
