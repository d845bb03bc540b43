package yamlform

import (
	"fmt"
	"strconv"
	"strings"

	gyaml "github.com/goccy/go-yaml"
	"gopkg.in/yaml.v3"
)

// Node is a parsed YAML node annotated with the text span it was read from.
type Node struct {
	Kind   Kind
	Start  Mark
	End    Mark
	Inline bool // flow style collection ({...} or [...])
	Flow   bool // node sits inside a flow collection
	Alias  bool
	Style  yaml.Style
	Text   string // scalar text as the parser decoded it
	Value  any    // decoded value of the whole subtree
	Pairs  []Pair
	Items  []*Node
	Parent *Node
	Key    *Node // key node when this node is a mapping value
}

// Pair is one key/value entry of a mapping node.
type Pair struct {
	Key   *Node
	Value *Node
}

// Empty reports whether a container node has no children.
func (n *Node) Empty() bool {
	return len(n.Pairs) == 0 && len(n.Items) == 0
}

// Child resolves one path segment: a key for mappings, an index for sequences.
func (n *Node) Child(seg string) *Node {
	switch n.Kind {
	case KindMapping:
		for _, p := range n.Pairs {
			if keyString(p.Key.Value) == seg {
				return p.Value
			}
		}
	case KindSequence:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(n.Items) {
			return nil
		}
		return n.Items[i]
	}
	return nil
}

// Lookup resolves a path from n. An empty path returns n itself.
func (n *Node) Lookup(path ...string) *Node {
	cur := n
	for _, seg := range path {
		if cur = cur.Child(seg); cur == nil {
			return nil
		}
	}
	return cur
}

// Compose parses text into a position annotated node tree. Only the first document
// of a stream is composed. Empty or comment-only text yields a zero-width null node at
// the end of the text.
func Compose(text string) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("yamlform: failed to parse YAML: %w", err)
	}
	c := &composer{src: text, li: newLineIndex(text)}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		m := c.li.markAt(len(text))
		return &Node{Kind: KindNull, Start: m, End: m}, nil
	}
	return c.node(doc.Content[0], nil, nil, false), nil
}

type composer struct {
	src string
	li  *lineIndex
}

func (c *composer) node(yn *yaml.Node, parent, key *Node, flow bool) *Node {
	n := &Node{
		Parent: parent,
		Key:    key,
		Flow:   flow,
		Style:  yn.Style,
		Start:  c.li.mark(yn.Line, yn.Column),
	}

	switch yn.Kind {
	case yaml.MappingNode:
		n.Kind = KindMapping
		n.Inline = yn.Style&yaml.FlowStyle != 0
		inner := flow || n.Inline
		value := make(gyaml.MapSlice, 0, len(yn.Content)/2)
		for i := 0; i+1 < len(yn.Content); i += 2 {
			k := c.node(yn.Content[i], n, nil, inner)
			v := c.node(yn.Content[i+1], n, k, inner)
			n.Pairs = append(n.Pairs, Pair{Key: k, Value: v})
			value = append(value, gyaml.MapItem{Key: k.Value, Value: v.Value})
		}
		n.Value = value
		n.End = c.containerEnd(n)

	case yaml.SequenceNode:
		n.Kind = KindSequence
		n.Inline = yn.Style&yaml.FlowStyle != 0
		inner := flow || n.Inline
		value := make([]any, 0, len(yn.Content))
		for _, item := range yn.Content {
			child := c.node(item, n, nil, inner)
			n.Items = append(n.Items, child)
			value = append(value, child.Value)
		}
		n.Value = value
		n.End = c.containerEnd(n)

	case yaml.AliasNode:
		n.Alias = true
		n.Value = nodeValue(yn.Alias)
		n.Kind, _ = KindOf(n.Value)
		n.Text = "*" + yn.Value
		n.End = c.li.markAt(aliasEnd(c.src, n.Start.Offset))

	default:
		n.Text = yn.Value
		n.Value = scalarValue(yn)
		n.Kind, _ = KindOf(n.Value)
		n.End = c.li.markAt(c.scalarEnd(yn, n))
	}
	return n
}

func (c *composer) scalarEnd(yn *yaml.Node, n *Node) int {
	start := n.Start.Offset
	if start >= len(c.src) {
		return len(c.src)
	}
	pos, propEnd := start, start
	for pos < len(c.src) && (c.src[pos] == '&' || c.src[pos] == '!') {
		propEnd = aliasEnd(c.src, pos)
		pos = propEnd
		for pos < len(c.src) && (c.src[pos] == ' ' || c.src[pos] == '\t') {
			pos++
		}
	}
	if pos >= len(c.src) {
		return propEnd
	}
	switch {
	case yn.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0:
		return quotedEnd(c.src, pos)
	case yn.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		parentIndent := -1
		if n.Parent != nil {
			parentIndent = indentOf(c.src, pos)
		}
		return blockScalarEnd(c.src, pos, parentIndent)
	}
	if strings.TrimSpace(yn.Value) == "" || c.src[pos] == '\n' || c.src[pos] == '\r' {
		return propEnd
	}
	return plainEnd(c.src, pos, n.Flow, yn.Value)
}

func (c *composer) containerEnd(n *Node) Mark {
	last := n.Start.Offset
	switch {
	case len(n.Pairs) > 0:
		last = n.Pairs[len(n.Pairs)-1].Value.End.Offset
		if k := n.Pairs[len(n.Pairs)-1].Key.End.Offset; k > last {
			last = k
		}
	case len(n.Items) > 0:
		last = n.Items[len(n.Items)-1].End.Offset
	case n.Inline:
		last = n.Start.Offset + 1
	}
	if n.Inline {
		return c.li.markAt(flowEnd(c.src, last))
	}
	return c.li.markAt(last)
}

func scalarValue(yn *yaml.Node) any {
	var v any
	if err := yn.Decode(&v); err != nil {
		return yn.Value
	}
	switch t := v.(type) {
	case int:
		return int64(t)
	case nil, bool, int64, uint64, float64, string:
		return t
	}
	// timestamps and other resolved types stay in their textual form
	return yn.Value
}

// nodeValue decodes a yaml.v3 node into the ordered value model. Integers decode as
// int64 (uint64 beyond its range).
func nodeValue(yn *yaml.Node) any {
	if yn == nil {
		return nil
	}
	switch yn.Kind {
	case yaml.DocumentNode:
		if len(yn.Content) == 0 {
			return nil
		}
		return nodeValue(yn.Content[0])
	case yaml.MappingNode:
		ms := make(gyaml.MapSlice, 0, len(yn.Content)/2)
		for i := 0; i+1 < len(yn.Content); i += 2 {
			ms = append(ms, gyaml.MapItem{Key: nodeValue(yn.Content[i]), Value: nodeValue(yn.Content[i+1])})
		}
		return ms
	case yaml.SequenceNode:
		out := make([]any, 0, len(yn.Content))
		for _, item := range yn.Content {
			out = append(out, nodeValue(item))
		}
		return out
	case yaml.AliasNode:
		return nodeValue(yn.Alias)
	}
	return scalarValue(yn)
}
