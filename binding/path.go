package binding

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	gyaml "github.com/goccy/go-yaml"
	"github.com/kevinwang15/yamlform"
)

// Paths are dotted strings ("spec.containers.0.image"). A segment addresses a mapping
// key, or an index when the container is a sequence.

func segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

func keyOf(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}

func index(seg string) (int, bool) {
	i, err := strconv.Atoi(seg)
	return i, err == nil && i >= 0
}

func child(v any, seg string) (any, bool) {
	switch t := v.(type) {
	case gyaml.MapSlice:
		for _, it := range t {
			if keyOf(it.Key) == seg {
				return it.Value, true
			}
		}
	case []any:
		if i, ok := index(seg); ok && i < len(t) {
			return t[i], true
		}
	}
	return nil, false
}

// Get returns the value at path. A key holding yamlform.Undefined is found.
func Get(v any, path string) (any, bool) {
	cur := v
	for _, seg := range segments(path) {
		next, ok := child(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Has reports whether path resolves in v.
func Has(v any, path string) bool {
	_, ok := Get(v, path)
	return ok
}

// Set stores value at path and returns the updated root. Missing containers are
// created: sequences for index segments, mappings otherwise. A scalar in the way is
// replaced.
func Set(v any, path string, value any) any {
	return setAt(v, segments(path), value)
}

func setAt(cur any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	seg, rest := segs[0], segs[1:]
	switch t := cur.(type) {
	case gyaml.MapSlice:
		for i, it := range t {
			if keyOf(it.Key) == seg {
				t[i].Value = setAt(it.Value, rest, value)
				return t
			}
		}
		return append(t, gyaml.MapItem{Key: seg, Value: setAt(nil, rest, value)})
	case []any:
		if i, ok := index(seg); ok {
			for len(t) <= i {
				t = append(t, nil)
			}
			t[i] = setAt(t[i], rest, value)
			return t
		}
	}
	if i, ok := index(seg); ok {
		out := make([]any, i+1)
		out[i] = setAt(nil, rest, value)
		return out
	}
	return gyaml.MapSlice{{Key: seg, Value: setAt(nil, rest, value)}}
}

// Delete removes the mapping key at path and returns the updated root. Sequence
// entries and unresolved paths are left alone.
func Delete(v any, path string) any {
	segs := segments(path)
	if len(segs) == 0 {
		return v
	}
	return deleteAt(v, segs)
}

func deleteAt(cur any, segs []string) any {
	switch c := cur.(type) {
	case gyaml.MapSlice:
		if len(segs) == 1 {
			out := make(gyaml.MapSlice, 0, len(c))
			for _, it := range c {
				if keyOf(it.Key) != segs[0] {
					out = append(out, it)
				}
			}
			return out
		}
		for i, it := range c {
			if keyOf(it.Key) == segs[0] {
				c[i].Value = deleteAt(it.Value, segs[1:])
			}
		}
	case []any:
		if i, ok := index(segs[0]); ok && i < len(c) && len(segs) > 1 {
			c[i] = deleteAt(c[i], segs[1:])
		}
	}
	return cur
}

// clone deep-copies a value tree. Plain Go maps become mappings with sorted keys.
func clone(v any) any {
	switch t := v.(type) {
	case gyaml.MapSlice:
		out := make(gyaml.MapSlice, len(t))
		for i, it := range t {
			out[i] = gyaml.MapItem{Key: it.Key, Value: clone(it.Value)}
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(gyaml.MapSlice, 0, len(t))
		for _, k := range keys {
			out = append(out, gyaml.MapItem{Key: k, Value: clone(t[k])})
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = clone(e)
		}
		return out
	}
	return v
}

func isMapping(v any) bool {
	_, ok := v.(gyaml.MapSlice)
	return ok
}

// isEmpty reports whether a value counts as not filled in.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case gyaml.MapSlice:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return v == yamlform.Undefined
}
