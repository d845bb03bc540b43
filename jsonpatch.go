package yamlform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	gyaml "github.com/goccy/go-yaml"
)

// JSON Patch (RFC 6902) and JSON Merge Patch (RFC 7386) public API
// --------------------------------------------------------------------------------------

// ApplyJSONPatch applies a github.com/evanphx/json-patch/v5 Patch to the document value
// and writes the result back through Set.
func (d *Document) ApplyJSONPatch(patch jsonpatch.Patch) error {
	return d.applyJSON(func(doc []byte) ([]byte, error) {
		return patch.Apply(doc)
	})
}

// ApplyJSONPatchBytes decodes a JSON Patch document and applies it.
func (d *Document) ApplyJSONPatchBytes(patchJSON []byte) error {
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return fmt.Errorf("yamlform: invalid JSON patch: %w", err)
	}
	return d.ApplyJSONPatch(patch)
}

// ApplyMergePatch applies a JSON Merge Patch. Keys set to null are removed.
func (d *Document) ApplyMergePatch(mergeJSON []byte) error {
	return d.applyJSON(func(doc []byte) ([]byte, error) {
		return jsonpatch.MergePatch(doc, mergeJSON)
	})
}

func (d *Document) applyJSON(apply func([]byte) ([]byte, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, err := Decode(d.text)
	if err != nil {
		return err
	}
	if cur == nil {
		// an empty document is patched as an empty object
		cur = gyaml.MapSlice{}
	}
	doc, err := json.Marshal(orderedToJSONValue(cur))
	if err != nil {
		return fmt.Errorf("yamlform: document is not representable as JSON: %w", err)
	}
	patched, err := apply(doc)
	if err != nil {
		return fmt.Errorf("yamlform: failed to apply patch: %w", err)
	}
	v, err := decodeJSONValue(patched)
	if err != nil {
		return err
	}
	out, err := patch(d.text, keepOrder(cur, jsonValueToOrdered(v)), d.logger)
	if err != nil {
		return err
	}
	d.text = out
	return nil
}

// --- JSON <-> ordered value helpers ---

func decodeJSONValue(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("yamlform: invalid JSON value: %w", err)
	}
	return v, nil
}

func jsonValueToOrdered(v any) any {
	switch t := v.(type) {
	case json.Number:
		if strings.ContainsAny(string(t), ".eE") {
			f, _ := t.Float64()
			return f
		}
		i, err := t.Int64()
		if err != nil {
			f, _ := t.Float64()
			return f
		}
		return i
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			out = append(out, jsonValueToOrdered(e))
		}
		return out
	case map[string]any:
		// order is not guaranteed in JSON; create a stable MapSlice (sorted keys)
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		ms := make(gyaml.MapSlice, 0, len(keys))
		for _, k := range keys {
			ms = append(ms, gyaml.MapItem{Key: k, Value: jsonValueToOrdered(t[k])})
		}
		return ms
	default:
		return t
	}
}

// orderedToJSONValue converts the ordered value model into values encoding/json can
// marshal. Non-string keys are stringified; non-finite floats become strings.
func orderedToJSONValue(v any) any {
	switch t := v.(type) {
	case gyaml.MapSlice:
		m := make(map[string]any, len(t))
		for _, it := range t {
			m[keyString(it.Key)] = orderedToJSONValue(it.Value)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = orderedToJSONValue(e)
		}
		return out
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Sprint(t)
		}
	}
	return v
}

// keepOrder reorders the mappings of next so that keys already present in prev keep
// their position and new keys follow in next's order.
func keepOrder(prev, next any) any {
	switch n := next.(type) {
	case gyaml.MapSlice:
		p, ok := prev.(gyaml.MapSlice)
		if !ok {
			return n
		}
		out := make(gyaml.MapSlice, 0, len(n))
		used := make(map[string]struct{}, len(n))
		for _, it := range p {
			k := keyString(it.Key)
			if v, found := lookupKey(n, k); found {
				out = append(out, gyaml.MapItem{Key: it.Key, Value: keepOrder(it.Value, v)})
				used[k] = struct{}{}
			}
		}
		for _, it := range n {
			if _, done := used[keyString(it.Key)]; !done {
				out = append(out, it)
			}
		}
		return out
	case []any:
		p, ok := prev.([]any)
		if !ok {
			return n
		}
		out := make([]any, len(n))
		for i, e := range n {
			if i < len(p) {
				out[i] = keepOrder(p[i], e)
				continue
			}
			out[i] = e
		}
		return out
	}
	return next
}
