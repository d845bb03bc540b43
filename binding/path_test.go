package binding

import (
	"testing"

	gyaml "github.com/goccy/go-yaml"
	"github.com/kevinwang15/yamlform"
	"github.com/stretchr/testify/assert"
)

func ms(kv ...any) gyaml.MapSlice {
	out := make(gyaml.MapSlice, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, gyaml.MapItem{Key: kv[i], Value: kv[i+1]})
	}
	return out
}

func TestGetAndHas(t *testing.T) {
	v := ms("a", ms("b", []any{"x", ms("c", 1)}), "u", yamlform.Undefined)

	got, ok := Get(v, "a.b.1.c")
	assert.True(t, ok)
	assert.Equal(t, 1, got)

	got, ok = Get(v, "")
	assert.True(t, ok)
	assert.Equal(t, v, got)

	assert.True(t, Has(v, "u"))
	assert.True(t, Has(v, "a.b.0"))
	assert.False(t, Has(v, "a.b.2"))
	assert.False(t, Has(v, "a.b.x"))
	assert.False(t, Has(v, "a.b.0.z"))
}

func TestSet(t *testing.T) {
	var v any
	v = Set(v, "a.b", 1)
	v = Set(v, "a.c", 2)
	v = Set(v, "a.b", 3)
	v = Set(v, "list.1", "y")
	assert.Equal(t, ms("a", ms("b", 3, "c", 2), "list", []any{nil, "y"}), v)

	v = Set(v, "a.b.deep", true)
	assert.Equal(t, ms("deep", true), ms2(t, v, "a", "b"))

	v = Set(v, "list.0", "x")
	got, _ := Get(v, "list")
	assert.Equal(t, []any{"x", "y"}, got)
}

func ms2(t *testing.T, v any, keys ...string) any {
	t.Helper()
	cur := v
	for _, k := range keys {
		next, ok := child(cur, k)
		if !ok {
			t.Fatalf("missing %q", k)
		}
		cur = next
	}
	return cur
}

func TestDelete(t *testing.T) {
	v := ms("a", ms("b", 1, "c", 2), "d", []any{ms("e", 1, "f", 2)})
	orig := clone(v)

	got := Delete(v, "a.b")
	assert.Equal(t, ms("a", ms("c", 2), "d", []any{ms("e", 1, "f", 2)}), got)

	got = Delete(got, "d.0.e")
	assert.Equal(t, ms("a", ms("c", 2), "d", []any{ms("f", 2)}), got)

	assert.Equal(t, ms("a", ms("c", 2), "d", []any{ms("f", 2)}), Delete(got, "missing.path"))
	assert.Equal(t, ms("a", ms("c", 2), "d", []any{ms("f", 2)}), Delete(got, "d.0"))
	assert.NotEqual(t, orig, got)
}

func TestCloneConvertsMaps(t *testing.T) {
	in := map[string]any{"b": 1, "a": []any{map[string]any{"y": 1, "x": 2}}}
	assert.Equal(t, ms("a", []any{ms("x", 2, "y", 1)}, "b", 1), clone(in))

	src := ms("a", ms("b", 1))
	cp := clone(src).(gyaml.MapSlice)
	cp[0].Value.(gyaml.MapSlice)[0].Value = 2
	assert.Equal(t, 1, src[0].Value.(gyaml.MapSlice)[0].Value)
}

func TestIsEmpty(t *testing.T) {
	for _, v := range []any{nil, "", ms(), []any{}, yamlform.Undefined} {
		assert.True(t, isEmpty(v), "%#v", v)
	}
	for _, v := range []any{" ", 0, false, ms("a", 1), []any{nil}} {
		assert.False(t, isEmpty(v), "%#v", v)
	}
}
