package binding

import (
	"strings"
	"testing"

	"github.com/kevinwang15/yamlform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultYAML = strings.Join([]string{
	"meta:",
	"  name: test  #note",
	"  namespace: default",
	"  #note",
	"  description: some text",
}, "\n")

func TestSetValuesSameShape(t *testing.T) {
	f := New(defaultYAML, Options{})
	require.NoError(t, f.SetValues(map[string]any{
		"meta": map[string]any{
			"name":        "test2",
			"namespace":   "default2",
			"description": "some text 2",
		},
	}))
	want := strings.Join([]string{
		"meta:",
		"  name: test2  #note",
		"  namespace: default2",
		"  #note",
		"  description: some text 2",
	}, "\n")
	assert.Equal(t, want, f.YAML())
}

func TestSetValuesMergesMissingData(t *testing.T) {
	f := New(defaultYAML, Options{})
	require.NoError(t, f.SetValues(ms("meta", ms("name", "test2", "namespace", "default2"))))
	want := strings.Join([]string{
		"meta:",
		"  name: test2  #note",
		"  namespace: default2",
		"  #note",
		"  description: some text",
	}, "\n")
	assert.Equal(t, want, f.YAML())
}

func TestSetValuesWithoutMergeDropsMissingData(t *testing.T) {
	f := New(defaultYAML, Options{MergeMissing: Bool(false)})
	require.NoError(t, f.SetValues(ms("meta", ms("name", "test2", "namespace", "default2"))))
	want := strings.Join([]string{
		"meta:",
		"  name: test2  #note",
		"  namespace: default2",
		"  #note",
	}, "\n")
	assert.Equal(t, want, f.YAML())
}

func TestSetValuesNonMergeableKeys(t *testing.T) {
	f := New("a:\n  b: 1\n  c: 2\nd: 3\n", Options{NonMergeableKeys: []string{"a.c", "d"}})
	require.NoError(t, f.SetValues(ms("a", ms("b", 5))))
	assert.Equal(t, "a:\n  b: 5\n", f.YAML())
}

func TestSetValuesAddsExtraData(t *testing.T) {
	f := New(defaultYAML, Options{})
	require.NoError(t, f.SetValues(ms(
		"meta", ms("name", "test2", "namespace", "default2", "description", "some text 2", "extra", "inner"),
		"extra", "outer",
	)))
	want := strings.Join([]string{
		"meta:",
		"  name: test2  #note",
		"  namespace: default2",
		"  #note",
		"  description: some text 2",
		"  extra: inner",
		"extra: outer",
	}, "\n")
	assert.Equal(t, want, f.YAML())
}

func TestSetValuesIgnoreExtra(t *testing.T) {
	f := New(defaultYAML, Options{IgnoreExtra: true})
	require.NoError(t, f.SetValues(ms(
		"meta", ms("name", "test2", "namespace", "default2", "description", "some text 2", "extra", "inner"),
		"extra", "outer",
	)))
	want := strings.Join([]string{
		"meta:",
		"  name: test2  #note",
		"  namespace: default2",
		"  #note",
		"  description: some text 2",
	}, "\n")
	assert.Equal(t, want, f.YAML())
}

func TestSetValuesUndefinedDeletes(t *testing.T) {
	f := New(defaultYAML, Options{})
	require.NoError(t, f.SetValues(ms("meta", ms(
		"name", yamlform.Undefined,
		"namespace", yamlform.Undefined,
		"description", yamlform.Undefined,
	))))
	assert.Equal(t, "meta: {}", f.YAML())
}

func TestSetValuesEmptyModeRetain(t *testing.T) {
	f := New(defaultYAML, Options{
		KeyMap: map[string]string{"name": "meta.name"},
		EmptyMode: map[string]EmptyMode{
			"name":             EmptyRetain,
			"meta.namespace":   EmptyDelete,
			"meta.description": EmptyRetain,
		},
	})
	require.NoError(t, f.SetValues(ms(
		"name", yamlform.Undefined,
		"meta", ms("namespace", yamlform.Undefined, "description", yamlform.Undefined),
	)))
	want := strings.Join([]string{
		"meta:",
		`  name: ""  #note`,
		"  #note",
		`  description: ""`,
	}, "\n")
	assert.Equal(t, want, f.YAML())
}

func TestSetValuesThroughKeyMap(t *testing.T) {
	f := New(defaultYAML, Options{KeyMap: map[string]string{
		"name":      "meta.name",
		"namespace": "meta.namespace",
	}})
	require.NoError(t, f.SetValues(ms("name", "renamed")))
	assert.Equal(t, strings.Replace(defaultYAML, "name: test ", "name: renamed ", 1), f.YAML())
}

func TestSetValuesFillsEmptyFlowMapping(t *testing.T) {
	f := New("a: 1\nmeta: {\n\n}\nb: 2", Options{})
	require.NoError(t, f.SetValues(ms("meta", ms("a", 1, "b", 2))))
	assert.Equal(t, "a: 1\nmeta:\n  a: 1\n  b: 2\nb: 2", f.YAML())
}

func TestValues(t *testing.T) {
	tests := []struct {
		name   string
		keyMap map[string]string
		want   any
	}{
		{
			name:   "mapped fields",
			keyMap: map[string]string{"name": "meta.name", "namespace": "meta.namespace"},
			want:   ms("name", "test", "namespace", "default"),
		},
		{
			name:   "no key map",
			keyMap: map[string]string{},
			want:   ms("meta", ms("name", "test", "namespace", "default", "description", "some text")),
		},
		{
			name:   "unresolved path is omitted",
			keyMap: map[string]string{"name": "meta.name", "namespace": "meta.namespace.test"},
			want:   ms("name", "test"),
		},
		{
			name:   "nested form keys",
			keyMap: map[string]string{"form.title": "meta.name"},
			want:   ms("form", ms("title", "test")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(defaultYAML, Options{KeyMap: tt.keyMap}).Values()
			require.NoError(t, err)
			assert.True(t, yamlform.Equal(tt.want, got), "got %#v", got)
		})
	}
}

func TestAllValues(t *testing.T) {
	f := New(defaultYAML, Options{KeyMap: map[string]string{
		"name":      "meta.name",
		"namespace": "meta.namespace.test",
	}})
	got, err := f.AllValues()
	require.NoError(t, err)
	assert.True(t, yamlform.Equal(ms(
		"meta", ms("namespace", "default", "description", "some text"),
		"name", "test",
	), got), "got %#v", got)
}

func TestValuesParseError(t *testing.T) {
	f := New("a: [", Options{})
	_, err := f.Values()
	assert.Error(t, err)
	assert.Error(t, f.SetValues(ms("a", 1)))
	assert.Equal(t, "a: [", f.YAML())
}

func TestSetYAMLAndDocument(t *testing.T) {
	f := New("a: 1\n", Options{})
	assert.Same(t, f, f.SetYAML("b: 2 # two\n"))
	assert.Equal(t, "two", f.Document().Remark("b"))
	assert.Equal(t, "b: 2 # two\n", f.YAML())
}

func TestParseEmptyMode(t *testing.T) {
	m, ok := ParseEmptyMode(" Retain ")
	assert.True(t, ok)
	assert.Equal(t, EmptyRetain, m)
	_, ok = ParseEmptyMode("keep")
	assert.False(t, ok)
}
