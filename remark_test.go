package yamlform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	assert.Nil(t, SplitPath(""))
	assert.Equal(t, []string{"spec", "containers", "0", "image"}, SplitPath("spec.containers.0.image"))
}

func TestGetRemark(t *testing.T) {
	src := `a: 1 # one
b:
  c: x   #  two  
list:
  - a # first
  - b
text: |
  body # not a comment
quoted: "v # w"
`
	tests := []struct {
		path string
		want string
	}{
		{"a", "one"},
		{"b.c", "two"},
		{"list.0", "first"},
		{"list.1", ""},
		{"text", ""},
		{"quoted", ""},
		{"missing", ""},
		{"list.7", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetRemark(src, SplitPath(tt.path)...), tt.path)
	}
	assert.Equal(t, "", GetRemark("a: [", "a"))
}

func TestSetRemark(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		path   string
		remark string
		want   string
	}{
		{
			name:   "appends a new comment",
			in:     "a: 1\nb: 2\n",
			path:   "a",
			remark: "new   note",
			want:   "a: 1 # new   note\nb: 2\n",
		},
		{
			name:   "line breaks in the remark become spaces",
			in:     "a: 1\nb: 2\n",
			path:   "b",
			remark: "two\nlines\r\nhere",
			want:   "a: 1\nb: 2 # two lines here\n",
		},
		{
			name:   "replaces existing comment text in place",
			in:     "a: 1  #  old words\nb: 2\n",
			path:   "a",
			remark: "fresh",
			want:   "a: 1  #  fresh\nb: 2\n",
		},
		{
			name:   "drops trailing blanks",
			in:     "a: 1   \nb: 2\n",
			path:   "a",
			remark: "x",
			want:   "a: 1 # x\nb: 2\n",
		},
		{
			name:   "last line without line break",
			in:     "a:\n  b: 1",
			path:   "a.b",
			remark: "deep",
			want:   "a:\n  b: 1 # deep",
		},
		{
			name:   "sequence item",
			in:     "- a\n- b\n",
			path:   "1",
			remark: "second",
			want:   "- a\n- b # second\n",
		},
		{
			name:   "block literal takes the comment on its header",
			in:     "a: |\n  text\nb: 1\n",
			path:   "a",
			remark: "note",
			want:   "a: | # note\n  text\nb: 1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := SetRemark(tt.in, tt.remark, SplitPath(tt.path)...)
			require.True(t, ok)
			assert.Equal(t, tt.want, out)

			before, err := Decode(tt.in)
			require.NoError(t, err)
			after, err := Decode(out)
			require.NoError(t, err)
			assert.True(t, Equal(before, after), "remark changed the value")
			assert.NotEmpty(t, GetRemark(out, SplitPath(tt.path)...))
		})
	}
}

func TestSetRemarkUnresolvedPath(t *testing.T) {
	in := "a: 1\n"
	for _, path := range []string{"b", "a.c", "0"} {
		out, ok := SetRemark(in, "x", SplitPath(path)...)
		assert.False(t, ok, path)
		assert.Equal(t, in, out)
	}
	out, ok := SetRemark("a: [", "x", "a")
	assert.False(t, ok)
	assert.Equal(t, "a: [", out)
}

func TestDocumentRemark(t *testing.T) {
	doc := New("a: 1\nb: 2 # two\n")
	assert.Equal(t, "two", doc.Remark("b"))
	assert.True(t, doc.SetRemark("one", "a"))
	assert.Equal(t, "one", doc.Remark("a"))
	assert.False(t, doc.SetRemark("x", "zz"))
	assert.Equal(t, "a: 1 # one\nb: 2 # two\n", doc.String())

	require.NoError(t, doc.Set(ms("a", 5, "b", 2)))
	assert.Equal(t, "a: 5 # one\nb: 2 # two\n", doc.String())
}
