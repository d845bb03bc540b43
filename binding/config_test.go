package binding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	opts, err := LoadConfig([]byte(`
keyMap:
  name: meta.name
mergeMissing: false
nonMergeableKeys: [spec.selector]
ignoreExtra: true
emptyMode:
  name: Retain
rules:
  name:
    - required: true
    - pattern: '^.{1,10}$'
      message: length must be 1-10
    - tag: alphanum
`))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"name": "meta.name"}, opts.KeyMap)
	require.NotNil(t, opts.MergeMissing)
	assert.False(t, opts.mergeMissing())
	assert.Equal(t, []string{"spec.selector"}, opts.NonMergeableKeys)
	assert.True(t, opts.IgnoreExtra)
	assert.Equal(t, map[string]EmptyMode{"name": EmptyRetain}, opts.EmptyMode)

	rules := opts.Rules["name"]
	require.Len(t, rules, 3)
	assert.True(t, rules[0].Required)
	assert.Equal(t, "^.{1,10}$", rules[1].Pattern.String())
	assert.Equal(t, "length must be 1-10", rules[1].Message)
	assert.Equal(t, "alphanum", rules[2].Tag)

	f := New("meta:\n  name: test-1\n", opts)
	assert.Error(t, f.Validate())
}

func TestLoadConfigDefaults(t *testing.T) {
	opts, err := LoadConfig([]byte("keyMap: {}\n"))
	require.NoError(t, err)
	assert.Nil(t, opts.MergeMissing)
	assert.True(t, opts.mergeMissing())
	assert.Nil(t, opts.Rules)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":     "keyMap: [",
		"empty mode": "emptyMode: {a: keep}\n",
		"pattern":    "rules: {a: [{pattern: '('}]}\n",
		"tag":        "rules: {a: [{tag: nosuchtag}]}\n",
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig([]byte(cfg))
			assert.Error(t, err)
		})
	}
}
