package yamlform

import (
	"encoding/json"
	"math"
	"testing"

	gyaml "github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		in   any
		want Kind
	}{
		{nil, KindNull},
		{true, KindBool},
		{"x", KindString},
		{10, KindInteger},
		{7, KindInteger},
		{uint8(3), KindInteger},
		{1.0, KindFloat},
		{float32(2.5), KindFloat},
		{json.Number("10"), KindInteger},
		{json.Number("1.5"), KindFloat},
		{json.Number("1e3"), KindFloat},
		{gyaml.MapSlice{}, KindMapping},
		{map[string]any{}, KindMapping},
		{map[string]int{"a": 1}, KindMapping},
		{[]any{}, KindSequence},
		{[]string{"a"}, KindSequence},
		{(*int)(nil), KindNull},
	}
	for _, tt := range tests {
		got, err := KindOf(tt.in)
		require.NoError(t, err, "%#v", tt.in)
		assert.Equal(t, tt.want, got, "%#v", tt.in)
	}

	_, err := KindOf(struct{}{})
	assert.ErrorIs(t, err, ErrUnknownValueKind)
	_, err = KindOf(func() {})
	assert.ErrorIs(t, err, ErrUnknownValueKind)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "mapping", KindMapping.String())
	assert.Equal(t, "integer", KindInteger.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
	assert.True(t, KindSequence.IsContainer())
	assert.False(t, KindString.IsContainer())
}

func TestNormalize(t *testing.T) {
	n := 5
	got, err := normalize(map[string]any{
		"b":   []int{1, 2},
		"a":   json.Number("3"),
		"c":   &n,
		"d":   Undefined,
		"e":   []any{Undefined, uint64(math.MaxUint64)},
		"f":   map[int]string{2: "two", 1: "one"},
		"big": uint(7),
	})
	require.NoError(t, err)

	want := gyaml.MapSlice{
		{Key: "a", Value: int64(3)},
		{Key: "b", Value: []any{int64(1), int64(2)}},
		{Key: "big", Value: int64(7)},
		{Key: "c", Value: int64(5)},
		{Key: "e", Value: []any{nil, uint64(math.MaxUint64)}},
		{Key: "f", Value: gyaml.MapSlice{{Key: 1, Value: "one"}, {Key: 2, Value: "two"}}},
	}
	assert.Equal(t, want, got)
}

func TestNormalizeReportsPath(t *testing.T) {
	_, err := normalize(gyaml.MapSlice{{Key: "spec", Value: []any{1, make(chan int)}}})
	require.ErrorIs(t, err, ErrUnknownValueKind)
	assert.Contains(t, err.Error(), "$.spec[1]")
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(1, 1.0))
	assert.True(t, Equal(int64(3), json.Number("3")))
	assert.True(t, Equal(math.NaN(), math.NaN()))
	assert.True(t, Equal(
		gyaml.MapSlice{{Key: "a", Value: 1}, {Key: "b", Value: 2}},
		map[string]any{"b": 2, "a": 1},
	))
	assert.False(t, Equal("1", 1))
	assert.False(t, Equal(nil, ""))
	assert.False(t, Equal([]any{1, 2}, []any{2, 1}))
	assert.False(t, Equal(gyaml.MapSlice{{Key: "a", Value: 1}}, gyaml.MapSlice{{Key: "a", Value: 1}, {Key: "b", Value: nil}}))
	assert.False(t, Equal(make(chan int), make(chan int)))
}
