package yamlform

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	gyaml "github.com/goccy/go-yaml"
)

// Kind is the structural kind of a node or value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindString
	KindInteger
	KindFloat
	KindMapping
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsContainer reports whether k is a mapping or a sequence.
func (k Kind) IsContainer() bool {
	return k == KindMapping || k == KindSequence
}

type undefined struct{}

// Undefined marks a value as absent. A mapping entry holding Undefined is treated as
// if the key did not exist, and Set(Undefined) empties the document.
var Undefined any = undefined{}

func isUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// KindOf classifies a value. Numbers are classified by their literal form: integer
// types are integers, float types are floats and json.Number is a float only when it
// carries a decimal point or an exponent.
func KindOf(v any) (Kind, error) {
	switch t := v.(type) {
	case nil:
		return KindNull, nil
	case bool:
		return KindBool, nil
	case string:
		return KindString, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindInteger, nil
	case float32, float64:
		return KindFloat, nil
	case json.Number:
		if strings.ContainsAny(string(t), ".eE") {
			return KindFloat, nil
		}
		return KindInteger, nil
	case gyaml.MapSlice, map[string]any, map[any]any:
		return KindMapping, nil
	case []any:
		return KindSequence, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return KindSequence, nil
	case reflect.Map:
		return KindMapping, nil
	case reflect.Pointer:
		if rv.IsNil() {
			return KindNull, nil
		}
		return KindOf(rv.Elem().Interface())
	}
	return 0, fmt.Errorf("%w: %T", ErrUnknownValueKind, v)
}

// normalize converts a caller supplied value into the canonical form the engine works
// on: gyaml.MapSlice for mappings (map keys sorted), []any for lists, int64/uint64 for
// integers and float64 for floats. Undefined mapping entries are dropped.
func normalize(v any) (any, error) {
	return normalizeAt(v, "$")
}

func normalizeAt(v any, path string) (any, error) {
	switch t := v.(type) {
	case nil, bool, string:
		return t, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case uint:
		return normalizeUint(uint64(t)), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint64:
		return normalizeUint(t), nil
	case float32:
		return float64(t), nil
	case float64:
		return t, nil
	case json.Number:
		if !strings.ContainsAny(string(t), ".eE") {
			if i, err := t.Int64(); err == nil {
				return i, nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: malformed number %q at %s", ErrUnknownValueKind, string(t), path)
		}
		return f, nil
	case gyaml.MapSlice:
		out := make(gyaml.MapSlice, 0, len(t))
		for _, it := range t {
			if isUndefined(it.Value) {
				continue
			}
			nv, err := normalizeAt(it.Value, path+"."+keyString(it.Key))
			if err != nil {
				return nil, err
			}
			out = append(out, gyaml.MapItem{Key: it.Key, Value: nv})
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ms := make(gyaml.MapSlice, 0, len(keys))
		for _, k := range keys {
			ms = append(ms, gyaml.MapItem{Key: k, Value: t[k]})
		}
		return normalizeAt(ms, path)
	case []any:
		out := make([]any, 0, len(t))
		for i, e := range t {
			if isUndefined(e) {
				out = append(out, nil)
				continue
			}
			ne, err := normalizeAt(e, path+"["+strconv.Itoa(i)+"]")
			if err != nil {
				return nil, err
			}
			out = append(out, ne)
		}
		return out, nil
	}
	if isUndefined(v) {
		return v, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, nil
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return normalizeAt(items, path)
	case reflect.Map:
		type entry struct {
			key, value any
			text       string
		}
		entries := make([]entry, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().Interface()
			entries = append(entries, entry{key: k, value: iter.Value().Interface(), text: keyString(k)})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].text < entries[j].text })
		ms := make(gyaml.MapSlice, 0, len(entries))
		for _, e := range entries {
			ms = append(ms, gyaml.MapItem{Key: e.key, Value: e.value})
		}
		return normalizeAt(ms, path)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return normalizeAt(rv.Elem().Interface(), path)
	}
	return nil, fmt.Errorf("%w: %T at %s", ErrUnknownValueKind, v, path)
}

func normalizeUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return u
}

func keyString(k any) string {
	switch t := k.(type) {
	case string:
		return t
	case nil:
		return "null"
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func lookupKey(ms gyaml.MapSlice, key string) (any, bool) {
	for _, it := range ms {
		if keyString(it.Key) == key {
			return it.Value, true
		}
	}
	return nil, false
}

// Equal reports whether two values are deeply equal. Mappings compare regardless of key
// order and numbers compare by numeric value.
func Equal(a, b any) bool {
	na, err := normalize(a)
	if err != nil {
		return false
	}
	nb, err := normalize(b)
	if err != nil {
		return false
	}
	return equalNormalized(na, nb)
}

func equalNormalized(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case int64, uint64, float64:
		return numberEqual(a, b)
	case gyaml.MapSlice:
		y, ok := b.(gyaml.MapSlice)
		if !ok || len(x) != len(y) {
			return false
		}
		for _, it := range x {
			other, found := lookupKey(y, keyString(it.Key))
			if !found || !equalNormalized(it.Value, other) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalNormalized(x[i], y[i]) {
				return false
			}
		}
		return true
	}
	return isUndefined(a) && isUndefined(b)
}

func numberEqual(a, b any) bool {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case uint64:
			return false
		case float64:
			return float64(x) == y
		}
	case uint64:
		switch y := b.(type) {
		case int64:
			return false
		case uint64:
			return x == y
		case float64:
			return float64(x) == y
		}
	case float64:
		switch y := b.(type) {
		case int64:
			return x == float64(y)
		case uint64:
			return x == float64(y)
		case float64:
			return x == y || (math.IsNaN(x) && math.IsNaN(y))
		}
	}
	return false
}
