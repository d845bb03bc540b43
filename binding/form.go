// Package binding maps a flat or nested form value onto a YAML document edited with
// yamlform. Form keys can be remapped to document paths, document data the form does
// not know about can be merged back in, extra form data can be pruned, and empty
// fields can be kept as empty strings. Field rules validate the key-mapped view.
package binding

import (
	"sort"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	gyaml "github.com/goccy/go-yaml"
	"github.com/kevinwang15/yamlform"
)

// EmptyMode decides what SetValues does with a field that is absent or Undefined.
type EmptyMode string

const (
	// EmptyDelete leaves the field out of the document.
	EmptyDelete EmptyMode = "delete"
	// EmptyRetain keeps the field with an empty string value.
	EmptyRetain EmptyMode = "retain"
)

// Options configures a Form.
type Options struct {
	// KeyMap maps form keys to dotted document paths.
	KeyMap map[string]string
	// MergeMissing copies document data absent from a SetValues target back into it.
	// Nil means true.
	MergeMissing *bool
	// NonMergeableKeys lists dotted document paths MergeMissing never copies.
	NonMergeableKeys []string
	// IgnoreExtra drops target keys the document does not already have.
	IgnoreExtra bool
	// EmptyMode is keyed by form key (or document path when the key is not mapped).
	EmptyMode map[string]EmptyMode
	// Rules validates fields of the key-mapped view, keyed by form key.
	Rules map[string][]Rule

	Logger log.Logger
}

func (o Options) mergeMissing() bool {
	return o.MergeMissing == nil || *o.MergeMissing
}

// Bool returns a pointer to b, for Options.MergeMissing.
func Bool(b bool) *bool { return &b }

// Form binds form values to one YAML document.
type Form struct {
	mu     sync.Mutex
	doc    *yamlform.Document
	opts   Options
	logger log.Logger
}

// New returns a Form over text.
func New(text string, opts Options) *Form {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Form{
		doc:    yamlform.New(text, yamlform.WithLogger(logger)),
		opts:   opts,
		logger: log.With(logger, "component", "binding"),
	}
}

// YAML returns the current document text.
func (f *Form) YAML() string {
	return f.doc.String()
}

// SetYAML replaces the document text.
func (f *Form) SetYAML(text string) *Form {
	f.doc.Reset(text)
	return f
}

// Document exposes the underlying document, for remarks and JSON patches.
func (f *Form) Document() *yamlform.Document {
	return f.doc
}

func (f *Form) formKeys() []string {
	keys := make([]string, 0, len(f.opts.KeyMap))
	for k := range f.opts.KeyMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns the key-mapped view of the document: one entry per form key holding
// the value at its document path. Paths that do not resolve are omitted. Without a
// key map the whole document value is returned.
func (f *Form) Values() (any, error) {
	v, err := f.doc.Value()
	if err != nil {
		return nil, err
	}
	if len(f.opts.KeyMap) == 0 {
		return v, nil
	}
	var out any = gyaml.MapSlice{}
	for _, formKey := range f.formKeys() {
		if val, ok := Get(v, f.opts.KeyMap[formKey]); ok {
			out = Set(out, formKey, clone(val))
		}
	}
	return out, nil
}

// AllValues returns the whole document value with every mapped path moved to its
// form key.
func (f *Form) AllValues() (any, error) {
	v, err := f.doc.Value()
	if err != nil {
		return nil, err
	}
	for _, formKey := range f.formKeys() {
		path := f.opts.KeyMap[formKey]
		if path == formKey {
			continue
		}
		if val, ok := Get(v, path); ok {
			v = Delete(v, path)
			v = Set(v, formKey, val)
		}
	}
	return v, nil
}

// SetValues rewrites the document so that it holds v, translated through the key map
// and adjusted by the merge, prune and empty-mode options. Comments and layout of the
// untouched parts of the document are kept.
func (f *Form) SetValues(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cur, err := f.doc.Value()
	if err != nil {
		return err
	}
	target := clone(v)

	for _, formKey := range f.formKeys() {
		path := f.opts.KeyMap[formKey]
		if path == formKey {
			continue
		}
		if val, ok := Get(target, formKey); ok {
			target = Delete(target, formKey)
			target = Set(target, path, val)
		}
	}
	if f.opts.mergeMissing() {
		target = f.mergeMissing(target, cur, "")
	}
	if f.opts.IgnoreExtra {
		target = pruneExtra(target, cur)
	}
	target = f.applyEmptyMode(target)

	level.Debug(f.logger).Log("msg", "setting form values", "mapped", len(f.opts.KeyMap))
	return f.doc.Set(target)
}

// mergeMissing copies every key of src that dst lacks, descending into mappings both
// sides hold.
func (f *Form) mergeMissing(dst, src any, parent string) any {
	s, ok := src.(gyaml.MapSlice)
	if !ok {
		return dst
	}
	if dst == nil {
		dst = gyaml.MapSlice{}
	}
	d, ok := dst.(gyaml.MapSlice)
	if !ok {
		return dst
	}
	for _, it := range s {
		key := keyOf(it.Key)
		full := key
		if parent != "" {
			full = parent + "." + key
		}
		if f.nonMergeable(full) {
			continue
		}
		i := indexOf(d, key)
		switch {
		case i < 0:
			d = append(d, gyaml.MapItem{Key: it.Key, Value: clone(it.Value)})
		case isMapping(d[i].Value) && isMapping(it.Value):
			d[i].Value = f.mergeMissing(d[i].Value, it.Value, full)
		}
	}
	return d
}

func (f *Form) nonMergeable(path string) bool {
	for _, k := range f.opts.NonMergeableKeys {
		if k == path {
			return true
		}
	}
	return false
}

// pruneExtra drops the keys of dst that src does not have, descending into mappings
// both sides hold.
func pruneExtra(dst, src any) any {
	d, ok := dst.(gyaml.MapSlice)
	if !ok {
		return dst
	}
	s, _ := src.(gyaml.MapSlice)
	out := make(gyaml.MapSlice, 0, len(d))
	for _, it := range d {
		i := indexOf(s, keyOf(it.Key))
		if i < 0 {
			continue
		}
		if isMapping(it.Value) && isMapping(s[i].Value) {
			it.Value = pruneExtra(it.Value, s[i].Value)
		}
		out = append(out, it)
	}
	return out
}

func (f *Form) applyEmptyMode(target any) any {
	keys := make([]string, 0, len(f.opts.EmptyMode))
	for k := range f.opts.EmptyMode {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, formKey := range keys {
		if f.opts.EmptyMode[formKey] != EmptyRetain {
			continue
		}
		path := formKey
		if p, ok := f.opts.KeyMap[formKey]; ok && p != "" {
			path = p
		}
		if val, ok := Get(target, path); !ok || val == yamlform.Undefined {
			target = Set(target, path, "")
		}
	}
	return target
}

func indexOf(ms gyaml.MapSlice, key string) int {
	for i, it := range ms {
		if keyOf(it.Key) == key {
			return i
		}
	}
	return -1
}

// ParseEmptyMode accepts "retain" or "delete", case-insensitively.
func ParseEmptyMode(s string) (EmptyMode, bool) {
	switch m := EmptyMode(strings.ToLower(strings.TrimSpace(s))); m {
	case EmptyRetain, EmptyDelete:
		return m, true
	}
	return "", false
}
