package yamlform

import (
	"sync"

	"github.com/go-kit/log"
)

// Document holds one YAML text and edits it through structured values.
// It is safe for concurrent use.
type Document struct {
	mu     sync.RWMutex
	text   string
	logger log.Logger
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used to report fallbacks and edit statistics.
func WithLogger(logger log.Logger) Option {
	return func(d *Document) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New returns a Document wrapping text. The text is not parsed until it is read or
// edited.
func New(text string, opts ...Option) *Document {
	d := &Document{text: text, logger: log.NewNopLogger()}
	for _, o := range opts {
		o(d)
	}
	return d
}

// String returns the current text.
func (d *Document) String() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Reset replaces the text without diffing.
func (d *Document) Reset(text string) {
	d.mu.Lock()
	d.text = text
	d.mu.Unlock()
}

// Value decodes the current text.
func (d *Document) Value() (any, error) {
	return Decode(d.String())
}

// Set rewrites the text so that it decodes to v, keeping comments and layout of
// every unchanged region. On error the text is left untouched.
func (d *Document) Set(v any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	out, err := patch(d.text, v, d.logger)
	if err != nil {
		return err
	}
	d.text = out
	return nil
}

// Clear empties the document.
func (d *Document) Clear() {
	d.mu.Lock()
	d.text = ""
	d.mu.Unlock()
}

// Remark returns the comment trailing the node at path, or "".
func (d *Document) Remark(path ...string) string {
	return GetRemark(d.String(), path...)
}

// SetRemark sets the comment trailing the node at path. It reports false when the
// path does not resolve.
func (d *Document) SetRemark(remark string, path ...string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	out, ok := SetRemark(d.text, remark, path...)
	if ok {
		d.text = out
	}
	return ok
}
