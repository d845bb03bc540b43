package binding

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Rule is one check of a form field. The checks a rule sets run in the order
// Required, Pattern, Tag, Func; the first failing one reports the rule's Message, or
// a default message when Message is empty. Pattern, Tag and Func are skipped for an
// empty field.
type Rule struct {
	Required bool
	// Pattern must match string values.
	Pattern *regexp.Regexp
	// Tag is a go-playground/validator tag such as "email" or "min=3,max=10".
	Tag     string
	Func    func(value any) error
	Message string
}

// FieldError reports one failed rule.
type FieldError struct {
	Field      string `json:"field" yaml:"field"`
	FieldValue any    `json:"fieldValue" yaml:"fieldValue"`
	Message    string `json:"message" yaml:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError carries every failed rule in field order, then rule order.
type ValidationError struct {
	Failures []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return "binding: validation failed: " + strings.Join(msgs, "; ")
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("notblank", validateNotBlank); err != nil {
		panic(err)
	}
}

// validateNotBlank rejects strings made of white space only.
func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Validate checks the key-mapped view of the document against the configured rules.
// It returns a *ValidationError listing every failure, or nil.
func (f *Form) Validate() error {
	if len(f.opts.Rules) == 0 {
		return nil
	}
	view, err := f.Values()
	if err != nil {
		return err
	}
	fields := make([]string, 0, len(f.opts.Rules))
	for k := range f.opts.Rules {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var failures []FieldError
	for _, field := range fields {
		value, _ := Get(view, field)
		for _, r := range f.opts.Rules[field] {
			if msg, ok := r.check(field, value); !ok {
				failures = append(failures, FieldError{Field: field, FieldValue: value, Message: msg})
			}
		}
	}
	if len(failures) > 0 {
		return &ValidationError{Failures: failures}
	}
	return nil
}

func (r Rule) check(field string, value any) (string, bool) {
	if isEmpty(value) {
		if r.Required {
			return r.message(fmt.Sprintf("%s is required", field)), false
		}
		return "", true
	}
	if r.Pattern != nil {
		if s, ok := value.(string); ok && !r.Pattern.MatchString(s) {
			return r.message(fmt.Sprintf("%s value %s does not match pattern %s", field, s, r.Pattern)), false
		}
	}
	if r.Tag != "" {
		if err := validate.Var(value, r.Tag); err != nil {
			return r.message(tagMessage(field, err)), false
		}
	}
	if r.Func != nil {
		if err := r.Func(value); err != nil {
			return r.message(err.Error()), false
		}
	}
	return "", true
}

func (r Rule) message(def string) string {
	if r.Message != "" {
		return r.Message
	}
	return def
}

func tagMessage(field string, err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed on the '%s=%s' rule", field, fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed on the '%s' rule", field, fe.Tag())
	}
	return fmt.Sprintf("%s: %v", field, err)
}

// checkTag reports whether tag parses. The validator panics on unknown tags.
func checkTag(tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("binding: invalid validation tag %q: %v", tag, r)
		}
	}()
	// Only the panic matters here; a failed check of the empty string is expected.
	_ = validate.Var("", tag)
	return nil
}
