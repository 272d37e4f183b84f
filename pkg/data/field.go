package data

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/aretw0/piewpiew/pkg/data/validators"
)

// Kind is the value type a Field accepts.
type Kind string

const (
	KindAny     Kind = "any"
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindFloat   Kind = "float"
	KindBoolean Kind = "boolean"
)

// IDField is the name of the identifier field every ModelType provides.
const IDField = "id"

// Field declares the type and constraints of one model attribute.
type Field struct {
	Kind               Kind
	Required           bool
	RequiredMessage    string
	InvalidTypeMessage string
	Validators         []validators.Validator
}

// FieldOption configures a Field.
type FieldOption func(*Field)

// Required marks the field as mandatory.
func Required() FieldOption {
	return func(f *Field) {
		f.Required = true
	}
}

// WithValidators appends validators, run in the given order.
func WithValidators(v ...validators.Validator) FieldOption {
	return func(f *Field) {
		f.Validators = append(f.Validators, v...)
	}
}

// WithRequiredMessage overrides the message reported for a missing value.
func WithRequiredMessage(msg string) FieldOption {
	return func(f *Field) {
		f.RequiredMessage = msg
	}
}

// WithInvalidTypeMessage overrides the message reported for a value of the wrong type.
func WithInvalidTypeMessage(msg string) FieldOption {
	return func(f *Field) {
		f.InvalidTypeMessage = msg
	}
}

// NewField creates a Field of the given kind.
func NewField(kind Kind, opts ...FieldOption) *Field {
	f := &Field{
		Kind:               kind,
		RequiredMessage:    "This field is required",
		InvalidTypeMessage: fmt.Sprintf("A value of type %s is required", kind),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// String declares a string field.
func String(opts ...FieldOption) *Field { return NewField(KindString, opts...) }

// Integer declares an integer field.
func Integer(opts ...FieldOption) *Field { return NewField(KindInteger, opts...) }

// Float declares a floating point field.
func Float(opts ...FieldOption) *Field { return NewField(KindFloat, opts...) }

// Boolean declares a boolean field.
func Boolean(opts ...FieldOption) *Field { return NewField(KindBoolean, opts...) }

// Any declares an untyped field.
func Any(opts ...FieldOption) *Field { return NewField(KindAny, opts...) }

// Validate returns the error messages for value; an empty result means the value is
// accepted. A type or presence failure is reported alone. Otherwise every validator
// runs and their messages are concatenated in order.
func (f *Field) Validate(value any) []string {
	if !f.ValidateType(value) {
		return []string{f.InvalidTypeMessage}
	}

	present := f.ValidateRequired(value)
	if f.Required && !present {
		return []string{f.RequiredMessage}
	}
	if value == nil {
		return nil
	}

	var errs []string
	for _, v := range f.Validators {
		errs = append(errs, v.Validate(value)...)
	}
	return errs
}

// ValidateType reports whether value has the field's kind. A nil value is never a
// type error; absence is the concern of ValidateRequired.
func (f *Field) ValidateType(value any) bool {
	if value == nil {
		return true
	}

	switch f.Kind {
	case KindString:
		_, ok := value.(string)
		return ok
	case KindInteger:
		n, ok := validators.ToFloat(value)
		return ok && isInt(n)
	case KindFloat:
		_, ok := validators.ToFloat(value)
		return ok
	case KindBoolean:
		_, ok := value.(bool)
		return ok
	}
	return true
}

// isInt reports whether n is a whole number that fits in an int.
func isInt(n float64) bool {
	if math.IsInf(n, 0) || math.IsNaN(n) || n != math.Trunc(n) {
		return false
	}
	return n >= float64(math.MinInt) && n < -float64(math.MinInt)
}

// ValidateRequired reports whether value counts as present.
func (f *Field) ValidateRequired(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	}
	return true
}

// Clean normalises an accepted value: integers become int, floats become float64.
// Values from JSON or YAML decoders therefore compare equal to Go literals.
func (f *Field) Clean(value any) any {
	if value == nil {
		return nil
	}

	switch f.Kind {
	case KindInteger:
		if n, ok := validators.ToFloat(value); ok {
			return int(n)
		}
	case KindFloat:
		if n, ok := validators.ToFloat(value); ok {
			return n
		}
	}
	if n, ok := value.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if fl, err := n.Float64(); err == nil {
			return fl
		}
	}
	return value
}

// Parse converts the textual form of a value (e.g. a command-line argument) to the
// field's kind. The result still has to pass Validate.
func (f *Field) Parse(text string) (any, error) {
	switch f.Kind {
	case KindInteger:
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer: %w", text, err)
		}
		return n, nil
	case KindFloat:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number: %w", text, err)
		}
		return n, nil
	case KindBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean: %w", text, err)
		}
		return b, nil
	}
	return text, nil
}
