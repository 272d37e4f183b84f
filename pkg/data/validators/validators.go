// Package validators provides reusable rules that turn a candidate value into
// human-readable error messages. Messages are templates whose ${name}
// placeholders are filled from the validator's own configuration.
package validators

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validator checks a value and returns zero or more error messages.
// An empty result means the value is accepted.
type Validator interface {
	Validate(value any) []string
}

// Messages maps a message key (e.g. "outOfRange") to its template.
type Messages map[string]string

// Option overrides validator configuration.
type Option func(Messages)

// WithMessage replaces the template stored under key.
func WithMessage(key, template string) Option {
	return func(m Messages) {
		m[key] = template
	}
}

// Printf fills every ${name} placeholder of template with the matching value of params.
func Printf(template string, params map[string]any) string {
	pairs := make([]string, 0, len(params)*2)
	for k, v := range params {
		pairs = append(pairs, "${"+k+"}", fmt.Sprint(v))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func buildMessages(defaults Messages, opts []Option) Messages {
	m := make(Messages, len(defaults))
	for k, v := range defaults {
		m[k] = v
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Func adapts a plain function to the Validator interface.
type Func func(value any) []string

// Validate implements Validator.
func (f Func) Validate(value any) []string {
	return f(value)
}

// Message keys.
const (
	MsgOutOfRange          = "outOfRange"
	MsgTooLongNoMinLength  = "tooLongNoMinLength"
	MsgTooShortNoMaxLength = "tooShortNoMaxLength"
	MsgNoMatch             = "noMatch"
)

// --- Range ---

// RangeValidator checks that a numeric value lies within [Min, Max].
// Setting Max lower than Min disables the check.
type RangeValidator struct {
	Min, Max float64
	Messages Messages
}

// NewRange creates a RangeValidator.
func NewRange(min, max float64, opts ...Option) *RangeValidator {
	return &RangeValidator{
		Min: min,
		Max: max,
		Messages: buildMessages(Messages{
			MsgOutOfRange: "A value between ${min} and ${max} is required",
		}, opts),
	}
}

// Validate implements Validator.
func (v *RangeValidator) Validate(value any) []string {
	if v.Max < v.Min {
		return nil
	}

	n, ok := ToFloat(value)
	if ok && n >= v.Min && n <= v.Max {
		return nil
	}
	return []string{Printf(v.Messages[MsgOutOfRange], map[string]any{"min": v.Min, "max": v.Max})}
}

// --- String length ---

// StringValidator checks that a string has between MinLength and MaxLength characters.
// Use -1 to leave either bound open.
type StringValidator struct {
	MinLength, MaxLength int
	Messages             Messages
}

// NewLength creates a StringValidator.
func NewLength(minLength, maxLength int, opts ...Option) *StringValidator {
	return &StringValidator{
		MinLength: minLength,
		MaxLength: maxLength,
		Messages: buildMessages(Messages{
			MsgTooLongNoMinLength:  "String must have no more than ${maxLength} characters",
			MsgTooShortNoMaxLength: "String must have at least ${minLength} characters",
			MsgOutOfRange:          "String must have between ${minLength} and ${maxLength} characters",
		}, opts),
	}
}

// MaxLength is shorthand for NewLength(-1, n).
func MaxLength(n int, opts ...Option) *StringValidator {
	return NewLength(-1, n, opts...)
}

// MinLength is shorthand for NewLength(n, -1).
func MinLength(n int, opts ...Option) *StringValidator {
	return NewLength(n, -1, opts...)
}

// Validate implements Validator. Non-string values are left to the field's type check.
func (v *StringValidator) Validate(value any) []string {
	s, ok := value.(string)
	if !ok {
		return nil
	}

	params := map[string]any{"minLength": v.MinLength, "maxLength": v.MaxLength}
	length := utf8.RuneCountInString(s)

	var errs []string
	if v.MaxLength > -1 && length > v.MaxLength {
		if v.MinLength > -1 {
			errs = append(errs, Printf(v.Messages[MsgOutOfRange], params))
		} else {
			errs = append(errs, Printf(v.Messages[MsgTooLongNoMinLength], params))
		}
	}
	if v.MinLength > -1 && length < v.MinLength {
		if v.MaxLength > -1 {
			errs = append(errs, Printf(v.Messages[MsgOutOfRange], params))
		} else {
			errs = append(errs, Printf(v.Messages[MsgTooShortNoMaxLength], params))
		}
	}
	return errs
}

// --- Regex ---

// RegexValidator checks that a string matches Pattern.
type RegexValidator struct {
	Pattern  *regexp.Regexp
	Messages Messages
}

// NewRegex creates a RegexValidator for an already compiled pattern.
func NewRegex(pattern *regexp.Regexp, opts ...Option) *RegexValidator {
	return &RegexValidator{
		Pattern: pattern,
		Messages: buildMessages(Messages{
			MsgNoMatch: "The provided value is invalid",
		}, opts),
	}
}

// NewPattern compiles expr and creates a RegexValidator.
func NewPattern(expr string, opts ...Option) (*RegexValidator, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return NewRegex(re, opts...), nil
}

// Validate implements Validator.
func (v *RegexValidator) Validate(value any) []string {
	s, ok := value.(string)
	if ok && v.Pattern.MatchString(s) {
		return nil
	}
	return []string{Printf(v.Messages[MsgNoMatch], map[string]any{"pattern": v.Pattern.String()})}
}
