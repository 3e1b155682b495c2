package schema

import (
	"maps"
	"slices"
	"strings"
)

// Kind is the type tag of a FieldRule.
type Kind int

const (
	KindString Kind = iota + 1
	KindNumber
	KindBoolean
	KindEnum
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindEnum:
		return "enum"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Format names a well-known string format checked after the type check.
type Format string

const (
	FormatNone  Format = ""
	FormatEmail Format = "email"
)

// check identifies a single constraint so that a custom message can be attached to it.
type check int

const (
	checkRequired check = iota
	checkType
	checkMin
	checkMax
	checkInteger
	checkFormat
	checkLength
	checkEnum
	checkBytes
)

// MaxSafeInteger is the largest integer a JSON number carries without loss
// (2^53 - 1). Int rules reject values beyond it.
const MaxSafeInteger = 1<<53 - 1

// Bound is an inclusive or exclusive numeric limit.
type Bound struct {
	Value     float64
	Exclusive bool
}

// FieldRule describes how a single field is validated and normalized.
//
// FieldRule is a value type. Builder methods never modify the receiver; they
// return an updated copy, so a rule shared by several schemas cannot drift.
//
//	name := schema.String().Min(3).Max(50).Trim()
//	role := schema.Enum("admin", "user", "Guide").Default("user")
type FieldRule struct {
	kind       Kind
	optional   bool
	integer    bool
	format     Format
	minLen     *int
	maxLen     *int
	maxBytes   *int
	min        *Bound
	max        *Bound
	length     *int
	values     []string
	object     *Schema
	elem       *FieldRule
	def        any
	hasDefault bool
	transforms []namedTransform
	messages   map[check]string
}

type namedTransform struct {
	name string
	fn   func(string) string
}

// String returns a rule accepting JSON strings.
func String() FieldRule { return FieldRule{kind: KindString} }

// Number returns a rule accepting JSON numbers.
func Number() FieldRule { return FieldRule{kind: KindNumber} }

// Boolean returns a rule accepting JSON booleans.
func Boolean() FieldRule { return FieldRule{kind: KindBoolean} }

// Enum returns a rule accepting one of the given string values.
func Enum(values ...string) FieldRule {
	return FieldRule{kind: KindEnum, values: slices.Clone(values)}
}

// Literal returns a rule accepting exactly one string value.
func Literal(value string) FieldRule { return Enum(value) }

// Nested returns a rule accepting an object validated against s.
func Nested(s Schema) FieldRule {
	return FieldRule{kind: KindObject, object: &s}
}

// ArrayOf returns a rule accepting an array whose elements satisfy elem.
func ArrayOf(elem FieldRule) FieldRule {
	return FieldRule{kind: KindArray, elem: &elem}
}

func (r FieldRule) clone() FieldRule {
	r.values = slices.Clone(r.values)
	r.transforms = slices.Clone(r.transforms)
	r.messages = maps.Clone(r.messages)
	return r
}

func (r FieldRule) withMessage(c check, message []string) FieldRule {
	if len(message) == 0 || message[0] == "" {
		return r
	}
	if r.messages == nil {
		r.messages = make(map[check]string)
	}
	r.messages[c] = message[0]
	return r
}

// Min sets the minimum length of a string or the inclusive minimum of a number.
func (r FieldRule) Min(n float64, message ...string) FieldRule {
	r = r.clone()
	if r.kind == KindString {
		l := int(n)
		r.minLen = &l
	} else {
		r.min = &Bound{Value: n}
	}
	return r.withMessage(checkMin, message)
}

// Max sets the maximum length of a string or the inclusive maximum of a number.
func (r FieldRule) Max(n float64, message ...string) FieldRule {
	r = r.clone()
	if r.kind == KindString {
		l := int(n)
		r.maxLen = &l
	} else {
		r.max = &Bound{Value: n}
	}
	return r.withMessage(checkMax, message)
}

// MaxBytes limits the UTF-8 encoded size of a string, independently of its
// character count.
func (r FieldRule) MaxBytes(n int, message ...string) FieldRule {
	r = r.clone()
	r.maxBytes = &n
	return r.withMessage(checkBytes, message)
}

// Positive requires a number strictly greater than zero.
func (r FieldRule) Positive(message ...string) FieldRule {
	r = r.clone()
	r.min = &Bound{Value: 0, Exclusive: true}
	return r.withMessage(checkMin, message)
}

// Int requires a number without a fractional part.
func (r FieldRule) Int(message ...string) FieldRule {
	r = r.clone()
	r.integer = true
	return r.withMessage(checkInteger, message)
}

// Email requires a string that is a valid email address.
func (r FieldRule) Email(message ...string) FieldRule {
	r = r.clone()
	r.format = FormatEmail
	return r.withMessage(checkFormat, message)
}

// Length requires an array with exactly n elements.
func (r FieldRule) Length(n int, message ...string) FieldRule {
	r = r.clone()
	r.length = &n
	return r.withMessage(checkLength, message)
}

// Optional marks the field as not required.
func (r FieldRule) Optional() FieldRule {
	r = r.clone()
	r.optional = true
	return r
}

// Default marks the field optional and fills v when the field is absent.
func (r FieldRule) Default(v any) FieldRule {
	r = r.clone()
	r.optional = true
	r.def = v
	r.hasDefault = true
	return r
}

// Required overrides the message reported when the field is absent.
func (r FieldRule) Required(message string) FieldRule {
	return r.clone().withMessage(checkRequired, []string{message})
}

// TypeMessage overrides the message reported on a type mismatch.
func (r FieldRule) TypeMessage(message string) FieldRule {
	return r.clone().withMessage(checkType, []string{message})
}

// Trim removes leading and trailing whitespace after validation.
func (r FieldRule) Trim() FieldRule {
	return r.Transform("trim", strings.TrimSpace)
}

// Lowercase lower-cases the value after validation.
func (r FieldRule) Lowercase() FieldRule {
	return r.Transform("lowercase", strings.ToLower)
}

// Transform appends a named string transform. Transforms run in the order they
// were added, only on values that passed every check of the rule.
func (r FieldRule) Transform(name string, fn func(string) string) FieldRule {
	r = r.clone()
	r.transforms = append(r.transforms, namedTransform{name: name, fn: fn})
	return r
}

// Kind returns the type tag of the rule.
func (r FieldRule) Kind() Kind { return r.kind }

// IsOptional reports whether the field may be absent.
func (r FieldRule) IsOptional() bool { return r.optional }

// IsInteger reports whether a number rule only accepts integers.
func (r FieldRule) IsInteger() bool { return r.integer }

// Format returns the string format checked by the rule.
func (r FieldRule) Format() Format { return r.format }

// DefaultValue returns the default and whether one is declared.
func (r FieldRule) DefaultValue() (any, bool) { return r.def, r.hasDefault }

// LengthBounds returns the string length bounds, nil when unset.
func (r FieldRule) LengthBounds() (min, max *int) { return r.minLen, r.maxLen }

// ByteLimit returns the maximum encoded size of a string, nil when unset.
func (r FieldRule) ByteLimit() *int { return r.maxBytes }

// ValueBounds returns the numeric bounds, nil when unset.
func (r FieldRule) ValueBounds() (min, max *Bound) { return r.min, r.max }

// ArrayLength returns the fixed array length, nil when unset.
func (r FieldRule) ArrayLength() *int { return r.length }

// Values returns the accepted enum values.
func (r FieldRule) Values() []string { return slices.Clone(r.values) }

// Object returns the nested schema of an object rule.
func (r FieldRule) Object() (Schema, bool) {
	if r.object == nil {
		return Schema{}, false
	}
	return *r.object, true
}

// Elem returns the element rule of an array rule.
func (r FieldRule) Elem() (FieldRule, bool) {
	if r.elem == nil {
		return FieldRule{}, false
	}
	return *r.elem, true
}

// Transforms returns the names of the transforms in execution order.
func (r FieldRule) Transforms() []string {
	names := make([]string, len(r.transforms))
	for i, t := range r.transforms {
		names[i] = t.name
	}
	return names
}

func (r FieldRule) message(c check, fallback string) string {
	if msg, ok := r.messages[c]; ok {
		return msg
	}
	return fallback
}
