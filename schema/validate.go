package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var formats = validator.New()

// Validate checks candidate against the schema and returns the normalized
// object, or a Report describing every violation found.
//
// Undeclared keys are dropped, absent optional fields receive their declared
// defaults and transforms run on values that passed their checks. Cross-field
// rules run last. The candidate itself is never modified.
func (s Schema) Validate(candidate any) (Normalized, error) {
	report := Report{}
	out := s.validateObject("", candidate, report)
	if !report.Empty() {
		return nil, report
	}
	return out, nil
}

func (s Schema) validateObject(path string, candidate any, report Report) Normalized {
	obj, ok := candidate.(map[string]any)
	if !ok {
		if n, isNormalized := candidate.(Normalized); isNormalized {
			obj = n
		} else {
			report.Add(path, fmt.Sprintf("Expected object, received %s", typeName(candidate)))
			return nil
		}
	}

	out := make(Normalized, len(s.fields))
	failed := make(map[string]bool)
	checked := make(map[string]bool)

	for _, f := range s.fields {
		fieldPath := joinPath(path, f.Name)
		raw, present := obj[f.Name]
		if !present {
			if !f.Rule.optional {
				report.Add(fieldPath, f.Rule.message(checkRequired, "Required"))
				failed[f.Name] = true
				continue
			}
			if f.Rule.hasDefault {
				out[f.Name] = copyValue(f.Rule.def)
			}
			continue
		}

		value, ok := f.Rule.check(fieldPath, raw, report)
		if !ok {
			failed[f.Name] = true
			continue
		}
		out[f.Name] = value
		checked[f.Name] = true
	}

	for _, f := range s.fields {
		if checked[f.Name] {
			out[f.Name] = f.Rule.apply(out[f.Name])
		}
	}

	for _, rule := range s.refines {
		if !rule.applicable(out, failed) {
			continue
		}
		if !rule.Check(out) {
			report.Add(joinPath(path, rule.Path), rule.Message)
		}
	}

	return out
}

func (c CrossFieldRule) applicable(out Normalized, failed map[string]bool) bool {
	for _, name := range c.Fields {
		if failed[name] {
			return false
		}
		if _, ok := out[name]; !ok {
			return false
		}
	}
	return c.Check != nil
}

// check runs the type check followed by the kind-specific constraints. It
// reports every constraint violation rather than the first one.
func (r FieldRule) check(path string, raw any, report Report) (any, bool) {
	switch r.kind {
	case KindString:
		return r.checkString(path, raw, report)
	case KindNumber:
		return r.checkNumber(path, raw, report)
	case KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			report.Add(path, r.typeMismatch("boolean", raw))
			return nil, false
		}
		return b, true
	case KindEnum:
		return r.checkEnum(path, raw, report)
	case KindObject:
		before := report.count()
		out := r.object.validateObject(path, raw, report)
		if report.count() > before {
			return nil, false
		}
		return map[string]any(out), true
	case KindArray:
		return r.checkArray(path, raw, report)
	default:
		report.Add(path, fmt.Sprintf("Unsupported rule kind %s", r.kind))
		return nil, false
	}
}

func (r FieldRule) checkString(path string, raw any, report Report) (any, bool) {
	str, ok := raw.(string)
	if !ok {
		report.Add(path, r.typeMismatch("string", raw))
		return nil, false
	}

	valid := true
	length := utf8.RuneCountInString(str)
	if r.minLen != nil && length < *r.minLen {
		report.Add(path, r.message(checkMin, fmt.Sprintf("String must contain at least %d character(s)", *r.minLen)))
		valid = false
	}
	if r.maxLen != nil && length > *r.maxLen {
		report.Add(path, r.message(checkMax, fmt.Sprintf("String must contain at most %d character(s)", *r.maxLen)))
		valid = false
	}
	if r.maxBytes != nil && len(str) > *r.maxBytes {
		report.Add(path, r.message(checkBytes, fmt.Sprintf("String must be at most %d bytes long", *r.maxBytes)))
		valid = false
	}
	if r.format == FormatEmail && formats.Var(str, "email") != nil {
		report.Add(path, r.message(checkFormat, "Invalid email"))
		valid = false
	}
	return str, valid
}

func (r FieldRule) checkNumber(path string, raw any, report Report) (any, bool) {
	num, ok := toFloat(raw)
	if !ok {
		if outOfRange(raw) {
			report.Add(path, r.message(checkType, "Number is out of range"))
		} else {
			report.Add(path, r.typeMismatch("number", raw))
		}
		return nil, false
	}

	valid := true
	if r.integer && num != math.Trunc(num) {
		report.Add(path, r.message(checkInteger, "Expected integer, received float"))
		valid = false
	} else if r.integer && math.Abs(num) > MaxSafeInteger {
		report.Add(path, r.message(checkInteger, "Number must be a safe integer"))
		valid = false
	}
	if r.min != nil {
		if r.min.Exclusive && num <= r.min.Value {
			report.Add(path, r.message(checkMin, "Number must be greater than "+formatNumber(r.min.Value)))
			valid = false
		} else if !r.min.Exclusive && num < r.min.Value {
			report.Add(path, r.message(checkMin, "Number must be greater than or equal to "+formatNumber(r.min.Value)))
			valid = false
		}
	}
	if r.max != nil {
		if r.max.Exclusive && num >= r.max.Value {
			report.Add(path, r.message(checkMax, "Number must be less than "+formatNumber(r.max.Value)))
			valid = false
		} else if !r.max.Exclusive && num > r.max.Value {
			report.Add(path, r.message(checkMax, "Number must be less than or equal to "+formatNumber(r.max.Value)))
			valid = false
		}
	}
	if !valid {
		return nil, false
	}
	if r.integer {
		return int64(num), true
	}
	return num, true
}

func (r FieldRule) checkEnum(path string, raw any, report Report) (any, bool) {
	str, ok := raw.(string)
	if ok {
		for _, v := range r.values {
			if v == str {
				return str, true
			}
		}
	}

	if len(r.values) == 1 {
		report.Add(path, r.message(checkEnum, fmt.Sprintf("Invalid literal value, expected %q", r.values[0])))
		return nil, false
	}
	quoted := make([]string, len(r.values))
	for i, v := range r.values {
		quoted[i] = "'" + v + "'"
	}
	received := typeName(raw)
	if ok {
		received = "'" + str + "'"
	}
	report.Add(path, r.message(checkEnum, fmt.Sprintf("Invalid enum value. Expected %s, received %s", strings.Join(quoted, " | "), received)))
	return nil, false
}

func (r FieldRule) checkArray(path string, raw any, report Report) (any, bool) {
	items, ok := raw.([]any)
	if !ok {
		report.Add(path, r.typeMismatch("array", raw))
		return nil, false
	}

	valid := true
	if r.length != nil && len(items) != *r.length {
		report.Add(path, r.message(checkLength, fmt.Sprintf("Array must contain exactly %d element(s)", *r.length)))
		valid = false
	}

	out := make([]any, len(items))
	for i, item := range items {
		value, ok := r.elem.check(joinPath(path, strconv.Itoa(i)), item, report)
		if !ok {
			valid = false
			continue
		}
		out[i] = r.elem.apply(value)
	}
	if !valid {
		return nil, false
	}
	return out, true
}

// apply runs the rule's transforms on a value that passed its checks.
func (r FieldRule) apply(value any) any {
	str, ok := value.(string)
	if !ok {
		return value
	}
	for _, t := range r.transforms {
		str = t.fn(str)
	}
	return str
}

func (r FieldRule) typeMismatch(expected string, raw any) string {
	return r.message(checkType, fmt.Sprintf("Expected %s, received %s", expected, typeName(raw)))
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// outOfRange reports a well-formed JSON number that float64 cannot hold.
func outOfRange(raw any) bool {
	n, ok := raw.(json.Number)
	if !ok {
		return false
	}
	_, err := n.Float64()
	var numErr *strconv.NumError
	return errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64, float32, int, int32, int64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any, Normalized:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// copyValue deep-copies default values so that callers mutating a normalized
// object cannot alter the schema's declared defaults.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
