// Package schema implements declarative payload contracts and the generic
// interpreter that validates and normalizes request payloads against them.
//
// A Schema is an ordered list of named FieldRules plus cross-field rules.
// Validation never stops at the first problem: every violation found in a
// single pass is collected into a Report keyed by field path.
//
//	signup := schema.New(
//	    schema.Key("pass", schema.String().Min(4)),
//	    schema.Key("confirmPass", schema.String().Min(4)),
//	).Refine(schema.Match("pass", "confirmPass", "Passwords do not match"))
//
//	normalized, err := signup.Validate(candidate)
package schema

import (
	"slices"
)

// Normalized is a payload after defaults and transforms have been applied.
// It only contains fields declared by the schema.
type Normalized map[string]any

// Field binds a JSON field name to its rule.
type Field struct {
	Name string
	Rule FieldRule
}

// Key is shorthand for a Field literal.
func Key(name string, rule FieldRule) Field {
	return Field{Name: name, Rule: rule}
}

// CrossFieldRule is a predicate over the whole normalized object.
//
// Fields lists the fields the predicate reads. The rule is only evaluated
// when all of them are present and passed their own checks, so a missing
// field is reported once as missing and not again as a mismatch.
type CrossFieldRule struct {
	Path    string
	Message string
	Fields  []string
	Check   func(Normalized) bool
}

// Match returns a rule requiring confirm to equal field, reported on confirm.
func Match(field, confirm, message string) CrossFieldRule {
	return CrossFieldRule{
		Path:    confirm,
		Message: message,
		Fields:  []string{field, confirm},
		Check: func(n Normalized) bool {
			return n[field] == n[confirm]
		},
	}
}

// Schema describes an accepted payload shape. Schemas are immutable values.
type Schema struct {
	fields  []Field
	refines []CrossFieldRule
	partial bool
}

// New builds a schema from fields in declaration order.
func New(fields ...Field) Schema {
	return Schema{fields: slices.Clone(fields)}
}

// Refine returns a copy of s with the cross-field rules appended.
func (s Schema) Refine(rules ...CrossFieldRule) Schema {
	s.fields = slices.Clone(s.fields)
	s.refines = append(slices.Clone(s.refines), rules...)
	return s
}

// Fields returns the fields in declaration order.
func (s Schema) Fields() []Field {
	return slices.Clone(s.fields)
}

// CrossFieldRules returns the cross-field rules in declaration order.
func (s Schema) CrossFieldRules() []CrossFieldRule {
	return slices.Clone(s.refines)
}

// IsPartial reports whether the schema was derived with Partial.
func (s Schema) IsPartial() bool {
	return s.partial
}

// Lookup returns the rule of a declared field.
func (s Schema) Lookup(name string) (FieldRule, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f.Rule, true
		}
	}
	return FieldRule{}, false
}

// Required returns the names of fields that must be present.
func (s Schema) Required() []string {
	var names []string
	for _, f := range s.fields {
		if !f.Rule.optional {
			names = append(names, f.Name)
		}
	}
	return names
}

// Partial derives an update schema from base: every field becomes optional
// and declared defaults are dropped, recursively for nested objects. An
// absent field in an update payload means "leave unchanged", so filling a
// default there would overwrite stored data.
func Partial(base Schema) Schema {
	derived := Schema{
		fields:  make([]Field, len(base.fields)),
		refines: slices.Clone(base.refines),
		partial: true,
	}
	for i, f := range base.fields {
		rule := f.Rule.clone()
		rule.optional = true
		rule.def = nil
		rule.hasDefault = false
		if rule.object != nil {
			nested := Partial(*rule.object)
			rule.object = &nested
		}
		derived.fields[i] = Field{Name: f.Name, Rule: rule}
	}
	return derived
}

// Undeclared returns the names in allowed that s does not declare. Such names
// can never reach a consumer of s's normalized output.
func Undeclared(s Schema, allowed []string) []string {
	var missing []string
	for _, name := range allowed {
		if _, ok := s.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
