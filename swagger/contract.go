package swagger

import (
	"github.com/go-openapi/spec"

	"github.com/platform-smith-labs/tourbook/schema"
)

// contractSchema describes a validation contract as a JSON schema object.
func contractSchema(s schema.Schema) spec.Schema {
	out := spec.Schema{SchemaProps: spec.SchemaProps{
		Type:       []string{"object"},
		Properties: make(spec.SchemaProperties),
	}}
	for _, f := range s.Fields() {
		out.Properties[f.Name] = ruleSchema(f.Rule)
	}
	out.Required = s.Required()
	if s.IsPartial() {
		out.AddExtension("x-partial", true)
	}
	return out
}

func ruleSchema(r schema.FieldRule) spec.Schema {
	var out spec.Schema
	switch r.Kind() {
	case schema.KindString:
		out.Type = []string{"string"}
		if r.Format() == schema.FormatEmail {
			out.Format = "email"
		}
		lo, hi := r.LengthBounds()
		if lo != nil {
			v := int64(*lo)
			out.MinLength = &v
		}
		if hi != nil {
			v := int64(*hi)
			out.MaxLength = &v
		}
		if n := r.ByteLimit(); n != nil {
			out.AddExtension("x-max-bytes", *n)
		}
	case schema.KindNumber:
		out.Type = []string{"number"}
		if r.IsInteger() {
			out.Type = []string{"integer"}
		}
		lo, hi := r.ValueBounds()
		if lo != nil {
			out.Minimum = &lo.Value
			out.ExclusiveMinimum = lo.Exclusive
		}
		if hi != nil {
			out.Maximum = &hi.Value
			out.ExclusiveMaximum = hi.Exclusive
		}
	case schema.KindBoolean:
		out.Type = []string{"boolean"}
	case schema.KindEnum:
		out.Type = []string{"string"}
		for _, v := range r.Values() {
			out.Enum = append(out.Enum, v)
		}
	case schema.KindObject:
		if nested, ok := r.Object(); ok {
			out = contractSchema(nested)
		} else {
			out.Type = []string{"object"}
		}
	case schema.KindArray:
		out.Type = []string{"array"}
		if elem, ok := r.Elem(); ok {
			items := ruleSchema(elem)
			out.Items = &spec.SchemaOrArray{Schema: &items}
		}
		if n := r.ArrayLength(); n != nil {
			v := int64(*n)
			out.MinItems = &v
			out.MaxItems = &v
		}
	}

	if def, ok := r.DefaultValue(); ok {
		out.Default = def
	}
	if names := r.Transforms(); len(names) > 0 {
		out.AddExtension("x-transforms", names)
	}
	return out
}
