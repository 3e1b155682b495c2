package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-smith-labs/tourbook/schema"
)

func tourSchema() schema.Schema {
	return schema.New(
		schema.Key("name", schema.String().Min(3).Max(20).Trim()),
		schema.Key("price", schema.Number().Positive()),
		schema.Key("duration", schema.Number().Int().Default(int64(3))),
		schema.Key("difficulty", schema.Enum("easy", "medium", "difficult").Default("easy")),
	)
}

func TestPartial_EmptyPayloadIsValid(t *testing.T) {
	out, err := schema.Partial(tourSchema()).Validate(map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, out, "defaults must not be filled for updates")
}

func TestPartial_PresentFieldsKeepTheirChecks(t *testing.T) {
	update := schema.Partial(tourSchema())

	out, err := update.Validate(map[string]any{"price": 99.0, "name": " Sea "})
	require.NoError(t, err)
	assert.Equal(t, schema.Normalized{"price": 99.0, "name": "Sea"}, out)

	_, err = update.Validate(map[string]any{"price": -1.0})
	report := reportOf(t, err)
	assert.Equal(t, []string{"price"}, report.Paths())
}

func TestPartial_BaseUnchanged(t *testing.T) {
	base := tourSchema()
	_ = schema.Partial(base)

	assert.Equal(t, []string{"name", "price"}, base.Required())
	assert.False(t, base.IsPartial())

	out, err := base.Validate(map[string]any{"name": "Sea", "price": 1.0})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out["duration"])
}

func TestPartial_NestedObjects(t *testing.T) {
	inner := schema.New(schema.Key("city", schema.String()))
	base := schema.New(schema.Key("address", schema.Nested(inner)))

	out, err := schema.Partial(base).Validate(map[string]any{"address": map[string]any{}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, out["address"])
}

func TestPartial_CrossFieldRuleNeedsBothOperands(t *testing.T) {
	s := schema.Partial(schema.New(
		schema.Key("password", schema.String()),
		schema.Key("confirmPassword", schema.String()),
	).Refine(schema.Match("password", "confirmPassword", "Passwords do not match")))

	_, err := s.Validate(map[string]any{"password": "abcd"})
	assert.NoError(t, err)

	_, err = s.Validate(map[string]any{"password": "abcd", "confirmPassword": "x"})
	report := reportOf(t, err)
	assert.Equal(t, []string{"Passwords do not match"}, report.Messages("confirmPassword"))
}

func TestUndeclared(t *testing.T) {
	updateMe := schema.New(
		schema.Key("name", schema.String().Optional()),
		schema.Key("email", schema.String().Optional()),
	)

	assert.Equal(t, []string{"age"}, schema.Undeclared(updateMe, []string{"name", "email", "age"}))
	assert.Empty(t, schema.Undeclared(updateMe, []string{"name"}))
}
