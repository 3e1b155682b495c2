package schema_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-smith-labs/tourbook/schema"
)

func signupSchema() schema.Schema {
	return schema.New(
		schema.Key("name", schema.String().Min(3).Max(50).Trim()),
		schema.Key("email", schema.String().Email().Lowercase()),
		schema.Key("pass", schema.String().Min(4)),
		schema.Key("confirmPass", schema.String().Min(4)),
		schema.Key("role", schema.Enum("admin", "user", "Guide").Default("user")),
	).Refine(schema.Match("pass", "confirmPass", "Passwords do not match"))
}

func decodeJSON(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func reportOf(t *testing.T, err error) schema.Report {
	t.Helper()
	var report schema.Report
	require.True(t, errors.As(err, &report), "expected schema.Report, got %T", err)
	return report
}

func TestValidate_ValidPayloadNormalized(t *testing.T) {
	candidate := decodeJSON(t, `{
		"name": "  Alice  ",
		"email": "Alice@Example.com",
		"pass": "abcd",
		"confirmPass": "abcd",
		"isAdmin": true
	}`)

	out, err := signupSchema().Validate(candidate)
	require.NoError(t, err)

	assert.Equal(t, schema.Normalized{
		"name":        "Alice",
		"email":       "alice@example.com",
		"pass":        "abcd",
		"confirmPass": "abcd",
		"role":        "user",
	}, out)
	assert.NotContains(t, out, "isAdmin")
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	candidate := decodeJSON(t, `{"name": "Al", "email": "nope", "pass": "ab", "role": "root"}`)

	_, err := signupSchema().Validate(candidate)
	require.Error(t, err)
	report := reportOf(t, err)

	assert.Equal(t, []string{"confirmPass", "email", "name", "pass", "role"}, report.Paths())
	assert.Equal(t, []string{"Required"}, report.Messages("confirmPass"))
	assert.Equal(t, []string{"Invalid email"}, report.Messages("email"))
	assert.Equal(t, []string{"String must contain at least 3 character(s)"}, report.Messages("name"))
	assert.Equal(t, []string{"String must contain at least 4 character(s)"}, report.Messages("pass"))
	assert.Equal(t, []string{"Invalid enum value. Expected 'admin' | 'user' | 'Guide', received 'root'"}, report.Messages("role"))
}

func TestValidate_CrossFieldMismatch(t *testing.T) {
	candidate := decodeJSON(t, `{"name": "Alice", "email": "a@b.co", "pass": "abcd", "confirmPass": "abce"}`)

	_, err := signupSchema().Validate(candidate)
	report := reportOf(t, err)

	assert.Equal(t, []string{"confirmPass"}, report.Paths())
	assert.Equal(t, []string{"Passwords do not match"}, report.Messages("confirmPass"))
}

func TestValidate_CrossFieldSkippedWhenOperandInvalid(t *testing.T) {
	candidate := decodeJSON(t, `{"name": "Alice", "email": "a@b.co", "pass": "ab", "confirmPass": "abcd"}`)

	_, err := signupSchema().Validate(candidate)
	report := reportOf(t, err)

	assert.Equal(t, []string{"pass"}, report.Paths())
	assert.False(t, report.Has("confirmPass"))
}

func TestValidate_TransformsRunAfterChecks(t *testing.T) {
	s := schema.New(schema.Key("name", schema.String().Min(3).Trim()))

	// Length is measured before trimming.
	out, err := s.Validate(map[string]any{"name": "  a  "})
	require.NoError(t, err)
	assert.Equal(t, "a", out["name"])

	_, err = s.Validate(map[string]any{"name": "ab"})
	assert.Error(t, err)
}

func TestValidate_NullIsATypeMismatch(t *testing.T) {
	s := schema.New(schema.Key("nick", schema.String().Optional()))

	_, err := s.Validate(decodeJSON(t, `{"nick": null}`))
	report := reportOf(t, err)
	assert.Equal(t, []string{"Expected string, received null"}, report.Messages("nick"))
}

func TestValidate_NonObjectCandidate(t *testing.T) {
	_, err := signupSchema().Validate([]any{"a"})
	report := reportOf(t, err)
	assert.Equal(t, []string{"Expected object, received array"}, report.Messages(""))
}

func TestValidate_Numbers(t *testing.T) {
	s := schema.New(
		schema.Key("rating", schema.Number().Int().Min(1).Max(5)),
		schema.Key("price", schema.Number().Positive("Price must be a positive number")),
	)

	tests := []struct {
		name      string
		candidate string
		wantErr   map[string][]string
	}{
		{
			name:      "valid",
			candidate: `{"rating": 4, "price": 10.5}`,
		},
		{
			name:      "fractional integer",
			candidate: `{"rating": 4.5, "price": 1}`,
			wantErr:   map[string][]string{"rating": {"Expected integer, received float"}},
		},
		{
			name:      "out of range",
			candidate: `{"rating": 6, "price": 0}`,
			wantErr: map[string][]string{
				"rating": {"Number must be less than or equal to 5"},
				"price":  {"Price must be a positive number"},
			},
		},
		{
			name:      "numeric string rejected",
			candidate: `{"rating": "4", "price": 1}`,
			wantErr:   map[string][]string{"rating": {"Expected number, received string"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := s.Validate(decodeJSON(t, tt.candidate))
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, int64(4), out["rating"])
				assert.Equal(t, 10.5, out["price"])
				return
			}
			report := reportOf(t, err)
			for path, msgs := range tt.wantErr {
				assert.Equal(t, msgs, report.Messages(path), path)
			}
			assert.Len(t, report.Paths(), len(tt.wantErr))
		})
	}
}

func TestValidate_NestedArrayPaths(t *testing.T) {
	location := schema.New(
		schema.Key("type", schema.Literal("Point").Default("Point")),
		schema.Key("coordinates", schema.ArrayOf(schema.Number()).Length(2)),
	)
	s := schema.New(schema.Key("locations", schema.ArrayOf(schema.Nested(location)).Optional()))

	out, err := s.Validate(decodeJSON(t, `{"locations": [{"coordinates": [1.5, 2]}]}`))
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"type": "Point", "coordinates": []any{1.5, 2.0}}}, out["locations"])

	_, err = s.Validate(decodeJSON(t, `{"locations": [{"coordinates": [1]}, {"type": "Line", "coordinates": [1, "x"]}]}`))
	report := reportOf(t, err)
	assert.Equal(t, []string{
		"locations.0.coordinates",
		"locations.1.coordinates.1",
		"locations.1.type",
	}, report.Paths())
	assert.Equal(t, []string{"Array must contain exactly 2 element(s)"}, report.Messages("locations.0.coordinates"))
	assert.Equal(t, []string{`Invalid literal value, expected "Point"`}, report.Messages("locations.1.type"))
}

func TestValidate_Deterministic(t *testing.T) {
	candidate := decodeJSON(t, `{"name": "x", "email": "bad", "pass": "1", "confirmPass": "2"}`)

	_, first := signupSchema().Validate(candidate)
	_, second := signupSchema().Validate(candidate)
	assert.Equal(t, first, second)
}

func TestValidate_Idempotent(t *testing.T) {
	candidate := decodeJSON(t, `{"name": " Bob ", "email": "BOB@x.io", "pass": "abcd", "confirmPass": "abcd"}`)

	once, err := signupSchema().Validate(candidate)
	require.NoError(t, err)
	twice, err := signupSchema().Validate(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestValidate_DoesNotMutateCandidate(t *testing.T) {
	candidate := decodeJSON(t, `{"name": " Bob ", "email": "BOB@x.io", "pass": "abcd", "confirmPass": "abcd", "extra": 1}`)
	snapshot := decodeJSON(t, `{"name": " Bob ", "email": "BOB@x.io", "pass": "abcd", "confirmPass": "abcd", "extra": 1}`)

	_, err := signupSchema().Validate(candidate)
	require.NoError(t, err)
	assert.Equal(t, snapshot, candidate)
}

func TestValidate_DefaultsAreCopied(t *testing.T) {
	s := schema.New(schema.Key("tags", schema.ArrayOf(schema.String()).Default([]any{"a"})))

	first, err := s.Validate(map[string]any{})
	require.NoError(t, err)
	first["tags"].([]any)[0] = "mutated"

	second, err := s.Validate(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, second["tags"])
}

func TestBuilders_DoNotShareState(t *testing.T) {
	base := schema.String().Min(3)
	trimmed := base.Trim()

	assert.Empty(t, base.Transforms())
	assert.Equal(t, []string{"trim"}, trimmed.Transforms())
}

func TestValidate_IntegersOutsideSafeRange(t *testing.T) {
	s := schema.New(schema.Key("count", schema.Number().Int()))

	for _, raw := range []any{
		json.Number("1e20"),
		json.Number("-1e20"),
		json.Number("12345678901234567"),
		float64(1 << 60),
	} {
		_, err := s.Validate(map[string]any{"count": raw})
		assert.Equal(t, []string{"Number must be a safe integer"}, reportOf(t, err).Messages("count"), "%v", raw)
	}

	out, err := s.Validate(map[string]any{"count": json.Number("9007199254740991")})
	require.NoError(t, err)
	assert.Equal(t, int64(schema.MaxSafeInteger), out["count"])
}

func TestValidate_NumberOutOfFloatRange(t *testing.T) {
	s := schema.New(schema.Key("price", schema.Number()))

	_, err := s.Validate(map[string]any{"price": json.Number("1e400")})
	assert.Equal(t, []string{"Number is out of range"}, reportOf(t, err).Messages("price"))

	_, err = s.Validate(map[string]any{"price": json.Number("abc")})
	assert.Equal(t, []string{"Expected number, received number"}, reportOf(t, err).Messages("price"))
}

func TestValidate_MaxBytesCountsEncodedSize(t *testing.T) {
	s := schema.New(schema.Key("secret", schema.String().Max(10).MaxBytes(8)))

	_, err := s.Validate(map[string]any{"secret": "ééééé"})
	assert.Equal(t, []string{"String must be at most 8 bytes long"}, reportOf(t, err).Messages("secret"))

	out, err := s.Validate(map[string]any{"secret": "éééé"})
	require.NoError(t, err)
	assert.Equal(t, "éééé", out["secret"])
}
