package schema_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-smith-labs/tourbook/schema"
)

func TestReport_Format(t *testing.T) {
	report := schema.Report{}
	report.Add("name", "Required")
	report.Add("locations.0.coordinates", "Array must contain exactly 2 element(s)")

	assert.Equal(t, map[string]any{
		"_errors": []string{},
		"name":    map[string]any{"_errors": []string{"Required"}},
		"locations": map[string]any{
			"_errors": []string{},
			"0": map[string]any{
				"_errors":     []string{},
				"coordinates": map[string]any{"_errors": []string{"Array must contain exactly 2 element(s)"}},
			},
		},
	}, report.Format())
}

func TestReport_FormatRootErrors(t *testing.T) {
	report := schema.Report{}
	report.Add("", "Expected object, received string")

	assert.Equal(t, map[string]any{"_errors": []string{"Expected object, received string"}}, report.Format())
}

func TestReport_Error(t *testing.T) {
	report := schema.Report{}
	report.Add("pass", "too short")
	report.Add("email", "Invalid email")

	assert.Equal(t, "validation failed: email: Invalid email; pass: too short", report.Error())
}

func TestRegistry(t *testing.T) {
	reg := schema.NewRegistry(map[string]schema.Schema{
		"login": schema.New(schema.Key("email", schema.String().Email())),
	})

	_, err := reg.Get("login")
	require.NoError(t, err)

	_, err = reg.Get("signup")
	assert.True(t, errors.Is(err, schema.ErrUnknownSchema))

	assert.Panics(t, func() { reg.MustGet("signup") })
	assert.Equal(t, []string{"login"}, reg.Names())

	_, err = reg.Validate("login", map[string]any{"email": "x"})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	type location struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	}
	type tour struct {
		Name      string     `json:"name"`
		Duration  int        `json:"duration"`
		Price     float64    `json:"price"`
		Locations []location `json:"locations,omitempty"`
	}

	got, err := schema.Decode[tour](schema.Normalized{
		"name":      "Sea",
		"duration":  int64(5),
		"price":     12.5,
		"locations": []any{map[string]any{"type": "Point", "coordinates": []any{1.0, 2.0}}},
	})
	require.NoError(t, err)
	assert.Equal(t, tour{
		Name:      "Sea",
		Duration:  5,
		Price:     12.5,
		Locations: []location{{Type: "Point", Coordinates: []float64{1, 2}}},
	}, got)
}

func TestNormalizedContext(t *testing.T) {
	_, ok := schema.FromContext(context.Background())
	assert.False(t, ok)

	ctx := schema.WithNormalized(context.Background(), schema.Normalized{"a": 1})
	n, ok := schema.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, 1, n["a"])
}
