package schema

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

type normalizedKey struct{}

// NormalizedKey is the request context key under which the gate stores the
// normalized payload.
var NormalizedKey = normalizedKey{}

// WithNormalized returns a copy of ctx carrying n.
func WithNormalized(ctx context.Context, n Normalized) context.Context {
	return context.WithValue(ctx, NormalizedKey, n)
}

// FromContext returns the normalized payload stored by WithNormalized.
func FromContext(ctx context.Context) (Normalized, bool) {
	n, ok := ctx.Value(NormalizedKey).(Normalized)
	return n, ok
}

// Decode copies a normalized payload into a struct using its json tags.
// Fields absent from n keep their zero value.
func Decode[T any](n Normalized) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return out, fmt.Errorf("creating decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(n)); err != nil {
		return out, fmt.Errorf("decoding normalized payload: %w", err)
	}
	return out, nil
}
