package handler

// Nullable is an optional request-scoped value in HandlerContext.
//
// Middleware fills it and handlers read it. A handler mounted behind the
// middleware that sets a value may call Value directly; values that can
// legitimately be absent, such as the authenticated user on a public route,
// are read with TryValue or ValueOr.
//
//	ctx.Validated = handler.NewNullable(normalized) // ValidateBody
//	input := ctx.Validated.Value()                  // handler
type Nullable[T any] struct {
	value    T
	hasValue bool
}

// NewNullable creates a Nullable containing the given value.
func NewNullable[T any](value T) Nullable[T] {
	return Nullable[T]{value: value, hasValue: true}
}

// Nil returns an empty Nullable.
func Nil[T any]() Nullable[T] {
	return Nullable[T]{}
}

// HasValue reports whether a value is present.
func (n Nullable[T]) HasValue() bool {
	return n.hasValue
}

// Value returns the contained value. It panics when the value is absent,
// which means the route is missing the middleware that provides it; the
// router's Recoverer turns the panic into a 500.
func (n Nullable[T]) Value() T {
	if !n.hasValue {
		panic("tourbook: attempted to access Nullable value when HasValue is false")
	}
	return n.value
}

// TryValue returns the value and whether it is present. It never panics.
func (n Nullable[T]) TryValue() (T, bool) {
	return n.value, n.hasValue
}

// ValueOrDefault returns the value, or the zero value of T when absent.
func (n Nullable[T]) ValueOrDefault() T {
	if n.hasValue {
		return n.value
	}
	var zero T
	return zero
}

// ValueOr returns the value, or fallback when absent.
func (n Nullable[T]) ValueOr(fallback T) T {
	if n.hasValue {
		return n.value
	}
	return fallback
}
