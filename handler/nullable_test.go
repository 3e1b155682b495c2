package handler

import (
	"testing"

	"github.com/google/uuid"

	"github.com/platform-smith-labs/tourbook/schema"
)

func TestNullable_WithValue(t *testing.T) {
	id := uuid.New()
	n := NewNullable(id)

	if !n.HasValue() {
		t.Fatal("Expected HasValue() to be true")
	}
	if n.Value() != id {
		t.Errorf("Expected %s, got %s", id, n.Value())
	}
	if v, ok := n.TryValue(); !ok || v != id {
		t.Errorf("Expected TryValue to return (%s, true), got (%s, %v)", id, v, ok)
	}
	if n.ValueOr(uuid.Nil) != id {
		t.Error("Expected ValueOr to return the contained value")
	}
}

func TestNullable_Empty(t *testing.T) {
	n := Nil[string]()

	if n.HasValue() {
		t.Error("Expected HasValue() to be false")
	}
	if v, ok := n.TryValue(); ok || v != "" {
		t.Errorf("Expected TryValue to return (\"\", false), got (%q, %v)", v, ok)
	}
	if n.ValueOrDefault() != "" {
		t.Error("Expected zero value from ValueOrDefault")
	}
	if n.ValueOr("user") != "user" {
		t.Error("Expected fallback from ValueOr")
	}
}

func TestNullable_ZeroValueIsEmpty(t *testing.T) {
	var ctx HandlerContext[struct{}, struct{}]

	if ctx.Validated.HasValue() || ctx.UserUUID.HasValue() || ctx.RequestID.HasValue() {
		t.Error("Expected zero HandlerContext to carry no values")
	}
}

func TestNullable_ValuePanicsWhenEmpty(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Expected Value() to panic on empty Nullable")
		}
		msg, ok := r.(string)
		if !ok || msg != "tourbook: attempted to access Nullable value when HasValue is false" {
			t.Errorf("Unexpected panic value %v", r)
		}
	}()

	_ = Nil[schema.Normalized]().Value()
}
