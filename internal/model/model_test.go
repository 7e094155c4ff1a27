package model

import (
	"context"
	"testing"

	"numerox/internal/data"
)

// stubModel is a minimal Model implementation used in registry tests.
type stubModel struct {
	name string
}

func (m *stubModel) Name() string                                         { return m.name }
func (m *stubModel) Fit(_ context.Context, _ *data.Data) (Fitted, error) { return nil, nil }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubModel{name: "test-model"})

	got, ok := r.Get("test-model")
	if !ok {
		t.Fatal("Get returned false for registered model")
	}
	if got.Name() != "test-model" {
		t.Errorf("Get returned model with Name() = %q, want %q", got.Name(), "test-model")
	}
}

func TestRegistryGet_NotFound(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("nonexistent"); ok {
		t.Error("Get returned true for unregistered model")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubModel{name: "logistic"})
	r.Register(&stubModel{name: "mean"})

	names := r.List()
	if len(names) != 2 {
		t.Fatalf("List returned %d names, want 2", len(names))
	}
	if names[0] != "logistic" || names[1] != "mean" {
		t.Errorf("List returned %v, want [logistic mean]", names)
	}
}
