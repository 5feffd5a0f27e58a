package domain

import (
	"context"
	"errors"
	"testing"
)

func TestDocumentValidate_OK(t *testing.T) {
	d := Document{ID: "java-dev-0", Text: `{"name":"Verify G+"}`, SourceFile: "job_descriptions.json", PageNumber: "1"}
	if err := d.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDocumentValidate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"missing id", Document{Text: "some text"}},
		{"missing text", Document{ID: "java-dev-0"}},
		{"empty", Document{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrMalformedInput) {
				t.Errorf("expected ErrMalformedInput, got %v", err)
			}
		})
	}
}

func TestMalformedInputError_CarriesPath(t *testing.T) {
	err := NewMalformedInput("data/job_descriptions.json", "not a JSON array")
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}

	var mie *MalformedInputError
	if !errors.As(err, &mie) {
		t.Fatal("expected *MalformedInputError")
	}
	if mie.Path != "data/job_descriptions.json" {
		t.Errorf("expected path in error, got %q", mie.Path)
	}
}

func TestEmbeddingUsage_AddTokens(t *testing.T) {
	ctx, usage := NewContextWithUsage(context.Background())

	UsageFromContext(ctx).AddTokens(12)
	UsageFromContext(ctx).AddTokens(5)

	if usage.TotalTokens != 17 {
		t.Errorf("expected 17 tokens, got %d", usage.TotalTokens)
	}
	if !usage.Used {
		t.Error("expected usage to be marked used")
	}
}

func TestEmbeddingUsage_NilSafe(t *testing.T) {
	u := UsageFromContext(context.Background())
	if u != nil {
		t.Fatalf("expected nil collector, got %+v", u)
	}
	u.AddTokens(10) // must not panic
}
