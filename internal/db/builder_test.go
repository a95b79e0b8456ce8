package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Description(t *testing.T) {
	idx, err := NewIndex("bookrec:desc:idx").
		Prefix("bookrec:desc:").
		Numeric("line").
		VectorHNSW("__vector", 1536, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "bookrec:desc:idx" {
		t.Errorf("name = %q", idx.Name)
	}
	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	if idx.Fields[0].Type != IndexFieldNumeric {
		t.Errorf("field[0] = %+v, want NUMERIC", idx.Fields[0])
	}
	f := idx.Fields[1]
	if f.VectorAlgo != VectorHNSW || f.VectorDim != 1536 || f.VectorDistance != DistanceCosine {
		t.Errorf("unexpected vector field %+v", f)
	}
	if f.VectorM != 16 || f.VectorEFConstruct != 200 {
		t.Errorf("M/EF = %d/%d, want 16/200", f.VectorM, f.VectorEFConstruct)
	}
}

func TestIndexBuilder_VectorFlat(t *testing.T) {
	idx, err := NewIndex("bookrec:desc:idx").
		Prefix("bookrec:desc:").
		VectorFlat("__vector", 1536, DistanceCosine, 512).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := idx.Fields[0]
	if f.VectorAlgo != VectorFlat || f.VectorDim != 1536 || f.VectorBlockSize != 512 {
		t.Errorf("unexpected field %+v", f)
	}
}

func TestIndexBuilder_BuildCopies(t *testing.T) {
	b := NewIndex("idx").Numeric("a")
	first, err := b.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.Numeric("b")

	if len(first.Fields) != 1 {
		t.Errorf("built definition changed after further building: %d fields", len(first.Fields))
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name:    "empty name",
			builder: func() (*IndexDefinition, error) { return NewIndex("").Numeric("x").Build() },
			wantErr: "index name is required",
		},
		{
			name:    "no fields",
			builder: func() (*IndexDefinition, error) { return NewIndex("idx").Build() },
			wantErr: "at least one field",
		},
		{
			name: "vector without dim",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").VectorHNSW("v", 0, DistanceCosine, 0, 0).Build()
			},
			wantErr: "positive DIM",
		},
		{
			name:    "invalid characters",
			builder: func() (*IndexDefinition, error) { return NewIndex("idx with spaces").Numeric("x").Build() },
			wantErr: "invalid characters",
		},
		{
			name:    "duplicate field",
			builder: func() (*IndexDefinition, error) { return NewIndex("idx").Numeric("x").Numeric("x").Build() },
			wantErr: "duplicate field name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	for s, want := range map[string]bool{
		"bookrec:desc:idx": true,
		"a_b-c":            true,
		"":                 false,
		"a b":              false,
		"a/b":              false,
	} {
		if got := IsValidIdentifier(s); got != want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", s, got, want)
		}
	}
}
