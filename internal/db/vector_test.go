package db

import "testing"

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0, -1.5, 3.25}

	blob := EncodeVector(vec)
	if len(blob) != 12 {
		t.Fatalf("expected 12 bytes, got %d", len(blob))
	}

	got, err := DecodeVector(blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Errorf("[%d] = %f, want %f", i, got[i], vec[i])
		}
	}
}

func TestDecodeVector_BadLength(t *testing.T) {
	if _, err := DecodeVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated blob")
	}
}
