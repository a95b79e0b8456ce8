package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	in := "9780002005883 A NOVEL THAT READERS and critics\n\n  \r\n\"9780002261982 Spider's Web\"\r\n9780006178736 Rising  \n"

	got, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"9780002005883 A NOVEL THAT READERS and critics",
		"\"9780002261982 Spider's Web\"",
		"9780006178736 Rising",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRead_Empty(t *testing.T) {
	got, err := Read(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %q", got)
	}
}

func TestRead_LongLine(t *testing.T) {
	long := "1 " + strings.Repeat("x", 200*1024)

	got, err := Read(strings.NewReader(long + "\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != long {
		t.Error("expected the long record to survive intact")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagged_description.txt")
	if err := os.WriteFile(path, []byte("1 a\n2 b\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 records, got %d", len(got))
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
