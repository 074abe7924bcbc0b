package util

import (
	"strings"
	"testing"
)

func TestNewID(t *testing.T) {
	id := NewID("note")
	if !strings.HasPrefix(id, "note_") {
		t.Fatalf("expected note_ prefix, got %q", id)
	}
	if len(id) != len("note_")+32 {
		t.Fatalf("unexpected id length %d for %q", len(id), id)
	}
	if bare := NewID(""); len(bare) != 32 || strings.Contains(bare, "_") {
		t.Fatalf("unexpected bare id %q", bare)
	}
	if NewID("note") == id {
		t.Fatal("expected distinct ids")
	}
}
