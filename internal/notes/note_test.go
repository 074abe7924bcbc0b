package notes

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func sampleNotes() []Note {
	return []Note{
		{ID: "n1", CommentID: "c1", AnchorText: "confirmed", Content: "check this"},
		{ID: "n2", Content: "general follow-up"},
		{ID: "n3", AnchorText: "legacy excerpt", Content: "imported"},
		{ID: "n4", ParentID: "n1", Content: "reply"},
		{ID: "n5", CommentID: "c5", Content: "mark only"},
		{ID: "n6", AnchorText: "   ", Content: "blank anchor"},
		{ID: "n7", ParentID: "n2", Content: "reply to general"},
	}
}

func TestPartition(t *testing.T) {
	all := TopLevel(sampleNotes())
	anchored, general := Partition(all)

	ids := func(items []Note) []string {
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item.ID)
		}
		return out
	}

	if diff := cmp.Diff([]string{"n1", "n3", "n5"}, ids(anchored)); diff != "" {
		t.Errorf("anchored mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"n2", "n6"}, ids(general)); diff != "" {
		t.Errorf("general mismatch (-want +got):\n%s", diff)
	}

	seen := map[string]int{}
	for _, note := range append(anchored, general...) {
		seen[note.ID]++
	}
	if len(seen) != len(all) {
		t.Errorf("partition covers %d notes, want %d", len(seen), len(all))
	}
	for _, note := range all {
		if seen[note.ID] != 1 {
			t.Errorf("note %s classified %d times", note.ID, seen[note.ID])
		}
	}
}

func TestPartitionIncludesEveryInput(t *testing.T) {
	all := sampleNotes()
	anchored, general := Partition(all)
	if len(anchored)+len(general) != len(all) {
		t.Fatalf("expected %d classified notes, got %d", len(all), len(anchored)+len(general))
	}
}

func TestPartitionEmpty(t *testing.T) {
	anchored, general := Partition(nil)
	if anchored == nil || general == nil {
		t.Fatal("expected non-nil empty slices")
	}
	if len(anchored) != 0 || len(general) != 0 {
		t.Fatal("expected empty partition")
	}
}

func TestRepliesAndCommentNoteMap(t *testing.T) {
	all := sampleNotes()
	all = append(all, Note{ID: "n8", CommentID: "c1", Content: "duplicate comment id"})

	replies := Replies(all)
	if len(replies["n1"]) != 1 || replies["n1"][0].ID != "n4" {
		t.Errorf("unexpected replies for n1: %+v", replies["n1"])
	}
	if len(replies["n2"]) != 1 {
		t.Errorf("unexpected replies for n2: %+v", replies["n2"])
	}

	want := map[string]string{"c1": "n1", "c5": "n5"}
	if diff := cmp.Diff(want, CommentNoteMap(all)); diff != "" {
		t.Errorf("CommentNoteMap mismatch (-want +got):\n%s", diff)
	}
}

func TestWithoutNoteCascadesReplies(t *testing.T) {
	remaining := WithoutNote(sampleNotes(), "n1")
	for _, note := range remaining {
		if note.ID == "n1" || note.ParentID == "n1" {
			t.Fatalf("note %s should have been removed", note.ID)
		}
	}
	if len(remaining) != 5 {
		t.Fatalf("expected 5 remaining notes, got %d", len(remaining))
	}
}

func TestNormalizeAnchorText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  hello\n\tworld  ", "hello world"},
		{"", ""},
		{"one", "one"},
		{strings.Repeat("a", MaxAnchorRunes+10), strings.Repeat("a", MaxAnchorRunes)},
	}
	for _, tt := range tests {
		if got := NormalizeAnchorText(tt.input); got != tt.expected {
			t.Errorf("NormalizeAnchorText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNewCommentID(t *testing.T) {
	a, b := NewCommentID(), NewCommentID()
	if a == b {
		t.Fatal("expected distinct comment ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("comment id %q is not a uuid: %v", a, err)
	}
}
