package blob

import (
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestObjectKey(t *testing.T) {
	tests := map[string]string{
		"iv1":   "transcripts/iv1.json",
		"/iv2/": "transcripts/iv2.json",
	}
	for input, want := range tests {
		if got := ObjectKey(input); got != want {
			t.Errorf("ObjectKey(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestMapError(t *testing.T) {
	if err := mapError(minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	other := minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}
	if err := mapError(other); errors.Is(err, ErrNotFound) || err == nil {
		t.Fatalf("unexpected mapping %v", err)
	}
}
