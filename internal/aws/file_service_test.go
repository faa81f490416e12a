package aws

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("notes", ".png")

	if !strings.HasPrefix(key, "notes/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("ObjectKey = %q, want notes/<uuid>.png", key)
	}
	id := strings.TrimSuffix(strings.TrimPrefix(key, "notes/"), ".png")
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("ObjectKey id %q is not a uuid: %v", id, err)
	}

	if ObjectKey("notes", ".png") == key {
		t.Fatalf("ObjectKey should not repeat")
	}
}

func TestPublicURL(t *testing.T) {
	got := PublicURL("statboard-images", "us-east-1", "notes/a.png")
	want := "https://statboard-images.s3.us-east-1.amazonaws.com/notes/a.png"
	if got != want {
		t.Fatalf("PublicURL = %q, want %q", got, want)
	}
}
