package localfs

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveAndOpenRoundTrip(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := storage.Save(context.Background(), "att-1_notes.txt", strings.NewReader("hello world")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reader, err := storage.Open(context.Background(), "att-1_notes.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestSaveRejectsTraversalKey(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := storage.Save(context.Background(), "../escape.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}

func TestOpenMissingKey(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := storage.Open(context.Background(), "missing.txt"); err == nil {
		t.Fatal("expected error for missing key")
	}
}
