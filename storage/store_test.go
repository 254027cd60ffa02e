package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"testing"
)

func TestLocalStoreSaveHashesContent(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	content := []byte("poster bytes")

	saved, err := store.Save(context.Background(), "posters/42/poster.pdf", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	sum := sha256.Sum256(content)
	if saved.Hash != hex.EncodeToString(sum[:]) {
		t.Fatalf("hash mismatch: got %s", saved.Hash)
	}
	if saved.Size != int64(len(content)) {
		t.Fatalf("size mismatch: got %d, want %d", saved.Size, len(content))
	}
	if saved.StoredPath != "posters/42/poster.pdf" {
		t.Fatalf("unexpected stored path %q", saved.StoredPath)
	}
}

func TestLocalStoreOpenRoundTrip(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	content := []byte("round trip")

	if _, err := store.Save(context.Background(), "posters/1/p.png", bytes.NewReader(content)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	rc, err := store.Open(context.Background(), "posters/1/p.png")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("content mismatch: got %q", got)
	}
}

func TestLocalStoreRemove(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	if _, err := store.Save(context.Background(), "posters/1/p.png", bytes.NewReader([]byte("x"))); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Remove(context.Background(), "posters/1/p.png"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := store.Open(context.Background(), "posters/1/p.png"); !os.IsNotExist(err) {
		t.Fatalf("expected file to be gone, got %v", err)
	}

	// removing twice is not an error
	if err := store.Remove(context.Background(), "posters/1/p.png"); err != nil {
		t.Fatalf("second remove failed: %v", err)
	}
}
