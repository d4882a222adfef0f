package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchCredentialsReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	if err := os.WriteFile(path, []byte(`{"token":"x"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	changed := make(chan struct{}, 4)
	w, err := WatchCredentials(context.Background(), path, nil, func() {
		changed <- struct{}{}
	})
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}
	select {
	case <-changed:
		t.Fatalf("unrelated file should not trigger a change")
	case <-time.After(300 * time.Millisecond):
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatalf("expected change notification after removal")
	}
}
