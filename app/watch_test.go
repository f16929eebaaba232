package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDBWatcher(t *testing.T) {

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "hamster.db")
	if err := os.WriteFile(dbPath, nil, 0644); err != nil {
		t.Fatal(err)
	}

	w, err := newDBWatcher(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	w.settleDuration = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx)
	}()

	// Writes to other files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.log"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-w.Update():
		t.Fatal("unexpected update for unrelated file")
	case <-time.After(100 * time.Millisecond):
	}

	// Several writes to the database and its log signal one update.
	for _, name := range []string{"hamster.db", "hamster.db-wal", "hamster.db"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-w.Update():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for update")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
	if _, ok := <-w.Update(); ok {
		t.Error("update channel not closed")
	}
}

func TestDBWatcherMissingDir(t *testing.T) {
	_, err := newDBWatcher(filepath.Join(t.TempDir(), "missing", "hamster.db"))
	if err == nil {
		t.Error("expected error for missing database directory")
	}
}
