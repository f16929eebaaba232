package app

// dbWatcher reports writes to the fact database so that `current --watch` can
// redraw the ongoing fact.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// defaultSettleDuration is the time given for a burst of sqlite writes to
// complete before an update is signalled.
const defaultSettleDuration time.Duration = 50 * time.Millisecond

// dbWatcher watches the directory holding a database for writes to the database
// file or its write-ahead log.
type dbWatcher struct {
	dir            string
	files          map[string]bool
	watcher        *fsnotify.Watcher
	update         chan struct{}
	settleDuration time.Duration
}

// newDBWatcher registers a watcher for dbPath. The directory is watched rather
// than the file as sqlite may replace the write-ahead log.
//
// Refer to
// https://github.com/fsnotify/fsnotify/blob/v1.8.0/cmd/fsnotify/file.go
func newDBWatcher(dbPath string) (*dbWatcher, error) {

	dir := filepath.Dir(filepath.Clean(dbPath))
	check, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("database dir %q not found: %w", dir, err)
	}
	if !check.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}

	base := filepath.Base(dbPath)
	w := &dbWatcher{
		dir:            dir,
		files:          map[string]bool{base: true, base + "-wal": true},
		update:         make(chan struct{}),
		settleDuration: defaultSettleDuration,
	}
	w.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify new watcher error: %w", err)
	}
	if err := w.watcher.Add(dir); err != nil {
		_ = w.watcher.Close()
		return nil, fmt.Errorf("fsnotify add error for dir %q: %w", dir, err)
	}
	return w, nil
}

// Watch blocks until ctx is done or the watcher fails, so needs to be run in a
// goroutine. Consumers range over [Update] to receive notice of database
// writes; the channel is closed when Watch returns.
func (w *dbWatcher) Watch(ctx context.Context) error {

	// written signals a relevant write to the settling goroutine.
	written := make(chan struct{})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return errors.New("unexpected close from watcher.Errors")
				}
				return fmt.Errorf("unexpected notify error: %w", err)
			case e, ok := <-w.watcher.Events:
				if !ok {
					return errors.New("unexpected close from watcher.Events")
				}
				if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
					continue
				}
				if !w.files[filepath.Base(e.Name)] {
					continue
				}
				select {
				case written <- struct{}{}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})

	// A single statement may write the database and log several times;
	// signal once the writes have settled.
	g.Go(func() error {
		pending := false
		timer := time.NewTicker(w.settleDuration)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-written:
				pending = true
				timer.Reset(w.settleDuration)
			case <-timer.C:
				if !pending {
					continue
				}
				select {
				case w.update <- struct{}{}:
					pending = false
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})

	err := g.Wait()
	close(w.update)
	_ = w.watcher.Close()
	return err
}

// Update returns a channel signalling a database write.
func (w *dbWatcher) Update() <-chan struct{} {
	return w.update
}
