package core

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const credentialsDebounce = 100 * time.Millisecond

// CredentialsWatcher reports changes to the credentials file, such as a
// logout from another terminal.
type CredentialsWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func()
	log      *Logger

	mu       sync.Mutex
	debounce *time.Timer
	stopCh   chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// WatchCredentials watches the directory holding path and calls onChange
// (debounced) whenever the file is created, written, renamed or removed.
func WatchCredentials(ctx context.Context, path string, log *Logger, onChange func()) (*CredentialsWatcher, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	w := &CredentialsWatcher{
		watcher:  watcher,
		path:     filepath.Clean(path),
		onChange: onChange,
		log:      log,
		stopCh:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop(ctx)
	return w, nil
}

func (w *CredentialsWatcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Debugf("credentials watcher error: %v", err)
		}
	}
}

func (w *CredentialsWatcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	w.log.Debugf("credentials changed: %s", event.Op)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(credentialsDebounce, func() {
		select {
		case <-w.stopCh:
			return
		default:
		}
		if w.onChange != nil {
			w.onChange()
		}
	})
}

// Close stops watching.
func (w *CredentialsWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}
