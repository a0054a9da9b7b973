// Package watcher monitors the working copy for filesystem changes and
// feeds the affected asset paths back into the engine's status queue.
//
// The engine's own queue deduplicates and batches requests on its
// refresh cadence, so the watcher can forward events as they arrive
// without debouncing of its own.
package watcher

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// RequestFunc receives the working-copy-relative paths of changed assets.
type RequestFunc func(paths []string)

// Watcher watches a working copy tree and reports changed asset paths.
// fsnotify does not recurse, so every directory is registered
// individually and newly created directories are added on the fly.
type Watcher struct {
	root    string
	request RequestFunc
	logger  *log.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// New creates a watcher rooted at the working copy directory. Changed
// paths are reported through request. The watcher must be started with
// Start() before it emits anything.
func New(root string, request RequestFunc, logger *log.Logger) (*Watcher, error) {
	if request == nil {
		return nil, fmt.Errorf("request callback cannot be nil")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[watcher] ", log.LstdFlags)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		root:    root,
		request: request,
		logger:  logger,
		watcher: fsw,
		done:    make(chan struct{}),
	}, nil
}

// Start registers the working copy tree and begins forwarding events.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if isMetadataDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("failed to watch working copy %s: %w", w.root, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	w.logger.Printf("Watching working copy: %s", w.root)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
// Safe to call when never started or already stopped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	w.wg.Wait()
	return nil
}

// IsRunning returns true while the event loop is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, ok := w.relativeAssetPath(event.Name)
	if !ok {
		return
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		// Chmod and friends carry no status-relevant change.
		return
	}

	// New directories need their own watch to keep recursion alive.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Printf("Failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}

	w.request([]string{rel})
}

// relativeAssetPath converts an absolute event path into the
// working-copy-relative, forward-slash form the engine uses. Events
// under the VCS metadata directory are discarded.
func (w *Watcher) relativeAssetPath(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}

	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return "", false
	}
	for _, part := range strings.Split(rel, "/") {
		if isMetadataDir(part) {
			return "", false
		}
	}
	return rel, true
}

func isMetadataDir(name string) bool {
	return name == ".svn" || name == "_svn"
}
