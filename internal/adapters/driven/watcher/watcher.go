// Package watcher reports PDFs that appear under the raw corpus directory.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/manualqa/internal/logger"
)

// DefaultSettle is how long a file must stay unchanged before it is reported.
const DefaultSettle = 2 * time.Second

// Watcher watches a directory tree and reports files matching a glob once
// no event has touched them for the settle time.
type Watcher struct {
	root    string
	pattern string
	settle  time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher for root. An empty pattern matches every PDF.
func New(root, pattern string, settle time.Duration) *Watcher {
	if pattern == "" {
		pattern = "**/*.pdf"
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		root:    root,
		pattern: strings.ToLower(filepath.ToSlash(pattern)),
		settle:  settle,
		pending: make(map[string]time.Time),
	}
}

// Watch starts watching and returns a channel of settled file paths.
// The channel closes when ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context) (<-chan string, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.addTree(fw, w.root); err != nil {
		_ = fw.Close()
		return nil, err
	}

	out := make(chan string)
	go w.loop(ctx, fw, out)
	return out, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, out chan<- string) {
	defer close(out)
	defer fw.Close()

	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if isDir(event.Name) && event.Has(fsnotify.Create) {
				if err := w.addTree(fw, event.Name); err != nil {
					logger.Warn("watch %s: %v", event.Name, err)
				}
				continue
			}
			if path, ok := w.handleFsEvent(event); ok {
				w.mu.Lock()
				w.pending[path] = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher: %v", err)

		case now := <-ticker.C:
			for _, path := range w.settled(now) {
				select {
				case out <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handleFsEvent returns the path of a created or written file that matches
// the pattern. Directories, hidden files and removals are ignored.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") || isDir(event.Name) {
		return "", false
	}
	if !w.matches(event.Name) {
		return "", false
	}
	return event.Name, true
}

func (w *Watcher) matches(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	ok, err := doublestar.Match(w.pattern, strings.ToLower(filepath.ToSlash(rel)))
	return err == nil && ok
}

// settled removes and returns the pending paths quiet for the settle time.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	return ready
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
