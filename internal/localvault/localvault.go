// Package localvault watches a vault directory already present on disk
// (no Git remote involved) and feeds the debounced indexing worker as
// files change, using fsnotify the way eoinhurrell/mdnotes' watch
// processor does.
package localvault

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ali01/linkweave/internal/gitvault"
	"github.com/ali01/linkweave/internal/worker"
)

// debounceWindow collapses bursts of fsnotify events for the same file
// (editors often emit write+chmod in quick succession) before the vault
// is reloaded from disk.
const debounceWindow = 500 * time.Millisecond

// Watcher reloads a gitvault.Store from a local directory whenever
// fsnotify reports a relevant change, then re-queues the affected
// folder's document with the worker.
type Watcher struct {
	root   string
	store  *gitvault.Store
	w      *worker.Worker
	fw     *fsnotify.Watcher

	debounceMu sync.Mutex
	timers     map[string]*time.Timer

	done chan struct{}
}

// New creates a Watcher over root, backed by store, feeding w. store must
// already have been loaded once via store.LoadFromDisk(root) before
// calling Start.
func New(root string, store *gitvault.Store, w *worker.Worker) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("localvault: creating watcher: %w", err)
	}
	return &Watcher{
		root:   root,
		store:  store,
		w:      w,
		fw:     fw,
		timers: make(map[string]*time.Timer),
		done:   make(chan struct{}),
	}, nil
}

// Start adds every directory under root to the watcher and begins
// processing events in its own goroutine.
func (lw *Watcher) Start() error {
	err := filepath.Walk(lw.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == ".git" {
				return filepath.SkipDir
			}
			return lw.fw.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("localvault: watching %s: %w", lw.root, err)
	}

	go lw.loop()
	lw.logger().Info("local vault watcher started", "root", lw.root)
	return nil
}

// Stop terminates the watch loop and releases the underlying fsnotify
// watcher.
func (lw *Watcher) Stop() error {
	close(lw.done)
	return lw.fw.Close()
}

func (lw *Watcher) loop() {
	for {
		select {
		case <-lw.done:
			return
		case ev, ok := <-lw.fw.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(strings.ToLower(ev.Name), ".md") {
				continue
			}
			lw.debounce(ev.Name)
		case err, ok := <-lw.fw.Errors:
			if !ok {
				return
			}
			lw.logger().Warn("watch error", "error", err)
		}
	}
}

func (lw *Watcher) debounce(path string) {
	lw.debounceMu.Lock()
	defer lw.debounceMu.Unlock()

	if t, exists := lw.timers[path]; exists {
		t.Stop()
	}
	lw.timers[path] = time.AfterFunc(debounceWindow, func() {
		lw.debounceMu.Lock()
		delete(lw.timers, path)
		lw.debounceMu.Unlock()
		lw.reload(path)
	})
}

// reload re-walks the vault from disk and re-queues the folder document
// owning the changed path, letting the worker's own folder-update path
// run rename detection and drive re-indexing of its content documents.
func (lw *Watcher) reload(changedPath string) {
	if err := lw.store.LoadFromDisk(lw.root); err != nil {
		lw.logger().Warn("reload failed", "error", err)
		return
	}

	folderName := lw.folderNameFor(changedPath)
	folderDocID := lw.store.FolderDocIDForName(folderName)
	lw.w.OnDocumentUpdate(folderDocID)
}

// folderNameFor maps an absolute changed path to the folder name
// LoadFromDisk would have grouped it under: its top-level directory
// relative to root, or root's own base name for loose root-level files.
func (lw *Watcher) folderNameFor(changedPath string) string {
	rel, err := filepath.Rel(lw.root, changedPath)
	if err != nil {
		return filepath.Base(lw.root)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) <= 1 {
		return filepath.Base(lw.root)
	}
	return parts[0]
}

func (lw *Watcher) logger() *slog.Logger {
	return slog.Default().With("component", "localvault")
}
