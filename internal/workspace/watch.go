package workspace

import (
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/javaintel/jcore/internal/jlog"
	"github.com/javaintel/jcore/internal/lexscan"
)

// Watcher bridges fsnotify events to the FileStore's external-event
// operations (spec.md §6 "File events... mutate the source index
// only"), modeled on the teacher's internal/indexing.FileWatcher.
type Watcher struct {
	fs      *FileStore
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher creates a Watcher over fs. Callers add directories with
// Add and start the event loop with Run.
func NewWatcher(fs *FileStore) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fs: fs, watcher: w, done: make(chan struct{})}, nil
}

// Add registers dir (typically a workspace root) for change
// notifications.
func (w *Watcher) Add(dir string) error {
	return w.watcher.Add(dir)
}

// Run processes fsnotify events until Close is called. It is meant to be
// run in its own goroutine; Close is idempotent and safe to call from
// any goroutine, so tests can assert no leak with goleak.
func (w *Watcher) Run() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			jlog.Warn("workspace", "watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the event loop and releases the underlying fsnotify
// watcher.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	return w.watcher.Close()
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !isSourceFile(ev.Name) {
		return
	}
	switch {
	case ev.Op&fsnotify.Create != 0:
		w.fs.ExternalCreate(ev.Name)
	case ev.Op&fsnotify.Write != 0:
		w.fs.ExternalChange(ev.Name)
	case ev.Op&fsnotify.Remove != 0, ev.Op&fsnotify.Rename != 0:
		w.fs.ExternalDelete(ev.Name)
	}
}

// ExternalCreate indexes a file newly created on disk outside the editor
// (spec.md §6).
func (fs *FileStore) ExternalCreate(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}
	fs.indexFile(path, info.ModTime())
}

// ExternalChange re-indexes a file changed on disk outside the editor.
// If the content's xxhash fingerprint is unchanged from the last indexed
// state, the event is a no-op and the stored modified instant is left
// alone, avoiding a spurious re-typecheck trigger for watchers layered on
// top of FileStore.
func (fs *FileStore) ExternalChange(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	newHash := xxhash.Sum64(content)

	fs.mu.RLock()
	prev, had := fs.index[path]
	fs.mu.RUnlock()
	if had && prev.contentHash == newHash {
		return
	}

	modTime := time.Now()
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	} else if had {
		modTime = prev.Modified
	}
	pkg := lexscan.PackageNameOfSource(fs.encoding.Decode(content))

	fs.mu.Lock()
	fs.index[path] = &Entry{Path: path, Modified: modTime, PackageName: pkg, contentHash: newHash}
	fs.mu.Unlock()
}

// ExternalDelete removes a file's index entry after an external delete
// is observed (spec.md §3 "Lifecycle").
func (fs *FileStore) ExternalDelete(path string) {
	fs.mu.Lock()
	delete(fs.index, path)
	fs.mu.Unlock()
}
