package graph

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher holds the latest successfully read version of a document file and
// reloads it when the file changes.
type Watcher struct {
	path     string
	logger   *log.Logger
	mu       sync.RWMutex
	current  *Document
	onChange []func(*Document)
}

// NewWatcher creates a Watcher and performs the initial read.
// A nil logger discards reload errors.
func NewWatcher(path string, logger *log.Logger) (*Watcher, error) {
	doc, err := ReadDocumentFile(path)
	if err != nil {
		return nil, err
	}
	return &Watcher{path: path, logger: logger, current: doc}, nil
}

// Document returns the latest document.
func (w *Watcher) Document() *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(fn func(*Document)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Watch starts a goroutine that reloads the document on write or create
// events. A document that fails to parse is logged and the previous version
// is kept. Call the returned stop function to clean up.
func (w *Watcher) Watch() (stop func(), err error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("document watcher: %w", err)
	}
	if err := fw.Add(w.path); err != nil {
		fw.Close()
		return nil, fmt.Errorf("document watcher add %s: %w", w.path, err)
	}

	done := make(chan struct{})
	var once sync.Once
	go func() {
		defer fw.Close()
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := w.Reload(); err != nil && w.logger != nil {
						w.logger.Warn("document reload failed, keeping previous version", "path", w.path, "error", err)
					}
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				if w.logger != nil {
					w.logger.Debug("document watcher error", "error", err)
				}
			case <-done:
				return
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the document file and notifies
// callbacks on success.
func (w *Watcher) Reload() (*Document, error) {
	doc, err := ReadDocumentFile(w.path)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.current = doc
	callbacks := make([]func(*Document), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()
	for _, fn := range callbacks {
		fn(doc)
	}
	return doc, nil
}
