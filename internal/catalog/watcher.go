package catalog

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/frosttechequities/FPL-chips-optimizer/internal/logger"
)

// Loader builds a fresh catalog from whatever backs the watched files.
type Loader func() (*Catalog, error)

// Watcher rebuilds the catalog whenever one of the watched raw files is
// rewritten and publishes it through the Store.
type Watcher struct {
	store *Store
	load  Loader
	files map[string]bool
	fs    *fsnotify.Watcher

	closeOnce sync.Once
	done      chan struct{}
}

// Watch starts watching dir for writes to any of files (base names).
func Watch(store *Store, dir string, files []string, load Loader) (*Watcher, error) {
	if store == nil || load == nil {
		return nil, fmt.Errorf("catalog watcher requires a store and a loader")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	w := &Watcher{
		store: store,
		load:  load,
		files: make(map[string]bool, len(files)),
		fs:    fw,
		done:  make(chan struct{}),
	}
	for _, f := range files {
		w.files[filepath.Base(f)] = true
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case evt, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
				continue
			}
			if !w.files[filepath.Base(evt.Name)] {
				continue
			}
			w.Reload()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warnf("catalog watcher error: %v", err)
		}
	}
}

// Reload rebuilds and publishes immediately. A failed load keeps the
// current catalog in place.
func (w *Watcher) Reload() {
	next, err := w.load()
	if err != nil {
		logger.Errorf("catalog reload failed: %v", err)
		return
	}
	w.store.Swap(next)
	logger.Infof("catalog reloaded: version=%d players=%d", next.Version(), next.Len())
}

func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fs.Close()
		<-w.done
	})
	return err
}
