package media

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/hiddengem/hiddengem/logging"
	"github.com/hiddengem/hiddengem/metrics"
)

// Watcher follows the media root for changes made outside the engine
// (files dropped in or removed by hand) and drops the affected inspection
// memos so the next resolution sees the real directory state.
type Watcher struct {
	inspector *Inspector
	root      string
	fw        *fsnotify.Watcher
	log       *slog.Logger
}

// NewWatcher creates a watcher over the store's root. The root and every
// existing game directory are registered; directories created later are
// picked up from their create events.
func NewWatcher(store *Store, inspector *Inspector) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		inspector: inspector,
		root:      store.Root(),
		fw:        fw,
		log:       logging.With("component", "media-watcher"),
	}

	if err := fw.Add(w.root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := fw.Add(filepath.Join(w.root, e.Name())); err != nil {
				w.log.Warn("cannot watch game directory", "dir", e.Name(), "error", err)
			}
		}
	}
	return w, nil
}

// Run processes events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("media watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	base := filepath.Base(ev.Name)
	// Our own atomic writes land via temp files; the rename into place is
	// the only event worth reacting to for them.
	if strings.HasPrefix(base, ".tmp-") {
		return
	}

	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.fw.Add(ev.Name); err != nil {
				w.log.Warn("cannot watch new game directory", "dir", base, "error", err)
			}
		}
	}

	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil || rel == "." {
		return
	}
	dir := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]

	metrics.ExternalMediaChanges.Inc()
	w.log.Debug("media change detected", "dir", dir, "op", ev.Op.String())
	w.inspector.memo.Delete(dir)
}
