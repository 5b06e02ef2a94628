package store

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce batches bursts of file events into one reload.
const watchDebounce = 500 * time.Millisecond

// Watch starts reloading the store whenever element files or metadata change
// on disk underneath it. Events are debounced; a reload after the store's own
// writes is redundant but harmless. Stop with Close or by canceling ctx.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.root); err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(s.elementsPath()); err != nil {
		watcher.Close()
		return err
	}

	s.watcher = watcher
	s.watchDone = make(chan struct{})
	go s.watchLoop(ctx)

	s.logger.WithField("path", s.root).Info("Watching knowledge tree for external changes")
	return nil
}

func (s *Store) watchLoop(ctx context.Context) {
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.watchDone:
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !relevantEvent(event) {
				continue
			}
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(watchDebounce)
			pending = true

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.WithError(err).Warn("Watcher error")

		case <-timer.C:
			pending = false
			if err := s.Reload(ctx); err != nil {
				s.logger.WithError(err).Warn("Reload after file change failed")
				continue
			}
			s.logger.Debug("Reloaded knowledge tree after file change")
		}
	}
}

// relevantEvent filters the watcher stream down to finished writes of tree
// records. Temp files from in-flight atomic writes are skipped.
func relevantEvent(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".tmp-") {
		return false
	}
	return base == metadataFile || strings.HasSuffix(base, ".json")
}
