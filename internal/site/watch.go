package site

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// DebounceDuration is how long Watch waits after the last change before rebuilding.
var DebounceDuration = 500 * time.Millisecond

// Watch calls rebuild whenever the database file at dbPath, or one of its
// journal files, changes. It returns when ctx is done.
func Watch(ctx context.Context, dbPath string, rebuild func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(dbPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	base := filepath.Base(dbPath)
	log.Infof("Watching %s for content changes...", dbPath)

	var (
		buildTimer *time.Timer
		fire       = make(chan struct{}, 1)
	)
	defer func() {
		if buildTimer != nil {
			buildTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// catalyst.db, catalyst.db-wal, catalyst.db-journal
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				continue
			}
			log.Debugf("Change detected: %s (%s)", event.Name, event.Op.String())
			if buildTimer != nil {
				buildTimer.Stop()
			}
			buildTimer = time.AfterFunc(DebounceDuration, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			log.Info("Rebuilding site due to changes...")
			rebuild()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Watcher error: %v", err)
		}
	}
}
