package storage

import (
	"context"
	"fmt"
	"time"

	"EternalJukebox/logger"

	"github.com/fsnotify/fsnotify"
)

// Watch runs Reclaim shortly after new files show up in any namespace. Bursts
// of events within debounce collapse into one pass. Watch blocks until ctx
// is done.
func (m *Manager) Watch(ctx context.Context, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, ns := range Namespaces() {
		if err := watcher.Add(m.layout.Dir(ns)); err != nil {
			return fmt.Errorf("watch %s: %w", m.layout.Dir(ns), err)
		}
	}
	logger.Info("[Storage] 开始监听缓存目录", logger.Duration("debounce", debounce))

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) && fire == nil {
				fire = time.After(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("[Storage] 目录监听错误", logger.ErrorField(err))
		case <-fire:
			fire = nil
			m.Reclaim(ctx)
		}
	}
}
