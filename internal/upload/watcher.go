// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/docmind/docmind-tui/internal/logging"
)

// DefaultDropDebounce is how long a dropped file must stay unchanged before
// it is picked up.
const DefaultDropDebounce = 300 * time.Millisecond

// Drop is a file that appeared in the drop folder.
type Drop struct {
	Path     string
	Document Document
	Err      error
}

// =============================================================================
// DROP WATCHER
// =============================================================================

// DropWatcher turns files written into a folder into Drop events. It stands
// in for drag and drop where the terminal cannot deliver one.
type DropWatcher struct {
	dir      string
	desktop  Desktop
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time

	drops  chan Drop
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDropWatcher watches dir, creating it if needed.
func NewDropWatcher(dir string, desktop Desktop, log *zap.Logger) (*DropWatcher, error) {
	if desktop == nil {
		desktop = OSDesktop{}
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create drop folder: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch drop folder: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	dw := &DropWatcher{
		dir:      dir,
		desktop:  desktop,
		watcher:  watcher,
		debounce: DefaultDropDebounce,
		log:      logging.OrNop(log).Named("drop"),
		pending:  make(map[string]time.Time),
		drops:    make(chan Drop, 16),
		ctx:      ctx,
		cancel:   cancel,
	}

	dw.wg.Add(2)
	go dw.processEvents()
	go dw.processPending()
	return dw, nil
}

// WithDebounce sets the quiet period. Call before any file is dropped.
func (dw *DropWatcher) WithDebounce(d time.Duration) *DropWatcher {
	dw.mu.Lock()
	dw.debounce = d
	dw.mu.Unlock()
	return dw
}

// Dir returns the watched folder.
func (dw *DropWatcher) Dir() string {
	return dw.dir
}

// Drops returns the channel of dropped files. It is closed by Close.
func (dw *DropWatcher) Drops() <-chan Drop {
	return dw.drops
}

// Close stops watching.
func (dw *DropWatcher) Close() error {
	dw.cancel()
	err := dw.watcher.Close()
	dw.wg.Wait()
	close(dw.drops)
	return err
}

func (dw *DropWatcher) processEvents() {
	defer dw.wg.Done()
	for {
		select {
		case <-dw.ctx.Done():
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				dw.mu.Lock()
				dw.pending[event.Name] = time.Now()
				dw.mu.Unlock()
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				dw.mu.Lock()
				delete(dw.pending, event.Name)
				dw.mu.Unlock()
			}

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.log.Warn("watch error", zap.Error(err))
		}
	}
}

// processPending emits files whose last change is older than the debounce.
func (dw *DropWatcher) processPending() {
	defer dw.wg.Done()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-dw.ctx.Done():
			return

		case now := <-ticker.C:
			dw.mu.Lock()
			var ready []string
			for path, changed := range dw.pending {
				if now.Sub(changed) >= dw.debounce {
					ready = append(ready, path)
					delete(dw.pending, path)
				}
			}
			dw.mu.Unlock()

			for _, path := range ready {
				info, err := os.Stat(path)
				if err != nil || info.IsDir() {
					continue
				}
				doc, err := dw.desktop.ReadDroppedFile(path)
				dw.log.Info("file dropped", zap.String("path", path), zap.Bool("accepted", err == nil))
				select {
				case dw.drops <- Drop{Path: path, Document: doc, Err: err}:
				case <-dw.ctx.Done():
					return
				}
			}
		}
	}
}
