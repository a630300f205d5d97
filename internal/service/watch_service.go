package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"larkmd/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Watch service: keep a document in sync with a local file
// ─────────────────────────────────────────────────────────────

const watchDebounce = 500 * time.Millisecond

// WatchSpec binds one Markdown file to one document. An optional cron
// expression re-pushes the file on a schedule in addition to change
// events.
type WatchSpec struct {
	Ref  domain.DocRef
	Path string
	Cron string
}

// WatchService mirrors a local Markdown file into a document. Every
// sync clears the document and rewrites it from the file.
type WatchService struct {
	docs *DocumentService

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
	watchCancel context.CancelFunc

	runningSyncs runningSyncGuard
}

func NewWatchService(docs *DocumentService) *WatchService {
	return &WatchService{docs: docs}
}

// Start pushes the file once, then watches it for changes until Stop
// or context cancellation. Editors replace files on save, so the
// parent directory is watched and events are filtered by path.
func (s *WatchService) Start(ctx context.Context, spec WatchSpec) error {
	absPath, err := filepath.Abs(spec.Path)
	if err != nil {
		return fmt.Errorf("resolve watch path %q: %w", spec.Path, err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("watch file: %w", err)
	}

	s.syncOnce(ctx, spec.Ref, absPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir %q: %w", filepath.Dir(absPath), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.watcher = watcher
	s.watchCancel = cancel

	if spec.Cron != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec.Cron, func() {
			log.Printf("watch cron: pushing %q", absPath)
			s.syncOnce(watchCtx, spec.Ref, absPath)
		}); err != nil {
			s.mu.Unlock()
			s.Stop()
			return fmt.Errorf("invalid cron expression %q: %w", spec.Cron, err)
		}
		c.Start()
		s.cronSched = c
	}
	s.mu.Unlock()

	go func() {
		var debounce *time.Timer
		for {
			select {
			case <-watchCtx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if p, _ := filepath.Abs(event.Name); p != absPath {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, func() {
					log.Printf("watch: file changed %q", absPath)
					s.syncOnce(watchCtx, spec.Ref, absPath)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watch: error: %v", err)
			}
		}
	}()

	log.Printf("watch: mirroring %q into %s", absPath, spec.Ref.Token)
	return nil
}

// syncOnce reads the file and rewrites the document from it. A sync
// already in flight for the same document drops the trigger; the
// debounce timer makes that rare.
func (s *WatchService) syncOnce(ctx context.Context, ref domain.DocRef, absPath string) {
	if !s.runningSyncs.TryLock(ref.Token) {
		log.Printf("watch: sync already running for %s, skipping", ref.Token)
		return
	}
	defer s.runningSyncs.Unlock(ref.Token)

	content, err := os.ReadFile(absPath)
	if err != nil {
		log.Printf("watch: read %q: %v", absPath, err)
		return
	}

	if _, err := s.docs.Clear(ctx, ref); err != nil {
		log.Printf("watch: clear %s: %v", ref.Token, err)
		return
	}
	res, err := s.docs.Write(ctx, ref, string(content))
	if err != nil {
		log.Printf("watch: write %s: %v", ref.Token, err)
		return
	}
	log.Printf("watch: pushed %d blocks in %d batches to %s", res.BlocksAdded, res.TotalBatches, ref.Token)
}

// WaitRunning blocks until in-flight syncs finish or ctx is cancelled.
// Used for graceful shutdown.
func (s *WatchService) WaitRunning(ctx context.Context) {
	s.runningSyncs.WaitAll(ctx)
}

// Stop tears down the watcher and scheduler.
func (s *WatchService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
