package service

import (
	"context"
	"sync"
)

// ExportedSyncGuard is an exported alias so _test packages can test the guard.
type ExportedSyncGuard = runningSyncGuard

// ─────────────────────────────────────────────────────────────
// runningSyncGuard: prevents concurrent syncs of the same doc
// ─────────────────────────────────────────────────────────────

// runningSyncGuard ensures only one sync per document token runs at a
// time. Overlapping triggers for the same document are dropped.
type runningSyncGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock attempts to mark docToken as syncing. Returns false if a
// sync for that document is already in flight.
func (g *runningSyncGuard) TryLock(docToken string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[docToken]; ok {
		return false // already syncing
	}
	g.running[docToken] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock marks the document as idle. Must be called after TryLock returns true.
func (g *runningSyncGuard) Unlock(docToken string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, docToken)
	g.wg.Done()
}

// WaitAll blocks until all in-flight syncs complete or ctx is cancelled.
func (g *runningSyncGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
