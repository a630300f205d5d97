package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"larkmd/internal/domain"
	"larkmd/internal/service"
)

// ─────────────────────────────────────────────────────────────
// WatchService tests
// Exercises the lifecycle paths that don't depend on real file
// change events: the initial push, argument validation, Stop and
// WaitRunning.
// ─────────────────────────────────────────────────────────────

func watchFixture(t *testing.T, content string) (*fakeAPI, *service.WatchService, string) {
	t.Helper()
	api := &fakeAPI{
		page: &domain.Block{BlockID: testRef().Token, BlockType: domain.BlockTypePage},
	}
	docs := service.NewDocumentService(api, nil, noSleep())
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return api, service.NewWatchService(docs), path
}

func TestWatchService_StartPushesInitialSync(t *testing.T) {
	api, watch, path := watchFixture(t, "hello from disk")

	err := watch.Start(context.Background(), service.WatchSpec{Ref: testRef(), Path: path})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer watch.Stop()

	calls := api.docCreates(testRef().Token)
	if len(calls) != 1 {
		t.Fatalf("expected the initial push, got %d create calls", len(calls))
	}
	if got := calls[0].children[0].PlainText(); got != "hello from disk" {
		t.Errorf("expected file content pushed, got %q", got)
	}

	// The initial push clears the document first.
	if els := api.titleSets[testRef().Token]; len(els) != 1 || els[0].TextRun.Content != " " {
		t.Errorf("expected the title reset before the push, got %+v", els)
	}
}

func TestWatchService_StartMissingFile(t *testing.T) {
	_, watch, path := watchFixture(t, "x")

	err := watch.Start(context.Background(), service.WatchSpec{
		Ref:  testRef(),
		Path: filepath.Join(filepath.Dir(path), "nope.md"),
	})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !strings.Contains(err.Error(), "watch file") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWatchService_InvalidCronExpression(t *testing.T) {
	_, watch, path := watchFixture(t, "x")

	err := watch.Start(context.Background(), service.WatchSpec{
		Ref:  testRef(),
		Path: path,
		Cron: "not a schedule",
	})
	if err == nil {
		t.Fatal("expected an error for a bad cron expression")
	}
	if !strings.Contains(err.Error(), "invalid cron expression") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWatchService_StopIdempotent(t *testing.T) {
	_, watch, path := watchFixture(t, "x")

	if err := watch.Start(context.Background(), service.WatchSpec{Ref: testRef(), Path: path}); err != nil {
		t.Fatalf("start: %v", err)
	}
	watch.Stop()
	watch.Stop() // second call should also be safe
}

func TestWatchService_WaitRunningImmediate(t *testing.T) {
	_, watch, _ := watchFixture(t, "x")

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		watch.WaitRunning(ctx)
		close(done)
	}()

	select {
	case <-done:
		// expected, nothing in flight
	case <-time.After(500 * time.Millisecond):
		t.Fatal("WaitRunning hung with no running syncs")
	}
}
