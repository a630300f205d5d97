package storage_test

import (
	"path/filepath"
	"testing"
	"time"

	"larkmd/internal/auth"
	"larkmd/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Storage tests against a throwaway SQLite file.
// ─────────────────────────────────────────────────────────────

func newTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "larkmd.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCredentialStore_LoadEmpty(t *testing.T) {
	store := storage.NewCredentialStore(newTestDB(t))
	creds, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if creds != nil {
		t.Errorf("expected nil credentials, got %+v", creds)
	}
}

func TestCredentialStore_RoundTrip(t *testing.T) {
	store := storage.NewCredentialStore(newTestDB(t))
	now := time.Now().Truncate(time.Second)

	want := &auth.Credentials{
		TenantToken:     "t-abc",
		TenantFetchedAt: now,
		AccessToken:     "u-abc",
		RefreshToken:    "r-abc",
		ExpiresAt:       now.Add(2 * time.Hour),
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.TenantToken != "t-abc" || got.RefreshToken != "r-abc" {
		t.Fatalf("loaded %+v", got)
	}
	if !got.TenantFetchedAt.Equal(want.TenantFetchedAt) {
		t.Errorf("tenant_fetched_at = %v, want %v", got.TenantFetchedAt, want.TenantFetchedAt)
	}

	// Upsert keeps a single row.
	want.TenantToken = "t-new"
	if err := store.Save(want); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = store.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.TenantToken != "t-new" {
		t.Errorf("tenant token = %q after upsert", got.TenantToken)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, err = store.Load()
	if err != nil {
		t.Fatalf("load after clear: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after clear, got %+v", got)
	}
}

func TestRunStore_RecordAndList(t *testing.T) {
	store := storage.NewRunStore(newTestDB(t))
	base := time.Now().Add(-time.Hour).Truncate(time.Second)

	runs := []*storage.SyncRun{
		{DocToken: "docA", Action: "write", Blocks: 12, Batches: 1, Status: "ok", StartedAt: base, FinishedAt: base.Add(time.Second)},
		{DocToken: "docB", Action: "read", Blocks: 40, Status: "ok", StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute + time.Second)},
		{DocToken: "docA", Action: "clear", Status: "error", Error: "api error 99991672: forbidden", StartedAt: base.Add(2 * time.Minute), FinishedAt: base.Add(2*time.Minute + time.Second)},
	}
	for _, r := range runs {
		if err := store.Record(r); err != nil {
			t.Fatalf("record: %v", err)
		}
		if r.ID == "" {
			t.Fatal("record should assign an id")
		}
	}

	all, err := store.List("", 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d", len(all))
	}
	if all[0].Action != "clear" {
		t.Errorf("newest first, got %q", all[0].Action)
	}

	docA, err := store.List("docA", 10)
	if err != nil {
		t.Fatalf("list docA: %v", err)
	}
	if len(docA) != 2 {
		t.Fatalf("len(docA) = %d", len(docA))
	}
	for _, r := range docA {
		if r.DocToken != "docA" {
			t.Errorf("stray run %+v", r)
		}
	}

	limited, err := store.List("", 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("len(limited) = %d", len(limited))
	}
}
