package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"themesniff/internal/diagnostics"
	"themesniff/internal/slogutil"
)

func setupTestCache(t *testing.T) (*ResultCache, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), ".themesniff", "cache.db")

	rc, err := OpenResultCache(dbPath, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	t.Cleanup(func() {
		if err := rc.Close(); err != nil {
			t.Errorf("Failed to close cache: %v", err)
		}
	})
	return rc, dbPath
}

func TestDatabaseInitialization(t *testing.T) {
	rc, dbPath := setupTestCache(t)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("Database file was not created at %s", dbPath)
	}

	version, err := rc.db.getSchemaVersion()
	if err != nil {
		t.Fatalf("Failed to get schema version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", currentSchemaVersion, version)
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	logger := slogutil.NewDiscardLogger()

	first, err := OpenResultCache(dbPath, logger)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	entry := Entry{File: diagnostics.NewFileDiagnostics("/t/a.php", diagnostics.Error("x"))}
	if err := first.Put(ctx, "k", "phpcs", entry); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := OpenResultCache(dbPath, logger)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "k")
	if err != nil || got == nil {
		t.Fatalf("Get() after reopen = %v, %v", got, err)
	}
}

func TestResultCache_PutGet(t *testing.T) {
	rc, _ := setupTestCache(t)
	ctx := context.Background()

	fd := diagnostics.NewFileDiagnostics("/themes/t/functions.php",
		diagnostics.NewMessage("Missing doc comment", diagnostics.SeverityError, true),
		diagnostics.Warning("Loose comparison"),
	)
	fd.Messages[0].Line = 12
	fd.Messages[0].Source = "Squiz.Commenting.FunctionComment.Missing"

	if err := rc.Put(ctx, "key-1", "phpcs", Entry{File: fd, Fixable: 1}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := rc.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() = nil, want entry")
	}
	if got.Fixable != 1 {
		t.Errorf("Fixable = %d, want 1", got.Fixable)
	}
	if got.File.Path != fd.Path || got.File.ErrorCount != 1 || got.File.WarningCount != 1 {
		t.Errorf("File = %+v", got.File)
	}
	if len(got.File.Messages) != 2 || got.File.Messages[0].Line != 12 || !got.File.Messages[0].Fixable {
		t.Errorf("Messages = %+v", got.File.Messages)
	}
}

func TestResultCache_Miss(t *testing.T) {
	rc, _ := setupTestCache(t)

	got, err := rc.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil", got)
	}
}

func TestResultCache_PutAllAndPrune(t *testing.T) {
	rc, _ := setupTestCache(t)
	ctx := context.Background()

	entries := map[string]Entry{
		"a": {File: diagnostics.NewFileDiagnostics("/a.php")},
		"b": {File: diagnostics.NewFileDiagnostics("/b.php", diagnostics.Error("e"))},
	}
	if err := rc.PutAll(ctx, "builtin", entries); err != nil {
		t.Fatalf("PutAll() error = %v", err)
	}

	n, err := rc.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count() = %d, %v; want 2", n, err)
	}

	// Nothing is older than an hour yet.
	removed, err := rc.Prune(ctx, time.Hour)
	if err != nil || removed != 0 {
		t.Errorf("Prune(1h) = %d, %v; want 0", removed, err)
	}

	removed, err = rc.Prune(ctx, -time.Hour)
	if err != nil || removed != 2 {
		t.Errorf("Prune(-1h) = %d, %v; want 2", removed, err)
	}
}

func TestKey(t *testing.T) {
	base := Key("/a.php", []byte("<?php"), "phpcs|s=WordPress-Core")

	if len(base) != 64 {
		t.Errorf("Key length = %d, want 64 hex chars", len(base))
	}
	if base != Key("/a.php", []byte("<?php"), "phpcs|s=WordPress-Core") {
		t.Error("Key is not deterministic")
	}

	variants := []string{
		Key("/b.php", []byte("<?php"), "phpcs|s=WordPress-Core"),
		Key("/a.php", []byte("<?php "), "phpcs|s=WordPress-Core"),
		Key("/a.php", []byte("<?php"), "phpcs|s=WordPress-Extra"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collides with base key", i)
		}
	}
}
