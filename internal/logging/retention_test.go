package logging_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"subweave/internal/logging"
)

func TestCleanupOldLogsPrunesExpiredFiles(t *testing.T) {
	dir := t.TempDir()

	oldPath := filepath.Join(dir, "subweave-2026-01-01.log")
	freshPath := filepath.Join(dir, "subweave.log")
	for _, path := range []string{oldPath, freshPath} {
		if err := os.WriteFile(path, []byte("line\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(oldPath, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	logging.CleanupOldLogs(logging.NewNop(), 7, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "subweave*.log",
		Exclude: []string{freshPath},
	})

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Fatalf("expected excluded log retained: %v", err)
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subweave-old.log")
	if err := os.WriteFile(path, []byte("line\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stale := time.Now().AddDate(0, 0, -365)
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	logging.CleanupOldLogs(logging.NewNop(), 0, logging.RetentionTarget{Dir: dir})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file retained when retention disabled: %v", err)
	}
}
