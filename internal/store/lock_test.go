package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireInstanceLock(dir)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, lockFileName)); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, lockFileName)); !os.IsNotExist(err) {
		t.Fatalf("lock file should be gone after release")
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}
}

func TestSecondAcquireFailsWhileHeld(t *testing.T) {
	dir := t.TempDir()
	lock, err := AcquireInstanceLock(dir)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lock.Release()

	_, err = AcquireInstanceLock(dir)
	if err == nil {
		t.Fatalf("second acquire should fail while the lock is held")
	}
	if !strings.Contains(err.Error(), "owner_process_running") {
		t.Fatalf("err = %v, want owner_process_running", err)
	}
}

func TestTakesOverLockOfDeadProcess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, lockFileName)
	if err := os.WriteFile(path, []byte("pid=12345\nstarted_at=2024-03-01T12:00:00Z\n"), 0o644); err != nil {
		t.Fatalf("write stale lock: %v", err)
	}

	orig := processAlive
	processAlive = func(pid int) bool { return false }
	defer func() { processAlive = orig }()

	lock, err := AcquireInstanceLock(dir)
	if err != nil {
		t.Fatalf("stale lock should be taken over: %v", err)
	}
	defer lock.Release()
}

func TestKeepsLockWithoutOwnerInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, lockFileName)
	if err := os.WriteFile(path, []byte("garbage\n"), 0o644); err != nil {
		t.Fatalf("write lock: %v", err)
	}

	_, err := AcquireInstanceLock(dir)
	if err == nil {
		t.Fatalf("lock without owner info must not be taken over")
	}
	if !strings.Contains(err.Error(), "missing_lock_owner_info") {
		t.Fatalf("err = %v, want missing_lock_owner_info", err)
	}
}
