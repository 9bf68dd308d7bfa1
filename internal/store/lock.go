// Package store owns the bot's on-disk runtime state. Right now that is the
// instance lock which keeps two processes from trading the same account.
package store

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const lockFileName = ".cryptrade.lock"

// InstanceLock is an exclusive on-disk lock. A lock left behind by a process
// that no longer runs is taken over.
type InstanceLock struct {
	path string
	file *os.File
}

// overridable in tests
var processAlive = isProcessAlive

// AcquireInstanceLock creates the lock file in dir, failing when another live
// process holds it.
func AcquireInstanceLock(dir string) (*InstanceLock, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, lockFileName)

	for attempts := 0; attempts < 3; attempts++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			if writeErr := writeLockFile(f); writeErr != nil {
				_ = f.Close()
				_ = os.Remove(path)
				return nil, writeErr
			}
			return &InstanceLock{path: path, file: f}, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		stale, reason, staleErr := lockIsStale(path)
		if staleErr != nil {
			return nil, fmt.Errorf("instance lock exists: %s (stale check failed: %v)", path, staleErr)
		}
		if !stale {
			return nil, fmt.Errorf("instance lock exists: %s (%s)", path, reason)
		}
		if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
			return nil, removeErr
		}
	}
	return nil, fmt.Errorf("instance lock exists: %s", path)
}

// Release removes the lock file. Safe to call more than once.
func (l *InstanceLock) Release() error {
	if l == nil {
		return nil
	}
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
	if l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	l.path = ""
	return nil
}

func writeLockFile(f *os.File) error {
	payload := "pid=" + strconv.Itoa(os.Getpid()) +
		"\nstarted_at=" + time.Now().UTC().Format(time.RFC3339) + "\n"
	if _, err := f.WriteString(payload); err != nil {
		return err
	}
	return f.Sync()
}

func lockIsStale(path string) (bool, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, "lock_disappeared", nil
		}
		return false, "", err
	}
	pid := parseLockPID(data)
	if pid <= 0 {
		return false, "missing_lock_owner_info", nil
	}
	if processAlive(pid) {
		return false, "owner_process_running", nil
	}
	return true, "owner_process_not_running", nil
}

func parseLockPID(data []byte) int {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, found := strings.Cut(line, "=")
		if !found || strings.TrimSpace(key) != "pid" {
			continue
		}
		if pid, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && pid > 0 {
			return pid
		}
	}
	return 0
}

func isProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrProcessDone) {
		return false
	}
	// A permission error still means somebody owns the pid.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "permission denied")
}
