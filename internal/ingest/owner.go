package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// ErrAlreadyOwned means another ingestion task (this process or a stale one
// left behind by a supervisor restart) still holds the device.
var ErrAlreadyOwned = errors.New("ingestion already owned")

// Owner is the explicit "am I the active ingestion owner" guard. The flock
// survives fork/exec games a dev auto-reloader plays, so a restarted process
// cannot double-open the serial device while the old one still holds it.
type Owner struct {
	path string
	file *os.File
}

func NewOwner(path string) *Owner {
	return &Owner{path: path}
}

// Acquire takes the lock without blocking. It must be released before a
// second Acquire can succeed, in this process or any other.
func (o *Owner) Acquire() error {
	if o.file != nil {
		return ErrAlreadyOwned
	}

	if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
		return fmt.Errorf("ingest: lock dir: %w", err)
	}

	f, err := os.OpenFile(o.path, os.O_CREATE|os.O_RDWR, 0o666)
	if err != nil {
		return fmt.Errorf("ingest: lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
			return ErrAlreadyOwned
		}
		return fmt.Errorf("ingest: flock: %w", err)
	}

	o.file = f
	return nil
}

// Release drops the lock. Safe to call when not held.
func (o *Owner) Release() {
	if o.file == nil {
		return
	}
	_ = syscall.Flock(int(o.file.Fd()), syscall.LOCK_UN)
	_ = o.file.Close()
	o.file = nil
}
