package shared

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock is the file lock that keeps the tracking sheet to a single writer.
type RunLock struct {
	lock *flock.Flock
	path string
}

// NewRunLock creates a lock at path. The parent directory is created when missing.
func NewRunLock(path string) (*RunLock, error) {
	if path == "" {
		path = "merchtrack.lock"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve lock path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return nil, fmt.Errorf("could not create lock directory: %w", err)
	}
	return &RunLock{lock: flock.New(abs), path: abs}, nil
}

// Path returns the absolute lock file path.
func (l *RunLock) Path() string { return l.path }

// Acquire takes the lock without waiting. A held lock yields [ErrRunInProgress].
func (l *RunLock) Acquire() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrRunInProgress, l.path)
	}
	return nil
}

// Release drops the lock. Releasing a lock that was never taken is not an error.
func (l *RunLock) Release() error {
	if err := l.lock.Unlock(); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
