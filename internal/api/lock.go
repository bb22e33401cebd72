package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"enrollsync/internal/config"
	"enrollsync/internal/failure"
)

// ErrLocked reports that another run holds the staging lock.
var ErrLocked = errors.New("another enrollsync run holds the staging lock")

// runLock is the single-writer lock on the staging store.
type runLock struct {
	lock *flock.Flock
}

func acquireLock(cfg *config.Config) (*runLock, error) {
	path := cfg.LockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, failure.Wrap(failure.ErrIO, "lock", "create lock directory", path, err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, failure.Wrap(failure.ErrDependency, "lock", "acquire", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &runLock{lock: lock}, nil
}

func (l *runLock) release() {
	if l == nil || l.lock == nil {
		return
	}
	_ = l.lock.Unlock()
}
