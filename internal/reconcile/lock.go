package reconcile

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	workspaceLockedTemplateConstant = "%w: %s"
	workspaceLockedMessageConstant  = "another synchronization holds the workspace lock"
	lockAcquireTemplateConstant     = "unable to lock workspace %s: %w"
)

// ErrWorkspaceLocked indicates a concurrent run holds the workspace lock.
var ErrWorkspaceLocked = errors.New(workspaceLockedMessageConstant)

// WorkspaceLock is an advisory file lock guarding a workspace.
type WorkspaceLock struct {
	fileLock *flock.Flock
}

// AcquireWorkspaceLock takes the lock without waiting; a held lock yields ErrWorkspaceLocked.
func AcquireWorkspaceLock(workspacePath string, lockFileName string) (*WorkspaceLock, error) {
	lockPath := filepath.Join(workspacePath, lockFileName)
	fileLock := flock.New(lockPath)
	locked, lockError := fileLock.TryLock()
	if lockError != nil {
		return nil, fmt.Errorf(lockAcquireTemplateConstant, workspacePath, lockError)
	}
	if !locked {
		return nil, fmt.Errorf(workspaceLockedTemplateConstant, ErrWorkspaceLocked, lockPath)
	}
	return &WorkspaceLock{fileLock: fileLock}, nil
}

// Release unlocks the workspace.
func (workspaceLock *WorkspaceLock) Release() error {
	if workspaceLock == nil || workspaceLock.fileLock == nil {
		return nil
	}
	return workspaceLock.fileLock.Unlock()
}
