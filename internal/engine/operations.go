package engine

import (
	"github.com/KingArtGames/uversioncontrol/internal/status"
	"github.com/KingArtGames/uversioncontrol/internal/svn"
)

// ResolvePolicy selects which side wins when resolving a conflict.
type ResolvePolicy string

const (
	// ResolveOurs keeps the local version.
	ResolveOurs ResolvePolicy = "ours"

	// ResolveTheirs takes the incoming version.
	ResolveTheirs ResolvePolicy = "theirs"

	// ResolveIgnore leaves the conflict untouched; the operation
	// short-circuits as a no-op success.
	ResolveIgnore ResolvePolicy = "ignore"
)

// normalizePaths cleans the asset path list: normalized slashes, empty
// entries dropped.
func normalizePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if norm := status.NormalizePath(p); norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

// runOperation is the shared pattern for every mutating call: acquire
// the operation-active lock, run exactly one command, classify failure,
// and on success re-request status for the affected paths so the cache
// reflects the mutation on the next refresh cycle.
func (e *Engine) runOperation(args []string, affected []string) error {
	e.beginOperation()
	result, err := e.runner.Execute(e.ctx, args, e.notifyProgress)
	e.endOperation()

	if err != nil {
		return err
	}
	if err := svn.ResultError(result); err != nil {
		return err
	}

	e.queue.Enqueue(affected)
	return nil
}

// Update brings the given paths up to the latest repository revision.
func (e *Engine) Update(paths []string) error {
	if !e.active.Load() {
		return nil
	}
	paths = normalizePaths(paths)
	if len(paths) == 0 {
		return nil
	}
	return e.runOperation(svn.UpdateArgs(paths), paths)
}

// Commit commits the given paths with an optional message.
func (e *Engine) Commit(paths []string, message string) error {
	if !e.active.Load() {
		return nil
	}
	paths = normalizePaths(paths)
	if len(paths) == 0 {
		return nil
	}
	return e.runOperation(svn.CommitArgs(paths, message), paths)
}

// Add schedules the given paths for addition.
func (e *Engine) Add(paths []string) error {
	if !e.active.Load() {
		return nil
	}
	paths = normalizePaths(paths)
	if len(paths) == 0 {
		return nil
	}
	return e.runOperation(svn.AddArgs(paths), paths)
}

// Revert discards local modifications on the given paths.
func (e *Engine) Revert(paths []string) error {
	if !e.active.Load() {
		return nil
	}
	paths = normalizePaths(paths)
	if len(paths) == 0 {
		return nil
	}
	return e.runOperation(svn.RevertArgs(paths), paths)
}

// Delete schedules the given paths for deletion. force discards local
// modifications in the way.
func (e *Engine) Delete(paths []string, force bool) error {
	if !e.active.Load() {
		return nil
	}
	paths = normalizePaths(paths)
	if len(paths) == 0 {
		return nil
	}
	return e.runOperation(svn.DeleteArgs(paths, force), paths)
}

// GetLock acquires repository locks on the given paths. force steals an
// existing lock.
func (e *Engine) GetLock(paths []string, force bool) error {
	if !e.active.Load() {
		return nil
	}
	paths = normalizePaths(paths)
	if len(paths) == 0 {
		return nil
	}
	return e.runOperation(svn.LockArgs(paths, force), paths)
}

// ReleaseLock releases repository locks on the given paths.
func (e *Engine) ReleaseLock(paths []string) error {
	if !e.active.Load() {
		return nil
	}
	paths = normalizePaths(paths)
	if len(paths) == 0 {
		return nil
	}
	return e.runOperation(svn.UnlockArgs(paths), paths)
}

// ChangelistAdd assigns the given paths to a changelist.
func (e *Engine) ChangelistAdd(paths []string, changelist string) error {
	if !e.active.Load() {
		return nil
	}
	paths = normalizePaths(paths)
	if len(paths) == 0 {
		return nil
	}
	return e.runOperation(svn.ChangelistAddArgs(changelist, paths), paths)
}

// ChangelistRemove removes the given paths from their changelist.
func (e *Engine) ChangelistRemove(paths []string) error {
	if !e.active.Load() {
		return nil
	}
	paths = normalizePaths(paths)
	if len(paths) == 0 {
		return nil
	}
	return e.runOperation(svn.ChangelistRemoveArgs(paths), paths)
}

// Checkout checks out the repository URL into the given path.
func (e *Engine) Checkout(url, path string) error {
	if !e.active.Load() {
		return nil
	}
	path = status.NormalizePath(path)
	if url == "" || path == "" {
		return nil
	}
	return e.runOperation(svn.CheckoutArgs(url, path), []string{path})
}

// Move moves or renames an asset. On success, status is re-requested
// for both the source and the destination.
func (e *Engine) Move(from, to string) error {
	if !e.active.Load() {
		return nil
	}
	from = status.NormalizePath(from)
	to = status.NormalizePath(to)
	if from == "" || to == "" {
		return nil
	}
	return e.runOperation(svn.MoveArgs(from, to), []string{from, to})
}

// Resolve resolves conflicts on the given paths according to policy.
// ResolveIgnore is a no-op success.
func (e *Engine) Resolve(paths []string, policy ResolvePolicy) error {
	if !e.active.Load() {
		return nil
	}
	if policy == ResolveIgnore {
		return nil
	}
	paths = normalizePaths(paths)
	if len(paths) == 0 {
		return nil
	}

	accept := "mine-full"
	if policy == ResolveTheirs {
		accept = "theirs-full"
	}
	return e.runOperation(svn.ResolveArgs(paths, accept), paths)
}

// Cleanup releases working-copy locks left behind by interrupted
// operations. The usual recovery for ErrLocalCopyLocked.
func (e *Engine) Cleanup() error {
	if !e.active.Load() {
		return nil
	}
	return e.runOperation(svn.CleanupArgs(), nil)
}
