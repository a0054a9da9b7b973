package engine

import (
	"sort"
	"time"

	"github.com/KingArtGames/uversioncontrol/internal/status"
	"github.com/KingArtGames/uversioncontrol/internal/svn"
)

// run is the perpetual background refresh loop. It ticks at the
// configured interval, drains the request queue, and resolves the
// drained batches. Failures never crash the loop.
func (e *Engine) run() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			if !e.active.Load() {
				continue
			}
			e.flushOnce()
		}
	}
}

// flushOnce drains the queue and dispatches the local batch, then the
// remote batch. The two batch kinds are never dispatched concurrently.
func (e *Engine) flushOnce() {
	local, remote := e.queue.DrainForFlush()
	e.dispatchBatches(local, false)
	e.dispatchBatches(remote, true)
}

// dispatchBatches splits paths into sub-batches of at most MaxBatchSize
// and runs one status command per sub-batch. Each sub-batch is a fully
// independent invocation: a failure is logged, the failed paths are
// re-queued for the next cycle, and the remaining sub-batches still run.
func (e *Engine) dispatchBatches(paths []string, remote bool) {
	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	max := e.config.MaxBatchSize
	for start := 0; start < len(paths); start += max {
		end := start + max
		if end > len(paths) {
			end = len(paths)
		}
		batch := paths[start:end]

		if err := e.queryStatus(batch, remote); err != nil {
			if svn.IsFatal(err) {
				e.config.Logger.Printf("Environment misconfigured, dropping batch: %v", err)
				continue
			}
			e.config.Logger.Printf("Status batch failed, retrying next cycle: %v", err)
			e.requeue(batch, remote)
		}
	}
}

// queryStatus runs one batched status command and merges the parsed
// result into the cache. The merge happens only after a fully
// successful parse. Incremental queries do not take the
// operation-active lock; racing one mutating command is accepted
// because that command re-requests status for its own paths.
func (e *Engine) queryStatus(paths []string, remote bool) error {
	result, err := e.runner.Execute(e.ctx, svn.StatusArgs(paths, remote), nil)
	if err != nil {
		return err
	}
	if err := svn.ResultError(result); err != nil {
		return err
	}

	entries, err := svn.ParseStatus(result.Stdout, remote)
	if err != nil {
		return err
	}

	// Every requested path must leave Pending on this cycle, including
	// paths the listing omitted (e.g. nonexistent assets): those get
	// the default none entry at the query's reflection level.
	reflection := status.ReflectionLocal
	if remote {
		reflection = status.ReflectionRemote
	}
	for _, path := range paths {
		norm := status.NormalizePath(path)
		if _, ok := entries[norm]; !ok {
			entry := status.DefaultEntry(norm)
			entry.Reflection = reflection
			entries[norm] = entry
		}
	}

	e.cache.Merge(entries)
	e.notifyStatusCompleted()
	return nil
}

// requeue puts a failed batch back on the queue so the next cycle
// retries it.
func (e *Engine) requeue(paths []string, remote bool) {
	if remote {
		e.queue.EnqueueRemote(paths)
	} else {
		e.queue.Enqueue(paths)
	}
}

// RefreshAll queries the status of the entire working copy, locally or
// including the server. Full-tree queries are expensive, so unlike the
// incremental batches they serialize against mutating operations via
// the operation-active lock.
func (e *Engine) RefreshAll(remote bool) error {
	if !e.active.Load() {
		return nil
	}

	e.beginOperation()
	defer e.endOperation()

	result, err := e.runner.Execute(e.ctx, svn.StatusArgs(nil, remote), e.notifyProgress)
	if err != nil {
		return err
	}
	if err := svn.ResultError(result); err != nil {
		return err
	}

	entries, err := svn.ParseStatus(result.Stdout, remote)
	if err != nil {
		return err
	}

	e.cache.Merge(entries)
	e.notifyStatusCompleted()
	return nil
}

// FlushNow drains and resolves the queue immediately instead of waiting
// for the next tick. Intended for tests and one-shot CLI commands.
func (e *Engine) FlushNow() {
	if !e.active.Load() {
		return
	}
	e.flushOnce()
}
