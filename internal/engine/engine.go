// Package engine provides the status synchronization engine: a
// non-blocking status query surface backed by a background refresh loop,
// and the mutating operation API that serializes against it.
//
// The engine owns three independent locks: the status cache lock, the
// request queue lock, and the operation-active lock that guarantees at
// most one mutating command runs system-wide. Keeping them separate is
// what lets status reads proceed while a long commit or update runs.
// No lock is ever held across an external-process call.
package engine

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/KingArtGames/uversioncontrol/internal/status"
	"github.com/KingArtGames/uversioncontrol/internal/svn"
)

// Config holds tuning knobs for the engine.
type Config struct {
	// RefreshInterval is the cadence of the background refresh loop.
	RefreshInterval time.Duration

	// MaxBatchSize caps how many paths one status command queries.
	// Larger drains are split into independent sequential sub-batches.
	MaxBatchSize int

	// Logger for engine activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval: 200 * time.Millisecond,
		MaxBatchSize:    20,
		Logger:          log.New(os.Stderr, "[engine] ", log.LstdFlags),
	}
}

// Engine is the client-side synchronization layer between interactive
// callers and the version-control command-line client.
//
// Status reads (Get, RequestStatus, SetStatusRequestRule) never block on
// I/O. Operation calls block for the duration of the external process.
type Engine struct {
	runner svn.Runner
	cache  *status.Cache
	queue  *status.Queue
	config *Config

	// opMu is the process-wide operation-active lock. All mutating
	// commands and full-tree refresh take it; incremental refresh-loop
	// batches deliberately do not.
	opMu     sync.Mutex
	opActive atomic.Bool

	active  atomic.Bool
	started bool
	mu      sync.Mutex // guards started

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	notifyMu        sync.Mutex
	statusCompleted []func()
	progress        []func(line string)
}

// New creates an engine executing commands through the given runner.
// Use Start() to activate it and begin the refresh loop.
func New(runner svn.Runner, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[engine] ", log.LstdFlags)
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = 200 * time.Millisecond
	}
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = 20
	}

	ctx, cancel := context.WithCancel(context.Background())

	cache := status.NewCache()
	return &Engine{
		runner: runner,
		cache:  cache,
		queue:  status.NewQueue(cache),
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start activates the engine and launches the refresh loop on first
// call. Calling Start on an already running engine is a no-op.
func (e *Engine) Start() {
	e.active.Store(true)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true

	e.wg.Add(1)
	go e.run()
	e.config.Logger.Println("Engine started")
}

// Stop deactivates the engine. The refresh loop keeps ticking but skips
// work, and queries/operations become no-ops. An in-flight command is
// allowed to finish; only Close terminates it.
func (e *Engine) Stop() {
	if e.active.Swap(false) {
		e.config.Logger.Println("Engine stopped")
	}
}

// Close tears the engine down: stops it, cancels the background task,
// and aborts any executing command. Safe to call multiple times.
func (e *Engine) Close() {
	e.Stop()
	e.cancel()
	e.wg.Wait()
}

// IsActive reports whether the engine is processing queries and operations.
func (e *Engine) IsActive() bool {
	return e.active.Load()
}

// IsReady reports that the engine is active and no operation is in flight.
func (e *Engine) IsReady() bool {
	return e.active.Load() && !e.opActive.Load()
}

// ===================
// Status Query Surface
// ===================

// RequestStatus queues status lookups for the given paths. Cheap: it
// only touches the queue and marks cache entries pending; the actual
// query happens on the next refresh cycle. No-op while inactive.
func (e *Engine) RequestStatus(paths []string) {
	if !e.active.Load() {
		return
	}
	e.queue.Enqueue(paths)
}

// RequestStatusRemote queues server round-trip lookups regardless of
// the per-path rules.
func (e *Engine) RequestStatusRemote(paths []string) {
	if !e.active.Load() {
		return
	}
	e.queue.EnqueueRemote(paths)
}

// GetAssetStatus returns the last-known status of the path. Never fails;
// unknown paths yield the default entry.
func (e *Engine) GetAssetStatus(path string) status.Entry {
	return e.cache.Get(path)
}

// GetFilteredAssets returns all cached paths whose entry satisfies the
// predicate.
func (e *Engine) GetFilteredAssets(pred func(status.Entry) bool) []string {
	return e.cache.Filter(pred)
}

// SetStatusRequestRule selects whether the paths' future status queries
// include a server round-trip.
func (e *Engine) SetStatusRequestRule(paths []string, remote bool) {
	e.queue.SetRemoteRule(paths, remote)
}

// RemoveFromCache drops cached entries, e.g. after asset deletion
// outside the engine's own operations.
func (e *Engine) RemoveFromCache(paths []string) {
	e.cache.Remove(paths)
}

// ClearCache drops all cached entries.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

// Cache exposes the underlying status cache for persistence collaborators.
func (e *Engine) Cache() *status.Cache {
	return e.cache
}

// RemoteRules returns a snapshot of the paths with a remote status rule.
func (e *Engine) RemoteRules() []string {
	return e.queue.RemoteRules()
}

// ===================
// Notifications
// ===================

// OnStatusCompleted registers a callback fired after every successful
// cache merge. At-least-once per merge, no ordering guarantees across
// concurrent batches.
func (e *Engine) OnStatusCompleted(fn func()) {
	e.notifyMu.Lock()
	e.statusCompleted = append(e.statusCompleted, fn)
	e.notifyMu.Unlock()
}

// OnProgress registers a callback fired per output line of a
// long-running operation.
func (e *Engine) OnProgress(fn func(line string)) {
	e.notifyMu.Lock()
	e.progress = append(e.progress, fn)
	e.notifyMu.Unlock()
}

func (e *Engine) notifyStatusCompleted() {
	e.notifyMu.Lock()
	callbacks := make([]func(), len(e.statusCompleted))
	copy(callbacks, e.statusCompleted)
	e.notifyMu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

func (e *Engine) notifyProgress(line string) {
	e.notifyMu.Lock()
	callbacks := make([]func(string), len(e.progress))
	copy(callbacks, e.progress)
	e.notifyMu.Unlock()

	for _, fn := range callbacks {
		fn(line)
	}
}

// ===================
// Operation-active lock
// ===================

func (e *Engine) beginOperation() {
	e.opMu.Lock()
	e.opActive.Store(true)
}

func (e *Engine) endOperation() {
	e.opActive.Store(false)
	e.opMu.Unlock()
}
