package status

import "sync"

// Queue accumulates pending status lookups until the refresh loop drains
// them. Paths are partitioned into a local and a remote set according to
// the remote-rule map; set semantics make enqueueing idempotent.
//
// The queue has its own lock, separate from the cache lock, so draining
// never stalls cache readers.
type Queue struct {
	mu sync.Mutex

	localPending  map[string]struct{}
	remotePending map[string]struct{}

	// remoteRules marks paths whose status queries should include a
	// server round-trip. Rules persist across flushes until changed.
	remoteRules map[string]struct{}

	cache *Cache
}

// NewQueue creates an empty request queue. Enqueued paths are marked
// pending in the given cache as a side effect.
func NewQueue(cache *Cache) *Queue {
	return &Queue{
		localPending:  make(map[string]struct{}),
		remotePending: make(map[string]struct{}),
		remoteRules:   make(map[string]struct{}),
		cache:         cache,
	}
}

// Enqueue queues status lookups for the given paths. A path covered by a
// remote rule is routed to the remote set regardless of how it was
// requested. Requesting the same path repeatedly before the next drain
// produces exactly one query.
func (q *Queue) Enqueue(paths []string) {
	if len(paths) == 0 {
		return
	}

	q.mu.Lock()
	for _, path := range paths {
		path = NormalizePath(path)
		if path == "" {
			continue
		}
		if _, remote := q.remoteRules[path]; remote {
			q.remotePending[path] = struct{}{}
		} else {
			q.localPending[path] = struct{}{}
		}
	}
	q.mu.Unlock()

	// Mark pending outside the queue lock; the cache has its own.
	for _, path := range paths {
		if NormalizePath(path) != "" {
			q.cache.MarkPending(path)
		}
	}
}

// EnqueueRemote queues the given paths for a remote (server round-trip)
// status lookup regardless of rules.
func (q *Queue) EnqueueRemote(paths []string) {
	if len(paths) == 0 {
		return
	}

	q.mu.Lock()
	for _, path := range paths {
		path = NormalizePath(path)
		if path == "" {
			continue
		}
		q.remotePending[path] = struct{}{}
	}
	q.mu.Unlock()

	for _, path := range paths {
		if NormalizePath(path) != "" {
			q.cache.MarkPending(path)
		}
	}
}

// SetRemoteRule sets or clears the remote rule for the given paths.
// Clearing a rule only affects future enqueues; already-pending remote
// requests stay remote.
func (q *Queue) SetRemoteRule(paths []string, remote bool) {
	q.mu.Lock()
	for _, path := range paths {
		path = NormalizePath(path)
		if path == "" {
			continue
		}
		if remote {
			q.remoteRules[path] = struct{}{}
		} else {
			delete(q.remoteRules, path)
		}
	}
	q.mu.Unlock()
}

// IsRemote reports whether the path currently has a remote rule.
func (q *Queue) IsRemote(path string) bool {
	path = NormalizePath(path)

	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.remoteRules[path]
	return ok
}

// RemoteRules returns a snapshot of all paths with a remote rule.
func (q *Queue) RemoteRules() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	rules := make([]string, 0, len(q.remoteRules))
	for path := range q.remoteRules {
		rules = append(rules, path)
	}
	return rules
}

// DrainForFlush atomically snapshots and clears both pending sets. A
// path present in both sets is returned only in the remote batch; a
// remote query subsumes a local one.
func (q *Queue) DrainForFlush() (local, remote []string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for path := range q.remotePending {
		remote = append(remote, path)
	}
	for path := range q.localPending {
		if _, dup := q.remotePending[path]; dup {
			continue
		}
		local = append(local, path)
	}

	q.localPending = make(map[string]struct{})
	q.remotePending = make(map[string]struct{})

	return local, remote
}

// PendingCount returns the number of distinct paths awaiting a flush.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.remotePending)
	for path := range q.localPending {
		if _, dup := q.remotePending[path]; !dup {
			n++
		}
	}
	return n
}
