package status

import (
	"sort"
	"testing"
)

func TestQueueEnqueueDeduplicates(t *testing.T) {
	q := NewQueue(NewCache())

	q.Enqueue([]string{"a.txt", "a.txt", "b.txt"})
	q.Enqueue([]string{"a.txt"})

	local, remote := q.DrainForFlush()
	if len(remote) != 0 {
		t.Errorf("remote batch = %v, want empty", remote)
	}
	sort.Strings(local)
	if len(local) != 2 || local[0] != "a.txt" || local[1] != "b.txt" {
		t.Errorf("local batch = %v, want [a.txt b.txt]", local)
	}
}

func TestQueueEnqueueMarksPending(t *testing.T) {
	cache := NewCache()
	q := NewQueue(cache)

	q.Enqueue([]string{"a.txt"})
	if got := cache.Get("a.txt").Reflection; got != ReflectionPending {
		t.Errorf("Reflection = %v, want %v", got, ReflectionPending)
	}
}

func TestQueueRemoteRuleRouting(t *testing.T) {
	q := NewQueue(NewCache())
	q.SetRemoteRule([]string{"server.txt"}, true)

	// Requested via the plain local-style call, but the rule wins.
	q.Enqueue([]string{"server.txt", "local.txt"})

	local, remote := q.DrainForFlush()
	if len(remote) != 1 || remote[0] != "server.txt" {
		t.Errorf("remote batch = %v, want [server.txt]", remote)
	}
	if len(local) != 1 || local[0] != "local.txt" {
		t.Errorf("local batch = %v, want [local.txt]", local)
	}
}

func TestQueueRemoteWinsOverLocal(t *testing.T) {
	q := NewQueue(NewCache())

	q.Enqueue([]string{"a.txt"})
	q.EnqueueRemote([]string{"a.txt"})

	local, remote := q.DrainForFlush()
	if len(remote) != 1 || remote[0] != "a.txt" {
		t.Errorf("remote batch = %v, want [a.txt]", remote)
	}
	if len(local) != 0 {
		t.Errorf("local batch = %v, want empty (remote subsumes local)", local)
	}
}

func TestQueueDrainClearsPending(t *testing.T) {
	q := NewQueue(NewCache())
	q.Enqueue([]string{"a.txt"})

	q.DrainForFlush()
	local, remote := q.DrainForFlush()
	if len(local) != 0 || len(remote) != 0 {
		t.Errorf("second drain = (%v, %v), want empty", local, remote)
	}
}

func TestQueueClearRemoteRule(t *testing.T) {
	q := NewQueue(NewCache())
	q.SetRemoteRule([]string{"a.txt"}, true)
	q.SetRemoteRule([]string{"a.txt"}, false)

	q.Enqueue([]string{"a.txt"})
	local, remote := q.DrainForFlush()
	if len(remote) != 0 {
		t.Errorf("remote batch = %v, want empty after rule cleared", remote)
	}
	if len(local) != 1 {
		t.Errorf("local batch = %v, want [a.txt]", local)
	}
}

func TestQueueRulePersistsAcrossFlushes(t *testing.T) {
	q := NewQueue(NewCache())
	q.SetRemoteRule([]string{"a.txt"}, true)

	q.Enqueue([]string{"a.txt"})
	q.DrainForFlush()

	q.Enqueue([]string{"a.txt"})
	_, remote := q.DrainForFlush()
	if len(remote) != 1 {
		t.Errorf("remote batch = %v, want rule to persist across flushes", remote)
	}
}

func TestQueuePendingCount(t *testing.T) {
	q := NewQueue(NewCache())
	q.Enqueue([]string{"a.txt", "b.txt"})
	q.EnqueueRemote([]string{"a.txt", "c.txt"})

	// a.txt counts once (remote), b.txt local, c.txt remote.
	if got := q.PendingCount(); got != 3 {
		t.Errorf("PendingCount = %d, want 3", got)
	}
}

func TestQueueIgnoresEmptyPaths(t *testing.T) {
	q := NewQueue(NewCache())
	q.Enqueue([]string{""})

	local, remote := q.DrainForFlush()
	if len(local) != 0 || len(remote) != 0 {
		t.Errorf("drain = (%v, %v), want empty paths ignored", local, remote)
	}
}
