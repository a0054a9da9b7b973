package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/KingArtGames/uversioncontrol/internal/status"
	"github.com/KingArtGames/uversioncontrol/internal/svn"
)

// stubRunner is a scriptable stand-in for the external svn client.
type stubRunner struct {
	mu    sync.Mutex
	calls [][]string

	// respond produces the result for one invocation. Defaults to an
	// empty successful status listing.
	respond func(args []string) (svn.CommandResult, error)

	// concurrency tracking for mutual-exclusion tests
	inFlight    int
	maxInFlight int
	delay       time.Duration
}

func (s *stubRunner) Execute(ctx context.Context, args []string, progress svn.ProgressFunc) (svn.CommandResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, args)
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	respond := s.respond
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if respond != nil {
		return respond(args)
	}
	return svn.CommandResult{Stdout: statusXML(nil)}, nil
}

func (s *stubRunner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubRunner) callArgs() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// statusXML builds a status listing for the given path→item mapping.
func statusXML(items map[string]string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><status><target path=".">`)
	for path, item := range items {
		fmt.Fprintf(&b, `<entry path=%q><wc-status item=%q revision="1"/></entry>`, path, item)
	}
	b.WriteString(`</target></status>`)
	return b.String()
}

func quietConfig() *Config {
	cfg := DefaultConfig()
	cfg.Logger = log.New(io.Discard, "", 0)
	return cfg
}

func newTestEngine(t *testing.T, stub *stubRunner) *Engine {
	t.Helper()
	e := New(stub, quietConfig())
	e.Start()
	t.Cleanup(e.Close)
	return e
}

func TestRefreshCycleResolvesRequests(t *testing.T) {
	stub := &stubRunner{
		respond: func(args []string) (svn.CommandResult, error) {
			return svn.CommandResult{Stdout: statusXML(map[string]string{
				"a.txt": "modified",
			})}, nil
		},
	}
	e := newTestEngine(t, stub)

	e.RequestStatus([]string{"a.txt", "b.txt"})
	e.FlushNow()

	if got := e.GetAssetStatus("a.txt").Status; got != status.StatusModified {
		t.Errorf("a.txt status = %v, want %v", got, status.StatusModified)
	}
	// b.txt was absent from the listing: it must leave Pending and land
	// on the default none status.
	b := e.GetAssetStatus("b.txt")
	if b.Status != status.StatusNone {
		t.Errorf("b.txt status = %v, want %v", b.Status, status.StatusNone)
	}
	if b.Reflection != status.ReflectionLocal {
		t.Errorf("b.txt reflection = %v, want %v", b.Reflection, status.ReflectionLocal)
	}
}

func TestRequestStatusMarksPending(t *testing.T) {
	e := newTestEngine(t, &stubRunner{})

	e.RequestStatus([]string{"a.txt"})
	if got := e.GetAssetStatus("a.txt").Reflection; got != status.ReflectionPending {
		t.Errorf("reflection = %v, want %v before flush", got, status.ReflectionPending)
	}
}

func TestRemoteRuleProducesRemoteQuery(t *testing.T) {
	stub := &stubRunner{}
	e := newTestEngine(t, stub)

	e.SetStatusRequestRule([]string{"server.txt"}, true)
	e.RequestStatus([]string{"server.txt"})
	e.FlushNow()

	calls := stub.callArgs()
	if len(calls) != 1 {
		t.Fatalf("call count = %d, want 1", len(calls))
	}
	found := false
	for _, arg := range calls[0] {
		if arg == "-u" {
			found = true
		}
	}
	if !found {
		t.Errorf("remote-ruled path queried without -u: %v", calls[0])
	}
}

func TestBatchSplitting(t *testing.T) {
	stub := &stubRunner{}
	e := newTestEngine(t, stub)

	var paths []string
	for i := 0; i < 45; i++ {
		paths = append(paths, fmt.Sprintf("assets/file%02d.txt", i))
	}
	e.RequestStatus(paths)
	e.FlushNow()

	// ceil(45/20) = 3 independent sub-batch commands.
	if got := stub.callCount(); got != 3 {
		t.Errorf("call count = %d, want 3", got)
	}
}

func TestBatchFailureIsolation(t *testing.T) {
	var failed bool
	stub := &stubRunner{}
	stub.respond = func(args []string) (svn.CommandResult, error) {
		stub.mu.Lock()
		first := !failed
		failed = true
		stub.mu.Unlock()
		if first {
			return svn.CommandResult{Failed: true, Stderr: "svn: E999999: boom"}, nil
		}
		return svn.CommandResult{Stdout: statusXML(nil)}, nil
	}
	e := newTestEngine(t, stub)

	var paths []string
	for i := 0; i < 40; i++ {
		paths = append(paths, fmt.Sprintf("assets/file%02d.txt", i))
	}
	e.RequestStatus(paths)
	e.FlushNow()

	// Sub-batch 1 failed; sub-batch 2 must still have been dispatched.
	if got := stub.callCount(); got != 2 {
		t.Errorf("call count = %d, want 2 (failure must not stop later sub-batches)", got)
	}

	// The failed sub-batch was re-queued for the next cycle.
	e.FlushNow()
	if got := stub.callCount(); got != 3 {
		t.Errorf("call count after retry cycle = %d, want 3", got)
	}
}

func TestStatusCompletedNotification(t *testing.T) {
	stub := &stubRunner{}
	e := newTestEngine(t, stub)

	var mu sync.Mutex
	fired := 0
	e.OnStatusCompleted(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	e.RequestStatus([]string{"a.txt"})
	e.FlushNow()

	mu.Lock()
	defer mu.Unlock()
	if fired == 0 {
		t.Error("status-completed notification not fired after merge")
	}
}

func TestInactiveEngineIgnoresRequests(t *testing.T) {
	stub := &stubRunner{}
	e := New(stub, quietConfig())
	t.Cleanup(e.Close)

	e.RequestStatus([]string{"a.txt"})
	e.FlushNow()
	if got := stub.callCount(); got != 0 {
		t.Errorf("inactive engine executed %d commands, want 0", got)
	}

	if err := e.Commit([]string{"a.txt"}, "msg"); err != nil {
		t.Errorf("inactive Commit = %v, want no-op nil", err)
	}
	if got := stub.callCount(); got != 0 {
		t.Errorf("inactive Commit invoked the executor")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	e := New(&stubRunner{}, quietConfig())
	e.Start()
	e.Start()
	e.Stop()
	e.Stop()
	e.Close()
	e.Close()
}

func TestIsReady(t *testing.T) {
	stub := &stubRunner{delay: 30 * time.Millisecond}
	e := newTestEngine(t, stub)

	if !e.IsReady() {
		t.Fatal("started engine with no operation in flight should be ready")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.Commit([]string{"a.txt"}, "msg")
	}()

	// Wait for the operation to be in flight.
	deadline := time.Now().Add(time.Second)
	for e.IsReady() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if e.IsReady() {
		t.Error("engine reported ready while a commit was executing")
	}
	<-done

	if !e.IsReady() {
		t.Error("engine should be ready again after the commit finished")
	}

	e.Stop()
	if e.IsReady() {
		t.Error("stopped engine must not report ready")
	}
}

func TestRefreshAllMergesWholeTree(t *testing.T) {
	stub := &stubRunner{
		respond: func(args []string) (svn.CommandResult, error) {
			return svn.CommandResult{Stdout: statusXML(map[string]string{
				"a.txt": "modified",
				"b.txt": "conflicted",
			})}, nil
		},
	}
	e := newTestEngine(t, stub)

	if err := e.RefreshAll(false); err != nil {
		t.Fatalf("RefreshAll failed: %v", err)
	}
	if got := e.GetAssetStatus("b.txt").Status; got != status.StatusConflicted {
		t.Errorf("b.txt status = %v, want %v", got, status.StatusConflicted)
	}
}

func TestParseFailureLeavesCacheUntouched(t *testing.T) {
	stub := &stubRunner{
		respond: func(args []string) (svn.CommandResult, error) {
			return svn.CommandResult{Stdout: "garbage, not xml"}, nil
		},
	}
	e := newTestEngine(t, stub)
	e.Cache().Set("a.txt", status.Entry{Status: status.StatusNormal, Reflection: status.ReflectionLocal})

	e.RequestStatus([]string{"a.txt"})
	e.FlushNow()

	if got := e.GetAssetStatus("a.txt").Status; got != status.StatusNormal {
		t.Errorf("a.txt status = %v, want %v (parse failure must not corrupt cache)", got, status.StatusNormal)
	}
}

func TestGetFilteredAssets(t *testing.T) {
	e := newTestEngine(t, &stubRunner{})
	e.Cache().Set("a.txt", status.Entry{Status: status.StatusModified})
	e.Cache().Set("b.txt", status.Entry{Status: status.StatusNormal})

	paths := e.GetFilteredAssets(func(entry status.Entry) bool {
		return entry.Status == status.StatusModified
	})
	if len(paths) != 1 || paths[0] != "a.txt" {
		t.Errorf("GetFilteredAssets = %v, want [a.txt]", paths)
	}
}
