package svn

import (
	"errors"
	"testing"
)

func TestClassifyStderr(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{
			name:   "out of date by code",
			stderr: "svn: E160028: File '/foo/a.txt' is out of date",
			want:   ErrOutOfDate,
		},
		{
			name:   "out of date by message",
			stderr: "svn: resource is out of date; try updating",
			want:   ErrOutOfDate,
		},
		{
			name:   "connection timeout",
			stderr: "svn: E170013: Unable to connect to a repository at URL 'https://svn.example.com'",
			want:   ErrConnectionTimeout,
		},
		{
			name:   "working copy locked",
			stderr: "svn: E155004: Run 'svn cleanup' to remove locks",
			want:   ErrLocalCopyLocked,
		},
		{
			name:   "locked by another user",
			stderr: "svn: warning: W160035: Path '/a.txt' is already locked by user 'bob'",
			want:   ErrLockedByOther,
		},
		{
			name:   "not a working copy",
			stderr: "svn: E155007: '/tmp/x' is not a working copy",
			want:   ErrCritical,
		},
		{
			name:   "client too old",
			stderr: "svn: E155036: The working copy is too old. This client is too old to work with it.",
			want:   ErrNewerVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyStderr(tt.stderr)
			if !errors.Is(err, tt.want) {
				t.Errorf("ClassifyStderr(%q) = %v, want %v", tt.stderr, err, tt.want)
			}
		})
	}
}

func TestClassifyStderrGeneric(t *testing.T) {
	err := ClassifyStderr("svn: E999999: something nobody anticipated")
	if err == nil {
		t.Fatal("want a generic error for unclassified stderr")
	}
	for _, p := range ClassificationTable {
		if errors.Is(err, p.Err) {
			t.Errorf("unclassified stderr matched %v", p.Err)
		}
	}
}

func TestClassifyStderrEmpty(t *testing.T) {
	if err := ClassifyStderr("  \n "); err != nil {
		t.Errorf("ClassifyStderr(blank) = %v, want nil", err)
	}
}

func TestClassifyStderrFirstMatchWins(t *testing.T) {
	// Contains both a lock fragment and an out-of-date code; the table
	// is ordered so E160028 is checked before the lock messages.
	stderr := "svn: E160028: '/a.txt' is out of date; it is locked"
	err := ClassifyStderr(stderr)
	if !errors.Is(err, ErrOutOfDate) {
		t.Errorf("ClassifyStderr = %v, want %v (first match wins)", err, ErrOutOfDate)
	}
}

func TestResultError(t *testing.T) {
	ok := CommandResult{Program: "svn", Args: []string{"status"}}
	if err := ResultError(ok); err != nil {
		t.Errorf("ResultError(success) = %v, want nil", err)
	}

	classified := CommandResult{
		Program: "svn",
		Args:    []string{"commit"},
		Stderr:  "svn: E160028: '/a.txt' is out of date",
		Failed:  true,
	}
	if err := ResultError(classified); !errors.Is(err, ErrOutOfDate) {
		t.Errorf("ResultError(classified) = %v, want %v", err, ErrOutOfDate)
	}

	// A nonzero exit with no stderr still has to surface as a failure.
	silent := CommandResult{Program: "svn", Args: []string{"update"}, Failed: true}
	if err := ResultError(silent); err == nil {
		t.Error("ResultError(silent failure) = nil, want an error")
	}
}

func TestErrorPredicates(t *testing.T) {
	if !IsRetryable(ErrConnectionTimeout) {
		t.Error("connection timeout should be retryable")
	}
	if IsRetryable(ErrCritical) {
		t.Error("critical should not be retryable")
	}

	for _, err := range []error{ErrLockedByOther, ErrNewerVersion, ErrOutOfDate} {
		if !IsUserActionRequired(err) {
			t.Errorf("IsUserActionRequired(%v) = false, want true", err)
		}
	}

	if !IsFatal(ErrClientMissing) || !IsFatal(ErrCritical) {
		t.Error("client missing and critical should be fatal")
	}
	if IsFatal(nil) || IsRetryable(nil) || IsUserActionRequired(nil) {
		t.Error("predicates must be false for nil")
	}
}
