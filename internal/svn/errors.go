// Package svn builds, executes, and interprets Subversion command-line
// invocations: argument construction, process execution with incremental
// output capture, stderr classification, and status-listing parsing.
package svn

import (
	"errors"
	"fmt"
	"strings"
)

// Typed failures produced by command execution and stderr classification.
//
// Check with errors.Is():
//
//	if errors.Is(err, svn.ErrOutOfDate) {
//	    // Update, then retry the operation
//	}
var (
	// ErrConnectionTimeout means the repository server was unreachable
	// or the connection timed out. Transient; retry later.
	ErrConnectionTimeout = errors.New("connection to repository timed out")

	// ErrNewerVersion means the working copy or server requires a newer
	// client than the one installed. The user must act.
	ErrNewerVersion = errors.New("client/server version mismatch")

	// ErrCritical means the working copy is in an unrecoverable state
	// (e.g. not a working copy at all). Abort and surface.
	ErrCritical = errors.New("unrecoverable working copy state")

	// ErrOutOfDate means the local copy is behind the server. The caller
	// must update before retrying.
	ErrOutOfDate = errors.New("working copy out of date")

	// ErrLocalCopyLocked means the working copy itself is locked and
	// needs a cleanup operation.
	ErrLocalCopyLocked = errors.New("working copy locked, cleanup required")

	// ErrLockedByOther means another user or process holds the
	// repository lock on the path.
	ErrLockedByOther = errors.New("locked by another user")

	// ErrClientMissing means the svn binary could not be launched at
	// all. Fatal; the environment is misconfigured.
	ErrClientMissing = errors.New("svn client binary missing or misconfigured")

	// ErrParseFailure means the status listing could not be parsed.
	// The cache is left untouched when this occurs.
	ErrParseFailure = errors.New("malformed status output")
)

// Pattern maps an svn error code or message substring to a typed failure.
type Pattern struct {
	Substring string
	Err       error
}

// ClassificationTable maps stderr content to typed failures. Evaluated
// top to bottom, first match wins; order matters because some messages
// contain several recognizable fragments. The table is tied to svn's
// message text, so keep additions here rather than at call sites.
var ClassificationTable = []Pattern{
	{"E170013", ErrConnectionTimeout},
	{"E730060", ErrConnectionTimeout},
	{"Unable to connect", ErrConnectionTimeout},
	{"Connection timed out", ErrConnectionTimeout},
	{"E155036", ErrNewerVersion},
	{"E155021", ErrNewerVersion},
	{"This client is too old", ErrNewerVersion},
	{"E155007", ErrCritical},
	{"E155004", ErrLocalCopyLocked},
	{"run 'svn cleanup'", ErrLocalCopyLocked},
	{"E160028", ErrOutOfDate},
	{"is out of date", ErrOutOfDate},
	{"E160035", ErrLockedByOther},
	{"W160035", ErrLockedByOther},
	{"already locked by user", ErrLockedByOther},
	{"is not a working copy", ErrCritical},
}

// ClassifyStderr converts nonempty process stderr into a typed failure.
// Unclassified content is surfaced verbatim as a generic error. Empty
// stderr yields nil.
func ClassifyStderr(stderr string) error {
	trimmed := strings.TrimSpace(stderr)
	if trimmed == "" {
		return nil
	}

	for _, p := range ClassificationTable {
		if strings.Contains(trimmed, p.Substring) {
			return fmt.Errorf("%w: %s", p.Err, trimmed)
		}
	}

	return fmt.Errorf("svn command failed: %s", trimmed)
}

// ResultError converts a completed command's outcome into a typed
// failure. A clean exit yields nil; a nonzero exit is classified from
// stderr, falling back to a generic error when the process died silently.
func ResultError(r CommandResult) error {
	if !r.Failed {
		return nil
	}
	if err := ClassifyStderr(r.Stderr); err != nil {
		return err
	}
	return fmt.Errorf("svn command failed without diagnostics: %s %v", r.Program, r.Args)
}

// IsRetryable returns true if the error is likely to succeed on retry
// without user intervention.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnectionTimeout)
}

// IsUserActionRequired returns true if the error needs the user to act
// before the operation can succeed.
func IsUserActionRequired(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrLockedByOther) {
		return true
	}
	if errors.Is(err, ErrNewerVersion) {
		return true
	}
	if errors.Is(err, ErrOutOfDate) {
		return true
	}

	return false
}

// IsFatal returns true if the error indicates a non-recoverable state:
// no command can succeed until the environment is fixed.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrClientMissing) {
		return true
	}
	if errors.Is(err, ErrCritical) {
		return true
	}

	return false
}
