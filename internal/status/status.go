// Package status holds the shared state of the synchronization engine:
// the thread-safe status cache and the pending-request queue.
//
// Both structures are read and written from multiple goroutines (the
// refresh loop, operation calls, and any number of interactive callers),
// so every exported method is internally synchronized. The cache and the
// queue each guard their own state with an independent lock; neither lock
// is ever held across I/O.
package status

// FileStatus is the working-copy status of a versioned asset.
//
// The set is closed: parsers map anything unrecognized to StatusNone
// rather than inventing new members.
type FileStatus string

const (
	// StatusNone means the path has never been queried, or the server
	// reported no status for it.
	StatusNone FileStatus = "none"

	// StatusPending means a query for this path is in flight and the
	// last concrete status is not yet known.
	StatusPending FileStatus = "pending"

	StatusNormal      FileStatus = "normal"
	StatusUnversioned FileStatus = "unversioned"
	StatusModified    FileStatus = "modified"
	StatusAdded       FileStatus = "added"
	StatusDeleted     FileStatus = "deleted"
	StatusReplaced    FileStatus = "replaced"
	StatusConflicted  FileStatus = "conflicted"
	StatusIgnored     FileStatus = "ignored"
	StatusMissing     FileStatus = "missing"
	StatusExternal    FileStatus = "external"
)

// String returns the string representation of the status.
func (s FileStatus) String() string {
	return string(s)
}

// Reflection records how thoroughly an entry's status was last determined.
type Reflection int

const (
	// ReflectionNone means the path was never queried.
	ReflectionNone Reflection = iota

	// ReflectionPending means a query is queued but has not resolved yet.
	ReflectionPending

	// ReflectionLocal means the status reflects the local working copy only.
	ReflectionLocal

	// ReflectionRemote means the status includes a server round-trip.
	ReflectionRemote
)

// String returns a human-readable representation of the reflection level.
func (r Reflection) String() string {
	switch r {
	case ReflectionNone:
		return "none"
	case ReflectionPending:
		return "pending"
	case ReflectionLocal:
		return "local"
	case ReflectionRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Entry is the last-known version-control status of one asset path.
type Entry struct {
	// Path is the asset path, normalized to forward slashes.
	Path string

	// Status is the working-copy status.
	Status FileStatus

	// RemoteStatus is the server-side status relative to the working
	// copy, populated only by remote queries. StatusModified here means
	// the local copy is out of date.
	RemoteStatus FileStatus

	// Reflection records how the status was last determined.
	Reflection Reflection

	// LockOwner is the user holding the repository lock, if any.
	LockOwner string

	// LockedByOther is true when LockOwner is set and is not the
	// working copy's own lock.
	LockedByOther bool

	// Changelist is the changelist the path belongs to, if any.
	Changelist string
}

// DefaultEntry returns the well-defined entry for a path that was never
// queried. Cache lookups never fail; they return this instead.
func DefaultEntry(path string) Entry {
	return Entry{
		Path:         path,
		Status:       StatusNone,
		RemoteStatus: StatusNone,
		Reflection:   ReflectionNone,
	}
}
