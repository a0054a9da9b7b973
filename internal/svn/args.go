package svn

// Argument construction for svn invocations. Arguments are passed as an
// argv slice directly to the process, so no shell quoting is involved;
// the only escaping that affects correctness is svn's peg-revision
// syntax: a path containing "@" is ambiguous unless a trailing "@" is
// appended.

// EscapePath resolves the peg-revision ambiguity for a single path.
func EscapePath(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '@' {
			return path + "@"
		}
	}
	return path
}

// EscapePaths applies EscapePath to every path.
func EscapePaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = EscapePath(p)
	}
	return out
}

// StatusArgs builds the argument list for a batched status query.
// remote adds the server round-trip (-u). An empty path list queries the
// whole working copy.
func StatusArgs(paths []string, remote bool) []string {
	args := []string{"status", "--xml", "--verbose"}
	if remote {
		args = append(args, "-u")
	}
	return append(args, EscapePaths(paths)...)
}

// UpdateArgs builds the argument list for an update.
func UpdateArgs(paths []string) []string {
	args := []string{"update", "--accept", "postpone"}
	return append(args, EscapePaths(paths)...)
}

// CommitArgs builds the argument list for a commit with an optional message.
func CommitArgs(paths []string, message string) []string {
	args := []string{"commit", "--depth", "infinity", "-m", message}
	return append(args, EscapePaths(paths)...)
}

// AddArgs builds the argument list for scheduling paths for addition.
func AddArgs(paths []string) []string {
	args := []string{"add", "--depth", "infinity", "--parents"}
	return append(args, EscapePaths(paths)...)
}

// RevertArgs builds the argument list for reverting local modifications.
func RevertArgs(paths []string) []string {
	args := []string{"revert", "--depth", "infinity"}
	return append(args, EscapePaths(paths)...)
}

// DeleteArgs builds the argument list for scheduling paths for deletion.
func DeleteArgs(paths []string, force bool) []string {
	args := []string{"delete"}
	if force {
		args = append(args, "--force")
	}
	return append(args, EscapePaths(paths)...)
}

// LockArgs builds the argument list for acquiring repository locks.
func LockArgs(paths []string, force bool) []string {
	args := []string{"lock"}
	if force {
		args = append(args, "--force")
	}
	return append(args, EscapePaths(paths)...)
}

// UnlockArgs builds the argument list for releasing repository locks.
func UnlockArgs(paths []string) []string {
	args := []string{"unlock"}
	return append(args, EscapePaths(paths)...)
}

// ChangelistAddArgs builds the argument list for assigning paths to a
// changelist.
func ChangelistAddArgs(changelist string, paths []string) []string {
	args := []string{"changelist", changelist}
	return append(args, EscapePaths(paths)...)
}

// ChangelistRemoveArgs builds the argument list for removing paths from
// their changelist.
func ChangelistRemoveArgs(paths []string) []string {
	args := []string{"changelist", "--remove"}
	return append(args, EscapePaths(paths)...)
}

// CheckoutArgs builds the argument list for checking out a repository URL.
func CheckoutArgs(url, path string) []string {
	return []string{"checkout", url, EscapePath(path)}
}

// MoveArgs builds the argument list for moving/renaming a path.
func MoveArgs(from, to string) []string {
	return []string{"move", EscapePath(from), EscapePath(to)}
}

// ResolveArgs builds the argument list for resolving a conflict.
// accept is svn's --accept policy (mine-full or theirs-full).
func ResolveArgs(paths []string, accept string) []string {
	args := []string{"resolve", "--accept", accept}
	return append(args, EscapePaths(paths)...)
}

// CleanupArgs builds the argument list for a working-copy cleanup.
func CleanupArgs() []string {
	return []string{"cleanup"}
}
