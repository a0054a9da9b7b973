package svn

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/KingArtGames/uversioncontrol/internal/status"
)

// XML document structure of "svn status --xml [-u]".
type xmlStatus struct {
	XMLName     xml.Name        `xml:"status"`
	Targets     []xmlTarget     `xml:"target"`
	Changelists []xmlChangelist `xml:"changelist"`
}

type xmlTarget struct {
	Path    string     `xml:"path,attr"`
	Entries []xmlEntry `xml:"entry"`
}

type xmlChangelist struct {
	Name    string     `xml:"name,attr"`
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Path        string        `xml:"path,attr"`
	WCStatus    xmlItemStatus `xml:"wc-status"`
	ReposStatus xmlItemStatus `xml:"repos-status"`
}

type xmlItemStatus struct {
	Item string   `xml:"item,attr"`
	Lock *xmlLock `xml:"lock"`
}

type xmlLock struct {
	Owner string `xml:"owner"`
	Token string `xml:"token"`
}

// itemStatus maps svn's item attribute to the closed status enumeration.
// Unrecognized or absent items map to StatusNone.
func itemStatus(item string) status.FileStatus {
	switch item {
	case "normal":
		return status.StatusNormal
	case "unversioned":
		return status.StatusUnversioned
	case "modified":
		return status.StatusModified
	case "added":
		return status.StatusAdded
	case "deleted":
		return status.StatusDeleted
	case "replaced":
		return status.StatusReplaced
	case "conflicted":
		return status.StatusConflicted
	case "ignored":
		return status.StatusIgnored
	case "missing":
		return status.StatusMissing
	case "external":
		return status.StatusExternal
	default:
		return status.StatusNone
	}
}

// ParseStatus converts a status listing into cache entries. remote
// records whether the listing came from a server round-trip, which
// selects the reflection level of the produced entries.
//
// Malformed or truncated input fails explicitly with ErrParseFailure;
// no partial result is returned, so a failed parse can never corrupt
// the cache.
func ParseStatus(rawOutput string, remote bool) (map[string]status.Entry, error) {
	if strings.TrimSpace(rawOutput) == "" {
		return nil, fmt.Errorf("%w: empty output", ErrParseFailure)
	}

	var doc xmlStatus
	if err := xml.Unmarshal([]byte(rawOutput), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	reflection := status.ReflectionLocal
	if remote {
		reflection = status.ReflectionRemote
	}

	entries := make(map[string]status.Entry)

	addEntry := func(e xmlEntry, changelist string) {
		path := status.NormalizePath(e.Path)
		if path == "" {
			return
		}

		entry := status.Entry{
			Path:       path,
			Status:     itemStatus(e.WCStatus.Item),
			Reflection: reflection,
			Changelist: changelist,
		}

		entry.RemoteStatus = itemStatus(e.ReposStatus.Item)

		// A lock reported only by the repository belongs to someone else;
		// a lock the working copy knows about is ours.
		if e.WCStatus.Lock != nil {
			entry.LockOwner = e.WCStatus.Lock.Owner
		} else if e.ReposStatus.Lock != nil {
			entry.LockOwner = e.ReposStatus.Lock.Owner
			entry.LockedByOther = true
		}

		entries[path] = entry
	}

	for _, target := range doc.Targets {
		for _, e := range target.Entries {
			addEntry(e, "")
		}
	}
	for _, cl := range doc.Changelists {
		for _, e := range cl.Entries {
			addEntry(e, cl.Name)
		}
	}

	return entries, nil
}
