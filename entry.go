package projfs

import "fmt"

// EntryKind valid kinds are KindDir "dir" and KindFile "file"
type EntryKind string

const (
	KindDir  EntryKind = "dir"
	KindFile EntryKind = "file"
)

// ParseEntryKind converts the wire value into an EntryKind
func ParseEntryKind(s string) (EntryKind, error) {
	switch EntryKind(s) {
	case KindDir, KindFile:
		return EntryKind(s), nil
	default:
		return "", fmt.Errorf("unknown entry kind: %q", s)
	}
}

// Entry is a single child of a listed directory
type Entry struct {
	Name string
	Kind EntryKind
}

// IsDir reports whether the entry is a directory
func (e Entry) IsDir() bool {
	return e.Kind == KindDir
}

// Less orders directories before files, then by name.
// This ordering is relied upon by tree rendering and must stay stable.
func (e Entry) Less(o Entry) bool {
	return CompareEntries(e, o) < 0
}

// CompareEntries returns -1, 0 or +1 for the directories-first, then
// lexicographic ordering used by every listing.
func CompareEntries(a, b Entry) int {
	if a.IsDir() != b.IsDir() {
		if a.IsDir() {
			return -1
		}
		return 1
	}
	switch {
	case a.Name < b.Name:
		return -1
	case a.Name > b.Name:
		return 1
	}
	return 0
}

// Listing is the result of listing one directory
type Listing struct {
	Dir     string // canonical relative path of the listed dir; "." for root
	Entries []Entry
}

// Intent is the classified meaning of a raw creation token before it is
// resolved against a directory
type Intent struct {
	Kind EntryKind
	Name string // normalized relative name, forward-slash separated
}

// Created reports a successful creation
type Created struct {
	Kind EntryKind
	Path string // relative to root, forward-slash separated
}
