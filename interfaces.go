// Package projfs contains core domain types and interfaces for browsing and
// creating entries beneath a single sandboxed project root.
package projfs

import "context"

// Lister returns the immediate children of a directory relative to the root.
type Lister interface {
	// List returns the entries of dir sorted directories first, then by name.
	// "" and "." both name the root.
	List(ctx context.Context, dir string) (*Listing, error)
}

// Creator creates a file or directory from a single raw text token.
type Creator interface {
	// Create interprets input relative to currentDir and creates the entry.
	// File creation is exclusive; directory creation is idempotent.
	Create(ctx context.Context, currentDir, input string) (*Created, error)
}

// Backend is the full set of operations a tree session needs. It is
// implemented by the local filesystem and by the remote HTTP adapter.
type Backend interface {
	Lister
	Creator
}
