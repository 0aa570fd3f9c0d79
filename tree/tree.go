// Package tree keeps a client-held mirror of the project tree in step with
// the backend without re-fetching it: directories are listed lazily on
// expand and successful creations are patched in locally.
package tree

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/internal/util"
	"github.com/google/uuid"
)

// Tree is a single browsing session over a backend. The tree is the only
// writer of its nodes; readers may walk it concurrently.
type Tree struct {
	backend projfs.Backend
	root    *Node
	session string
	logger  util.Logger
}

// New creates a tree whose root is open and not yet loaded
func New(backend projfs.Backend) *Tree {
	root := newNode(".", projfs.KindDir, nil)
	root.open.Store(true)
	session := uuid.NewString()
	logger := util.GetLogger("Tree").With().Str("session", session).Logger()
	return &Tree{backend: backend, root: root, session: session, logger: logger}
}

func (t *Tree) Root() *Node {
	return t.root
}

// Session returns the identifier attached to this tree's log lines
func (t *Tree) Session() string {
	return t.session
}

// Expand lists n through the backend and merges the result. It is a no-op
// for a directory that is already loaded.
func (t *Tree) Expand(ctx context.Context, n *Node) error {
	if !n.IsDir() {
		return fmt.Errorf("expand %s: %w", n.Path(), projfs.ErrNotADirectory)
	}
	if n.Loaded() {
		return nil
	}
	listing, err := t.backend.List(ctx, n.Path())
	if err != nil {
		t.logger.Debug().Err(err).Str("dir", n.Path()).Msg("List failed")
		return err
	}
	n.merge(listing.Entries)
	t.logger.Trace().Str("dir", n.Path()).Int("entries", len(listing.Entries)).Msg("Merged listing")
	return nil
}

// Open expands n and marks it open in the view
func (t *Tree) Open(ctx context.Context, n *Node) error {
	if err := t.Expand(ctx, n); err != nil {
		return err
	}
	n.open.Store(true)
	return nil
}

// Collapse hides n's children in the view; loaded children are kept
func (t *Tree) Collapse(n *Node) {
	n.open.Store(false)
}

// Refresh discards n's loaded state and lists it again. Children that were
// patched in locally but are not on disk are still kept.
func (t *Tree) Refresh(ctx context.Context, n *Node) error {
	if !n.IsDir() {
		return fmt.Errorf("refresh %s: %w", n.Path(), projfs.ErrNotADirectory)
	}
	n.mu.Lock()
	n.loaded = false
	n.mu.Unlock()
	return t.Expand(ctx, n)
}

// ExpandPath opens every directory from the root down to rel and returns
// the node at rel. A segment missing after its parent was listed is
// [projfs.ErrNotFound].
func (t *Tree) ExpandPath(ctx context.Context, rel string) (*Node, error) {
	segs, err := splitPath(rel)
	if err != nil {
		return nil, err
	}
	cur := t.root
	if err := t.Open(ctx, cur); err != nil {
		return nil, err
	}
	for _, seg := range segs {
		child, ok := cur.GetChild(seg)
		if !ok {
			return nil, fmt.Errorf("expand %s: %w", path.Join(cur.Path(), seg), projfs.ErrNotFound)
		}
		if child.IsDir() {
			if err := t.Open(ctx, child); err != nil {
				return nil, err
			}
		}
		cur = child
	}
	return cur, nil
}

// ExpandAll opens n and every directory beneath it down to depth levels.
// A depth of zero only opens n.
func (t *Tree) ExpandAll(ctx context.Context, n *Node, depth int) error {
	if err := t.Open(ctx, n); err != nil {
		return err
	}
	if depth <= 0 {
		return nil
	}
	for _, c := range n.Children() {
		if !c.IsDir() {
			continue
		}
		if err := t.ExpandAll(ctx, c, depth-1); err != nil {
			return err
		}
	}
	return nil
}

// Lookup finds an already materialized node without touching the backend
func (t *Tree) Lookup(rel string) (*Node, bool) {
	segs, err := splitPath(rel)
	if err != nil {
		return nil, false
	}
	cur := t.root
	for _, seg := range segs {
		child, ok := cur.GetChild(seg)
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur, true
}

// ApplyCreation patches a successful creation at rel into the tree.
//
// Missing intermediate directories are created as nodes with no children,
// the leaf is inserted at its sorted position and every proper ancestor is
// marked open. A new directory node counts as loaded when its parent was:
// a name absent from a complete listing is known to be new and empty.
//
// Ex. on an empty root, "a/b/c.txt" yields a(dir, open) > b(dir, open) >
// c.txt(file).
//
// The tree is validated before it is touched: a file where a directory is
// needed is [projfs.ErrNotADirectory] and a leaf of the other kind is
// [projfs.ErrAlreadyExists]. An existing leaf of the same kind is returned
// unchanged.
func (t *Tree) ApplyCreation(rel string, kind projfs.EntryKind) (*Node, error) {
	segs, err := splitPath(rel)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("apply %q: %w", rel, projfs.ErrEmptyInput)
	}
	if err := t.checkCreation(segs, kind); err != nil {
		return nil, err
	}

	cur := t.root
	for i, seg := range segs {
		k := projfs.KindDir
		if i == len(segs)-1 {
			k = kind
		}
		cur.mu.Lock()
		child, ok := cur.children.Load(seg)
		if !ok {
			child = newNode(seg, k, cur)
			child.loaded = k == projfs.KindDir && cur.loaded
			cur.insertLocked(child)
		}
		cur.mu.Unlock()
		cur.open.Store(true)
		cur = child
	}

	t.logger.Debug().Str("path", cur.Path()).Str("kind", string(kind)).Msg("Applied creation")
	return cur, nil
}

// checkCreation walks the materialized prefix of segs for kind conflicts
func (t *Tree) checkCreation(segs []string, kind projfs.EntryKind) error {
	cur := t.root
	for i, seg := range segs {
		child, ok := cur.GetChild(seg)
		if !ok {
			return nil
		}
		last := i == len(segs)-1
		if !last && !child.IsDir() {
			return fmt.Errorf("apply %s: %s is a file: %w", strings.Join(segs, "/"), child.Path(), projfs.ErrNotADirectory)
		}
		if last && child.Kind() != kind {
			return fmt.Errorf("apply %s: exists as %s: %w", child.Path(), child.Kind(), projfs.ErrAlreadyExists)
		}
		cur = child
	}
	return nil
}

// Apply patches a creation result reported by a backend
func (t *Tree) Apply(c *projfs.Created) (*Node, error) {
	return t.ApplyCreation(c.Path, c.Kind)
}

// Create asks the backend to create input inside dir and patches the
// result into the tree.
func (t *Tree) Create(ctx context.Context, dir, input string) (*Node, error) {
	created, err := t.backend.Create(ctx, dir, input)
	if err != nil {
		t.logger.Debug().Err(err).Str("dir", dir).Str("input", input).Msg("Create failed")
		return nil, err
	}
	return t.Apply(created)
}

// AncestorsOf returns every proper prefix directory of rel, shallowest
// first. It returns nil for a path that cannot be split.
//
// Ex. "a/b/c.txt" -> ["a", "a/b"]
func AncestorsOf(rel string) []string {
	segs, err := splitPath(rel)
	if err != nil || len(segs) < 2 {
		return nil
	}
	out := make([]string, 0, len(segs)-1)
	for i := 1; i < len(segs); i++ {
		out = append(out, strings.Join(segs[:i], "/"))
	}
	return out
}

// splitPath turns a relative path reported by a backend into segments.
// Paths in the tree never climb, so a remaining ".." is rejected.
func splitPath(rel string) ([]string, error) {
	var segs []string
	for _, seg := range strings.Split(strings.ReplaceAll(strings.TrimSpace(rel), `\`, "/"), "/") {
		switch seg {
		case "", ".":
		case "..":
			return nil, fmt.Errorf("%q: %w", rel, projfs.ErrPathEscape)
		default:
			segs = append(segs, seg)
		}
	}
	return segs, nil
}

// Render writes the visible part of the tree: the root, and the children
// of every open directory. Directories carry a trailing slash.
func (t *Tree) Render(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "."); err != nil {
		return err
	}
	return render(w, t.root, "")
}

func render(w io.Writer, n *Node, prefix string) error {
	if !n.IsOpen() {
		return nil
	}
	children := n.Children()
	for i, c := range children {
		branch, indent := "├── ", "│   "
		if i == len(children)-1 {
			branch, indent = "└── ", "    "
		}
		name := c.Name()
		if c.IsDir() {
			name += "/"
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, branch, name); err != nil {
			return err
		}
		if c.IsDir() {
			if err := render(w, c, prefix+indent); err != nil {
				return err
			}
		}
	}
	return nil
}
