package tree

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/brettbedarf/projfs"
	"github.com/puzpuzpuz/xsync/v4"
)

// Node is one file or directory in the client-side mirror of the project.
//
// A directory's children are indexed by name for the prefix walk in
// [Tree.ApplyCreation] and kept in a separate ordered name slice for
// rendering. Name, kind and parent never change after construction.
type Node struct {
	name     string
	kind     projfs.EntryKind
	parent   *Node                     // nil only for the root
	mu       sync.RWMutex              // Protects order and loaded
	order    []string                  // child names, directories first then by name
	loaded   bool                      // a full listing has been merged
	children *xsync.Map[string, *Node] // child nodes by name; nil for files
	open     atomic.Bool               // expanded in the view
}

// newNode creates a detached node; the parent must insert it
func newNode(name string, kind projfs.EntryKind, parent *Node) *Node {
	n := &Node{name: name, kind: kind, parent: parent}
	if kind == projfs.KindDir {
		n.children = xsync.NewMap[string, *Node]()
	}
	return n
}

// Name returns the last path segment; "." for the root
func (n *Node) Name() string {
	return n.name
}

func (n *Node) Kind() projfs.EntryKind {
	return n.kind
}

func (n *Node) IsDir() bool {
	return n.kind == projfs.KindDir
}

// Parent returns the parent directory node; nil for the root
func (n *Node) Parent() *Node {
	return n.parent
}

func (n *Node) IsRoot() bool {
	return n.parent == nil
}

// Path returns the node's path relative to the root; "." for the root
func (n *Node) Path() string {
	if n.IsRoot() {
		return "."
	}
	var segs []string
	for cur := n; !cur.IsRoot(); cur = cur.parent {
		segs = append(segs, cur.name)
	}
	slices.Reverse(segs)
	return strings.Join(segs, "/")
}

// Loaded reports whether a listing of this directory has been merged.
// A directory may hold locally inserted children before it is loaded.
func (n *Node) Loaded() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.loaded
}

// IsOpen reports whether the directory is expanded in the view
func (n *Node) IsOpen() bool {
	return n.open.Load()
}

// Children returns a snapshot of the ordered child nodes. It returns nil
// for files and for directories that are neither loaded nor patched.
func (n *Node) Children() []*Node {
	if !n.IsDir() {
		return nil
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if !n.loaded && len(n.order) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(n.order))
	for _, name := range n.order {
		if c, ok := n.children.Load(name); ok {
			out = append(out, c)
		}
	}
	return out
}

// GetChild returns a child node by name
func (n *Node) GetChild(name string) (child *Node, ok bool) {
	if !n.IsDir() {
		return nil, false
	}
	return n.children.Load(name)
}

func (n *Node) entry() projfs.Entry {
	return projfs.Entry{Name: n.name, Kind: n.kind}
}

// insertLocked indexes child and places it at its sorted position.
// Caller must hold n.mu.Lock().
func (n *Node) insertLocked(child *Node) {
	pos, found := slices.BinarySearchFunc(n.order, child.entry(), func(name string, target projfs.Entry) int {
		c, _ := n.children.Load(name)
		return projfs.CompareEntries(c.entry(), target)
	})
	n.children.Store(child.name, child)
	if !found {
		n.order = slices.Insert(n.order, pos, child.name)
	}
}

// merge replaces the ordering with a fresh listing. Existing nodes are
// reused by name and kind so their loaded subtrees survive; children that
// were patched in locally but are missing from the listing are kept.
func (n *Node) merge(entries []projfs.Entry) {
	n.mu.Lock()
	defer n.mu.Unlock()

	prev := n.order
	seen := make(map[string]struct{}, len(entries))
	n.order = make([]string, 0, len(entries))
	for _, e := range entries {
		if c, ok := n.children.Load(e.Name); !ok || c.kind != e.Kind {
			n.children.Store(e.Name, newNode(e.Name, e.Kind, n))
		}
		n.order = append(n.order, e.Name)
		seen[e.Name] = struct{}{}
	}
	for _, name := range prev {
		if _, ok := seen[name]; ok {
			continue
		}
		if c, ok := n.children.Load(name); ok {
			n.insertLocked(c)
		}
	}
	n.loaded = true
}
