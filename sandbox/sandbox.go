// Package sandbox confines client supplied relative paths to a fixed root.
// Every filesystem read or write in projfs goes through [Sandbox.Resolve].
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/internal/util"
)

// Sandbox resolves relative paths against an immutable root
type Sandbox struct {
	root     string // absolute and cleaned
	realRoot string // root with symlinks evaluated
}

// New creates a Sandbox anchored at root, which must be an existing directory.
// Relative roots are resolved against the process working directory.
func New(root string) (*Sandbox, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s: %w", abs, projfs.ErrNotADirectory)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("eval root symlinks: %w", err)
	}
	return &Sandbox{root: abs, realRoot: resolved}, nil
}

// Root returns the absolute root path
func (s *Sandbox) Root() string {
	return s.root
}

// Normalize turns client input into a clean relative path without leading
// separators or climbs. Leading "..", "." and empty segments are dropped
// rather than honored; a climb that survives cleaning (e.g. "a/../../b")
// is a [projfs.ErrPathEscape]. The root itself normalizes to "".
// Backslashes are treated as separators.
func Normalize(rel string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(rel), `\`, "/")
	segs := strings.Split(p, "/")
	i := 0
	for i < len(segs) && (segs[i] == "" || segs[i] == "." || segs[i] == "..") {
		i++
	}
	p = path.Clean(strings.Join(segs[i:], "/"))
	if p == "." {
		return "", nil
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%q: %w", rel, projfs.ErrPathEscape)
	}
	return p, nil
}

// Resolve normalizes rel and returns the absolute path beneath the root.
// It fails with [projfs.ErrPathEscape] when the result is neither the root
// nor a descendant of it, including through a symlink that points outside.
func (s *Sandbox) Resolve(rel string) (string, error) {
	logger := util.GetLogger("Sandbox.Resolve")

	n, err := Normalize(rel)
	if err != nil {
		logger.Warn().Str("path", rel).Msg("Rejected path climbing out of root")
		return "", err
	}
	abs := s.root
	if n != "" {
		abs = filepath.Join(s.root, filepath.FromSlash(n))
	}
	if !Within(s.root, abs) {
		logger.Warn().Str("path", rel).Str("resolved", abs).Msg("Rejected path outside root")
		return "", fmt.Errorf("%q: %w", rel, projfs.ErrPathEscape)
	}
	if err := s.checkLinks(abs); err != nil {
		logger.Warn().Err(err).Str("path", rel).Str("resolved", abs).Msg("Rejected path through symlink")
		return "", fmt.Errorf("%q: %w", rel, err)
	}
	logger.Trace().Str("path", rel).Str("resolved", abs).Msg("Resolved")
	return abs, nil
}

// Join normalizes each element separately, joins them and resolves the
// result, so a climb in one element cannot consume another element.
func (s *Sandbox) Join(elems ...string) (string, error) {
	parts := make([]string, 0, len(elems))
	for _, e := range elems {
		n, err := Normalize(e)
		if err != nil {
			return "", err
		}
		if n != "" {
			parts = append(parts, n)
		}
	}
	return s.Resolve(path.Join(parts...))
}

// Rel returns abs relative to the root with forward slashes; "." for the root.
func (s *Sandbox) Rel(abs string) (string, error) {
	if !Within(s.root, abs) {
		return "", fmt.Errorf("%s: %w", abs, projfs.ErrPathEscape)
	}
	r, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(r), nil
}

// checkLinks evaluates the deepest existing ancestor of abs and verifies it
// still lies within the real root
func (s *Sandbox) checkLinks(abs string) error {
	p := abs
	for {
		if _, err := os.Lstat(p); err == nil {
			break
		}
		parent := filepath.Dir(p)
		if parent == p || !Within(s.root, parent) {
			return nil
		}
		p = parent
	}
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// dangling link: containment cannot be proven
			return fmt.Errorf("dangling symlink: %w", projfs.ErrPathEscape)
		}
		return fmt.Errorf("eval symlinks: %w", err)
	}
	if !Within(s.realRoot, resolved) {
		return fmt.Errorf("symlink target outside root: %w", projfs.ErrPathEscape)
	}
	return nil
}

// Within reports whether p equals root or is a descendant of it. The check
// uses the separator-terminated root so "/srv/root-other" is not inside
// "/srv/root". Both paths must be absolute and cleaned.
func Within(root, p string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}
