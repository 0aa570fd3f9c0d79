package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/internal/util"
)

// List returns the immediate children of dir, directories first and then
// by name. The returned Listing carries dir's canonical relative form.
func (fs *FileSystem) List(_ context.Context, dir string) (*projfs.Listing, error) {
	logger := util.GetLogger("FS.List")

	abs, err := fs.sb.Resolve(dir)
	if err != nil {
		return nil, err
	}
	rel, err := fs.sb.Rel(abs)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("list %s: %w", rel, projfs.ErrNotFound)
	case errors.Is(err, syscall.ENOTDIR):
		return nil, fmt.Errorf("list %s: %w", rel, projfs.ErrNotADirectory)
	case err != nil:
		return nil, fmt.Errorf("stat %s: %w", rel, err)
	case !info.IsDir():
		return nil, fmt.Errorf("list %s: %w", rel, projfs.ErrNotADirectory)
	}

	dirents, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}

	entries := make([]projfs.Entry, 0, len(dirents))
	for _, d := range dirents {
		entries = append(entries, projfs.Entry{Name: d.Name(), Kind: entryKind(abs, d)})
	}
	slices.SortFunc(entries, projfs.CompareEntries)

	logger.Debug().Str("dir", rel).Int("entries", len(entries)).Msg("Listed directory")
	return &projfs.Listing{Dir: rel, Entries: entries}, nil
}

// entryKind classifies a dirent; symlinks take the kind of their target
func entryKind(dir string, d os.DirEntry) projfs.EntryKind {
	if d.IsDir() {
		return projfs.KindDir
	}
	if d.Type()&os.ModeSymlink != 0 {
		if info, err := os.Stat(filepath.Join(dir, d.Name())); err == nil && info.IsDir() {
			return projfs.KindDir
		}
	}
	return projfs.KindFile
}
