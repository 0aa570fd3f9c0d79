package filesystem

import (
	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/config"
	"github.com/brettbedarf/projfs/sandbox"
)

// FileSystem lists and creates entries on local disk beneath a single
// sandboxed root. It holds no mutable state of its own: every operation is
// one synchronous round of I/O and is safe to call from multiple goroutines.
type FileSystem struct {
	cfg *config.Config
	sb  *sandbox.Sandbox
}

var _ projfs.Backend = (*FileSystem)(nil)

// NewFS creates a FileSystem rooted at cfg.Root, which must already exist
func NewFS(cfg *config.Config) (*FileSystem, error) {
	sb, err := sandbox.New(cfg.Root)
	if err != nil {
		return nil, err
	}
	return &FileSystem{cfg: cfg, sb: sb}, nil
}

// Root returns the absolute sandbox root
func (fs *FileSystem) Root() string {
	return fs.sb.Root()
}

// Sandbox exposes the path resolver used for every operation
func (fs *FileSystem) Sandbox() *sandbox.Sandbox {
	return fs.sb
}
