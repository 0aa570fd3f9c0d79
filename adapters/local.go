package adapters

import (
	"strings"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/config"
	"github.com/brettbedarf/projfs/filesystem"
)

// openLocal serves a directory on this machine. An empty target uses the
// configured root.
func openLocal(target string, cfg *config.Config) (projfs.Backend, error) {
	local := *cfg
	root := strings.TrimSpace(target)
	if SchemeOf(root) == FileAdapterType {
		root = root[len("file://"):]
	}
	if root != "" {
		local.Root = root
	}
	return filesystem.NewFS(&local)
}
