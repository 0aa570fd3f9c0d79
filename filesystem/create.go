package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/internal/util"
	"github.com/brettbedarf/projfs/sandbox"
)

// fileShaped matches a final path segment with an extension-like suffix
var fileShaped = regexp.MustCompile(`^[^/\\]+\.\w+$`)

// Classify interprets a raw creation token.
//
// A leading separator forces a directory named by the remainder, dots or
// not. Otherwise the token is a file when its last segment looks like
// "name.ext" and a directory when it does not. The name is normalized the
// same way the sandbox normalizes paths.
//
// Ex.
//
//	"/scripts"     -> dir  "scripts"
//	"notes.txt"    -> file "notes.txt"
//	"notes"        -> dir  "notes"
//	"src/main.go"  -> file "src/main.go"
//	"/v1.2"        -> dir  "v1.2"
func Classify(raw string) (projfs.Intent, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return projfs.Intent{}, projfs.ErrEmptyInput
	}

	kind := projfs.KindDir
	name := trimmed
	if strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, `\`) {
		name = strings.TrimLeft(trimmed, `/\`)
	} else if fileShaped.MatchString(lastSegment(trimmed)) {
		kind = projfs.KindFile
	}

	n, err := sandbox.Normalize(name)
	if err != nil {
		return projfs.Intent{}, err
	}
	if n == "" {
		return projfs.Intent{}, fmt.Errorf("%q names nothing to create: %w", raw, projfs.ErrEmptyInput)
	}
	return projfs.Intent{Kind: kind, Name: n}, nil
}

func lastSegment(p string) string {
	p = strings.TrimRight(strings.ReplaceAll(p, `\`, "/"), "/")
	return p[strings.LastIndex(p, "/")+1:]
}

// Create classifies input and creates the entry inside currentDir.
//
// Files are created exclusively and empty, after their ancestor directories
// are created as needed; a collision is [projfs.ErrAlreadyExists].
// Directories are created recursively and creating an existing directory
// succeeds. Ancestors created before a later failure are left in place.
func (fs *FileSystem) Create(_ context.Context, currentDir, input string) (*projfs.Created, error) {
	logger := util.GetLogger("FS.Create")

	intent, err := Classify(input)
	if err != nil {
		logger.Debug().Err(err).Str("input", input).Msg("Rejected creation input")
		return nil, err
	}
	if _, err := fs.sb.Resolve(currentDir); err != nil {
		return nil, err
	}
	target, err := fs.sb.Join(currentDir, intent.Name)
	if err != nil {
		return nil, err
	}
	rel, err := fs.sb.Rel(target)
	if err != nil {
		return nil, err
	}

	switch intent.Kind {
	case projfs.KindFile:
		err = fs.createFile(target, rel)
	default:
		err = fs.createDir(target, rel)
	}
	if err != nil {
		logger.Debug().Err(err).Str("path", rel).Str("kind", string(intent.Kind)).Msg("Failed to create entry")
		return nil, err
	}

	logger.Info().Str("path", rel).Str("kind", string(intent.Kind)).Msg("Created entry")
	return &projfs.Created{Kind: intent.Kind, Path: rel}, nil
}

// createDir is the equivalent of `mkdir -p`
func (fs *FileSystem) createDir(target, rel string) error {
	if err := os.MkdirAll(target, fs.cfg.DirPerm); err != nil {
		if info, statErr := os.Lstat(target); statErr == nil && !info.IsDir() {
			return fmt.Errorf("create %s: %w", rel, projfs.ErrAlreadyExists)
		}
		return mkdirErr(rel, err)
	}
	return nil
}

// createFile makes missing ancestors then creates target with O_EXCL
func (fs *FileSystem) createFile(target, rel string) error {
	if err := os.MkdirAll(filepath.Dir(target), fs.cfg.DirPerm); err != nil {
		return mkdirErr(rel, err)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fs.cfg.FilePerm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("create %s: %w", rel, projfs.ErrAlreadyExists)
		}
		return fmt.Errorf("create %s: %w", rel, err)
	}
	return f.Close()
}

func mkdirErr(rel string, err error) error {
	if errors.Is(err, syscall.ENOTDIR) {
		return fmt.Errorf("create %s: ancestor is a file: %w", rel, projfs.ErrNotADirectory)
	}
	return fmt.Errorf("create %s: %w", rel, err)
}
