package main

import (
	"fmt"
	"io"
	"os"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/adapters"
	"github.com/brettbedarf/projfs/tree"
	"github.com/spf13/cobra"
)

// addSourceFlag registers --source on a client command
func addSourceFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.source, "source", "s", "",
		"Project to talk to: a local directory or a server URL such as http://localhost:3030 (default the project root)")
}

// openBackend loads configuration with logs on stderr and opens --source
func openBackend(cmd *cobra.Command, opts *options) (projfs.Backend, error) {
	if err := opts.load(cmd, os.Stderr); err != nil {
		return nil, err
	}
	return adapters.Open(opts.source, opts.cfg)
}

func newListCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls [dir]",
		Aliases: []string{"list"},
		Short:   "List a directory, directories first",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openBackend(cmd, opts)
			if err != nil {
				return err
			}
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			l, err := backend.List(cmd.Context(), dir)
			if err != nil {
				return err
			}
			return printListing(cmd.OutOrStdout(), l)
		},
	}
	addSourceFlag(cmd, opts)
	return cmd
}

func printListing(w io.Writer, l *projfs.Listing) error {
	for _, e := range l.Entries {
		name := e.Name
		if e.IsDir() {
			name += "/"
		}
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

func newCreateCmd(opts *options) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "create <input>",
		Short: "Create a file or directory from a single token",
		Long: `Create a file or directory inside --dir.

A leading "/" always creates a directory. Otherwise a last segment that
looks like name.ext creates an empty file and anything else a directory.
Missing parent directories are created.`,
		Example: "  projfs create notes.txt\n  projfs create -d backend /scripts\n  projfs create src/lib/util.go",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openBackend(cmd, opts)
			if err != nil {
				return err
			}
			t := tree.New(backend)
			n, err := t.Create(cmd.Context(), dir, args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s %s\n", n.Kind(), n.Path())
			return err
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to create inside, relative to the root")
	addSourceFlag(cmd, opts)
	return cmd
}

func newTreeCmd(opts *options) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Print the project as a tree",
		Long:  "Print the project as a tree, expanding directories down to --depth and revealing [path] if given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := openBackend(cmd, opts)
			if err != nil {
				return err
			}
			t := tree.New(backend)
			if err := t.ExpandAll(cmd.Context(), t.Root(), depth-1); err != nil {
				return err
			}
			if len(args) == 1 {
				if _, err := t.ExpandPath(cmd.Context(), args[0]); err != nil {
					return err
				}
			}
			return t.Render(cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "L", 1, "Directory levels to expand")
	addSourceFlag(cmd, opts)
	return cmd
}
