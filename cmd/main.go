package main

import (
	"fmt"
	"io"
	"os"

	"github.com/brettbedarf/projfs/adapters"
	"github.com/brettbedarf/projfs/config"
	"github.com/brettbedarf/projfs/internal/util"
	"github.com/spf13/cobra"
)

// options are the flags shared by every command
type options struct {
	configPath string
	verbose    int
	root       string
	addr       string
	source     string

	cfg *config.Config
}

// load resolves configuration as defaults < config file < environment <
// flags and initializes logging to logOut.
func (o *options) load(cmd *cobra.Command, logOut io.Writer) error {
	cfg := config.NewDefaultConfig()
	if o.configPath != "" {
		override, err := config.LoadConfigOverrideFile(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg.Merge(override)
	}

	env, err := config.LoadEnvOverride(os.LookupEnv)
	if err != nil {
		return err
	}
	cfg.Merge(env)

	flags := &config.ConfigOverride{}
	if changed(cmd, "verbose") {
		flags.LogLvl = util.Pointer(o.verbose)
	}
	if changed(cmd, "root") {
		flags.Root = util.Pointer(o.root)
	}
	if changed(cmd, "addr") {
		flags.Addr = util.Pointer(o.addr)
	}
	cfg.Merge(flags)

	util.InitializeLoggerTo(logOut, cfg.LogLvl)
	o.cfg = cfg
	return nil
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "projfs",
		Short:         "Browse and create entries beneath a sandboxed project root",
		Long:          "Serves a project directory over a small JSON API and provides client commands to list, create and view it as a tree.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	pf.IntVarP(&opts.verbose, "verbose", "v", config.InfoVerbose, "Log verbosity level between 1 (error) and 5 (trace)")
	pf.StringVarP(&opts.root, "root", "r", "", "Project root directory (env "+config.EnvRoot+")")

	rootCmd.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newCreateCmd(opts),
		newTreeCmd(opts),
	)
	return rootCmd
}

func main() {
	adapters.RegisterBuiltins()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
