package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brettbedarf/projfs/internal/util"
	"gopkg.in/yaml.v3"
)

// Default configuration constants. See [Config] for field descriptions.
const (
	// DefaultRoot is resolved against the process working directory
	DefaultRoot = "."

	// DefaultAddr matches the port the scaffolding UI expects
	DefaultAddr = ":3030"

	DefaultLogLvl = util.InfoLevel

	DefaultDirPerm  os.FileMode = 0o755
	DefaultFilePerm os.FileMode = 0o644

	// DefaultClientTimeout is the remote backend request timeout in seconds
	DefaultClientTimeout = 30.0

	// DefaultShutdownTimeout is the graceful HTTP shutdown window in seconds
	DefaultShutdownTimeout = 5.0
)

// CLI verbosity levels, 1 (error) through 5 (trace)
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Environment variables read by [LoadEnvOverride]
const (
	EnvRoot    = "PROJECT_ROOT"
	EnvPort    = "PORT"
	EnvAddr    = "PROJFS_ADDR"
	EnvVerbose = "PROJFS_VERBOSE"
)

// Config contains runtime configuration values for the project browser.
type Config struct {
	Root            string        // Sandbox root; every path is relative to it (Default working directory)
	Addr            string        // HTTP listen address (Default :3030)
	LogLvl          util.LogLevel // Internal log level (Default info)
	DirPerm         os.FileMode   // Mode for created directories before umask (Default 0755)
	FilePerm        os.FileMode   // Mode for created files before umask (Default 0644)
	ClientTimeout   float64       // Remote backend request timeout in seconds (Default 30)
	ShutdownTimeout float64       // Graceful shutdown window in seconds (Default 5)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
//
// LogLvl carries CLI verbosity (1-5) rather than a [util.LogLevel].
type ConfigOverride struct {
	Root            *string  `yaml:"root,omitempty" json:"root,omitempty"`
	Addr            *string  `yaml:"addr,omitempty" json:"addr,omitempty"`
	LogLvl          *int     `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	DirPerm         *uint32  `yaml:"dir_perm,omitempty" json:"dir_perm,omitempty"`
	FilePerm        *uint32  `yaml:"file_perm,omitempty" json:"file_perm,omitempty"`
	ClientTimeout   *float64 `yaml:"client_timeout,omitempty" json:"client_timeout,omitempty"`
	ShutdownTimeout *float64 `yaml:"shutdown_timeout,omitempty" json:"shutdown_timeout,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		Root:            DefaultRoot,
		Addr:            DefaultAddr,
		LogLvl:          DefaultLogLvl,
		DirPerm:         DefaultDirPerm,
		FilePerm:        DefaultFilePerm,
		ClientTimeout:   DefaultClientTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// NewConfig returns the defaults with override applied; override may be nil
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// VerboseToLogLevel clamps v to 1..5 and maps it onto a [util.LogLevel]
func VerboseToLogLevel(v int) util.LogLevel {
	v = max(ErrorVerbose, min(v, TraceVerbose))
	lvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return lvls[v-1]
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.Root != nil {
		c.Root = *override.Root
	}
	if override.Addr != nil {
		c.Addr = *override.Addr
	}
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLevel(*override.LogLvl)
	}
	if override.DirPerm != nil {
		c.DirPerm = os.FileMode(*override.DirPerm) & os.ModePerm
	}
	if override.FilePerm != nil {
		c.FilePerm = os.FileMode(*override.FilePerm) & os.ModePerm
	}
	if override.ClientTimeout != nil {
		c.ClientTimeout = *override.ClientTimeout
	}
	if override.ShutdownTimeout != nil {
		c.ShutdownTimeout = *override.ShutdownTimeout
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}

// LoadEnvOverride reads overrides from the environment through lookup
// (normally os.LookupEnv). PORT is shorthand for an all-interfaces address;
// PROJFS_ADDR wins when both are set.
func LoadEnvOverride(lookup func(string) (string, bool)) (*ConfigOverride, error) {
	var override ConfigOverride

	if v, ok := lookup(EnvRoot); ok && v != "" {
		override.Root = util.Pointer(v)
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 0 || port > 65535 {
			return nil, fmt.Errorf("invalid %s %q", EnvPort, v)
		}
		override.Addr = util.Pointer(":" + strconv.Itoa(port))
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		override.Addr = util.Pointer(v)
	}
	if v, ok := lookup(EnvVerbose); ok && v != "" {
		verbose, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q", EnvVerbose, v)
		}
		override.LogLvl = util.Pointer(verbose)
	}

	return &override, nil
}
