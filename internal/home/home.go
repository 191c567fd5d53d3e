package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the storytime home directory.
	DefaultDirName = ".storytime"

	// DataDirName is the subdirectory holding generated books.
	DataDirName = "data"

	// LLMCallsDirName is the subdirectory holding recorded language-model calls.
	LLMCallsDirName = "llmcalls"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the storytime home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.storytime).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the default book store directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// LLMCallsPath returns the directory where language-model calls are recorded.
func (d *Dir) LLMCallsPath() string {
	return filepath.Join(d.path, LLMCallsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// ResolveDataPath returns dataDir when set, relative paths resolved against
// the home directory, or DataPath when empty.
func (d *Dir) ResolveDataPath(dataDir string) string {
	switch {
	case dataDir == "":
		return d.DataPath()
	case filepath.IsAbs(dataDir):
		return dataDir
	default:
		return filepath.Join(d.path, dataDir)
	}
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(d.LLMCallsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create llmcalls directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
