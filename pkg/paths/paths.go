package paths

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/bonsetup/pkg/errors"
)

// Environment variable names
const (
	// EnvSourceRoot points at the Bonsai source checkout
	EnvSourceRoot = "BONSETUP_SOURCE_ROOT"

	// EnvConfigDir overrides the XDG config directory for bonsetup
	EnvConfigDir = "BONSETUP_CONFIG_DIR"

	// EnvCacheDir overrides the XDG cache directory for bonsetup
	EnvCacheDir = "BONSETUP_CACHE_DIR"

	// EnvStateDir overrides the XDG state directory for bonsetup
	EnvStateDir = "BONSETUP_STATE_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Default directories and files
const (
	// AppDirName is the directory name used under every XDG base directory
	AppDirName = "bonsetup"

	// ConfigFileName is the user configuration file inside the config dir
	ConfigFileName = "config.toml"

	// ProjectConfigFile is the per-checkout configuration file
	ProjectConfigFile = "bonsetup.toml"

	// DownloadsDir is the cache subdirectory for fetched archives
	DownloadsDir = "downloads"

	// LogFileName is the name of the log file
	LogFileName = "bonsetup.log"

	// JournalFileName is the name of the run history database
	JournalFileName = "history.db"
)

// Paths holds the resolved directories for one run. It is built once and
// only read afterwards.
type Paths struct {
	sourceRoot   string
	usedFallback bool
	configDir    string
	cacheDir     string
	stateDir     string
}

// New creates a Paths instance. If sourceRoot is empty it is determined from
// BONSETUP_SOURCE_ROOT, the enclosing git repository, or the working
// directory, in that order.
func New(sourceRoot string) (*Paths, error) {
	p := &Paths{}

	if sourceRoot == "" {
		root, usedFallback, err := findSourceRoot()
		if err != nil {
			return nil, err
		}
		p.sourceRoot = root
		p.usedFallback = usedFallback
	} else {
		p.sourceRoot = ExpandHome(sourceRoot)
	}

	absRoot, err := filepath.Abs(p.sourceRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for source root")
	}
	p.sourceRoot = absRoot

	p.setupXDGDirs()
	return p, nil
}

// setupXDGDirs initializes XDG directories, respecting environment overrides
func (p *Paths) setupXDGDirs() {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		p.configDir = ExpandHome(dir)
	} else {
		p.configDir = filepath.Join(xdg.ConfigHome, AppDirName)
	}

	if dir := os.Getenv(EnvCacheDir); dir != "" {
		p.cacheDir = ExpandHome(dir)
	} else {
		p.cacheDir = filepath.Join(xdg.CacheHome, AppDirName)
	}

	p.stateDir = DefaultStateDir()
}

// DefaultStateDir returns the state directory without resolving a source
// root, so the logger can be set up before anything else runs.
func DefaultStateDir() string {
	if dir := os.Getenv(EnvStateDir); dir != "" {
		return ExpandHome(dir)
	}
	// xdg caches its values at init; honour a changed XDG_STATE_HOME
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, AppDirName)
	}
	return filepath.Join(xdg.StateHome, AppDirName)
}

// findSourceRoot returns the source root, and whether the working directory
// was used as a fallback.
func findSourceRoot() (string, bool, error) {
	if root := os.Getenv(EnvSourceRoot); root != "" {
		return ExpandHome(root), false, nil
	}

	if gitRoot, err := findGitRoot(); err == nil && gitRoot != "" {
		return gitRoot, false, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", false, errors.Wrapf(err, errors.ErrFileAccess, "failed to get current directory")
	}
	return cwd, true, nil
}

// findGitRoot attempts to find the root of the current git repository
func findGitRoot() (string, error) {
	output, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", err
	}

	gitRoot := strings.TrimSpace(string(output))
	if gitRoot == "" {
		return "", errors.New(errors.ErrNotFound, "git root is empty")
	}
	return gitRoot, nil
}

// ExpandHome expands a leading ~ to the home directory. Paths of the form
// ~user are returned unchanged.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	homeDir := os.Getenv(EnvHome)
	if homeDir == "" {
		var err error
		homeDir, err = os.UserHomeDir()
		if err != nil {
			return path
		}
	}

	if len(path) == 1 {
		return homeDir
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// SourceRoot returns the Bonsai source checkout directory
func (p *Paths) SourceRoot() string {
	return p.sourceRoot
}

// UsedFallback returns true if the current working directory was used as fallback
func (p *Paths) UsedFallback() bool {
	return p.usedFallback
}

// SourcePath resolves a path relative to the source root. Absolute and
// ~-prefixed paths are returned expanded but otherwise untouched.
func (p *Paths) SourcePath(rel string) string {
	expanded := ExpandHome(rel)
	if filepath.IsAbs(expanded) {
		return expanded
	}
	return filepath.Join(p.sourceRoot, expanded)
}

// ConfigDir returns the XDG config directory for bonsetup
func (p *Paths) ConfigDir() string {
	return p.configDir
}

// ConfigFilePath returns the user configuration file path
func (p *Paths) ConfigFilePath() string {
	return filepath.Join(p.configDir, ConfigFileName)
}

// ProjectConfigPath returns the configuration file inside the source root
func (p *Paths) ProjectConfigPath() string {
	return filepath.Join(p.sourceRoot, ProjectConfigFile)
}

// CacheDir returns the XDG cache directory for bonsetup
func (p *Paths) CacheDir() string {
	return p.cacheDir
}

// DownloadPath returns where a fetched file named name is stored
func (p *Paths) DownloadPath(name string) string {
	return filepath.Join(p.cacheDir, DownloadsDir, name)
}

// StateDir returns the XDG state directory for bonsetup
func (p *Paths) StateDir() string {
	return p.stateDir
}

// LogFilePath returns the log file location
func (p *Paths) LogFilePath() string {
	return filepath.Join(p.stateDir, LogFileName)
}

// JournalPath returns the run history database location
func (p *Paths) JournalPath() string {
	return filepath.Join(p.stateDir, JournalFileName)
}
