// Package host derives the facts about the machine that the installers and
// the shell patch depend on.
package host

import (
	"runtime"

	"github.com/arthur-debert/bonsetup/pkg/errors"
)

// Unknown fills every field of a profile for an unsupported OS
const Unknown = "unknown"

// Profile describes where the operator's login shell reads its startup file
// and which variable the dynamic loader consults for shared libraries.
type Profile struct {
	Family         string `json:"family"`
	StartupFile    string `json:"startupFile"`
	LibraryPathVar string `json:"libraryPathVar"`
}

// Probe returns the profile for the running OS
func Probe() Profile {
	return ProbeOS(runtime.GOOS)
}

// ProbeOS returns the profile for a GOOS value
func ProbeOS(goos string) Profile {
	switch goos {
	case "darwin":
		return Profile{
			Family:         "macos",
			StartupFile:    "~/.profile",
			LibraryPathVar: "DYLD_LIBRARY_PATH",
		}
	case "linux":
		return Profile{
			Family:         "linux",
			StartupFile:    "~/.bashrc",
			LibraryPathVar: "LD_LIBRARY_PATH",
		}
	default:
		return Profile{Family: Unknown, StartupFile: Unknown, LibraryPathVar: Unknown}
	}
}

// Known reports whether the profile was resolved
func (p Profile) Known() bool {
	return p.Family != Unknown && p.Family != ""
}

// Validate fails for an unresolved profile. Callers that need the startup
// file or the library variable must treat this as a fatal precondition.
func (p Profile) Validate() error {
	if p.Known() {
		return nil
	}
	return errors.New(errors.ErrUnresolvedConfig,
		"unsupported operating system: cannot determine the shell startup file or library path variable").
		WithDetail("family", p.Family)
}
