package version

import "fmt"

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/bonsetup/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/arthur-debert/bonsetup/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/arthur-debert/bonsetup/internal/version.Date={{.Date}}
)

// Info is the build information of the running binary
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Current returns the build information
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// String formats the information for people
func (i Info) String() string {
	return fmt.Sprintf("bonsetup version %s\n  commit: %s\n  built:  %s", i.Version, i.Commit, i.Date)
}
