// Package profiles holds the declarative dependency pins for each revision
// of the bootstrap. A profile is data; the chain decides what to do with it.
package profiles

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/logging"
	toml "github.com/pelletier/go-toml/v2"
)

//go:embed profiles.toml
var builtin []byte

// Latest is the alias for the newest profile
const Latest = "latest"

// Compiler says where the bonsai compiler comes from
type Compiler struct {
	Repository string `toml:"repository" json:"repository"`
	SourceDir  string `toml:"source_dir" json:"sourceDir"`
	ForceLocal bool   `toml:"force_local" json:"forceLocal"`
}

// Library is one Java artifact to register
type Library struct {
	Name     string `toml:"name" json:"name"`
	Group    string `toml:"group" json:"group,omitempty"`
	Artifact string `toml:"artifact" json:"artifact,omitempty"`
	Version  string `toml:"version" json:"version,omitempty"`

	// URL marks an upstream jar; Source a project dir under the source root
	URL    string `toml:"url" json:"url,omitempty"`
	Source string `toml:"source" json:"source,omitempty"`
	Jar    string `toml:"jar" json:"jar,omitempty"`
}

// Upstream reports whether the library is downloaded
func (l Library) Upstream() bool {
	return l.URL != ""
}

// Profile is one revision's pins
type Profile struct {
	Name        string    `toml:"-" json:"name"`
	Description string    `toml:"description" json:"description"`
	Toolchain   string    `toml:"toolchain" json:"toolchain"`
	EnvPatch    bool      `toml:"env_patch" json:"envPatch"`
	Compiler    Compiler  `toml:"compiler" json:"compiler"`
	Libraries   []Library `toml:"libraries" json:"libraries"`
}

// Upstreams returns the downloaded libraries in declaration order
func (p Profile) Upstreams() []Library {
	var out []Library
	for _, lib := range p.Libraries {
		if lib.Upstream() {
			out = append(out, lib)
		}
	}
	return out
}

// Produced returns the locally built libraries in declaration order
func (p Profile) Produced() []Library {
	var out []Library
	for _, lib := range p.Libraries {
		if !lib.Upstream() {
			out = append(out, lib)
		}
	}
	return out
}

// Validate checks that the profile can drive a run
func (p Profile) Validate() error {
	if p.Toolchain == "" {
		return errors.Newf(errors.ErrConfigInvalid, "profile %s pins no toolchain", p.Name)
	}
	if p.Compiler.Repository == "" && p.Compiler.SourceDir == "" {
		return errors.Newf(errors.ErrConfigInvalid, "profile %s has no compiler source", p.Name)
	}
	for _, lib := range p.Libraries {
		if lib.Name == "" {
			return errors.Newf(errors.ErrConfigInvalid, "profile %s has a library without a name", p.Name)
		}
		if (lib.URL == "") == (lib.Source == "") {
			return errors.Newf(errors.ErrConfigInvalid,
				"library %s in profile %s needs exactly one of url and source", lib.Name, p.Name)
		}
	}
	return nil
}

// Catalogue is a set of named profiles
type Catalogue struct {
	Latest   string             `toml:"latest"`
	Profiles map[string]Profile `toml:"profiles"`
}

// Builtin returns the profiles shipped with bonsetup
func Builtin() (*Catalogue, error) {
	return Parse(builtin)
}

// Load reads a catalogue from a TOML file
func Load(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to read profiles file %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a catalogue
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse profiles")
	}
	for name, p := range c.Profiles {
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, err
		}
		c.Profiles[name] = p
	}
	if c.Latest != "" {
		if _, ok := c.Profiles[c.Latest]; !ok {
			return nil, errors.Newf(errors.ErrConfigInvalid, "latest points at unknown profile %q", c.Latest)
		}
	}

	logger := logging.GetLogger("profiles")
	logger.Debug().
		Int("profiles", len(c.Profiles)).
		Str("latest", c.Latest).
		Msg("Profiles loaded")
	return &c, nil
}

// Names returns the profile names, sorted
func (c *Catalogue) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a profile by name. "latest" and an empty name select the
// newest profile.
func (c *Catalogue) Get(name string) (Profile, error) {
	if name == "" || name == Latest {
		if c.Latest == "" {
			return Profile{}, errors.New(errors.ErrProfileNotFound, "no latest profile defined")
		}
		name = c.Latest
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, errors.Newf(errors.ErrProfileNotFound, "unknown profile %q (available: %s)",
			name, strings.Join(c.Names(), ", ")).WithDetail("profile", name)
	}
	return p, nil
}
