package config

import (
	"github.com/arthur-debert/bonsetup/pkg/errors"
)

// Config is the effective configuration of one run. It is built once and
// passed down read-only.
type Config struct {
	Profile      string          `koanf:"profile"`
	ProfilesFile string          `koanf:"profiles_file"`
	SourceRoot   string          `koanf:"source_root"`
	DryRun       bool            `koanf:"dry_run"`
	Toolchain    ToolchainConfig `koanf:"toolchain"`
	Maven        MavenConfig     `koanf:"maven"`
	Journal      JournalConfig   `koanf:"journal"`
	Output       OutputConfig    `koanf:"output"`
	Prompt       PromptConfig    `koanf:"prompt"`
}

// ToolchainConfig controls the Rust toolchain step
type ToolchainConfig struct {
	Bootstrap     string `koanf:"bootstrap"`
	BootstrapURL  string `koanf:"bootstrap_url"`
	ToolchainsDir string `koanf:"toolchains_dir"`
}

// MavenConfig locates Maven and its local repository
type MavenConfig struct {
	Binary          string `koanf:"binary"`
	LocalRepository string `koanf:"local_repository"`
}

// JournalConfig controls the run history
type JournalConfig struct {
	Enabled bool `koanf:"enabled"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	Format string `koanf:"format"`
}

// PromptConfig controls interactive questions
type PromptConfig struct {
	AssumeYes bool `koanf:"assume_yes"`
}

var (
	bootstrapPolicies = []string{"manual", "script"}
	outputFormats     = []string{"auto", "term", "text", "json"}
)

// Validate rejects settings no component can act on
func (c *Config) Validate() error {
	if c.Profile == "" {
		return errors.New(errors.ErrConfigInvalid, "profile must not be empty")
	}
	if !oneOf(c.Toolchain.Bootstrap, bootstrapPolicies) {
		return errors.Newf(errors.ErrConfigInvalid,
			"toolchain.bootstrap must be one of %v, got %q", bootstrapPolicies, c.Toolchain.Bootstrap)
	}
	if c.Toolchain.Bootstrap == "script" && c.Toolchain.BootstrapURL == "" {
		return errors.New(errors.ErrConfigInvalid, "toolchain.bootstrap_url is required with the script policy")
	}
	if !oneOf(c.Output.Format, outputFormats) {
		return errors.Newf(errors.ErrConfigInvalid,
			"output.format must be one of %v, got %q", outputFormats, c.Output.Format)
	}
	if c.Maven.Binary == "" {
		return errors.New(errors.ErrConfigInvalid, "maven.binary must not be empty")
	}
	return nil
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
