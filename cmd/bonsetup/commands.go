package bonsetup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/arthur-debert/bonsetup/internal/version"
	"github.com/arthur-debert/bonsetup/pkg/config"
	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/host"
	"github.com/arthur-debert/bonsetup/pkg/logging"
	"github.com/arthur-debert/bonsetup/pkg/paths"
	"github.com/arthur-debert/bonsetup/pkg/profiles"
	"github.com/arthur-debert/bonsetup/pkg/runner"
	"github.com/arthur-debert/bonsetup/pkg/toolchain"
	"github.com/arthur-debert/bonsetup/pkg/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// environment is everything the commands touch outside the process
type environment struct {
	runner runner.Runner
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	host   func() host.Profile
}

func defaultEnvironment() environment {
	return environment{
		runner: runner.NewExecRunner(),
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		host:   host.Probe,
	}
}

// options holds the global flags
type options struct {
	verbosity         int
	dryRun            bool
	assumeYes         bool
	allowRemoteScript bool
	profile           string
	format            string
	sourceRoot        string
}

// app is the state shared by the commands of one invocation. Configuration
// is loaded on first use so that version, completion and man work with a
// broken config file.
type app struct {
	env     environment
	opts    options
	paths   *paths.Paths
	sources config.Sources
	config  *config.Config
	format  ui.Format
}

// ReportedError wraps an error the renderer has already shown, so main only
// has to pick the exit status
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }
func (e *ReportedError) Unwrap() error { return e.Err }

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultEnvironment())
}

func newRootCmd(env environment) *cobra.Command {
	a := &app{env: env}

	rootCmd := &cobra.Command{
		Use:     "bonsetup",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(a.opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.ErrInvalidInput, "no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	rootCmd.SetIn(env.in)
	rootCmd.SetOut(env.out)
	rootCmd.SetErr(env.errOut)

	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&a.opts.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.BoolVar(&a.opts.dryRun, "dry-run", false, MsgFlagDryRun)
	flags.BoolVarP(&a.opts.assumeYes, "yes", "y", false, MsgFlagYes)
	flags.StringVarP(&a.opts.profile, "profile", "p", "", MsgFlagProfile)
	flags.StringVar(&a.opts.format, "format", "", MsgFlagFormat)
	flags.StringVar(&a.opts.sourceRoot, "source-root", "", MsgFlagSourceRoot)
	flags.BoolVar(&a.opts.allowRemoteScript, "allow-remote-script", false, MsgFlagRemoteScript)

	_ = rootCmd.RegisterFlagCompletionFunc("profile", profileNamesCompletion)
	_ = rootCmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "term", "text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.AddCommand(newInstallCmd(a))
	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newProfilesCmd(a))
	rootCmd.AddCommand(newHostCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newGuideCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd())

	return rootCmd
}

// load resolves paths and configuration once per invocation
func (a *app) load(cmd *cobra.Command) error {
	if a.config != nil {
		return nil
	}
	logger := logging.GetLogger("cmd.load")

	p, err := paths.New(a.opts.sourceRoot)
	if err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, MsgErrInitPaths)
	}

	a.sources = config.Sources{
		UserFile:    p.ConfigFilePath(),
		ProjectFile: p.ProjectConfigPath(),
		Overrides:   a.overrides(cmd),
	}
	if cwd, err := os.Getwd(); err == nil {
		a.sources.DotEnv = filepath.Join(cwd, ".env")
	}

	cfg, err := config.Load(a.sources)
	if err != nil {
		return err
	}

	// source_root from a config file or the environment moves the checkout
	if a.opts.sourceRoot == "" && cfg.SourceRoot != "" {
		if p, err = paths.New(cfg.SourceRoot); err != nil {
			return errors.Wrap(err, errors.ErrFileAccess, MsgErrInitPaths)
		}
	}

	format, err := ui.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	a.paths = p
	a.config = cfg
	a.format = format
	logger.Debug().
		Str("sourceRoot", p.SourceRoot()).
		Str("profile", cfg.Profile).
		Str("format", format.String()).
		Msg("Invocation configured")
	return nil
}

// overrides maps the flags the operator set to configuration keys
func (a *app) overrides(cmd *cobra.Command) map[string]interface{} {
	flags := cmd.Flags()
	o := make(map[string]interface{})
	if flags.Changed("dry-run") {
		o["dry_run"] = a.opts.dryRun
	}
	if flags.Changed("yes") {
		o["prompt.assume_yes"] = a.opts.assumeYes
	}
	if flags.Changed("profile") {
		o["profile"] = a.opts.profile
	}
	if flags.Changed("format") {
		o["output.format"] = a.opts.format
	}
	if flags.Changed("source-root") {
		o["source_root"] = a.opts.sourceRoot
	}
	if a.opts.allowRemoteScript {
		o["toolchain.bootstrap"] = toolchain.BootstrapScript
	}
	return o
}

// renderer returns the result renderer for stdout
func (a *app) renderer() (ui.Renderer, error) {
	return ui.NewRenderer(a.format, a.env.out)
}

// render shows result on stdout in the configured format
func (a *app) render(result interface{}) error {
	r, err := a.renderer()
	if err != nil {
		return err
	}
	return r.RenderResult(result)
}

// catalogue returns the configured profile catalogue
func (a *app) catalogue() (*profiles.Catalogue, error) {
	if a.config.ProfilesFile == "" {
		return profiles.Builtin()
	}
	cat, err := profiles.Load(paths.ExpandHome(a.config.ProfilesFile))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, MsgErrLoadProfile)
	}
	return cat, nil
}

// warnFallback tells the operator when no checkout was found
func (a *app) warnFallback() {
	if a.paths.UsedFallback() && a.opts.sourceRoot == "" && a.config.SourceRoot == "" {
		fmt.Fprintf(a.env.errOut, MsgFallbackWarning, a.paths.SourceRoot())
	}
}

// profileNamesCompletion provides shell completion for profile names
func profileNamesCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cat, err := profiles.Builtin()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return append(cat.Names(), "latest"), cobra.ShellCompDirectiveNoFileComp
}
