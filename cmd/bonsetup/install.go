package bonsetup

import (
	"context"

	"github.com/arthur-debert/bonsetup/pkg/artifact"
	"github.com/arthur-debert/bonsetup/pkg/chain"
	"github.com/arthur-debert/bonsetup/pkg/compiler"
	"github.com/arthur-debert/bonsetup/pkg/envpatch"
	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/guide"
	"github.com/arthur-debert/bonsetup/pkg/journal"
	"github.com/arthur-debert/bonsetup/pkg/logging"
	"github.com/arthur-debert/bonsetup/pkg/probe"
	"github.com/arthur-debert/bonsetup/pkg/prompt"
	"github.com/arthur-debert/bonsetup/pkg/step"
	"github.com/arthur-debert/bonsetup/pkg/toolchain"
	"github.com/arthur-debert/bonsetup/pkg/ui"
	"github.com/spf13/cobra"
)

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "install",
		Short:   MsgInstallShort,
		Long:    MsgInstallLong,
		Example: MsgInstallExample,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			c, err := a.buildChain()
			if err != nil {
				return err
			}
			a.warnFallback()

			report := c.WithObserver(ui.NewProgress(a.format, a.env.errOut)).Run(cmd.Context())
			a.record(report)

			if err := a.render(report); err != nil {
				return err
			}
			if report.Err != nil {
				return &ReportedError{Err: report.Err}
			}
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "check",
		Short:   MsgCheckShort,
		Long:    MsgCheckLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			c, err := a.buildChain()
			if err != nil {
				return err
			}
			a.warnFallback()

			presence := c.Check(cmd.Context())
			if err := a.render(presence); err != nil {
				return err
			}

			missing := 0
			for _, p := range presence {
				if p.Presence != probe.Present {
					missing++
				}
			}
			if missing > 0 {
				return &ReportedError{Err: errors.Newf(errors.ErrNotFound, MsgMissingFormat, missing, len(presence))}
			}
			return nil
		},
	}
}

// buildChain wires the layers for the configured profile
func (a *app) buildChain() (*chain.Chain, error) {
	cat, err := a.catalogue()
	if err != nil {
		return nil, err
	}
	p, err := cat.Get(a.config.Profile)
	if err != nil {
		return nil, err
	}

	cfg := a.config
	prompter := prompt.NewConsoleIO(a.env.in, a.env.errOut, cfg.Prompt.AssumeYes)
	installer := step.NewInstaller(a.env.runner, cfg.DryRun)

	var guideRenderer guide.Renderer = &guide.PlainRenderer{}
	if ui.Resolve(a.format, a.env.errOut) == ui.FormatTerminal {
		guideRenderer = guide.NewGlamourRenderer()
	}

	tc := toolchain.New(installer, toolchain.Options{
		Bootstrap:    cfg.Toolchain.Bootstrap,
		BootstrapURL: cfg.Toolchain.BootstrapURL,
		Guide:        a.env.errOut,
		Renderer:     guideRenderer,
		Prompter:     prompter,
	})

	layers := chain.Layers{
		Toolchain: tc,
		Compiler:  compiler.New(installer),
		Artifacts: artifact.New(installer, artifact.Options{
			Maven:           cfg.Maven.Binary,
			LocalRepository: cfg.Maven.LocalRepository,
			DownloadPath:    a.paths.DownloadPath,
		}),
		EnvPatch: envpatch.New(envpatch.Options{
			ToolchainsDir: cfg.Toolchain.ToolchainsDir,
			ToolchainDir: func(ctx context.Context) (string, error) {
				return tc.ResolveTarget(ctx, p.Toolchain)
			},
			Prompter: prompter,
			DryRun:   cfg.DryRun,
		}),
		Host:       a.env.host(),
		SourcePath: a.paths.SourcePath,
	}
	return chain.New(p.Name, cfg.DryRun, chain.Plan(p, layers)...), nil
}

// record stores the run in the journal. The journal is a convenience, so
// failures only warn.
func (a *app) record(report chain.Report) {
	if !a.config.Journal.Enabled {
		return
	}
	logger := logging.GetLogger("cmd.journal")

	store, err := journal.Open(a.paths.JournalPath())
	if err != nil {
		logger.Warn().Err(err).Msg(MsgErrJournal)
		return
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close journal")
		}
	}()

	id, err := store.Record(report)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to record run")
		return
	}
	logger.Debug().Int64("run", id).Int("steps", len(report.Outcomes)).Msg("Recorded run")
}
