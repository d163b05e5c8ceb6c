package bonsetup

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/bonsetup/pkg/config"
	"github.com/arthur-debert/bonsetup/pkg/errors"
	"github.com/arthur-debert/bonsetup/pkg/guide"
	"github.com/arthur-debert/bonsetup/pkg/journal"
	"github.com/arthur-debert/bonsetup/pkg/profiles"
	"github.com/arthur-debert/bonsetup/pkg/ui"
	"github.com/spf13/cobra"
)

func newProfilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "profiles [name]",
		Short:             MsgProfilesShort,
		GroupID:           "core",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: profileNamesCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			cat, err := a.catalogue()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				p, err := cat.Get(args[0])
				if err != nil {
					return err
				}
				return a.render(p)
			}

			var list []profiles.Profile
			for _, name := range cat.Names() {
				p, err := cat.Get(name)
				if err != nil {
					return err
				}
				list = append(list, p)
			}
			return a.render(list)
		},
	}
}

func newHostCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "host",
		Short:   MsgHostShort,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			return a.render(a.env.host())
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "history",
		Short:   MsgHistoryShort,
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}

			store, err := journal.Open(a.paths.JournalPath())
			if err != nil {
				return errors.Wrap(err, errors.ErrJournal, MsgErrJournal)
			}
			defer func() { _ = store.Close() }()

			runs, err := store.Recent(limit)
			if err != nil {
				return err
			}
			return a.render(runs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, MsgFlagLimit)
	return cmd
}

func newGuideCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "guide [name]",
		Short:   MsgGuideShort,
		GroupID: "misc",
		Args:    cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return guide.Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			format := ui.Resolve(a.format, a.env.out)

			if len(args) == 0 {
				if format == ui.FormatJSON {
					return a.render(guide.Names())
				}
				_, err := fmt.Fprintf(a.env.out, MsgGuideList, strings.Join(guide.Names(), ", "))
				return err
			}

			topic, err := guide.Get(args[0])
			if err != nil {
				return err
			}
			switch format {
			case ui.FormatJSON:
				return a.render(topic)
			case ui.FormatTerminal:
				_, err = fmt.Fprint(a.env.out, guide.NewGlamourRenderer().Render(topic.Content))
			default:
				_, err = fmt.Fprint(a.env.out, topic.Content)
			}
			return err
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	var template bool

	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if template {
				_, err := fmt.Fprintln(a.env.out, config.GenerateConfigContent())
				return err
			}
			if err := a.load(cmd); err != nil {
				return err
			}
			data, err := config.Effective(a.sources)
			if err != nil {
				return err
			}
			_, err = a.env.out.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&template, "template", false, MsgFlagTemplate)
	return cmd
}
