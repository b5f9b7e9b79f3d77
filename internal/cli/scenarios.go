package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"Windcalc/internal/calc/wind"
	"Windcalc/internal/scenario"
)

func (a *app) newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scenarios",
		Aliases: []string{"sc"},
		Short:   "manage saved scenarios",
	}
	cmd.AddCommand(
		a.newScenarioListCmd(),
		a.newScenarioSaveCmd(),
		a.newScenarioLoadCmd(),
		a.newScenarioDeleteCmd(),
	)
	return cmd
}

func (a *app) newScenarioListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.store().List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tNAME\tTAB\tMODE\tSAVED")
			for i, sc := range list {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, sc.Name, sc.Tab, sc.Mode, sc.Time.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func (a *app) newScenarioSaveCmd() *cobra.Command {
	var in inputFlags
	var name string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "save the given inputs under a name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := in.raw()
			if err != nil {
				return err
			}
			idx, err := a.store().Save(cmd.Context(), scenario.Scenario{
				Name:   name,
				Mode:   wind.Mode(in.mode),
				Tab:    wind.Code(in.code),
				Inputs: raw,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %q at index %d\n", name, idx)
			return nil
		},
	}
	in.register(cmd, true)
	cmd.Flags().StringVarP(&name, "name", "n", "", "scenario name")
	return cmd
}

func (a *app) newScenarioLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <index>",
		Short: "show a saved scenario and recalculate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			sc, err := a.store().LoadAt(cmd.Context(), idx)
			if err != nil {
				return err
			}
			res := a.calc.Calculate(a.calc.ParseInputs(sc.Tab, sc.Mode, sc.Inputs))
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", sc.Name, sc.Tab, sc.Mode)
			fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
			return nil
		},
	}
}

func (a *app) newScenarioDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>",
		Short: "delete a saved scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[0])
			}
			if err := a.store().DeleteAt(cmd.Context(), idx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", idx)
			return nil
		},
	}
}
