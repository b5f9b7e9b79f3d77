package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"Windcalc/internal/calc/wind"
)

func (a *app) newCalcCmd() *cobra.Command {
	var in inputFlags
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "calculate the pressure profile for one code",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := in.raw()
			if err != nil {
				return err
			}
			res := a.calc.Calculate(a.calc.ParseInputs(wind.Code(in.code), wind.Mode(in.mode), raw))
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
			return printProfiles(cmd.OutOrStdout(), []string{res.Label}, res.Profile)
		},
	}
	in.register(cmd, true)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func (a *app) newCompareCmd() *cobra.Command {
	var in inputFlags
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "overlay IS 875 and ASCE/GCC profiles on one height grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := in.raw()
			if err != nil {
				return err
			}
			_, _, c := a.calc.Compare(wind.Mode(in.mode), raw)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), c)
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.Summary())
			return printProfiles(cmd.OutOrStdout(), []string{c.A.Label, c.B.Label}, c.A.Profile, c.B.Profile)
		},
	}
	in.register(cmd, false)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the comparison as JSON")
	return cmd
}

func (a *app) newExportCmd() *cobra.Command {
	var in inputFlags
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "write the profile as csv or xlsx",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := in.raw()
			if err != nil {
				return err
			}
			res := a.calc.Calculate(a.calc.ParseInputs(wind.Code(in.code), wind.Mode(in.mode), raw))

			var buf bytes.Buffer
			switch format {
			case "csv":
				err = wind.WriteCSV(&buf, res.Profile)
			case "xlsx":
				err = wind.WriteXLSX(&buf, res)
			default:
				return fmt.Errorf("unknown format %q, want csv or xlsx", format)
			}
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			if out == "" {
				out = wind.FileName(res.Code, format)
			}
			if err := afero.WriteFile(a.env.Fs, out, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	in.register(cmd, true)
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default <code>_profile.<format>)")
	return cmd
}

// printProfiles renders profiles sharing one height column as an aligned table.
func printProfiles(w io.Writer, labels []string, profiles ...wind.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "z (m)\t")
	for _, l := range labels {
		fmt.Fprintf(tw, "%s (N/m²)\t", l)
	}
	fmt.Fprintln(tw)
	for i, pt := range profiles[0] {
		fmt.Fprintf(tw, "%.2f\t", pt.HeightM)
		for _, p := range profiles {
			fmt.Fprintf(tw, "%.2f\t", p[i].PressureNM2)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
