package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"Windcalc/internal/calc/report"
	"Windcalc/internal/calc/wind"
)

func (a *app) newReportCmd() *cobra.Command {
	var in inputFlags
	var tab, out, font string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "render a PDF report for is, asce or compare",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := in.raw()
			if err != nil {
				return err
			}
			now := a.env.Clock.Now()
			rep := report.Build(a.calc, tab, wind.Mode(in.mode), raw, now)

			var r report.Renderer
			if font != "" {
				if r.UTF8Font, err = afero.ReadFile(a.env.Fs, font); err != nil {
					return fmt.Errorf("read font: %w", err)
				}
			}
			var buf bytes.Buffer
			if err := r.Render(&buf, rep); err != nil {
				return err
			}
			if out == "" {
				out = report.FileName(now)
			}
			if err := afero.WriteFile(a.env.Fs, out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("%w: %v", report.ErrExport, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	in.register(cmd, false)
	cmd.Flags().StringVar(&tab, "tab", "is", "is, asce or compare")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default CivilDoctor_WindReport_<timestamp>.pdf)")
	cmd.Flags().StringVar(&font, "font", "", "TrueType font file; keeps → and ≈ in the summary")
	return cmd
}
