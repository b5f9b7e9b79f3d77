package cli

import (
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"Windcalc/internal/calc/wind"
	"Windcalc/internal/logger"
	"Windcalc/internal/observability"
	"Windcalc/internal/scenario"
)

const envPrefix = "WIND"

// Env carries the side effects a command may have, so tests can swap them.
type Env struct {
	Fs    afero.Fs
	Clock clockwork.Clock
}

type rootOptions struct {
	storeDir string
	logLevel string
}

type app struct {
	env    Env
	opts   rootOptions
	calc   *wind.Calculator
	logger *zap.Logger
}

func NewRootCmd(env Env) *cobra.Command {
	a := &app{env: env, calc: wind.NewCalculator(wind.DefaultTables())}
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "windcli",
		Short:         "Wind pressure calculator for IS 875 and ASCE/GCC",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			bindFlags(cmd, v)
			l, err := logger.New(a.opts.logLevel, "console")
			if err != nil {
				return err
			}
			a.logger = l
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.opts.storeDir, "store-dir", "./data",
		"directory holding saved scenarios")
	root.PersistentFlags().StringVar(&a.opts.logLevel, "log-level", "warn",
		"log level (debug, info, warn, error)")

	root.AddCommand(
		a.newCalcCmd(),
		a.newCompareCmd(),
		a.newExportCmd(),
		a.newReportCmd(),
		a.newScenariosCmd(),
	)
	return root
}

// bindFlags applies WIND_* environment values to flags the user did not set.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			_ = v.BindEnv(f.Name, fmt.Sprintf("%s_%s", envPrefix, envVarSuffix))
		}
		if !f.Changed && v.IsSet(f.Name) {
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "could not set flag %s: %v\n", f.Name, err)
			}
		}
	})
}

func (a *app) store() *scenario.Store {
	blob := scenario.NewFileBlob(a.env.Fs, a.opts.storeDir)
	return scenario.NewStore(blob, a.env.Clock, a.logger, observability.NewLocalMetrics())
}

// inputFlags are shared by every command that evaluates a profile.
type inputFlags struct {
	code   string
	mode   string
	inputs []string
}

func (f *inputFlags) register(cmd *cobra.Command, withCode bool) {
	if withCode {
		cmd.Flags().StringVar(&f.code, "code", string(wind.CodeIS), "wind code: is or asce")
	}
	cmd.Flags().StringVar(&f.mode, "mode", string(wind.ModeAuto), "speed source: auto or manual")
	cmd.Flags().StringArrayVarP(&f.inputs, "input", "i", nil, "raw input as key=value, repeatable")
}

func (f *inputFlags) raw() (map[string]string, error) {
	return parseInputs(f.inputs)
}

func parseInputs(pairs []string) (map[string]string, error) {
	raw := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q, want key=value", p)
		}
		raw[key] = value
	}
	return raw, nil
}
