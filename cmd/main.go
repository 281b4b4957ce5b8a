package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
	"github.com/fyerfyer/logic-lock/pkg/utils"
)

// Global options shared by every command
type globalOptions struct {
	verbose  bool
	logLevel string
	logFile  string
}

func (g *globalOptions) logger() (*utils.Logger, error) {
	logLevel, ok := utils.ParseLogLevel(g.logLevel)
	if !ok {
		return nil, errors.Wrapf(circuit.ErrConfiguration, "unknown log level %q", g.logLevel)
	}
	if g.verbose && logLevel < utils.DebugLevel {
		logLevel = utils.DebugLevel
	}
	if g.logFile != "" {
		return utils.NewFileLogger(logLevel, g.logFile)
	}
	return utils.NewLogger(logLevel), nil
}

func newRootCmd() *cobra.Command {
	global := &globalOptions{}
	job := &jobFlags{}

	rootCmd := &cobra.Command{
		Use:   "logic-lock",
		Short: "Insert XOR/XNOR key gates into a combinational netlist",
		Long: `Lock a BENCH netlist with random (RLL) or fault-impact guided (FLL) key
gate insertion. The locked netlist is written as BENCH and Verilog; the key
can be written to a YAML report and checked with a SAT solver.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := global.logger()
			if err != nil {
				return err
			}
			defer logger.Close()

			cfg, err := job.resolve(cmd.Flags())
			if err != nil {
				logger.Error("%v", err)
				return err
			}
			if err := runLock(cmd.Context(), cfg, logger); err != nil {
				logger.Error("%v", err)
				return err
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&global.verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&global.logLevel, "log-level", "info", "Log level: error, warning, info, debug or trace")
	rootCmd.PersistentFlags().StringVar(&global.logFile, "log", "", "Log file (default: stdout)")
	job.register(rootCmd.Flags())

	rootCmd.AddCommand(newVerifyCmd(global))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
