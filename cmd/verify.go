package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
	"github.com/fyerfyer/logic-lock/pkg/utils"
)

func newVerifyCmd(global *globalOptions) *cobra.Command {
	var original, locked, keyReport string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a key report unlocks a locked netlist",
		Long: `Prove with a SAT solver that the locked netlist, with its key inputs
driven by the key in the report, computes the same outputs as the original.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := global.logger()
			if err != nil {
				return err
			}
			defer logger.Close()

			report, err := utils.ReadKeyReport(keyReport)
			if err != nil {
				return err
			}
			a, err := utils.ParseBenchFile(original, logger)
			if err != nil {
				return err
			}
			b, err := utils.ParseBenchFile(locked, logger)
			if err != nil {
				return err
			}

			key := make(map[string]bool, len(report.Bits))
			for _, bit := range report.Bits {
				if bit.Value != 0 && bit.Value != 1 {
					return errors.Wrapf(circuit.ErrValidation, "key bit %s has value %d", bit.KeyInput, bit.Value)
				}
				key[bit.KeyInput] = bit.Value == 1
			}

			logger.Info("Verifying %s against %s with key %s (run %s)", locked, original, report.Key, report.RunID)
			ok, err := checkKey(a, b, key, logger)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf("key in %s does not unlock %s", keyReport, locked)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&original, "original", "", "Original netlist in BENCH format")
	cmd.Flags().StringVar(&locked, "locked", "", "Locked netlist in BENCH format")
	cmd.Flags().StringVar(&keyReport, "key-report", "", "Key report written by a locking run")
	for _, name := range []string{"original", "locked", "key-report"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
