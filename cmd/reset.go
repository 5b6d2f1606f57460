package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var resetHaltFlag bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the target core",
	Long: `Reset the target core through its vendor reset sequence. With --halt,
arm the reset-vector catch first so the core is left halted at its reset
vector. The LPC55Sxx and MIMXRT6xx reset sequences halt the core after
the reset with or without --halt.

Example:
  dapflash reset --target lpc55s69 --probe /dev/ttyACM0
  dapflash reset --halt --target lpc55s69 --probe /dev/ttyACM0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReset()
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().BoolVar(&resetHaltFlag, "halt", false, "catch the reset vector and leave the core halted")
}

func runReset() error {
	session, closeFn, err := openSession()
	if err != nil {
		return err
	}
	defer closeFn()

	idx, ok := session.CoreIndex(cfg.Core)
	if !ok {
		return fmt.Errorf("unknown core %q", cfg.Core)
	}
	core, err := session.Core(idx)
	if err != nil {
		return fmt.Errorf("failed to attach to core: %w", err)
	}

	if resetHaltFlag {
		if err := core.ResetAndHalt(time.Duration(cfg.Timeout) * time.Second); err != nil {
			return fmt.Errorf("reset-and-halt failed: %w", err)
		}
		printInfo("Core reset and halted.\n")
		return nil
	}

	if err := core.Reset(); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	printInfo("Core reset.\n")
	return nil
}
