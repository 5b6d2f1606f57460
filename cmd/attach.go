package cmd

import (
	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Attach to the target and report status, then detach",
	Long: `Run the Debug Port Startup sequence against the target and report
whether the port was powered down beforehand, then detach.

Useful as a connectivity check before a flash or erase run.

Example:
  dapflash attach --target lpc55s69 --probe /dev/ttyACM0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, closeFn, err := openSession()
		if err != nil {
			return err
		}
		defer closeFn()
		printInfo("Detaching.\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attachCmd)
}
