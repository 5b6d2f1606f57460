package cmd

import (
	"fmt"
	"time"

	"github.com/daschewie/dapflash/internal/dap"
	"github.com/daschewie/dapflash/internal/dap/transport/cmsisdap"
	"github.com/spf13/cobra"
)

var probeInfoCmd = &cobra.Command{
	Use:   "probe-info",
	Short: "Read the probe's DPIDR and print resolved configuration",
	Long: `Open the probe, read the Debug Port's DPIDR register, and print the
configuration that would be used for flash/erase/reset.

Example:
  dapflash probe-info --probe /dev/ttyACM0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProbeInfo()
	},
}

func init() {
	rootCmd.AddCommand(probeInfoCmd)
}

func runProbeInfo() error {
	if err := validateConnectionFlags(); err != nil {
		return err
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	probe, err := cmsisdap.Open(cfg.Probe, timeout)
	if err != nil {
		return fmt.Errorf("failed to open probe: %w", err)
	}
	defer probe.Close()

	idr, err := probe.ReadDP(dap.DpAddress(0), dap.DPIDR)
	if err != nil {
		return fmt.Errorf("failed to read DPIDR: %w", err)
	}

	fmt.Printf("probe:    %s\n", cfg.Probe)
	fmt.Printf("protocol: %s\n", cfg.Protocol)
	fmt.Printf("speed:    %d Hz\n", cfg.Speed)
	fmt.Printf("target:   %s\n", cfg.Target)
	fmt.Printf("core:     %s\n", cfg.Core)
	fmt.Printf("DPIDR:    0x%08X\n", idr)
	return nil
}
