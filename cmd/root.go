// Package cmd implements the dapflash CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/daschewie/dapflash/internal/config"
	"github.com/daschewie/dapflash/internal/dap/swj"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var (
	// cfg is the loaded configuration, resolved once in PersistentPreRunE.
	cfg *config.Config

	probeFlag      string
	targetFlag     string
	coreFlag       string
	protocolFlag   string
	speedFlag      int
	timeoutFlag    int
	quietFlag      bool
	hwResetPinFlag string
)

var rootCmd = &cobra.Command{
	Use:   "dapflash",
	Short: "dapflash - program ARM Cortex-M targets through a CMSIS-DAP probe",
	Long: `dapflash drives an ARM Debug Access Port over a CMSIS-DAP probe: it
attaches to a target, runs on-target flash algorithms to program NVM, and
resets or halts the core afterward.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if probeFlag != "" {
			cfg.Probe = probeFlag
		}
		if targetFlag != "" {
			cfg.Target = targetFlag
		}
		if coreFlag != "" {
			cfg.Core = coreFlag
		}
		if protocolFlag != "" {
			cfg.Protocol = protocolFlag
		}
		if speedFlag != 0 {
			cfg.Speed = speedFlag
		}
		if timeoutFlag != 0 {
			cfg.Timeout = timeoutFlag
		}

		if _, err := host.Init(); err != nil {
			return fmt.Errorf("failed to initialize local gpio/spi host drivers: %w", err)
		}

		return nil
	},
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&probeFlag, "probe", "", "probe port/device (e.g. /dev/ttyACM0, COM3)")
	rootCmd.PersistentFlags().StringVar(&targetFlag, "target", "", "target name (built-in or custom, see --nvm-* / --algo-* flags)")
	rootCmd.PersistentFlags().StringVar(&coreFlag, "core", "", "core name to operate on (default core0)")
	rootCmd.PersistentFlags().StringVar(&protocolFlag, "protocol", "", "wire protocol: swd or jtag")
	rootCmd.PersistentFlags().IntVar(&speedFlag, "speed", 0, "SWD/JTAG clock speed in Hz")
	rootCmd.PersistentFlags().IntVar(&timeoutFlag, "timeout", 0, "probe I/O timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "suppress informational output")
	rootCmd.PersistentFlags().StringVar(&hwResetPinFlag, "hw-reset-pin", "", "pulse nRESET over a local GPIO pin (by periph.io name) before attaching")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func validateConnectionFlags() error {
	if cfg.Probe == "" {
		return fmt.Errorf("no probe specified (use --probe flag or set it in dapflash.ini)")
	}
	return nil
}

func printInfo(format string, args ...interface{}) {
	if !quietFlag {
		fmt.Printf(format, args...)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// pulseHardwareReset drives nRESET low then high over a local GPIO pin,
// for adapter boards where the probe firmware doesn't expose reset
// control itself. It is a no-op when --hw-reset-pin was not given.
func pulseHardwareReset() error {
	if hwResetPinFlag == "" {
		return nil
	}

	pin := gpioreg.ByName(hwResetPinFlag)
	if pin == nil {
		return fmt.Errorf("gpio pin %q not found", hwResetPinFlag)
	}

	driver := swj.New(swj.Pins{NReset: pin})
	if _, err := driver.Drive(0, swj.BitNRESET, 1000); err != nil {
		return fmt.Errorf("drive nRESET low: %w", err)
	}
	if _, err := driver.Drive(swj.BitNRESET, swj.BitNRESET, 1000); err != nil {
		return fmt.Errorf("release nRESET: %w", err)
	}
	return nil
}
