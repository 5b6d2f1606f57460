package cmd

import (
	"fmt"

	"github.com/daschewie/dapflash/internal/flash"
	"github.com/daschewie/dapflash/internal/targetdesc"
	"github.com/daschewie/dapflash/internal/util"
	"github.com/spf13/cobra"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase the target's flash memory",
	Long: `Run the target's flash algorithm EraseAll entry point, or fail if the
resolved algorithm does not support it.

This is a destructive operation that cannot be undone.

Example:
  dapflash erase --target lpc55s69 --probe /dev/ttyACM0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runErase()
	},
}

func init() {
	rootCmd.AddCommand(eraseCmd)
}

func runErase() error {
	if !util.ConfirmDanger(fmt.Sprintf("You are about to ERASE all flash memory on %q", cfg.Target)) {
		printInfo("Operation cancelled.\n")
		return nil
	}

	session, closeFn, err := openSession()
	if err != nil {
		return err
	}
	defer closeFn()

	var nvmRegion *targetdesc.MemoryRegion
	for _, region := range session.MemoryMap() {
		if region.Kind == targetdesc.KindNvm {
			r := region
			nvmRegion = &r
			break
		}
	}
	if nvmRegion == nil {
		return fmt.Errorf("target %q declares no NVM region to erase", cfg.Target)
	}

	algo, err := flash.SelectAlgorithm(flash.NvmRegion(*nvmRegion), session.Algorithms(), session.TargetName())
	if err != nil {
		return err
	}

	coreIndex, ok := session.CoreIndex(nvmRegion.OwningCore())
	if !ok {
		return fmt.Errorf("unknown core %q named by memory map", nvmRegion.OwningCore())
	}

	flasher, err := session.FlasherFactory()(session, coreIndex, algo, cliProgress{})
	if err != nil {
		return fmt.Errorf("failed to prepare flash algorithm: %w", err)
	}
	if !flasher.IsChipEraseSupported() {
		return fmt.Errorf("algorithm %q does not support a full-chip erase", algo.Name)
	}

	printInfo("Erasing flash memory...\n")
	if err := flasher.RunEraseAll(); err != nil {
		return fmt.Errorf("flash erase failed: %w", err)
	}

	printInfo("Flash memory erased successfully.\n")
	return nil
}
