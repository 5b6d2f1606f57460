package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/daschewie/dapflash/internal/config"
	"github.com/daschewie/dapflash/internal/flash"
	"github.com/daschewie/dapflash/internal/imagefmt"
	"github.com/daschewie/dapflash/internal/util"
	"github.com/spf13/cobra"
)

var (
	flashBaseAddress string
	flashSkip        int64
	flashChipErase   bool
	flashSkipErase   bool
	flashNoVerify    bool
	flashDryRun      bool
	flashIdfBoot     string
	flashIdfPart     string
)

var flashCmd = &cobra.Command{
	Use:   "flash <image>",
	Short: "Program a target's flash memory from an image file",
	Long: `Program the target's NVM from an image file. The format is detected by
file extension: .hex is Intel HEX, .elf is ELF, anything else is treated as
a raw binary loaded at --address.

This will overwrite flash memory.

Example:
  dapflash flash firmware.elf --target lpc55s69 --probe /dev/ttyACM0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlash(args[0])
	},
}

func init() {
	rootCmd.AddCommand(flashCmd)

	flashCmd.Flags().StringVar(&flashBaseAddress, "address", "0x0", "load address for a raw binary image (hex)")
	flashCmd.Flags().Int64Var(&flashSkip, "skip", 0, "bytes to skip at the start of a raw binary image")
	flashCmd.Flags().BoolVar(&flashChipErase, "chip-erase", false, "erase the whole chip before programming instead of only touched sectors")
	flashCmd.Flags().BoolVar(&flashSkipErase, "skip-erase", false, "assume NVM is already erased")
	flashCmd.Flags().BoolVar(&flashNoVerify, "no-verify", false, "skip read-back verification")
	flashCmd.Flags().BoolVar(&flashDryRun, "dry-run", false, "plan the operation without writing anything")
	flashCmd.Flags().StringVar(&flashIdfBoot, "idf-bootloader", "", "ESP-IDF second-stage bootloader blob, alongside an application ELF")
	flashCmd.Flags().StringVar(&flashIdfPart, "idf-partition-table", "", "ESP-IDF partition table blob, alongside an application ELF")
}

func runFlash(path string) error {
	loader, err := ingestImage(path)
	if err != nil {
		return err
	}

	if !flashDryRun && !util.Confirm(fmt.Sprintf("Program %s to target %q? (y/n): ", path, cfg.Target)) {
		printInfo("Operation cancelled.\n")
		return nil
	}

	session, closeFn, err := openSession()
	if err != nil {
		return err
	}
	defer closeFn()

	opts := flash.DownloadOptions{
		Progress:               cliProgress{},
		DryRun:                 flashDryRun,
		DoChipErase:            flashChipErase || cfg.ChipErase,
		SkipErase:              flashSkipErase,
		DisableDoubleBuffering: !cfg.DoubleBuf,
		Verify:                 !flashNoVerify && !cfg.SkipVerify,
	}

	if err := loader.Commit(session, session.FlasherFactory(), opts); err != nil {
		return fmt.Errorf("flash programming failed: %w", err)
	}

	printInfo("Flash programming complete.\n")
	return applyPostFlashPolicy(session)
}

// ingestImage auto-detects path's format by extension and loads it into a
// fresh flash.Loader against the target's memory map.
func ingestImage(path string) (*flash.Loader, error) {
	td, err := resolveTarget()
	if err != nil {
		return nil, err
	}
	loader := flash.New(td.memoryMap, flash.SourceBuiltin)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex":
		if err := imagefmt.LoadHexData(loader, f); err != nil {
			return nil, fmt.Errorf("failed to parse intel-hex image: %w", err)
		}
	case ".elf":
		if flashIdfBoot != "" || flashIdfPart != "" {
			if err := loadIdf(loader, td, f); err != nil {
				return nil, err
			}
			break
		}
		if err := imagefmt.LoadElfData(loader, f); err != nil {
			return nil, fmt.Errorf("failed to parse elf image: %w", err)
		}
	default:
		addr, err := parseHexAddress(flashBaseAddress)
		if err != nil {
			return nil, fmt.Errorf("--address: %w", err)
		}
		if err := imagefmt.LoadBinData(loader, f, imagefmt.BinOptions{Skip: flashSkip, BaseAddress: addr}); err != nil {
			return nil, fmt.Errorf("failed to parse raw binary image: %w", err)
		}
	}

	return loader, nil
}

func loadIdf(loader *flash.Loader, td targetDesc, f *os.File) error {
	var boot, part []byte
	var err error
	if flashIdfBoot != "" {
		boot, err = os.ReadFile(flashIdfBoot)
		if err != nil {
			return fmt.Errorf("failed to read --idf-bootloader: %w", err)
		}
	}
	if flashIdfPart != "" {
		part, err = os.ReadFile(flashIdfPart)
		if err != nil {
			return fmt.Errorf("failed to read --idf-partition-table: %w", err)
		}
	}
	if err := imagefmt.LoadIdfData(loader, td.name, f, imagefmt.IdfOptions{Bootloader: boot, PartitionTable: part}); err != nil {
		return fmt.Errorf("failed to parse esp-idf image: %w", err)
	}
	return nil
}

func applyPostFlashPolicy(session interface {
	CoreIndex(name string) (int, bool)
	Core(index int) (flash.Core, error)
}) error {
	idx, ok := session.CoreIndex(cfg.Core)
	if !ok {
		return nil
	}
	core, err := session.Core(idx)
	if err != nil {
		return err
	}

	switch cfg.PostFlash {
	case config.PostFlashHalt:
		return core.ResetAndHalt(0)
	case config.PostFlashRun:
		return nil
	default:
		return core.Reset()
	}
}

type cliProgress struct{}

func (cliProgress) Log(format string, args ...any)  { printInfo(format+"\n", args...) }
func (cliProgress) Warn(format string, args ...any) { printError(format, args...) }
func (cliProgress) FailedFilling()                  {}
func (cliProgress) FailedErasing()                  {}
func (cliProgress) FailedProgramming()              {}
