package cmd

import (
	"fmt"
	"os"

	armsequence "github.com/daschewie/dapflash/internal/arm/sequence"
	"github.com/daschewie/dapflash/internal/dap"
	"github.com/daschewie/dapflash/internal/dapsession"
	"github.com/daschewie/dapflash/internal/targetdesc"
)

// targetDesc is everything resolveTarget needs to build a dapsession.Session:
// the core list and the target's declared memory map/algorithms. No target
// description file (YAML/XML) parser is built here — see DESIGN.md; the
// built-in table below is a convenience for the handful of chips this
// module has a grounded vendor Sequence for, and --nvm-*/--algo-* flags
// cover everything else.
type targetDesc struct {
	name       string
	memoryMap  []targetdesc.MemoryRegion
	algorithms []targetdesc.RawFlashAlgorithm
	cores      []dapsession.CoreConfig
}

// builtinTargets are the chips internal/arm/sequence already has a vendor
// Sequence for. Memory map ranges are the chip's documented flash/SRAM
// windows; no flash algorithm is bundled (see loadAlgorithmFromFlags),
// since a CMSIS flash-algorithm blob isn't something to fabricate.
var builtinTargets = map[string]func() targetDesc{
	"lpc55s69": func() targetDesc {
		return targetDesc{
			name: "lpc55s69",
			memoryMap: []targetdesc.MemoryRegion{
				{Name: "flash", Kind: targetdesc.KindNvm, Range: targetdesc.Range{Start: 0x0000_0000, End: 0x0009_E400}, Access: targetdesc.AccessRead | targetdesc.AccessExecute, Cores: []string{"core0"}},
				{Name: "sram", Kind: targetdesc.KindRam, Range: targetdesc.Range{Start: 0x2000_0000, End: 0x2004_0000}, Access: targetdesc.AccessRead | targetdesc.AccessWrite | targetdesc.AccessExecute, Cores: []string{"core0"}},
			},
			cores: []dapsession.CoreConfig{
				{Name: "core0", AP: dap.MemoryAp{AP: dap.ApAddress{DP: 0, Index: 0}}, Sequence: armsequence.LPC55Sxx{}},
			},
		}
	},
	"mimxrt1060": func() targetDesc {
		return targetDesc{
			name: "mimxrt1060",
			memoryMap: []targetdesc.MemoryRegion{
				{Name: "itcm", Kind: targetdesc.KindRam, Range: targetdesc.Range{Start: 0x0000_0000, End: 0x0002_0000}, Access: targetdesc.AccessRead | targetdesc.AccessWrite | targetdesc.AccessExecute, Cores: []string{"core0"}},
				{Name: "ocram", Kind: targetdesc.KindRam, Range: targetdesc.Range{Start: 0x2020_0000, End: 0x2023_0000}, Access: targetdesc.AccessRead | targetdesc.AccessWrite, Cores: []string{"core0"}},
			},
			cores: []dapsession.CoreConfig{
				{Name: "core0", AP: dap.MemoryAp{AP: dap.ApAddress{DP: 0, Index: 0}}, Sequence: armsequence.MIMXRT10xx{}},
			},
		}
	},
}

// resolveTarget builds a targetDesc for cfg.Target: a built-in entry if the
// name matches one, otherwise a single generic core (Default sequence)
// whose memory map comes entirely from --nvm-start/--nvm-end/--ram-start/
// --ram-end. In both cases the flash algorithm comes from
// loadAlgorithmFromFlags, which supplies one only when --algo-file is set.
func resolveTarget() (targetDesc, error) {
	if build, ok := builtinTargets[cfg.Target]; ok {
		td := build()
		algo, err := loadAlgorithmFromFlags()
		if err != nil {
			return targetDesc{}, err
		}
		if algo != nil {
			td.algorithms = append(td.algorithms, *algo)
		}
		return td, nil
	}

	var memoryMap []targetdesc.MemoryRegion
	if nvmStartFlag != "" {
		r, err := parseRangeFlags(nvmStartFlag, nvmEndFlag)
		if err != nil {
			return targetDesc{}, fmt.Errorf("--nvm-start/--nvm-end: %w", err)
		}
		memoryMap = append(memoryMap, targetdesc.MemoryRegion{Name: "nvm", Kind: targetdesc.KindNvm, Range: r, Access: targetdesc.AccessRead | targetdesc.AccessExecute, Cores: []string{cfg.Core}})
	}
	if ramStartFlag != "" {
		r, err := parseRangeFlags(ramStartFlag, ramEndFlag)
		if err != nil {
			return targetDesc{}, fmt.Errorf("--ram-start/--ram-end: %w", err)
		}
		memoryMap = append(memoryMap, targetdesc.MemoryRegion{Name: "ram", Kind: targetdesc.KindRam, Range: r, Access: targetdesc.AccessRead | targetdesc.AccessWrite | targetdesc.AccessExecute, Cores: []string{cfg.Core}})
	}

	td := targetDesc{
		name:      cfg.Target,
		memoryMap: memoryMap,
		cores: []dapsession.CoreConfig{
			{Name: cfg.Core, AP: dap.MemoryAp{AP: dap.ApAddress{DP: 0, Index: 0}}, Sequence: armsequence.Default{}},
		},
	}

	algo, err := loadAlgorithmFromFlags()
	if err != nil {
		return targetDesc{}, err
	}
	if algo != nil {
		td.algorithms = append(td.algorithms, *algo)
	}
	return td, nil
}

var (
	nvmStartFlag, nvmEndFlag string
	ramStartFlag, ramEndFlag string

	algoFileFlag                                       string
	algoLoadAddrFlag, algoStackPtrFlag                  string
	algoPageSizeFlag                                    uint32
	algoInitFlag, algoUninitFlag                        uint32
	algoEraseSectorFlag, algoEraseAllFlag               uint32
	algoProgramPageFlag                                 uint32
	algoChipEraseFlag, algoDoubleBufferFlag             bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&nvmStartFlag, "nvm-start", "", "custom target: NVM region start address (hex)")
	rootCmd.PersistentFlags().StringVar(&nvmEndFlag, "nvm-end", "", "custom target: NVM region end address (hex)")
	rootCmd.PersistentFlags().StringVar(&ramStartFlag, "ram-start", "", "custom target: RAM region start address (hex)")
	rootCmd.PersistentFlags().StringVar(&ramEndFlag, "ram-end", "", "custom target: RAM region end address (hex)")

	rootCmd.PersistentFlags().StringVar(&algoFileFlag, "algo-file", "", "flash algorithm code blob (CMSIS-style, raw binary)")
	rootCmd.PersistentFlags().StringVar(&algoLoadAddrFlag, "algo-load-address", "", "RAM address the algorithm is downloaded to (hex)")
	rootCmd.PersistentFlags().StringVar(&algoStackPtrFlag, "algo-stack-pointer", "", "initial SP for algorithm calls (hex)")
	rootCmd.PersistentFlags().Uint32Var(&algoPageSizeFlag, "algo-page-size", 0, "algorithm program-page size in bytes")
	rootCmd.PersistentFlags().Uint32Var(&algoInitFlag, "algo-init-offset", 0, "Init() entry offset from algo-load-address")
	rootCmd.PersistentFlags().Uint32Var(&algoUninitFlag, "algo-uninit-offset", 0, "UnInit() entry offset")
	rootCmd.PersistentFlags().Uint32Var(&algoEraseSectorFlag, "algo-erase-sector-offset", 0, "EraseSector() entry offset")
	rootCmd.PersistentFlags().Uint32Var(&algoEraseAllFlag, "algo-erase-all-offset", 0, "EraseAll() entry offset (0 if unsupported)")
	rootCmd.PersistentFlags().Uint32Var(&algoProgramPageFlag, "algo-program-page-offset", 0, "ProgramPage() entry offset")
	rootCmd.PersistentFlags().BoolVar(&algoChipEraseFlag, "algo-chip-erase", false, "algorithm supports EraseAll")
	rootCmd.PersistentFlags().BoolVar(&algoDoubleBufferFlag, "algo-double-buffer", false, "algorithm supports double buffering")
}

// loadAlgorithmFromFlags reads --algo-file and the accompanying metadata
// flags into a RawFlashAlgorithm, or returns nil if --algo-file was not
// given.
func loadAlgorithmFromFlags() (*targetdesc.RawFlashAlgorithm, error) {
	if algoFileFlag == "" {
		return nil, nil
	}

	code, err := os.ReadFile(algoFileFlag)
	if err != nil {
		return nil, fmt.Errorf("read --algo-file: %w", err)
	}

	loadAddr, err := parseHexAddress(algoLoadAddrFlag)
	if err != nil {
		return nil, fmt.Errorf("--algo-load-address: %w", err)
	}
	stackPtr, err := parseHexAddress(algoStackPtrFlag)
	if err != nil {
		return nil, fmt.Errorf("--algo-stack-pointer: %w", err)
	}

	return &targetdesc.RawFlashAlgorithm{
		Name:         algoFileFlag,
		Default:      true,
		AddressRange: targetdesc.Range{Start: 0, End: ^uint64(0)},
		Code:         code,
		LoadAddress:  loadAddr,
		StackPointer: stackPtr,
		PageSize:     algoPageSizeFlag,
		Functions: targetdesc.FlashFunctions{
			Init:        algoInitFlag,
			UnInit:      algoUninitFlag,
			EraseSector: algoEraseSectorFlag,
			EraseAll:    algoEraseAllFlag,
			ProgramPage: algoProgramPageFlag,
		},
		SupportsChipErase:       algoChipEraseFlag,
		SupportsDoubleBuffering: algoDoubleBufferFlag,
	}, nil
}

func parseRangeFlags(startHex, endHex string) (targetdesc.Range, error) {
	start, err := parseHexAddress(startHex)
	if err != nil {
		return targetdesc.Range{}, err
	}
	end, err := parseHexAddress(endHex)
	if err != nil {
		return targetdesc.Range{}, err
	}
	if end <= start {
		return targetdesc.Range{}, fmt.Errorf("end address must be greater than start address")
	}
	return targetdesc.Range{Start: start, End: end}, nil
}
