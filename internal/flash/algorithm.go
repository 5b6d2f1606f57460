package flash

import "github.com/daschewie/dapflash/internal/targetdesc"

// NvmRegion is the Nvm case of targetdesc.MemoryRegion, projected out as
// the unit of algorithm grouping.
type NvmRegion targetdesc.MemoryRegion

// SelectAlgorithm picks the one algorithm that programs region, honoring
// the default tiebreak: filter to algorithms whose AddressRange fully
// contains region's range, then disambiguate by the Default flag.
func SelectAlgorithm(region NvmRegion, algos []targetdesc.RawFlashAlgorithm, targetName string) (targetdesc.RawFlashAlgorithm, error) {
	var candidates []targetdesc.RawFlashAlgorithm
	for _, algo := range algos {
		if algo.AddressRange.Start <= region.Range.Start && region.Range.End <= algo.AddressRange.End {
			candidates = append(candidates, algo)
		}
	}

	switch len(candidates) {
	case 0:
		return targetdesc.RawFlashAlgorithm{}, &NoFlashLoaderAlgorithmAttachedError{TargetName: targetName}
	case 1:
		return candidates[0], nil
	}

	var defaults []targetdesc.RawFlashAlgorithm
	for _, c := range candidates {
		if c.Default {
			defaults = append(defaults, c)
		}
	}
	switch len(defaults) {
	case 0:
		return targetdesc.RawFlashAlgorithm{}, &MultipleFlashLoaderAlgorithmsNoDefaultError{TargetName: targetName}
	case 1:
		return defaults[0], nil
	default:
		return targetdesc.RawFlashAlgorithm{}, &MultipleDefaultFlashLoaderAlgorithmsError{TargetName: targetName}
	}
}
