package flash

import (
	"fmt"

	"github.com/daschewie/dapflash/internal/targetdesc"
)

// MapSource identifies the origin of a Loader's memory-map snapshot, used
// only for diagnostics (the "source" differs" warning in Commit step 2 and
// in NoSuitableNvmError).
type MapSource int

const (
	SourceBuiltin MapSource = iota
	SourceUser
)

func (s MapSource) String() string {
	if s == SourceUser {
		return "user-supplied"
	}
	return "built-in"
}

// Loader owns a snapshot of the target's declared memory map, a Builder
// accumulating ingested image data, and the map's diagnostic source tag.
type Loader struct {
	memoryMap []targetdesc.MemoryRegion
	builder   *Builder
	source    MapSource
}

// New constructs a Loader against a snapshot of memoryMap.
func New(memoryMap []targetdesc.MemoryRegion, source MapSource) *Loader {
	cp := make([]targetdesc.MemoryRegion, len(memoryMap))
	copy(cp, memoryMap)
	return &Loader{memoryMap: cp, builder: NewBuilder(), source: source}
}

// AddData is the single ingest path every file-format loader in
// internal/imagefmt funnels through.
func (l *Loader) AddData(addr uint64, data []byte) error {
	if err := targetdesc.CheckCoverage(l.memoryMap, targetdesc.Range{Start: addr, End: addr + uint64(len(data))}, l.source.String()); err != nil {
		return err
	}
	return l.builder.AddData(addr, data)
}

// Data exposes every ingested span in ascending address order.
func (l *Loader) Data() func(yield func(uint64, []byte) bool) {
	return l.builder.All()
}

// DownloadOptions configures Commit. All booleans default false; Progress
// defaults to a silent sink.
type DownloadOptions struct {
	Progress               Progress
	KeepUnwrittenBytes     bool
	DryRun                 bool
	DoChipErase            bool
	SkipErase              bool
	DisableDoubleBuffering bool
	Verify                 bool
}

func (o DownloadOptions) progress() Progress {
	if o.Progress == nil {
		return NilProgress{}
	}
	return o.Progress
}

type algoGroupKey struct {
	algoName string
	coreName string
}

type algoGroup struct {
	key     algoGroupKey
	regions []targetdesc.MemoryRegion
}

// Commit groups NVM regions by (algorithm, core), drives erase/program per
// group, writes RAM regions last, and optionally verifies every ingested
// byte by read-back.
func (l *Loader) Commit(session Session, makeFlasher FlasherFactory, opts DownloadOptions) error {
	progress := opts.progress()

	// Step 1: log pending spans and known algorithms for diagnosability.
	for addr, data := range l.builder.All() {
		progress.Log("pending data: 0x%X (%d bytes)", addr, len(data))
	}
	for _, algo := range session.Algorithms() {
		progress.Log("known flash algorithm: %s (default=%v)", algo.Name, algo.Default)
	}

	// Step 2: warn on memory-map drift.
	if !memoryMapsEqual(l.memoryMap, session.MemoryMap()) {
		progress.Warn("loader memory map (source=%s) differs from session target memory map", l.source)
	}

	groups, err := l.groupNvmRegions(session)
	if err != nil {
		return err
	}

	// Step 4: dry-run short-circuit.
	if opts.DryRun {
		progress.FailedFilling()
		progress.FailedErasing()
		progress.FailedProgramming()
		return nil
	}

	if err := l.programGroups(session, makeFlasher, groups, opts, progress); err != nil {
		return err
	}

	if err := l.writeRamRegions(session, progress); err != nil {
		return err
	}

	if opts.Verify {
		if err := l.verify(session); err != nil {
			return err
		}
	}

	return nil
}

// groupNvmRegions implements Commit step 3: iterate the memory map in
// declaration order; for each Nvm region intersecting builder data,
// resolve its algorithm using the region's first listed core, then append
// it to that (algorithm, core) group. Regions with no data are skipped
// before algorithm resolution.
func (l *Loader) groupNvmRegions(session Session) ([]*algoGroup, error) {
	var order []algoGroupKey
	byKey := make(map[algoGroupKey]*algoGroup)

	for _, region := range l.memoryMap {
		if region.Kind != targetdesc.KindNvm {
			continue
		}
		if !l.builder.HasDataInRange(region.Range) {
			continue
		}
		if len(region.Cores) == 0 {
			return nil, ErrNoNvmCoreAccess
		}

		algo, err := SelectAlgorithm(NvmRegion(region), session.Algorithms(), session.TargetName())
		if err != nil {
			return nil, err
		}

		key := algoGroupKey{algoName: algo.Name, coreName: region.OwningCore()}
		g, ok := byKey[key]
		if !ok {
			g = &algoGroup{key: key}
			byKey[key] = g
			order = append(order, key)
		}
		g.regions = append(g.regions, region)
	}

	groups := make([]*algoGroup, 0, len(order))
	for _, k := range order {
		groups = append(groups, byKey[k])
	}
	return groups, nil
}

// programGroups implements Commit step 5.
func (l *Loader) programGroups(session Session, makeFlasher FlasherFactory, groups []*algoGroup, opts DownloadOptions, progress Progress) error {
	for _, group := range groups {
		var algo targetdesc.RawFlashAlgorithm
		for _, a := range session.Algorithms() {
			if a.Name == group.key.algoName {
				algo = a
				break
			}
		}

		coreIndex, ok := session.CoreIndex(group.key.coreName)
		if !ok {
			return fmt.Errorf("flash: unknown core %q named by memory map", group.key.coreName)
		}

		flasher, err := makeFlasher(session, coreIndex, algo, progress)
		if err != nil {
			return err
		}

		effectiveChipErase := opts.DoChipErase && flasher.IsChipEraseSupported()
		if opts.DoChipErase && !effectiveChipErase {
			progress.Warn("target algorithm %q does not support chip erase; downgrading to sector erase", algo.Name)
		}
		effectiveDoubleBuffer := flasher.DoubleBufferingSupported() && !opts.DisableDoubleBuffering

		if effectiveChipErase {
			if err := flasher.RunEraseAll(); err != nil {
				return err
			}
		}

		for _, region := range group.regions {
			skipErase := opts.SkipErase || effectiveChipErase
			if err := flasher.Program(region, l.builder, opts.KeepUnwrittenBytes, effectiveDoubleBuffer, skipErase); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeRamRegions implements Commit step 6: NVM is written first because
// programming NVM requires RAM-resident algorithm code that would clobber
// any RAM payload written beforehand; RAM is written second because it is
// preserved from that point on.
func (l *Loader) writeRamRegions(session Session, progress Progress) error {
	for _, region := range l.memoryMap {
		if region.Kind != targetdesc.KindRam {
			continue
		}
		if len(region.Cores) == 0 {
			if l.builder.HasDataInRange(region.Range) {
				return ErrNoRamCoreAccess
			}
			continue
		}

		coreIndex, ok := session.CoreIndex(region.OwningCore())
		if !ok {
			continue
		}
		core, err := session.Core(coreIndex)
		if err != nil {
			return &CoreError{Op: "attach", Err: err}
		}

		for addr, data := range l.builder.DataInRange(region.Range) {
			if addr < region.Range.Start || addr+uint64(len(data)) > region.Range.End {
				continue
			}
			progress.Log("writing 0x%X (%d bytes) to ram region %q", addr, len(data), region.Name)
			if err := core.Write8(addr, data); err != nil {
				return &CoreError{Op: "write8", Err: err}
			}
		}
	}
	return nil
}

// verify implements Commit step 7: read back every ingested span through
// its containing region's owning core so cache/alias effects match the
// programming path, and compare byte-for-byte.
func (l *Loader) verify(session Session) error {
	for addr, data := range l.builder.All() {
		region, ok := targetdesc.RegionFor(l.memoryMap, addr)
		if !ok {
			return &NoFlashLoaderAlgorithmAttachedError{TargetName: session.TargetName()}
		}

		coreIndex, ok := session.CoreIndex(region.OwningCore())
		if !ok {
			return ErrNoNvmCoreAccess
		}
		core, err := session.Core(coreIndex)
		if err != nil {
			return &CoreError{Op: "attach", Err: err}
		}

		got := make([]byte, len(data))
		if err := core.Read(addr, got); err != nil {
			return &CoreError{Op: "read", Err: err}
		}
		for i := range data {
			if got[i] != data[i] {
				return fmt.Errorf("%w: at 0x%X expected 0x%02X got 0x%02X", ErrVerify, addr+uint64(i), data[i], got[i])
			}
		}
	}
	return nil
}

func memoryMapsEqual(a, b []targetdesc.MemoryRegion) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Range != b[i].Range || a[i].Kind != b[i].Kind {
			return false
		}
	}
	return true
}
