package cmd

import (
	"fmt"
	"time"

	"github.com/daschewie/dapflash/internal/dap"
	"github.com/daschewie/dapflash/internal/dap/transport/cmsisdap"
	"github.com/daschewie/dapflash/internal/dapsession"
	"github.com/daschewie/dapflash/internal/util"
)

// openSession opens the configured probe, resolves the target, and
// attaches. The returned close func disconnects the probe and clears the
// attach-lock marker; callers should always defer it.
func openSession() (*dapsession.Session, func(), error) {
	if err := validateConnectionFlags(); err != nil {
		return nil, nil, err
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	probe, err := cmsisdap.Open(cfg.Probe, timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open probe: %w", err)
	}

	closeFn := func() {
		_ = util.ClearAttachedMarker()
		_ = probe.Close()
	}

	td, err := resolveTarget()
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	session := dapsession.New(probe, td.name, td.memoryMap, td.algorithms, td.cores)

	if err := pulseHardwareReset(); err != nil {
		closeFn()
		return nil, nil, err
	}

	wasDown, err := session.Attach(dap.DpAddress(0), 0)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("attach failed: %w", err)
	}
	printInfo("attached to %s (debug port was %s)\n", td.name, attachState(wasDown))

	if err := util.SetAttachedMarker(); err != nil {
		printError("failed to record attach marker: %v", err)
	}

	return session, closeFn, nil
}

func attachState(wasDown bool) string {
	if wasDown {
		return "powered down, now activated"
	}
	return "already powered"
}
