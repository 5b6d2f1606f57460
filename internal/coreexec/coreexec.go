// Package coreexec holds the concrete on-target collaborators the flash
// loader drives: Flasher implementations that run a flash algorithm's
// erase/program routine over a live DAP session, and the Core adapter used
// for RAM writes and verify read-back. The interfaces they satisfy,
// flash.Flasher/flash.Core/flash.Session, are declared in internal/flash
// so that package stays free of a dependency back on this one.
package coreexec

import "github.com/daschewie/dapflash/internal/flash"

var (
	_ flash.Core    = (*Core)(nil)
	_ flash.Flasher = (*Flasher)(nil)
)
