// dapflash - command-line tool for programming ARM Cortex-M targets
// through a CMSIS-DAP probe.
package main

import (
	"fmt"
	"os"

	"github.com/daschewie/dapflash/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
