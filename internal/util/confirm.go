// Package util carries the small interactive and bookkeeping helpers a CLI
// needs around the debug-probe core: operator confirmation prompts, a CRC32
// spot-check for verifying a programmed image, and an attach-lock marker.
package util

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Confirm prompts the operator for a y/n answer.
func Confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print(prompt)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// ConfirmDanger prompts for an explicit "yes" before an operation that
// cannot be undone, such as a full-chip erase.
func ConfirmDanger(operation string) bool {
	fmt.Printf("\nWARNING: %s\n", operation)
	fmt.Println("This operation cannot be undone.")
	fmt.Print("\nType 'yes' to confirm: ")

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes"
}
