package util

import "os"

const attachLockName = ".dapflash.attached"

// IsAttached reports whether an attach-lock marker from a previous run is
// present, indicating a probe session may still hold the target halted.
func IsAttached() bool {
	_, err := os.Stat(attachLockName)
	return err == nil
}

// SetAttachedMarker records that a session has attached to the target.
func SetAttachedMarker() error {
	f, err := os.Create(attachLockName)
	if err != nil {
		return err
	}
	return f.Close()
}

// ClearAttachedMarker removes the attach-lock marker, run after a clean
// detach so IsAttached reports false for a later invocation.
func ClearAttachedMarker() error {
	if !IsAttached() {
		return nil
	}
	return os.Remove(attachLockName)
}
