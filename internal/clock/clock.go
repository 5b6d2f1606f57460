// Package clock wraps wall-clock waits so that silicon handshake timing
// stays real sleeps, never busy-spins, and deadline polling stays uniform
// across vendor debug sequences.
package clock

import "time"

// Sleep blocks for d. Vendor sequences call this directly instead of
// time.Sleep so that every timed wait in the debug-sequence packages is
// visibly a real wall-clock wait and not a scheduling hint.
func Sleep(d time.Duration) {
	time.Sleep(d)
}

// Poll calls cond repeatedly until it returns true or deadline elapses.
// It sleeps interval between attempts and always checks cond once more
// after the deadline before giving up, so a cond that becomes true exactly
// at the deadline is not missed.
func Poll(deadline, interval time.Duration, cond func() (bool, error)) error {
	start := time.Now()
	for {
		ok, err := cond()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Since(start) >= deadline {
			return ErrTimeout
		}
		Sleep(interval)
	}
}
