package util

import "testing"

func TestAttachMarkerLifecycle(t *testing.T) {
	t.Chdir(t.TempDir())

	if IsAttached() {
		t.Fatal("fresh temp dir must not already show an attach marker")
	}

	if err := SetAttachedMarker(); err != nil {
		t.Fatalf("SetAttachedMarker: %v", err)
	}
	if !IsAttached() {
		t.Fatal("expected IsAttached after SetAttachedMarker")
	}

	if err := ClearAttachedMarker(); err != nil {
		t.Fatalf("ClearAttachedMarker: %v", err)
	}
	if IsAttached() {
		t.Fatal("expected marker gone after ClearAttachedMarker")
	}

	if err := ClearAttachedMarker(); err != nil {
		t.Fatalf("ClearAttachedMarker on already-clear state should be a no-op: %v", err)
	}
}
