// Package hidusb supplements the CMSIS-DAP transport with direct hidraw
// access on Linux, for probes that never present a CDC-ACM serial endpoint
// (most USB CMSIS-DAP debuggers only expose a raw HID interface). This is
// new territory the teacher never needed — FoenixMgr only ever spoke to a
// Foenix board over a real or virtual serial port — grounded instead on
// golang.org/x/sys/unix's ioctl-wrapping idiom.
package hidusb

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// HIDIOCGRDESCSIZE/HIDIOCGRDESC are the Linux hidraw ioctls used to read a
// device's report descriptor, from <linux/hidraw.h>.
const (
	hidiocGRDescSize = 0x80044801
	hidiocGRDesc     = 0x90044802

	maxReportDescriptorSize = 4096
)

// reportDescriptor mirrors struct hidraw_report_descriptor.
type reportDescriptor struct {
	Size  uint32
	Value [maxReportDescriptorSize]byte
}

// Device is an open hidraw character device.
type Device struct {
	f *os.File
}

// Open opens a hidraw device node (e.g. /dev/hidraw0).
func Open(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("hidusb: open %s: %w", path, err)
	}
	return &Device{f: f}, nil
}

// Close releases the device node.
func (d *Device) Close() error { return d.f.Close() }

// ReportDescriptor reads the device's HID report descriptor, used to
// confirm a hidraw node is in fact a CMSIS-DAP interface before a Probe
// tries to speak the protocol to it.
func (d *Device) ReportDescriptor() ([]byte, error) {
	var size int32
	if err := ioctl(d.f.Fd(), hidiocGRDescSize, uintptr(unsafe.Pointer(&size))); err != nil {
		return nil, fmt.Errorf("hidusb: HIDIOCGRDESCSIZE: %w", err)
	}
	if size <= 0 || size > maxReportDescriptorSize {
		return nil, fmt.Errorf("hidusb: implausible report descriptor size %d", size)
	}

	var desc reportDescriptor
	desc.Size = uint32(size)
	if err := ioctl(d.f.Fd(), hidiocGRDesc, uintptr(unsafe.Pointer(&desc))); err != nil {
		return nil, fmt.Errorf("hidusb: HIDIOCGRDESC: %w", err)
	}

	return desc.Value[:desc.Size], nil
}

// Read/Write pass through to the underlying device node; a CMSIS-DAP HID
// report is one fixed-size read or write, same contract as cmsisdap.Probe
// expects from a serial.Port.
func (d *Device) Read(p []byte) (int, error)  { return d.f.Read(p) }
func (d *Device) Write(p []byte) (int, error) { return d.f.Write(p) }

func ioctl(fd uintptr, req uintptr, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}
