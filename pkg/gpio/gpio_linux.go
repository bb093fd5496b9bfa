//go:build linux

// GPIO character device access through the v2 uAPI.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gpio

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const consumerLabel = "stroked-homing"

// chipLine is a Line backed by a requested gpiochip line (GPIO uAPI v2).
type chipLine struct {
	fd     int
	chip   string
	offset int
}

// Open requests the given line offset on a gpiochip character device
// (e.g. "/dev/gpiochip0") as a pulled-up input.
func Open(chip string, offset int) (Line, error) {
	f, err := os.OpenFile(chip, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("gpio: open %s: %w", chip, err)
	}
	defer f.Close()

	var req unix.GpioV2LineRequest
	req.Offsets[0] = uint32(offset)
	req.Num_lines = 1
	copy(req.Consumer[:], consumerLabel)
	req.Config.Flags = unix.GPIO_V2_LINE_FLAG_INPUT | unix.GPIO_V2_LINE_FLAG_BIAS_PULL_UP

	if err := ioctl(int(f.Fd()), unix.GPIO_V2_GET_LINE_IOCTL, unsafe.Pointer(&req)); err != nil {
		return nil, fmt.Errorf("gpio: request line %d on %s: %w", offset, chip, err)
	}

	return &chipLine{fd: int(req.Fd), chip: chip, offset: offset}, nil
}

// Read implements Line.
func (l *chipLine) Read() (bool, error) {
	if l.fd < 0 {
		return false, ErrLineClosed
	}

	values := unix.GpioV2LineValues{Mask: 1}
	if err := ioctl(l.fd, unix.GPIO_V2_LINE_GET_VALUES_IOCTL, unsafe.Pointer(&values)); err != nil {
		return false, fmt.Errorf("gpio: read line %d on %s: %w", l.offset, l.chip, err)
	}
	return values.Bits&1 == 1, nil
}

// Close implements Line.
func (l *chipLine) Close() error {
	if l.fd < 0 {
		return nil
	}
	err := unix.Close(l.fd)
	l.fd = -1
	return err
}

func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
