//go:build linux

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// uinput ioctls (linux/uinput.h)
const (
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetRelBit  = 0x40045566
	uiSetMscBit  = 0x40045568

	uinputMaxNameSize = 80
	absCnt            = 64
	busUSB            = 0x03
)

// uinputUserDev mirrors struct uinput_user_dev.
type uinputUserDev struct {
	Name         [uinputMaxNameSize]byte
	Bustype      uint16
	Vendor       uint16
	Product      uint16
	Version      uint16
	FFEffectsMax uint32
	Absmax       [absCnt]int32
	Absmin       [absCnt]int32
	Absfuzz      [absCnt]int32
	Absflat      [absCnt]int32
}

// uinputDevice is a virtual keyboard and mouse created through /dev/uinput.
type uinputDevice struct {
	mu  sync.Mutex
	f   *os.File
	buf bytes.Buffer
}

// openUinput creates the virtual device. path is normally /dev/uinput.
func openUinput(path, name string) (*uinputDevice, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	fd := int(f.Fd())

	fail := func(what string, err error) (*uinputDevice, error) {
		f.Close()
		return nil, fmt.Errorf("uinput %s: %w", what, err)
	}
	for _, ev := range []int{EV_KEY, EV_REL, EV_MSC, EV_SYN} {
		if err := unix.IoctlSetInt(fd, uiSetEvBit, ev); err != nil {
			return fail("set evbit", err)
		}
	}
	for _, code := range keyCodes {
		if code == 0 {
			continue
		}
		if err := unix.IoctlSetInt(fd, uiSetKeyBit, int(code)); err != nil {
			return fail("set keybit", err)
		}
	}
	for _, bc := range mouseButtonCodes {
		if err := unix.IoctlSetInt(fd, uiSetKeyBit, int(bc.code)); err != nil {
			return fail("set keybit", err)
		}
	}
	for _, rel := range []int{REL_X, REL_Y, REL_WHEEL} {
		if err := unix.IoctlSetInt(fd, uiSetRelBit, rel); err != nil {
			return fail("set relbit", err)
		}
	}
	if err := unix.IoctlSetInt(fd, uiSetMscBit, MSC_SCAN); err != nil {
		return fail("set mscbit", err)
	}

	var dev uinputUserDev
	copy(dev.Name[:uinputMaxNameSize-1], name)
	dev.Bustype = busUSB
	dev.Vendor = 0x1209
	dev.Product = 0x4b53
	dev.Version = 1
	if err := binary.Write(f, binary.LittleEndian, &dev); err != nil {
		return fail("write device", err)
	}
	if err := unix.IoctlSetInt(fd, uiDevCreate, 0); err != nil {
		return fail("create", err)
	}
	return &uinputDevice{f: f}, nil
}

func (d *uinputDevice) write(evs ...inputEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf.Reset()
	for _, ev := range evs {
		if err := binary.Write(&d.buf, binary.LittleEndian, ev); err != nil {
			return err
		}
	}
	_ = binary.Write(&d.buf, binary.LittleEndian, inputEvent{Type: EV_SYN, Code: SYN_REPORT})
	_, err := d.f.Write(d.buf.Bytes())
	return err
}

func (d *uinputDevice) Key(code uint16, down, scan bool) error {
	if code == 0 {
		return nil
	}
	value := int32(evValueRelease)
	if down {
		value = evValuePress
	}
	key := inputEvent{Type: EV_KEY, Code: code, Value: value}
	if scan {
		return d.write(inputEvent{Type: EV_MSC, Code: MSC_SCAN, Value: int32(code)}, key)
	}
	return d.write(key)
}

func (d *uinputDevice) Move(dx, dy int) error {
	return d.write(
		inputEvent{Type: EV_REL, Code: REL_X, Value: int32(dx)},
		inputEvent{Type: EV_REL, Code: REL_Y, Value: int32(dy)},
	)
}

func (d *uinputDevice) Wheel(clicks int) error {
	return d.write(inputEvent{Type: EV_REL, Code: REL_WHEEL, Value: int32(clicks)})
}

func (d *uinputDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = unix.IoctlSetInt(int(d.f.Fd()), uiDevDestroy, 0)
	return d.f.Close()
}

// newOutputDevice opens the platform output device.
func newOutputDevice(cfg OutputConfig) (outputDevice, error) {
	return openUinput(cfg.UinputPath, cfg.DeviceName)
}
