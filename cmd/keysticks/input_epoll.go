//go:build linux

package main

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// epollReader reads every bound device through one epoll instance. Poll
// never blocks: it waits with a zero timeout and drains each readable
// device until it would block, so the engine tick stays on schedule.
type epollReader struct {
	epfd    int
	devices map[int32]*inputDevice
	events  []unix.EpollEvent
	buf     []byte
}

func newDeviceReader() (deviceReader, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	return &epollReader{
		epfd:    epfd,
		devices: make(map[int32]*inputDevice),
		events:  make([]unix.EpollEvent, 32),
		buf:     make([]byte, 64*inputEventSize),
	}, nil
}

func (r *epollReader) Add(dev *inputDevice) error {
	event := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(dev.fd),
	}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, dev.fd, &event); err != nil {
		return fmt.Errorf("epoll_ctl_add %s: %w", dev.Path, err)
	}
	r.devices[int32(dev.fd)] = dev
	return nil
}

func (r *epollReader) Remove(dev *inputDevice) {
	_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, dev.fd, nil)
	delete(r.devices, int32(dev.fd))
}

func (r *epollReader) Poll() error {
	for {
		n, err := unix.EpollWait(r.epfd, r.events, 0)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			dev := r.devices[r.events[i].Fd]
			if dev == nil {
				continue
			}
			if r.events[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				r.disconnect(dev)
				continue
			}
			r.drain(dev)
		}
		// A full batch may leave more devices ready.
		if n < len(r.events) {
			return nil
		}
	}
}

func (r *epollReader) drain(dev *inputDevice) {
	for {
		n, err := unix.Read(dev.fd, r.buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				return
			}
			// ENODEV once the device is unplugged.
			r.disconnect(dev)
			return
		}
		if n <= 0 {
			return
		}
		for _, ev := range decodeInputEvents(r.buf[:n]) {
			dev.apply(ev)
		}
		if n < len(r.buf) {
			return
		}
	}
}

func (r *epollReader) disconnect(dev *inputDevice) {
	dev.connected = false
	r.Remove(dev)
}

func (r *epollReader) Close() error {
	return unix.Close(r.epfd)
}

// ----------------------------------------------------------------------------
// Device open
// ----------------------------------------------------------------------------

// inputAbsinfo mirrors struct input_absinfo.
type inputAbsinfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

const (
	iocRead      = 2
	evdevIOCType = 'E'
)

func evdevIOR(nr, size uintptr) uintptr {
	return iocRead<<30 | size<<16 | evdevIOCType<<8 | nr
}

// eviocgname is EVIOCGNAME(len).
func eviocgname(n int) uintptr { return evdevIOR(0x06, uintptr(n)) }

// eviocgabs is EVIOCGABS(abs).
func eviocgabs(abs uint16) uintptr {
	return evdevIOR(0x40+uintptr(abs), unsafe.Sizeof(inputAbsinfo{}))
}

// absAxes are the axes whose ranges are read at open.
var absAxes = []uint16{ABS_X, ABS_Y, ABS_Z, ABS_RX, ABS_RY, ABS_RZ, ABS_HAT0X, ABS_HAT0Y}

// openInputDevice opens an evdev device non-blocking and reads its name and
// axis ranges.
func openInputDevice(path string) (*inputDevice, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	name := make([]byte, 256)
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), eviocgname(len(name)), uintptr(unsafe.Pointer(&name[0]))); errno != 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("%s is not an input device: %w", path, errno)
	}

	ranges := make(map[uint16]axisRange)
	for _, abs := range absAxes {
		var info inputAbsinfo
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), eviocgabs(abs), uintptr(unsafe.Pointer(&info)))
		if errno == 0 && info.Maximum > info.Minimum {
			ranges[abs] = axisRange{Min: info.Minimum, Max: info.Maximum}
		}
	}

	return &inputDevice{
		Path:        path,
		Name:        unix.ByteSliceToString(name),
		fd:          fd,
		close:       func() error { return unix.Close(fd) },
		deviceState: newDeviceState(ranges),
	}, nil
}
