//go:build !linux

package main

import "errors"

var errNoInputSupport = errors.New("evdev input is only supported on linux")

func newDeviceReader() (deviceReader, error) { return nil, errNoInputSupport }

func openInputDevice(path string) (*inputDevice, error) { return nil, errNoInputSupport }
