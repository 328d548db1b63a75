//go:build !linux

package main

import "errors"

func newOutputDevice(cfg OutputConfig) (outputDevice, error) {
	return nil, errors.New("uinput output is only supported on linux")
}
