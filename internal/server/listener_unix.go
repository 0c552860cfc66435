//go:build linux || darwin

// Package server provides network listener functionality
package server

import (
	"errors"
	"net"
	"os"
	"strconv"
)

// sdListenFDsStart is the first descriptor systemd passes.
const sdListenFDsStart = 3

// ErrNoActivatedSocket is returned when socket activation was requested
// but systemd passed no listener for this process.
var ErrNoActivatedSocket = errors.New("socket activation requested but no valid LISTEN_FDS")

// GetListener returns the systemd-activated socket when socketActivation
// is set, otherwise it listens on addr.
func GetListener(addr string, socketActivation bool) (net.Listener, error) {
	if !socketActivation {
		return net.Listen("tcp", addr)
	}
	if os.Getenv("LISTEN_FDS") != "1" {
		return nil, ErrNoActivatedSocket
	}
	if pid, err := strconv.Atoi(os.Getenv("LISTEN_PID")); err != nil || pid != os.Getpid() {
		return nil, ErrNoActivatedSocket
	}
	f := os.NewFile(uintptr(sdListenFDsStart), "listener")
	if f == nil {
		return nil, ErrNoActivatedSocket
	}
	defer f.Close()
	return net.FileListener(f)
}
