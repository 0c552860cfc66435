//go:build !linux && !darwin

// Package server provides network listener functionality
package server

import (
	"errors"
	"net"
)

// GetListener listens on addr. Socket activation is not available on this
// platform.
func GetListener(addr string, socketActivation bool) (net.Listener, error) {
	if socketActivation {
		return nil, errors.New("socket activation is not supported on this platform")
	}
	return net.Listen("tcp", addr)
}
