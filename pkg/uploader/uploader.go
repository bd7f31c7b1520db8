// Package uploader flashes a compiled sketch to a board, falling back across
// serial ports. This is a simple linear retry over the candidate ports, not a
// state machine: each port is tried at most once per call.
package uploader

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"go.bug.st/serial"

	"github.com/sketchforge/sketchforge/pkg/toolchain"
)

// PortLister enumerates candidate serial ports. The default implementation
// asks the OS; tests substitute a fixed list.
type PortLister func() ([]string, error)

// SystemPorts lists the serial ports the OS reports.
func SystemPorts() ([]string, error) {
	return serial.GetPortsList()
}

// Uploader drives toolchain uploads with port fallback.
type Uploader struct {
	toolchain toolchain.Toolchain
	ports     PortLister
	logger    *log.Logger
}

// New creates an uploader. A nil lister means SystemPorts.
func New(tc toolchain.Toolchain, ports PortLister, logger *log.Logger) *Uploader {
	if ports == nil {
		ports = SystemPorts
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Uploader{toolchain: tc, ports: ports, logger: logger}
}

// Upload flashes the sketch. The preferred port is tried first if given; on
// failure every other enumerated port is tried once, in order. Returns the
// port that succeeded.
func (u *Uploader) Upload(ctx context.Context, sketchPath, fqbn, preferred string) (string, error) {
	tried := make(map[string]bool)

	attempt := func(port string) bool {
		tried[port] = true
		u.logger.Info("uploading", "port", port, "fqbn", fqbn)
		ok, output := u.toolchain.Upload(ctx, sketchPath, fqbn, port)
		if !ok {
			u.logger.Warn("upload failed", "port", port)
			u.logger.Debug("upload output", "port", port, "output", output)
		}
		return ok
	}

	if preferred != "" && attempt(preferred) {
		return preferred, nil
	}

	ports, err := u.ports()
	if err != nil {
		return "", fmt.Errorf("uploader: list ports: %w", err)
	}
	for _, port := range ports {
		if tried[port] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if attempt(port) {
			return port, nil
		}
	}
	return "", fmt.Errorf("uploader: all upload attempts failed (%d ports tried)", len(tried))
}
