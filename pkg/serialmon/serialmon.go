// Package serialmon streams device output from a serial port.
//
// The monitor is pure I/O: it polls the port and forwards whatever the board
// prints, making no decisions about the content. Port auto-detection covers
// the common Arduino USB bridges so "sketchforge monitor" works without a
// --port flag on a single-board setup.
package serialmon

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// DefaultBaudRate matches the rate most generated sketches configure.
const DefaultBaudRate = 9600

// usbBridgeVIDs are USB vendor IDs of boards and serial bridges commonly
// found on Arduino-compatible hardware: official Arduino, CH340, CP210x,
// FTDI.
var usbBridgeVIDs = map[string]bool{
	"2341": true,
	"2A03": true,
	"1A86": true,
	"10C4": true,
	"0403": true,
}

// DetectPort returns the first serial port that looks like an attached
// Arduino-compatible board.
func DetectPort() (string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return "", fmt.Errorf("serialmon: enumerate ports: %w", err)
	}
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if usbBridgeVIDs[strings.ToUpper(p.VID)] || strings.Contains(strings.ToLower(p.Product), "arduino") {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("serialmon: no board-like serial port found")
}

// OpenPort opens the named port for reading at the given baud rate.
func OpenPort(name string, baudRate int) (io.ReadCloser, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baudRate})
	if err != nil {
		return nil, fmt.Errorf("serialmon: open %s: %w", name, err)
	}
	return port, nil
}

// Monitor forwards lines read from a port.
type Monitor struct {
	port io.ReadCloser
}

// New wraps an open port. The monitor owns the port and closes it when
// Stream returns.
func New(port io.ReadCloser) *Monitor {
	return &Monitor{port: port}
}

// Stream copies lines from the port to w until the context is cancelled or
// the port errors out. Cancellation closes the port to unblock the pending
// read.
func (m *Monitor) Stream(ctx context.Context, w io.Writer) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.port.Close()
		case <-done:
		}
	}()
	defer m.port.Close()

	scanner := bufio.NewScanner(m.port)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(w, scanner.Text()); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("serialmon: read: %w", err)
	}
	return nil
}
