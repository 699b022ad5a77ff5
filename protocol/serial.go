// SPDX-License-Identifier: MIT
package protocol

import (
	"context"
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// Serial device errors.
var (
	ErrOpenSerial  = errors.New("failed to open serial port")
	ErrListSerial  = errors.New("failed to list serial ports")
	ErrInvalidBaud = errors.New("invalid baud rate")
)

// DefaultBaudRate is the Grbl 1.1 serial speed.
const DefaultBaudRate = 115200

// SerialPorts lists the serial devices present on the system.
func SerialPorts() (ports []string, err error) {
	if ports, err = serial.GetPortsList(); err != nil {
		err = fmt.Errorf("%w: %v", ErrListSerial, err)
	}

	return
}

// OpenSerial opens a serial device in 8N1 mode.
func OpenSerial(name string, baudRate int) (port serial.Port, err error) {
	if baudRate < 1 {
		err = fmt.Errorf("%w: %d", ErrInvalidBaud, baudRate)
		return
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if port, err = serial.Open(name, mode); err != nil {
		err = fmt.Errorf("%w (%s): %v", ErrOpenSerial, name, err)
	}

	return
}

// ServeSerial opens a serial device & runs a [Driver] over it until ctx ends.
func ServeSerial(ctx context.Context, name string, baudRate int, host Host, options ...Option) (err error) {
	port, err := OpenSerial(name, baudRate)
	if err != nil {
		return
	}

	// Closing the port unblocks a pending read on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		port.Close()
	}()

	return Serve(ctx, port, host, options...)
}
