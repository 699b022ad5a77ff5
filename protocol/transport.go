// SPDX-License-Identifier: MIT
package protocol

import (
	"io"
	"sync"
)

type (
	// Transport is the byte stream a [Driver] reads commands from & writes responses to.
	Transport interface {
		// Available is the number of bytes that can be read without blocking.
		Available() int

		// Peek & Read yield ok = false when no byte is available.
		Peek() (c byte, ok bool)
		Read() (c byte, ok bool)

		Write(p []byte) (n int, err error)

		// Println writes p followed by a line terminator.
		Println(p []byte) error
	}

	// Notifier is implemented by Transports able to signal incoming bytes.
	Notifier interface {
		Readable() <-chan struct{}
		Closed() bool
	}

	// StreamTransport reads from a [Queue] & writes to an io.Writer.
	StreamTransport struct {
		in *Queue

		m   sync.Mutex
		out io.Writer
	}
)

// lineTerminator as sent by Grbl.
var lineTerminator = []byte("\r\n")

// NewStreamTransport instantiates a [StreamTransport].
func NewStreamTransport(in *Queue, out io.Writer) *StreamTransport {
	return &StreamTransport{in: in, out: out}
}

// Input retrieves the [Queue] bytes are read from.
func (s *StreamTransport) Input() *Queue { return s.in }

func (s *StreamTransport) Available() int          { return s.in.Available() }
func (s *StreamTransport) Peek() (c byte, ok bool) { return s.in.Peek() }
func (s *StreamTransport) Read() (c byte, ok bool) { return s.in.Read() }

func (s *StreamTransport) Readable() <-chan struct{} { return s.in.Readable() }
func (s *StreamTransport) Closed() bool              { return s.in.Closed() }

// Write p to the output.
func (s *StreamTransport) Write(p []byte) (n int, err error) {
	s.m.Lock()
	defer s.m.Unlock()

	return s.out.Write(p)
}

// Println writes p & the line terminator as a single write.
func (s *StreamTransport) Println(p []byte) (err error) {
	line := make([]byte, 0, len(p)+len(lineTerminator))
	line = append(append(line, p...), lineTerminator...)

	_, err = s.Write(line)

	return
}
