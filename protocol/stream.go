// SPDX-License-Identifier: MIT
package protocol

import (
	"context"
	"errors"
	"io"
)

// Serve runs a [Driver] over rw until rw is exhausted or ctx ends.
//
// Bytes read from rw are buffered in a [Queue] of DefaultQueueSize; responses are written to rw.
// A clean end of input returns nil.
func Serve(ctx context.Context, rw io.ReadWriter, host Host, options ...Option) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := NewQueue(DefaultQueueSize)
	d := NewDriver(NewStreamTransport(in, rw), host, options...)

	fillErr := make(chan error, 1)
	go func() { fillErr <- in.Fill(ctx, rw) }()

	if err = d.Run(ctx); errors.Is(err, io.EOF) {
		err = nil
	}

	// Fill has returned once the Queue is drained & closed; otherwise it is blocked on rw.
	select {
	case fErr := <-fillErr:
		if err == nil {
			err = fErr
		}
	default:
	}

	return
}
