// SPDX-License-Identifier: MIT
package protocol

import (
	"context"
	"errors"
	"io"
	"sync"
)

type (
	// Queue is a fixed-capacity byte ring buffer between a producer (a connection or device
	// reader) & a [Driver].
	//
	// Queue supports a single producer & a single consumer.
	Queue struct {
		m sync.Mutex

		buf        []byte
		head, size int
		closed     bool

		readable chan struct{}
		writable chan struct{}
	}
)

// Queue errors.
var (
	ErrQueueClosed = errors.New("queue closed")
)

const fillChunkSize = 64

// NewQueue instantiates a [Queue] holding at most capacity bytes.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultQueueSize
	}

	return &Queue{
		buf:      make([]byte, capacity),
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

// Cap is the maximum number of buffered bytes.
func (q *Queue) Cap() int { return len(q.buf) }

// Available is the number of buffered bytes.
func (q *Queue) Available() int {
	q.m.Lock()
	defer q.m.Unlock()

	return q.size
}

// Peek retrieves the next byte without consuming it.
func (q *Queue) Peek() (c byte, ok bool) {
	q.m.Lock()
	defer q.m.Unlock()

	if q.size == 0 {
		return
	}

	return q.buf[q.head], true
}

// Read consumes the next byte.
func (q *Queue) Read() (c byte, ok bool) {
	q.m.Lock()
	if q.size == 0 {
		q.m.Unlock()
		return
	}

	c, ok = q.buf[q.head], true
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	q.m.Unlock()

	notify(q.writable)

	return
}

// Push appends a byte if there is room.
func (q *Queue) Push(c byte) (ok bool) {
	q.m.Lock()
	if q.closed || q.size == len(q.buf) {
		q.m.Unlock()
		return
	}

	q.buf[(q.head+q.size)%len(q.buf)] = c
	q.size++
	q.m.Unlock()

	notify(q.readable)

	return true
}

// Write appends p, blocking while the Queue is full.
func (q *Queue) Write(p []byte) (n int, err error) {
	return q.WriteContext(context.Background(), p)
}

// WriteContext appends p, blocking while the Queue is full until ctx ends.
func (q *Queue) WriteContext(ctx context.Context, p []byte) (n int, err error) {
	for n < len(p) {
		q.m.Lock()
		if q.closed {
			q.m.Unlock()
			return n, ErrQueueClosed
		}
		written := q.put(p[n:])
		q.m.Unlock()

		if written > 0 {
			n += written
			notify(q.readable)

			continue
		}

		select {
		case <-ctx.Done():
			return n, ctx.Err()
		case <-q.writable:
		}
	}

	return
}

// put copies as much of p as fits, the caller holds the lock.
func (q *Queue) put(p []byte) (n int) {
	capacity := len(q.buf)
	for n < len(p) && q.size < capacity {
		q.buf[(q.head+q.size)%capacity] = p[n]
		q.size++
		n++
	}

	return
}

// Fill copies r into the Queue until r is exhausted, closing the Queue on return.
func (q *Queue) Fill(ctx context.Context, r io.Reader) (err error) {
	defer q.Close()

	chunk := make([]byte, fillChunkSize)
	for {
		if err = ctx.Err(); err != nil {
			return
		}

		n, rErr := r.Read(chunk)
		if n > 0 {
			if _, err = q.WriteContext(ctx, chunk[:n]); err != nil {
				return
			}
		}

		if rErr != nil {
			if !errors.Is(rErr, io.EOF) {
				err = rErr
			}
			return
		}
	}
}

// Close stops accepting bytes; buffered bytes remain readable.
func (q *Queue) Close() {
	q.m.Lock()
	q.closed = true
	q.m.Unlock()

	notify(q.readable)
	notify(q.writable)
}

// Closed reports whether [Queue.Close] was called.
func (q *Queue) Closed() bool {
	q.m.Lock()
	defer q.m.Unlock()

	return q.closed
}

// Readable is signalled when bytes are appended or the Queue is closed.
func (q *Queue) Readable() <-chan struct{} { return q.readable }

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
