// SPDX-License-Identifier: MIT
package protocol

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func drain(q *Queue) string {
	var b strings.Builder
	for {
		c, ok := q.Read()
		if !ok {
			return b.String()
		}
		b.WriteByte(c)
	}
}

func TestQueue_Push(t *testing.T) {
	q := NewQueue(4)

	for _, c := range []byte("abcd") {
		if !q.Push(c) {
			t.Fatalf("Queue.Push(%q) = false, want true", c)
		}
	}
	if q.Push('e') {
		t.Errorf("Queue.Push() on a full Queue = true, want false")
	}

	if c, ok := q.Peek(); !ok || c != 'a' {
		t.Errorf("Queue.Peek() = %q, %v, want 'a', true", c, ok)
	}
	if got := q.Available(); got != 4 {
		t.Errorf("Queue.Available() = %d, want 4", got)
	}

	// Wrap around the ring.
	q.Read()
	q.Read()
	q.Push('e')
	q.Push('f')

	if got := drain(q); got != "cdef" {
		t.Errorf("Queue.Read() = %q, want %q", got, "cdef")
	}
	if _, ok := q.Peek(); ok {
		t.Errorf("Queue.Peek() on an empty Queue = true, want false")
	}
}

func TestNewQueue(t *testing.T) {
	if got := NewQueue(0).Cap(); got != DefaultQueueSize {
		t.Errorf("NewQueue(0).Cap() = %d, want %d", got, DefaultQueueSize)
	}
}

func TestQueue_Write(t *testing.T) {
	q := NewQueue(4)
	input := "G1 X10 Y20\n"

	done := make(chan error, 1)
	go func() {
		_, err := q.Write([]byte(input))
		done <- err
	}()

	var b strings.Builder
	deadline := time.After(5 * time.Second)
	for b.Len() < len(input) {
		select {
		case <-deadline:
			t.Fatalf("Queue.Write() stalled after %q", b.String())
		case <-q.Readable():
			b.WriteString(drain(q))
		}
	}

	if err := <-done; err != nil {
		t.Errorf("Queue.Write() error = %v", err)
	}
	if got := b.String(); got != input {
		t.Errorf("Queue.Read() = %q, want %q", got, input)
	}
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue(2)

	done := make(chan error, 1)
	go func() {
		_, err := q.Write([]byte("abc"))
		done <- err
	}()

	// Let the writer fill the Queue.
	for q.Available() < 2 {
		time.Sleep(time.Millisecond)
	}
	q.Close()

	if err := <-done; !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Queue.Write() error = %v, want %v", err, ErrQueueClosed)
	}
	if !q.Closed() || q.Push('d') {
		t.Errorf("Queue accepts bytes after Close()")
	}
	if got := drain(q); got != "ab" {
		t.Errorf("Queue.Read() after Close() = %q, want %q", got, "ab")
	}
}

func TestQueue_WriteContext(t *testing.T) {
	q := NewQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	n, err := q.WriteContext(ctx, []byte("ab"))
	if n != 1 || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Queue.WriteContext() = %d, %v, want 1, %v", n, err, context.DeadlineExceeded)
	}
}

type failingReader struct{}

var errRead = errors.New("read failed")

func (failingReader) Read([]byte) (int, error) { return 0, errRead }

func TestQueue_Fill(t *testing.T) {
	type args struct {
		r io.Reader
	}

	tests := []struct {
		name    string
		args    args
		want    string
		wantErr error
	}{
		{name: "exhausted reader", args: args{strings.NewReader("G0 X1\nG0 Y1\n")}, want: "G0 X1\nG0 Y1\n"},
		{name: "failing reader", args: args{failingReader{}}, wantErr: errRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue(64)

			if err := q.Fill(context.Background(), tt.args.r); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Queue.Fill() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !q.Closed() {
				t.Errorf("Queue.Fill() left the Queue open")
			}
			if got := drain(q); got != tt.want {
				t.Errorf("Queue.Fill() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStreamTransport_Println(t *testing.T) {
	var out strings.Builder
	s := NewStreamTransport(NewQueue(1), &out)

	if err := s.Println([]byte("ok")); err != nil {
		t.Fatalf("StreamTransport.Println() error = %v", err)
	}
	if got := out.String(); got != "ok\r\n" {
		t.Errorf("StreamTransport.Println() wrote %q, want %q", got, "ok\r\n")
	}
}
