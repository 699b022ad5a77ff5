// SPDX-License-Identifier: MIT
package types

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestSafeCounter(t *testing.T) {
	var (
		c  SafeCounter
		wg sync.WaitGroup
	)

	for index := 0; index < 100; index++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc()
		}()
	}
	wg.Wait()
	c.Dec()

	if got := c.Value(); got != 99 {
		t.Errorf("SafeCounter.Value() = %d, want 99", got)
	}
}

func TestMonitorChannels(t *testing.T) {
	errFirst, errSecond := errors.New("first"), errors.New("second")

	type args struct {
		operations int
		report     func(done chan bool, errChan chan error)
	}

	tests := []struct {
		name     string
		args     args
		wantErrs []error
	}{
		{
			name: "all done",
			args: args{operations: 2, report: func(done chan bool, errChan chan error) {
				done <- true
				errChan <- nil
			}},
		},
		{
			name: "joined errors",
			args: args{operations: 3, report: func(done chan bool, errChan chan error) {
				errChan <- errFirst
				done <- true
				errChan <- errSecond
			}},
			wantErrs: []error{errFirst, errSecond},
		},
		{
			name:     "invalid count",
			args:     args{operations: 0, report: func(chan bool, chan error) {}},
			wantErrs: []error{ErrInvalidGoroutineCount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done, errChan := make(chan bool, 3), make(chan error, 3)
			tt.args.report(done, errChan)

			err := MonitorChannels(context.Background(), tt.args.operations, done, errChan, "operation")
			if len(tt.wantErrs) == 0 && err != nil {
				t.Fatalf("MonitorChannels() error = %v", err)
			}
			for _, want := range tt.wantErrs {
				if !errors.Is(err, want) {
					t.Errorf("MonitorChannels() error = %v, want %v", err, want)
				}
			}
		})
	}
}
