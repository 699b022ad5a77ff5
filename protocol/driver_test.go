// SPDX-License-Identifier: MIT
package protocol

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"gitlab.com/fisherprime/gcgp"
	"gitlab.com/fisherprime/gcgp/types"
)

// recorder counts Host calls.
type recorder struct {
	processed   []string
	cycleStarts int
	feedHolds   int
	softResets  int
}

func (r *recorder) host() Host {
	return Host{
		ProcessCommand: func(cmd *gcgp.Command) { r.processed = append(r.processed, cmd.String()) },
		CycleStart:     func() { r.cycleStarts++ },
		FeedHold:       func() { r.feedHolds++ },
		SoftReset:      func() { r.softResets++ },
	}
}

func newTestDriver(host Host, cfg *Config) (d *Driver, in *Queue, out *bytes.Buffer) {
	in, out = NewQueue(1024), new(bytes.Buffer)
	d = NewDriver(NewStreamTransport(in, out), host, WithConfig(cfg))

	return
}

// responses splits the output, dropping the welcome banner.
func responses(out *bytes.Buffer) []string {
	lines := strings.Split(out.String(), "\r\n")
	lines = lines[:len(lines)-1]
	if len(lines) > 0 && lines[0] == DefaultWelcome {
		lines = lines[1:]
	}

	return lines
}

func errorLine(err error) string { return errorPrefix + err.Error() }

func TestNewDriver(t *testing.T) {
	_, _, out := newTestDriver(Host{}, nil)

	if got, want := out.String(), DefaultWelcome+"\r\n"; got != want {
		t.Errorf("NewDriver() printed %q, want %q", got, want)
	}
}

func TestDriver_Update(t *testing.T) {
	type args struct {
		input string
		host  func(r *recorder) Host
	}

	nan := math.NaN()
	withHost := func(edit func(h *Host)) func(r *recorder) Host {
		return func(r *recorder) Host {
			h := r.host()
			edit(&h)
			return h
		}
	}

	tests := []struct {
		name          string
		args          args
		want          []string
		wantProcessed int
	}{
		{
			name:          "valid line",
			args:          args{input: "G1 X10 Y20.78 Z-30 F56000.0 S-.5\n"},
			want:          []string{okMessage},
			wantProcessed: 1,
		},
		{
			name: "invalid line",
			args: args{input: "G1\n"},
			want: []string{errorLine(types.ErrNoAxisWordsFoundInCommandBlock)},
		},
		{
			name: "lexer error",
			args: args{input: "g1\n"},
			want: []string{errorLine(types.ErrUnsupportedOrInvalidGCodeCommand)},
		},
		{
			name: "empty line",
			args: args{input: "\n\r\n"},
		},
		{
			name:          "blank line",
			args:          args{input: "   \n"},
			want:          []string{okMessage},
			wantProcessed: 1,
		},
		{
			name:          "several lines",
			args:          args{input: "G0 X1\r\nG1 X1 Y1\nG0 Y1\n"},
			want:          []string{okMessage, okMessage, okMessage},
			wantProcessed: 3,
		},
		{
			name:          "partial line",
			args:          args{input: "G0 X1\nG0 Y"},
			want:          []string{okMessage},
			wantProcessed: 1,
		},
		{
			name:          "unknown character",
			args:          args{input: "G0 X1\x01 Y2\nG0 X3\n"},
			want:          []string{errorPrefix + "Unknown character: 0x1", okMessage},
			wantProcessed: 1,
		},
		{
			name:          "line too long",
			args:          args{input: strings.Repeat("X", DefaultMaxLineLength) + "\nG0 X1\n"},
			want:          []string{errorPrefix + "Command too long (>80)", okMessage},
			wantProcessed: 1,
		},
		{
			name:          "longest line",
			args:          args{input: "G0 X1" + strings.Repeat(" ", DefaultMaxLineLength-6) + "\n"},
			want:          []string{okMessage},
			wantProcessed: 1,
		},
		{
			name:          "immediate command mid-line",
			args:          args{input: "G0 !X1\n"},
			want:          []string{okMessage},
			wantProcessed: 1,
		},
		{
			name:          "system command without idle hook",
			args:          args{input: "$$\n"},
			want:          []string{okMessage},
			wantProcessed: 1,
		},
		{
			name: "system command while busy",
			args: args{
				input: "$$\n",
				host:  withHost(func(h *Host) { h.IsIdle = func() bool { return false } }),
			},
			want: []string{errorLine(types.ErrGrblSystemCmdOnlyValidWhenIdle)},
		},
		{
			name: "G & M words in alarm state",
			args: args{
				input: "G0 X1 M3\n",
				host:  withHost(func(h *Host) { h.IsInAlarmState = func() bool { return true } }),
			},
			want: []string{errorLine(types.ErrGCodeCommandsInvalidInAlarmOrJogState)},
		},
		{
			name: "G & M words in jog state",
			args: args{
				input: "G0 X1 M3\nG0 X1\n",
				host:  withHost(func(h *Host) { h.IsInJogState = func() bool { return true } }),
			},
			want:          []string{errorLine(types.ErrGCodeCommandsInvalidInAlarmOrJogState), okMessage},
			wantProcessed: 1,
		},
		{
			name: "feed motion without feedrate",
			args: args{
				input: "G1 X1\n",
				host:  withHost(func(h *Host) { h.GetFeedrate = func() float64 { return nan } }),
			},
			want: []string{errorLine(types.ErrFeedRateHasNotYetBeenSetOrIsNone)},
		},
		{
			name: "feed motion with block feedrate",
			args: args{
				input: "G1 X1 F100\n",
				host:  withHost(func(h *Host) { h.GetFeedrate = func() float64 { return nan } }),
			},
			want:          []string{okMessage},
			wantProcessed: 1,
		},
		{
			name: "feed motion with current feedrate",
			args: args{
				input: "G1 X1\n",
				host:  withHost(func(h *Host) { h.GetFeedrate = func() float64 { return 100 } }),
			},
			want:          []string{okMessage},
			wantProcessed: 1,
		},
		{
			name: "rapid motion without feedrate",
			args: args{
				input: "G0 X1\n",
				host:  withHost(func(h *Host) { h.GetFeedrate = func() float64 { return nan } }),
			},
			want: []string{errorLine(types.ErrFeedRateHasNotYetBeenSetOrIsNone)},
		},
		{
			name: "rapid motion with block feedrate",
			args: args{
				input: "G0 X1 F500\n",
				host:  withHost(func(h *Host) { h.GetFeedrate = func() float64 { return nan } }),
			},
			want:          []string{okMessage},
			wantProcessed: 1,
		},
		{
			name: "modal change without feedrate",
			args: args{
				input: "G21 G90\n",
				host:  withHost(func(h *Host) { h.GetFeedrate = func() float64 { return nan } }),
			},
			want:          []string{okMessage},
			wantProcessed: 1,
		},
		{
			name: "status report",
			args: args{
				input: "?",
				host: withHost(func(h *Host) {
					h.StatusReport = func() string { return "<Idle|MPos:0.000,0.000,0.000|FS:0,0>" }
				}),
			},
			want: []string{"<Idle|MPos:0.000,0.000,0.000|FS:0,0>"},
		},
		{
			name: "system report precedes ok",
			args: args{
				input: "$$\n",
				host: withHost(func(h *Host) {
					h.SystemReport = func(*gcgp.Command) ([]string, error) { return []string{"$0=10", "$1=25"}, nil }
				}),
			},
			want:          []string{"$0=10", "$1=25", okMessage},
			wantProcessed: 1,
		},
		{
			name: "system report failure",
			args: args{
				input: "$99\n",
				host: withHost(func(h *Host) {
					h.SystemReport = func(*gcgp.Command) ([]string, error) {
						return nil, types.ErrGrblSystemCmdNotRecognizedOrSupported
					}
				}),
			},
			want: []string{errorLine(types.ErrGrblSystemCmdNotRecognizedOrSupported)},
		},
		{
			name: "system report only for system commands",
			args: args{
				input: "G21\n",
				host: withHost(func(h *Host) {
					h.SystemReport = func(*gcgp.Command) ([]string, error) { return []string{"$0=10"}, nil }
				}),
			},
			want:          []string{okMessage},
			wantProcessed: 1,
		},
		{
			name: "status report without hook",
			args: args{input: "?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := new(recorder)
			host := r.host()
			if tt.args.host != nil {
				host = tt.args.host(r)
			}

			d, in, out := newTestDriver(host, nil)
			if _, err := in.Write([]byte(tt.args.input)); err != nil {
				t.Fatalf("Queue.Write() error = %v", err)
			}
			d.Update()

			if got := responses(out); !reflect.DeepEqual(got, tt.want) && (len(got) > 0 || len(tt.want) > 0) {
				t.Errorf("Driver.Update() responses = %q, want %q", got, tt.want)
			}
			if len(r.processed) != tt.wantProcessed {
				t.Errorf("Driver.Update() processed %d commands (%q), want %d", len(r.processed), r.processed, tt.wantProcessed)
			}
		})
	}
}

func TestDriver_Update_immediateBypassesBackpressure(t *testing.T) {
	r := new(recorder)
	full := true

	host := r.host()
	host.BufferIsFull = func() bool { return full }

	d, in, out := newTestDriver(host, nil)
	in.Write([]byte("~G0 X1\n"))

	d.Update()
	if r.cycleStarts != 1 {
		t.Errorf("Driver.Update() cycle starts = %d, want 1", r.cycleStarts)
	}
	if got := in.Available(); got != len("G0 X1\n") {
		t.Errorf("Driver.Update() consumed line bytes under backpressure, %d remain", got)
	}
	if len(r.processed) != 0 {
		t.Errorf("Driver.Update() processed %d commands under backpressure", len(r.processed))
	}

	full = false
	d.Update()
	if got, want := responses(out), []string{okMessage}; !reflect.DeepEqual(got, want) {
		t.Errorf("Driver.Update() responses = %q, want %q", got, want)
	}
	if len(r.processed) != 1 {
		t.Errorf("Driver.Update() processed %d commands, want 1", len(r.processed))
	}
}

func TestDriver_Update_softReset(t *testing.T) {
	r := new(recorder)
	d, in, out := newTestDriver(r.host(), nil)
	out.Reset()

	in.Write([]byte("G0 X\x18G0 Y1\n"))
	d.Update()

	if r.softResets != 1 || r.cycleStarts != 0 {
		t.Errorf("Driver.Update() soft resets = %d, cycle starts = %d, want 1, 0", r.softResets, r.cycleStarts)
	}
	if got, want := out.String(), DefaultWelcome+"\r\nok\r\n"; got != want {
		t.Errorf("Driver.Update() printed %q, want %q", got, want)
	}
	if len(r.processed) != 1 || r.processed[0] != "motion=rapid Y=1" {
		t.Errorf("Driver.Update() processed %q, want [motion=rapid Y=1]", r.processed)
	}
}

func TestDriver_Update_discardAcrossCalls(t *testing.T) {
	r := new(recorder)
	d, in, out := newTestDriver(r.host(), nil)

	in.Write([]byte("G0\x7fX1"))
	d.Update()
	in.Write([]byte(" Y2\nG0 X3\n"))
	d.Update()

	want := []string{errorPrefix + "Unknown character: 0x7f", okMessage}
	if got := responses(out); !reflect.DeepEqual(got, want) {
		t.Errorf("Driver.Update() responses = %q, want %q", got, want)
	}
	if len(r.processed) != 1 || r.processed[0] != "motion=rapid X=3" {
		t.Errorf("Driver.Update() processed %q, want [motion=rapid X=3]", r.processed)
	}
}

func TestDriver_Update_feedHoldDuringDiscard(t *testing.T) {
	r := new(recorder)
	d, in, _ := newTestDriver(r.host(), nil)

	in.Write([]byte("\x01abc!def\n"))
	d.Update()

	if r.feedHolds != 1 {
		t.Errorf("Driver.Update() feed holds = %d, want 1", r.feedHolds)
	}
}

func TestDriver_numericErrors(t *testing.T) {
	d, in, out := newTestDriver(Host{}, &Config{NumericErrors: true, MaxLineLength: 8})

	in.Write([]byte("G1\n" + strings.Repeat("G", 8) + "\nM100\n"))
	d.Update()

	want := []string{"error:26", "error:11", "error:102"}
	if got := responses(out); !reflect.DeepEqual(got, want) {
		t.Errorf("Driver.Update() responses = %q, want %q", got, want)
	}
}

func TestDriver_customConfig(t *testing.T) {
	cfg := &Config{Welcome: "Grbl 1.1h ['$' for help]", MaxTokens: 2, Debug: true, Logger: logrus.New()}
	d, in, out := newTestDriver(Host{}, cfg)

	if cfg.MaxLineLength != DefaultMaxLineLength || cfg.PollInterval != DefaultPollInterval {
		t.Errorf("WithConfig() did not validate the Config: %+v", cfg)
	}

	in.Write([]byte("G0 X1 Y1\n"))
	d.Update()

	want := cfg.Welcome + "\r\n" + errorLine(types.ErrGCodeTooManyParameters) + "\r\n"
	if got := out.String(); got != want {
		t.Errorf("Driver.Update() printed %q, want %q", got, want)
	}
}

func TestDriver_Run(t *testing.T) {
	r := new(recorder)
	var full atomic.Bool
	full.Store(true)

	host := r.host()
	host.BufferIsFull = full.Load

	d, in, out := newTestDriver(host, &Config{PollInterval: time.Millisecond})

	go func() {
		in.Write([]byte("G0 X1\nG0 Y1\n"))
		time.Sleep(5 * time.Millisecond)
		full.Store(false)
		in.Write([]byte("G0 Z1\n"))
		in.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.Run(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("Driver.Run() error = %v, want %v", err, io.EOF)
	}

	want := []string{okMessage, okMessage, okMessage}
	if got := responses(out); !reflect.DeepEqual(got, want) {
		t.Errorf("Driver.Run() responses = %q, want %q", got, want)
	}
	if len(r.processed) != 3 {
		t.Errorf("Driver.Run() processed %d commands, want 3", len(r.processed))
	}
}

func TestDriver_Run_cancel(t *testing.T) {
	d, _, _ := newTestDriver(Host{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := d.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Driver.Run() error = %v, want %v", err, context.DeadlineExceeded)
	}
}

func BenchmarkDriver_Update(b *testing.B) {
	in := NewQueue(DefaultQueueSize)
	d := NewDriver(NewStreamTransport(in, io.Discard), Host{})
	line := []byte("G1 X10 Y20.78 Z-30 F56000.0 S-.5\n")

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		in.Write(line)
		d.Update()
	}
}
