// SPDX-License-Identifier: MIT
package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"gitlab.com/fisherprime/gcgp/protocol"
	"gitlab.com/fisherprime/gcgp/types"
)

func feed(t *testing.T, mc *machine, input string) []string {
	t.Helper()

	in, out := protocol.NewQueue(1024), new(bytes.Buffer)
	d := protocol.NewDriver(protocol.NewStreamTransport(in, out), mc.Host())
	out.Reset()

	if _, err := in.Write([]byte(input)); err != nil {
		t.Fatalf("Queue.Write() error = %v", err)
	}
	d.Update()

	return strings.Split(strings.TrimSuffix(out.String(), "\r\n"), "\r\n")
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

func TestMachine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "absolute moves",
			input: "G1 Z-1 F300\nG0 X1 Y2\n?",
			want:  []string{"ok", "ok", "<Idle|MPos:1.000,2.000,-1.000|FS:300,0>"},
		},
		{
			name:  "relative imperial moves",
			input: "G20 G91\nG1 X1 F10\nG0 X1\n?",
			want:  []string{"ok", "ok", "ok", "<Idle|MPos:50.800,0.000,0.000|FS:10,0>"},
		},
		{
			name:  "feedrate required",
			input: "G1 X1\n",
			want:  []string{"error:" + types.ErrFeedRateHasNotYetBeenSetOrIsNone.Error()},
		},
		{
			name:  "feedrate required for rapids",
			input: "G0 X1\n?",
			want: []string{
				"error:" + types.ErrFeedRateHasNotYetBeenSetOrIsNone.Error(),
				"<Idle|MPos:0.000,0.000,0.000|FS:0,0>",
			},
		},
		{
			name:  "jog keeps modal state",
			input: "$J=G91 X2\n$J=G91 X2\nG1 Y1 F50\n?",
			want:  []string{"ok", "ok", "ok", "<Idle|MPos:4.000,1.000,0.000|FS:50,0>"},
		},
		{
			name:  "feed hold",
			input: "!?~?",
			want:  []string{"<Hold:0|MPos:0.000,0.000,0.000|FS:0,0>", "<Idle|MPos:0.000,0.000,0.000|FS:0,0>"},
		},
		{
			name:  "system commands only while idle",
			input: "!$$\n",
			want:  []string{"error:" + types.ErrGrblSystemCmdOnlyValidWhenIdle.Error()},
		},
		{
			name:  "sleep",
			input: "$SLP\nG0 X1 M3\n\x18?",
			want: []string{
				"ok", "error:" + types.ErrGCodeCommandsInvalidInAlarmOrJogState.Error(),
				protocol.DefaultWelcome, "<Idle|MPos:0.000,0.000,0.000|FS:0,0>",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feed(t, newMachine(quietLogger()), tt.input)
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("responses = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMachine_settings(t *testing.T) {
	listing := []string{"$0=10 (step pulse, usec)", "$1=25 (step idle delay, msec)"}
	for index := 2; index < protocol.MaxSettings; index++ {
		listing = append(listing, fmt.Sprintf("$%d=0", index))
	}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "list", input: "$$\n", want: append(listing, "ok")},
		{name: "read", input: "$1\n", want: []string{"$1=25 (step idle delay, msec)", "ok"}},
		{name: "write then read", input: "$13=0.5\n$13\n", want: []string{"ok", "$13=0.5", "ok"}},
		{
			name:  "read out of range",
			input: "$99\n",
			want:  []string{"error:" + types.ErrGrblSystemCmdNotRecognizedOrSupported.Error() + ": $99"},
		},
		{
			name:  "write out of range",
			input: "$99=1\n",
			want:  []string{"error:" + types.ErrGrblSystemCmdNotRecognizedOrSupported.Error() + ": $99"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feed(t, newMachine(quietLogger()), tt.input)
			if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("responses = %q, want %q", got, tt.want)
			}
		})
	}

	mc := newMachine(quietLogger())
	feed(t, mc, "$13=0.5\n")
	if got := mc.settings.Value(13); got != 0.5 {
		t.Errorf("$13 = %v, want 0.5", got)
	}
}

func TestReplInput(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"G0 X1", "G0 X1\n"},
		{" ? ", "?"},
		{"!", "!"},
		{"^X", "\x18"},
	}

	for _, tt := range tests {
		if got := string(replInput(tt.line)); got != tt.want {
			t.Errorf("replInput(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
