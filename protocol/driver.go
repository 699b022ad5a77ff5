// SPDX-License-Identifier: MIT
package protocol

// REF: https://github.com/gnea/grbl/wiki/Grbl-v1.1-Interface

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"

	"gitlab.com/fisherprime/gcgp"
	"gitlab.com/fisherprime/gcgp/lexer"
	"gitlab.com/fisherprime/gcgp/types"
)

type (
	// Driver speaks the Grbl line protocol over a [Transport], handing accepted commands to a
	// [Host].
	//
	// A Driver is not safe for concurrent use; each stream requires its own Driver.
	Driver struct {
		cfg       *Config
		transport Transport
		host      Host

		lexer       *lexer.Lexer
		interpreter *gcgp.Interpreter
		seq         *lexer.Sequence
		cmd         *gcgp.Command

		// line is allocated once with a capacity of MaxLineLength.
		line []byte

		// discarding drops bytes until the next '\n'.
		discarding bool
	}

	// Option defines the Driver functional option type.
	Option func(*Driver)
)

// WithConfig configures the [Driver] [Config].
func WithConfig(cfg *Config) Option {
	return func(d *Driver) {
		if cfg == nil {
			return
		}
		cfg.Validate()
		d.cfg = cfg
	}
}

// NewDriver instantiates a [Driver] & prints the welcome banner.
func NewDriver(transport Transport, host Host, options ...Option) *Driver {
	d := &Driver{
		cfg:       DefConfig(),
		transport: transport,
		host:      host,
	}

	for _, opt := range options {
		opt(d)
	}

	cfg := d.cfg
	d.lexer = lexer.New(
		lexer.WithCapacity(cfg.MaxTokens),
		lexer.WithDebug(cfg.Debug),
		lexer.WithLogger(cfg.Logger),
	)
	d.interpreter = gcgp.NewInterpreter(gcgp.WithConfig(&gcgp.Config{Logger: cfg.Logger, Debug: cfg.Debug}))
	d.seq = d.lexer.NewSequence()
	d.cmd = gcgp.NewCommand()
	d.line = make([]byte, 0, cfg.MaxLineLength)

	d.println(cfg.Welcome)

	return d
}

// Config retrieves the [Driver]'s Config.
func (d *Driver) Config() *Config { return d.cfg }

// Reset drops any partially received line.
func (d *Driver) Reset() {
	d.line = d.line[:0]
	d.discarding = false
	d.seq.Reset()
	d.cmd.Reset()
}

// Update consumes the bytes currently available on the [Transport].
//
// A pending immediate command is dispatched even while the host reports a full buffer; line bytes
// are only consumed while it does not.
func (d *Driver) Update() {
	if c, ok := d.transport.Peek(); ok && isImmediate(c) {
		d.transport.Read()
		d.immediate(c)
	}

	for d.transport.Available() > 0 && !d.host.bufferIsFull() {
		c, ok := d.transport.Read()
		if !ok {
			return
		}
		d.consume(c)
	}
}

// Run calls [Driver.Update] as bytes arrive until ctx ends or the input is exhausted.
//
// Transports lacking a [Notifier] are polled every PollInterval; returns io.EOF once a closed
// input has been drained.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	notifier, _ := d.transport.(Notifier)
	for {
		d.Update()

		pending := d.transport.Available() > 0
		if notifier != nil && notifier.Closed() && !pending {
			return io.EOF
		}

		// Pending bytes are held back by the host, wait for the tick.
		var readable <-chan struct{}
		if notifier != nil && !pending {
			readable = notifier.Readable()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-readable:
		case <-ticker.C:
		}
	}
}

func isImmediate(c byte) bool {
	switch c {
	case CmdCycleStart, CmdFeedHold, CmdSoftReset, CmdStatusReport:
		return true
	}

	return false
}

func isPrintable(c byte) bool { return c >= 32 && c <= 126 }

// immediate dispatches a single-byte command.
func (d *Driver) immediate(c byte) {
	if d.cfg.Debug {
		d.cfg.Logger.Debugf("immediate command: 0x%x", c)
	}

	switch c {
	case CmdCycleStart:
		call(d.host.CycleStart)
	case CmdFeedHold:
		call(d.host.FeedHold)
	case CmdSoftReset:
		call(d.host.SoftReset)
		d.Reset()
		d.println(d.cfg.Welcome)
	case CmdStatusReport:
		if d.host.StatusReport != nil {
			d.println(d.host.StatusReport())
		}
	}
}

// consume classifies a single byte.
func (d *Driver) consume(c byte) {
	switch {
	case isImmediate(c):
		d.immediate(c)
	case d.discarding:
		if c == '\n' {
			d.discarding = false
		}
	case c == '\r':
	case c == '\n':
		d.finishCommand()
	case isPrintable(c):
		d.appendByte(c)
	default:
		d.printError(fmt.Sprintf("Unknown character: 0x%x", c))
		d.abandonLine()
	}
}

func (d *Driver) appendByte(c byte) {
	d.line = append(d.line, c)
	if len(d.line) < d.cfg.MaxLineLength {
		return
	}

	if d.cfg.NumericErrors {
		d.printError(strconv.Itoa(types.ErrMaxCharactersPerLineExceeded.Code()))
	} else {
		d.printError(fmt.Sprintf("Command too long (>%d)", d.cfg.MaxLineLength))
	}
	d.abandonLine()
}

// abandonLine resets the line buffer & drops the rest of the line.
func (d *Driver) abandonLine() {
	d.line = d.line[:0]
	d.discarding = true
}

func (d *Driver) finishCommand() {
	line := d.line
	d.line = d.line[:0]

	if len(line) == 0 {
		return
	}

	report, err := d.process(line)
	if err != nil {
		if d.cfg.Debug {
			d.cfg.Logger.Debugf("rejected %q: %v\n%s", line, err, spew.Sdump(d.seq.Tokens()))
		}
		d.reject(err)

		return
	}

	if d.cfg.Debug {
		d.cfg.Logger.Debugf("accepted %q: %s", line, spew.Sprint(d.cmd))
	}
	for _, message := range report {
		d.println(message)
	}
	d.host.processCommand(d.cmd)
	d.println(okMessage)
}

// process lexes, interprets & gates a line, collecting a system command's report.
func (d *Driver) process(line []byte) (report []string, err error) {
	if err = d.lexer.Tokenize(d.seq, line); err != nil {
		return
	}
	if err = d.interpreter.Interpret(d.seq, d.cmd); err != nil {
		return
	}
	if err = d.gate(d.cmd); err != nil {
		return
	}

	if d.cmd.IsSystemCommand {
		report, err = d.host.systemReport(d.cmd)
	}

	return
}

// gate checks the command against the host's state.
func (d *Driver) gate(cmd *gcgp.Command) error {
	if cmd.IsSystemCommand && !d.host.isIdle() {
		return types.ErrGrblSystemCmdOnlyValidWhenIdle
	}

	if cmd.IsGCode && cmd.IsMCode && d.host.isInAlarmOrJogState() {
		return types.ErrGCodeCommandsInvalidInAlarmOrJogState
	}

	if cmd.Motion != gcgp.MotionNone && !cmd.IsSystemCommand && !cmd.HasFeedrate() && !d.host.feedrateDefined() {
		return types.ErrFeedRateHasNotYetBeenSetOrIsNone
	}

	return nil
}

func (d *Driver) reject(err error) {
	var gErr types.GrblError
	if d.cfg.NumericErrors && errors.As(err, &gErr) {
		d.printError(strconv.Itoa(gErr.Code()))
		return
	}

	d.printError(err.Error())
}

func (d *Driver) printError(message string) {
	d.println(errorPrefix + message)
}

func (d *Driver) println(message string) {
	if err := d.transport.Println([]byte(message)); err != nil {
		d.cfg.Logger.Warnf("write %q: %v", message, err)
	}
}
