// SPDX-License-Identifier: MIT
package protocol

import (
	"time"

	"github.com/sirupsen/logrus"
)

type (
	// Config defines configuration options for the [Driver].
	Config struct {
		// Logger for [Driver] messages.
		//
		// Preferring a public field to allow for sharing.
		Logger logrus.FieldLogger
		Debug  bool

		// MaxLineLength is the capacity of the line buffer, a line reaching it is rejected.
		MaxLineLength int

		// MaxTokens is the capacity of the token sequence.
		MaxTokens int

		// Welcome is printed on start-up & after a soft reset.
		Welcome string

		// NumericErrors reports `error:<code>` instead of `error:<message>`.
		NumericErrors bool

		// PollInterval is the [Driver.Run] retry period while the host reports a full buffer.
		PollInterval time.Duration
	}
)

// Protocol defaults.
const (
	DefaultMaxLineLength = 80
	DefaultMaxTokens     = 10

	// DefaultQueueSize matches the Grbl serial RX buffer.
	DefaultQueueSize = 128

	DefaultPollInterval = 10 * time.Millisecond

	DefaultWelcome = "GCGP v0.1 - pretending to be Grbl 1.1h [$ help]"
)

// Immediate commands, dispatched ahead of line buffering.
const (
	CmdCycleStart   byte = '~'
	CmdFeedHold     byte = '!'
	CmdSoftReset    byte = 0x18
	CmdStatusReport byte = '?'
)

const (
	okMessage   = "ok"
	errorPrefix = "error:"
)

var fLogger logrus.FieldLogger = logrus.New()

// SetLogger configures a logrus.FieldLogger for the package's default [Config].
func SetLogger(l logrus.FieldLogger) { fLogger = l }

// DefConfig obtains the package's default [Driver] options.
func DefConfig() *Config {
	return &Config{
		Logger:        fLogger,
		MaxLineLength: DefaultMaxLineLength,
		MaxTokens:     DefaultMaxTokens,
		Welcome:       DefaultWelcome,
		PollInterval:  DefaultPollInterval,
	}
}

// Validate populates missing Config entries with defaults.
func (c *Config) Validate() {
	if c.Logger == nil {
		c.Logger = fLogger
	}
	if c.MaxLineLength < 1 {
		c.MaxLineLength = DefaultMaxLineLength
	}
	if c.MaxTokens < 1 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Welcome == "" {
		c.Welcome = DefaultWelcome
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
}
