// SPDX-License-Identifier: MIT
package lexer

import (
	"github.com/sirupsen/logrus"
)

type (
	// Option defines the Lexer functional option type.
	Option func(*Lexer)
)

const (
	// DefaultCapacity is the number of Tokens a Sequence holds by default.
	DefaultCapacity = 10
)

// WithCapacity configures the Token capacity of Sequences created by the Lexer.
func WithCapacity(capacity int) Option {
	return func(l *Lexer) {
		if capacity > 0 {
			l.capacity = capacity
		}
	}
}

// WithDebug configures the debug option.
func WithDebug(debug bool) Option { return func(l *Lexer) { l.debug = debug } }

// WithLogger configures the logger option.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Lexer) {
		if logger != nil {
			l.logger = logger
		}
	}
}
