// SPDX-License-Identifier: MIT
package lexer

import (
	"math"

	"gitlab.com/fisherprime/gcgp/types"
)

type (
	// Token is one `<Letter><Number>` word of a block.
	Token struct {
		Letter byte
		Value  float64
	}

	// SystemCommand describes a `$`-prefixed line.
	//
	// Unset fields hold 0 (letters), -1 (Index) or NaN (Value). `$SLP` & `$RST` are stored as
	// the letters 'S' & 'R', ValueLetter is only used by `$RST=$|#|*`.
	SystemCommand struct {
		Letter      byte
		Index       int
		Value       float64
		ValueLetter byte
	}

	// Sequence is a fixed-capacity list of Tokens and an optional SystemCommand.
	//
	// The backing array is allocated once; a Sequence never grows.
	Sequence struct {
		System SystemCommand

		tokens []Token
		n      int
	}
)

// NewSystemCommand instantiates an unset SystemCommand.
func NewSystemCommand() SystemCommand {
	return SystemCommand{Index: -1, Value: math.NaN()}
}

// IsSet reports whether the descriptor holds a system command.
func (s SystemCommand) IsSet() bool { return s.Letter != 0 || s.Index >= 0 }

// HasValue reports whether a numeric value was supplied after the `=`.
func (s SystemCommand) HasValue() bool { return !math.IsNaN(s.Value) }

// NewSequence instantiates a Sequence holding at most capacity Tokens.
func NewSequence(capacity int) *Sequence {
	if capacity < 1 {
		capacity = DefaultCapacity
	}

	return &Sequence{
		System: NewSystemCommand(),
		tokens: make([]Token, capacity),
	}
}

// Len is the number of valid Tokens.
func (s *Sequence) Len() int { return s.n }

// Cap is the maximum number of Tokens.
func (s *Sequence) Cap() int { return len(s.tokens) }

// Token retrieves the Token at index.
func (s *Sequence) Token(index int) Token { return s.tokens[index] }

// Tokens lists the valid Tokens; the slice aliases the Sequence's storage.
func (s *Sequence) Tokens() []Token { return s.tokens[:s.n] }

// IsSystemCommand reports whether the line was a `$` command.
func (s *Sequence) IsSystemCommand() bool { return s.System.IsSet() }

// Reset empties the Sequence.
func (s *Sequence) Reset() {
	for index := 0; index < s.n; index++ {
		s.tokens[index] = Token{}
	}
	s.n = 0
	s.System = NewSystemCommand()
}

// Append records a Token.
//
// Exceeding the capacity resets the Sequence, no partial result is kept.
func (s *Sequence) Append(t Token) error {
	if s.n >= len(s.tokens) {
		s.Reset()
		return types.ErrGCodeTooManyParameters
	}
	s.tokens[s.n] = t
	s.n++

	return nil
}

// full reports whether another Token would exceed the capacity.
func (s *Sequence) full() bool { return s.n >= len(s.tokens) }
