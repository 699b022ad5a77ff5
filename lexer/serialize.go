// SPDX-License-Identifier: MIT
package lexer

import (
	"strconv"
	"strings"
)

// valuePrecision is the number of decimals kept when rendering values.
const valuePrecision = 6

// FormatValue renders a word value the way it would be written in a block, trailing zeros
// trimmed.
func FormatValue(v float64) string {
	out := strconv.FormatFloat(v, 'f', valuePrecision, 64)
	out = strings.TrimRight(out, "0")
	out = strings.TrimSuffix(out, ".")

	if out == "-0" || out == "" {
		out = "0"
	}

	return out
}

// String renders the Sequence as a normalized line.
//
// Tokenizing the output yields an equivalent Sequence.
func (s *Sequence) String() string {
	var buffer strings.Builder

	if s.System.IsSet() {
		s.System.serialize(&buffer, s.n > 0)
	}

	for index, t := range s.Tokens() {
		if index > 0 {
			buffer.WriteByte(' ')
		}
		buffer.WriteByte(t.Letter)
		buffer.WriteString(FormatValue(t.Value))
	}

	return buffer.String()
}

// String renders the SystemCommand as a `$` line.
func (s SystemCommand) String() string {
	if !s.IsSet() {
		return ""
	}

	var buffer strings.Builder
	s.serialize(&buffer, false)

	return buffer.String()
}

// serialize performs the SystemCommand rendering grunt work.
func (s SystemCommand) serialize(buffer *strings.Builder, hasBlock bool) {
	buffer.WriteByte(systemCmdMarker)

	switch s.Letter {
	case 0:
	case 'S':
		buffer.WriteString("SLP")
	case 'R':
		buffer.WriteString("RST")
	default:
		buffer.WriteByte(s.Letter)
	}

	if s.Index >= 0 {
		buffer.WriteString(strconv.Itoa(s.Index))
	}

	switch {
	case s.ValueLetter != 0:
		buffer.WriteByte('=')
		buffer.WriteByte(s.ValueLetter)
	case s.HasValue():
		buffer.WriteByte('=')
		buffer.WriteString(FormatValue(s.Value))
	case hasBlock:
		buffer.WriteByte('=')
	}
}
