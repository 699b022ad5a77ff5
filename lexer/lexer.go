// SPDX-License-Identifier: MIT
package lexer

// REF: https://github.com/gnea/grbl/wiki/Grbl-v1.1-Commands
// REF: https://linuxcnc.org/docs/html/gcode/overview.html

import (
	"github.com/sirupsen/logrus"

	"gitlab.com/fisherprime/gcgp/types"
)

type (
	// state identifies the scanner's position in a line.
	state int

	// stateFn consumes a single byte & returns the next state.
	stateFn func(*scanner, byte) state

	// Lexer converts lines of ASCII text into Sequences.
	//
	// A Lexer holds no per-line state & may be shared.
	Lexer struct {
		capacity int
		debug    bool
		logger   logrus.FieldLogger
	}

	// scanner holds the state of a single Tokenize call.
	scanner struct {
		seq  *Sequence
		line []byte
		pos  int
		err  error

		letter     byte
		num        float64
		place      float64
		negative   bool
		haveNumber bool
	}
)

const (
	stateStop state = iota
	stateExpectLetter
	stateExpectNumber
	stateExpectDecimals
	stateExpectSystemCmdLetter
	stateExpectSystemCmdIndex
	stateExpectSystemCmdEquals
	stateExpectSystemCmdValue
	stateExpectSystemCmdValueDecimals
)

const systemCmdMarker = '$'

var steps = [...]stateFn{
	stateExpectLetter:                 (*scanner).expectLetter,
	stateExpectNumber:                 (*scanner).expectNumber,
	stateExpectDecimals:               (*scanner).expectDecimals,
	stateExpectSystemCmdLetter:        (*scanner).expectSystemCmdLetter,
	stateExpectSystemCmdIndex:         (*scanner).expectSystemCmdIndex,
	stateExpectSystemCmdEquals:        (*scanner).expectSystemCmdEquals,
	stateExpectSystemCmdValue:         (*scanner).expectSystemCmdValue,
	stateExpectSystemCmdValueDecimals: (*scanner).expectSystemCmdValueDecimals,
}

// Lookup tables, cheaper than range comparisons in the hot path.
var (
	upperCase = func() (t [256]bool) {
		for c := 'A'; c <= 'Z'; c++ {
			t[c] = true
		}
		return
	}()

	digits = func() (t [256]bool) {
		for c := '0'; c <= '9'; c++ {
			t[c] = true
		}
		return
	}()

	resetTargets = [256]bool{
		'$': true,
		'#': true,
		'*': true,
	}
)

var defLexer = New()

// New creates a Lexer.
func New(opts ...Option) *Lexer {
	l := &Lexer{
		capacity: DefaultCapacity,
		logger:   logrus.New(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Tokenize lexes a line with the default Lexer into a new Sequence.
func Tokenize(line []byte) (seq *Sequence, err error) {
	seq = defLexer.NewSequence()
	err = defLexer.Tokenize(seq, line)

	return
}

// Capacity obtains the configured Token capacity.
func (l *Lexer) Capacity() int { return l.capacity }

// NewSequence instantiates a Sequence of the configured capacity.
func (l *Lexer) NewSequence() *Sequence { return NewSequence(l.capacity) }

// Tokenize lexes a line into dst.
//
// dst is reset first; on error it is left empty.
func (l *Lexer) Tokenize(dst *Sequence, line []byte) error {
	dst.Reset()

	s := scanner{seq: dst, line: line}
	st := stateExpectLetter
	for ; s.pos < len(line); s.pos++ {
		if st = steps[st](&s, line[s.pos]); st == stateStop {
			break
		}
	}
	if s.err == nil {
		s.finish(st)
	}

	if s.err != nil {
		dst.Reset()
		if l.debug {
			l.logger.Debugf("tokenize %q at %d: %v", line, s.pos, s.err)
		}

		return s.err
	}

	if l.debug {
		l.logger.Debugf("tokenized %q: %s", line, dst)
	}

	return nil
}

func (s *scanner) fail(err types.GrblError) state {
	s.err = err
	return stateStop
}

// startToken begins a `<Letter><Number>` word.
func (s *scanner) startToken(c byte) state {
	if s.seq.full() {
		return s.fail(types.ErrGCodeTooManyParameters)
	}

	s.letter = c
	s.beginNumber()

	return stateExpectNumber
}

func (s *scanner) beginNumber() {
	s.num, s.place = 0, 0.1
	s.negative, s.haveNumber = false, false
}

// closeToken records the word in progress.
func (s *scanner) closeToken() (ok bool) {
	if !s.haveNumber {
		s.fail(types.ErrGCodeCommandValueInvalidOrMissing)
		return
	}

	if err := s.seq.Append(Token{Letter: s.letter, Value: s.signed()}); err != nil {
		s.err = err
		return
	}

	return true
}

// signed applies the sign to the accumulated number, folding -0 into 0.
func (s *scanner) signed() float64 {
	if s.num == 0 {
		return 0
	}
	if s.negative {
		return -s.num
	}

	return s.num
}

// accumulate handles the digits & sign of a number, shared by tokens & system command values.
func (s *scanner) accumulate(c byte, decimals bool) (handled bool) {
	switch {
	case digits[c]:
		if decimals {
			s.num += float64(c-'0') * s.place
			s.place *= 0.1
		} else {
			s.num = s.num*10 + float64(c-'0')
		}
		s.haveNumber = true
	case c == '-':
		if decimals || s.haveNumber || s.negative {
			s.fail(types.ErrGCodeCommandValueInvalidOrMissing)
			return true
		}
		s.negative = true
	default:
		return false
	}

	return true
}

func (s *scanner) expectLetter(c byte) state {
	switch {
	case c == systemCmdMarker && s.seq.Len() == 0 && !s.seq.IsSystemCommand():
		return stateExpectSystemCmdLetter
	case upperCase[c]:
		return s.startToken(c)
	case c == ' ':
		return stateExpectLetter
	default:
		return s.fail(types.ErrUnsupportedOrInvalidGCodeCommand)
	}
}

func (s *scanner) expectNumber(c byte) state {
	if s.accumulate(c, false) {
		if s.err != nil {
			return stateStop
		}
		return stateExpectNumber
	}

	if c == '.' {
		return stateExpectDecimals
	}

	return s.endNumber(c)
}

func (s *scanner) expectDecimals(c byte) state {
	if s.accumulate(c, true) {
		if s.err != nil {
			return stateStop
		}
		return stateExpectDecimals
	}

	return s.endNumber(c)
}

// endNumber handles the byte terminating a word.
func (s *scanner) endNumber(c byte) state {
	switch {
	case upperCase[c]:
		if !s.closeToken() {
			return stateStop
		}
		return s.startToken(c)
	case c == ' ':
		if !s.closeToken() {
			return stateStop
		}
		return stateExpectLetter
	default:
		return s.fail(types.ErrUnsupportedOrInvalidGCodeCommand)
	}
}

// lookahead matches the bytes following the current position.
func (s *scanner) lookahead(want string) bool {
	end := s.pos + 1 + len(want)
	if end > len(s.line) {
		return false
	}

	return string(s.line[s.pos+1:end]) == want
}

func (s *scanner) expectSystemCmdLetter(c byte) state {
	sys := &s.seq.System

	switch {
	case c == 'S' || c == 'R':
		// `$SLP` & `$RST` are the only multi-letter system commands.
		suffix := "LP"
		if c == 'R' {
			suffix = "ST"
		}
		if !s.lookahead(suffix) {
			return s.fail(types.ErrUnsupportedOrInvalidGCodeCommand)
		}
		sys.Letter = c
		s.pos += len(suffix)

		return stateExpectSystemCmdEquals
	case upperCase[c] || c == '$' || c == '#':
		sys.Letter = c
		return stateExpectSystemCmdIndex
	case digits[c]:
		sys.Index = int(c - '0')
		return stateExpectSystemCmdIndex
	case c == ' ':
		return stateExpectSystemCmdLetter
	default:
		return s.fail(types.ErrUnsupportedOrInvalidGCodeCommand)
	}
}

func (s *scanner) expectSystemCmdIndex(c byte) state {
	sys := &s.seq.System

	switch {
	case digits[c]:
		if sys.Index < 0 {
			sys.Index = 0
		}
		sys.Index = sys.Index*10 + int(c-'0')

		return stateExpectSystemCmdIndex
	case c == '=':
		s.beginNumber()
		return stateExpectSystemCmdValue
	case c == ' ':
		return stateExpectSystemCmdEquals
	default:
		return s.fail(types.ErrUnsupportedOrInvalidGCodeCommand)
	}
}

func (s *scanner) expectSystemCmdEquals(c byte) state {
	switch c {
	case '=':
		s.beginNumber()
		return stateExpectSystemCmdValue
	case ' ':
		return stateExpectSystemCmdEquals
	default:
		return s.fail(types.ErrUnsupportedOrInvalidGCodeCommand)
	}
}

func (s *scanner) expectSystemCmdValue(c byte) state {
	sys := &s.seq.System
	pristine := !s.haveNumber && !s.negative && sys.ValueLetter == 0

	switch {
	case upperCase[c] && pristine:
		// `$N0=G1 X10`: the value is a block of G-code.
		return s.startToken(c)
	case c == ' ' && !s.haveNumber && !s.negative:
		return stateExpectSystemCmdValue
	case sys.Letter == 'R' && resetTargets[c] && pristine:
		sys.ValueLetter = c
		return stateExpectSystemCmdValue
	case sys.ValueLetter != 0:
		return s.fail(types.ErrUnsupportedOrInvalidGCodeCommand)
	case c == '.':
		return stateExpectSystemCmdValueDecimals
	case s.accumulate(c, false):
		if s.err != nil {
			return stateStop
		}
		return stateExpectSystemCmdValue
	default:
		return s.fail(types.ErrUnsupportedOrInvalidGCodeCommand)
	}
}

func (s *scanner) expectSystemCmdValueDecimals(c byte) state {
	if !s.accumulate(c, true) {
		return s.fail(types.ErrUnsupportedOrInvalidGCodeCommand)
	}
	if s.err != nil {
		return stateStop
	}

	return stateExpectSystemCmdValueDecimals
}

// finish validates the state the line ended in.
func (s *scanner) finish(st state) {
	switch st {
	case stateExpectNumber, stateExpectDecimals:
		s.closeToken()
	case stateExpectSystemCmdLetter:
		s.fail(types.ErrUnsupportedOrInvalidGCodeCommand)
	case stateExpectSystemCmdValue, stateExpectSystemCmdValueDecimals:
		sys := &s.seq.System
		switch {
		case sys.ValueLetter != 0:
		case s.haveNumber:
			sys.Value = s.signed()
		default:
			s.fail(types.ErrGCodeCommandValueInvalidOrMissing)
		}
	}
}
