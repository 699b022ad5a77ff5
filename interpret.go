// SPDX-License-Identifier: MIT
package gcgp

// REF: https://linuxcnc.org/docs/html/gcode/g-code.html
// REF: https://github.com/gnea/grbl/blob/master/grbl/gcode.c

import (
	"math"

	"golang.org/x/exp/constraints"

	"gitlab.com/fisherprime/gcgp/lexer"
	"gitlab.com/fisherprime/gcgp/types"
)

type (
	// Interpreter assigns the words of a Sequence to the fields of a Command.
	//
	// An Interpreter holds no per-block state & may be shared.
	Interpreter struct {
		cfg *Config
	}

	// block holds the state of a single Interpret call.
	block struct {
		cmd *Command

		// G10 L & P words are only meaningful within the block.
		g10        bool
		g10L, g10P int
		hasL, hasP bool
	}
)

// codeTolerance bounds the distance between a G/M value & its nearest tenth.
const codeTolerance = 1e-4

// NewInterpreter instantiates an [Interpreter].
func NewInterpreter(options ...Option) *Interpreter {
	in := &Interpreter{cfg: DefConfig()}

	for _, opt := range options {
		opt(in)
	}

	return in
}

// Config retrieves the [Interpreter]'s Config.
func (in *Interpreter) Config() *Config { return in.cfg }

// Parse tokenizes & interprets a single line.
func Parse(line string) (cmd *Command, err error) {
	seq, err := lexer.Tokenize([]byte(line))
	if err != nil {
		return
	}

	cmd = NewCommand()
	if err = NewInterpreter().Interpret(seq, cmd); err != nil {
		cmd = nil
	}

	return
}

// Interpret processes the words of seq in order, populating cmd.
//
// Processing stops at the first violation; cmd is then reset so a partially populated Command
// never escapes.
func (in *Interpreter) Interpret(seq *lexer.Sequence, cmd *Command) (err error) {
	cmd.Reset()

	defer func() {
		if err != nil {
			cmd.Reset()
		}

		if in.cfg.Debug {
			if err != nil {
				in.cfg.Logger.Debugf("interpret (%s): %v", seq, err)
				return
			}
			in.cfg.Logger.Debugf("interpret (%s): %s", seq, cmd)
		}
	}()

	cmd.IsSystemCommand = seq.IsSystemCommand()
	cmd.System = seq.System

	b := block{cmd: cmd}
	for _, t := range seq.Tokens() {
		if err = b.word(t); err != nil {
			return
		}
	}

	return b.finalize()
}

// word assigns a single Token.
func (b *block) word(t lexer.Token) error {
	cmd := b.cmd

	switch t.Letter {
	case 'G':
		cmd.IsGCode = true
		return b.gCode(t.Value)
	case 'M':
		cmd.IsMCode = true
		return b.mCode(t.Value)
	case 'F':
		return setParam(&cmd.Feedrate, t.Value)
	case 'S':
		return setParam(&cmd.SpindleSpeed, t.Value)
	case 'X':
		return setParam(&cmd.X, t.Value)
	case 'Y':
		return setParam(&cmd.Y, t.Value)
	case 'Z':
		return setParam(&cmd.Z, t.Value)
	case 'I':
		return setParam(&cmd.I, t.Value)
	case 'J':
		return setParam(&cmd.J, t.Value)
	case 'K':
		return setParam(&cmd.K, t.Value)
	case 'T':
		if t.Value < 0 {
			return types.ErrGCodeNegativeValueNotAllowed
		}
		if err := setIndex(&cmd.ToolNumber, int(t.Value)); err != nil {
			return err
		}
		cmd.PrepareTool = true

		return nil
	case 'L':
		if !b.g10 {
			return types.ErrGCodeLonelyParameter
		}
		return setSubWord(&b.g10L, &b.hasL, t.Value)
	case 'P':
		switch {
		case b.g10:
			return setSubWord(&b.g10P, &b.hasP, t.Value)
		case cmd.Dwell:
			return setParam(&cmd.DwellTime, t.Value)
		default:
			return types.ErrGCodeLonelyParameter
		}
	default:
		return types.ErrGCodeUnsupportedCommand
	}
}

// gCode dispatches a G word on its value in tenths (G28.1 -> 281).
func (b *block) gCode(value float64) error {
	code, ok := tenths(value)
	if !ok {
		return types.ErrGCodeUnsupportedGCommand
	}

	cmd := b.cmd
	switch code {
	case 0:
		return setModal(&cmd.Motion, MotionRapid)
	case 10:
		return setModal(&cmd.Motion, MotionFeed)
	case 20:
		return setModal(&cmd.Motion, MotionArcCW)
	case 30:
		return setModal(&cmd.Motion, MotionArcCCW)
	case 40:
		return setModal(&cmd.Dwell, true)
	case 100:
		return setModal(&b.g10, true)
	case 170:
		return setModal(&cmd.ArcPlane, PlaneXY)
	case 180:
		return setModal(&cmd.ArcPlane, PlaneXZ)
	case 190:
		return setModal(&cmd.ArcPlane, PlaneYZ)
	case 200:
		return setModal(&cmd.Units, UnitsImperial)
	case 210:
		return setModal(&cmd.Units, UnitsMetric)
	case 280:
		return setModal(&cmd.Reference, ReferenceGoToPrimary)
	case 281:
		return setModal(&cmd.Reference, ReferenceSetPrimary)
	case 300:
		return setModal(&cmd.Reference, ReferenceGoToSecondary)
	case 301:
		return setModal(&cmd.Reference, ReferenceSetSecondary)
	case 540:
		// Only the default coordinate system exists; selecting it is a no-op.
		return nil
	case 900:
		return setModal(&cmd.Distance, DistanceAbsolute)
	case 910:
		return setModal(&cmd.Distance, DistanceRelative)
	case 920:
		return setModal(&cmd.AxisOffset, AxisOffsetSet)
	case 921, 922, 923:
		return setModal(&cmd.AxisOffset, AxisOffsetClear)
	case 930:
		return setModal(&cmd.FeedrateMode, FeedrateInverseTime)
	case 940:
		return setModal(&cmd.FeedrateMode, FeedrateUnitsPerMinute)
	case 950:
		return types.ErrTurningFeaturesNotYetImplemented
	default:
		return types.ErrGCodeUnsupportedGCommand
	}
}

// mCode dispatches an M word on its value in tenths.
func (b *block) mCode(value float64) error {
	code, ok := tenths(value)
	if !ok {
		return types.ErrGCodeUnsupportedMCommand
	}

	cmd := b.cmd
	switch code {
	case 0, 10:
		return types.ErrFeatureNotYetImplemented
	case 20, 300:
		return setModal(&cmd.Stop, StopEndProgram)
	case 30:
		return setModal(&cmd.Spindle, SpindleClockwise)
	case 40:
		return setModal(&cmd.Spindle, SpindleCounterClockwise)
	case 50:
		return setModal(&cmd.Spindle, SpindleStop)
	case 60:
		return setModal(&cmd.ChangeTool, true)
	case 70:
		return setModal(&cmd.Coolant, CoolantMist)
	case 80:
		return setModal(&cmd.Coolant, CoolantFlood)
	case 90:
		return setModal(&cmd.Coolant, CoolantStop)
	case 480, 490, 500, 510, 520, 530:
		return types.ErrFeatureNotYetImplemented
	default:
		return types.ErrGCodeUnsupportedMCommand
	}
}

// finalize cross-validates the words of the block.
func (b *block) finalize() error {
	cmd := b.cmd

	if b.g10 {
		if err := b.finalizeG10(); err != nil {
			return err
		}
	}

	axisWords, offsetWords := cmd.HasAxisWords(), cmd.HasOffsetWords()
	switch {
	case cmd.Motion != MotionNone && !axisWords:
		return types.ErrNoAxisWordsFoundInCommandBlock
	case cmd.Motion.IsArc() && !offsetWords:
		return types.ErrG2G3ArcsNeedAtLeastOneInPlaneAxisWord
	case cmd.AxisOffset == AxisOffsetSet && !axisWords:
		return types.ErrNoAxisWordsFoundInCommandBlock
	case axisWords && cmd.Motion == MotionNone && !b.consumesAxisWords():
		return types.ErrUnneededAxisWordsFoundInBlock
	case offsetWords && !cmd.Motion.IsArc():
		return types.ErrUnneededAxisWordsFoundInBlock
	}

	if cmd.Dwell {
		if math.IsNaN(cmd.DwellTime) {
			return types.ErrGCodeDwellTimeMissing
		}
		if cmd.DwellTime < 0 {
			return types.ErrGCodeDwellTimeInvalid
		}
	}

	return nil
}

// consumesAxisWords reports whether a non-motion command of the block takes X, Y & Z.
//
// A `$J=` jog block implies its own motion.
func (b *block) consumesAxisWords() bool {
	cmd := b.cmd

	return b.g10 || cmd.System.Letter == 'J' || cmd.AxisOffset == AxisOffsetSet ||
		cmd.Reference == ReferenceGoToPrimary || cmd.Reference == ReferenceGoToSecondary
}

// finalizeG10 derives the OffsetAction from the L & P words.
func (b *block) finalizeG10() error {
	if !b.hasP || !b.hasL {
		return types.ErrGCodeG10MissingParameter
	}
	if b.g10P < 0 {
		return types.ErrGCodeNegativeValueNotAllowed
	}
	if b.g10L <= 0 {
		return types.ErrGCodeNegativeValueAndZeroNotAllowed
	}

	cmd := b.cmd
	switch b.g10L {
	case 1:
		cmd.Offset = OffsetSetTool
	case 10:
		cmd.Offset = OffsetSetToolToCurrentPosition
	case 11:
		cmd.Offset = OffsetSetToolToCurrentPositionSkipOffset
	case 2:
		cmd.Offset = OffsetSetCoordinateSystem
		return setIndex(&cmd.CoordinateSystem, b.g10P)
	case 20:
		cmd.Offset = OffsetSetCoordinateSystemToCurrentPosition
		return setIndex(&cmd.CoordinateSystem, b.g10P)
	default:
		return types.ErrGCodeUnsupportedGCommand
	}

	return setIndex(&cmd.ToolNumber, b.g10P)
}

// tenths converts a G/M value to an integer code, rejecting values between tenths.
func tenths(value float64) (code int, ok bool) {
	scaled := value * 10
	rounded := math.Round(scaled)
	if math.Abs(scaled-rounded) > codeTolerance {
		return
	}

	return int(rounded), true
}

// integral converts a value to an integer, rejecting values off a whole number.
func integral(value float64) (whole int, ok bool) {
	rounded := math.Round(value)
	if math.Abs(value-rounded) > codeTolerance {
		return
	}

	return int(rounded), true
}

// setModal writes a modal field that must still hold its zero value.
func setModal[T comparable](dst *T, value T) error {
	var unset T
	if *dst != unset {
		return types.ErrGCodeMultipleModalCommandsInOneBlock
	}
	*dst = value

	return nil
}

// setParam writes a parameter that must still hold NaN.
func setParam[T constraints.Float](dst *T, value T) error {
	if !math.IsNaN(float64(*dst)) {
		return types.ErrGCodeMultiplyDefinedParameters
	}
	*dst = value

	return nil
}

// setIndex writes an integer parameter that must still hold -1.
func setIndex[T constraints.Signed](dst *T, value T) error {
	if *dst != -1 {
		return types.ErrGCodeMultiplyDefinedParameters
	}
	*dst = value

	return nil
}

// setSubWord records a G10 L/P word, which must be an integer.
func setSubWord(dst *int, seen *bool, value float64) error {
	if *seen {
		return types.ErrGCodeMultiplyDefinedParameters
	}

	whole, ok := integral(value)
	if !ok {
		return types.ErrGCodeCommandRequiresAnIntegerValue
	}
	*dst, *seen = whole, true

	return nil
}
