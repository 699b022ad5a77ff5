// SPDX-License-Identifier: MIT
package gcgp

import (
	"fmt"
	"math"
	"strings"

	"gitlab.com/fisherprime/gcgp/lexer"
)

type (
	// Command is the interpreted form of a block.
	//
	// Fields are declared in the order their actions must be executed. Unset floats hold NaN &
	// unset integers hold -1; modal fields use their zero member.
	Command struct {
		FeedrateMode FeedrateMode
		Feedrate     float64 // F
		SpindleSpeed float64 // S
		PrepareTool  bool    // T, prepare for a tool change
		ChangeTool   bool    // M6
		Spindle      SpindleAction
		Coolant      CoolantAction
		Dwell        bool // G4, requires P
		ArcPlane     ArcPlaneMode
		Units        LengthUnits
		Distance     DistanceMode
		Reference    ReferencePositionAction
		Offset       OffsetAction
		AxisOffset   AxisOffsetAction
		Motion       MotionType
		Stop         StopAction

		ToolNumber       int
		CoordinateSystem int
		DwellTime        float64

		X, Y, Z float64
		I, J, K float64

		// System holds the `$` descriptor of a system command.
		System lexer.SystemCommand

		IsGCode         bool
		IsMCode         bool
		IsSystemCommand bool
	}
)

// NewCommand instantiates an empty Command.
func NewCommand() *Command {
	c := new(Command)
	c.Reset()

	return c
}

// Reset returns every field to its unset value.
func (c *Command) Reset() {
	nan := math.NaN()

	*c = Command{
		Feedrate:         nan,
		SpindleSpeed:     nan,
		ToolNumber:       -1,
		CoordinateSystem: -1,
		DwellTime:        nan,
		X:                nan,
		Y:                nan,
		Z:                nan,
		I:                nan,
		J:                nan,
		K:                nan,
		System:           lexer.NewSystemCommand(),
	}
}

// HasAxisWords reports whether any of X, Y or Z was supplied.
func (c *Command) HasAxisWords() bool {
	return !math.IsNaN(c.X) || !math.IsNaN(c.Y) || !math.IsNaN(c.Z)
}

// HasOffsetWords reports whether any of I, J or K was supplied.
func (c *Command) HasOffsetWords() bool {
	return !math.IsNaN(c.I) || !math.IsNaN(c.J) || !math.IsNaN(c.K)
}

// HasFeedrate reports whether F was supplied.
func (c *Command) HasFeedrate() bool { return !math.IsNaN(c.Feedrate) }

// Equal compares Commands, treating NaN fields as equal.
func (c *Command) Equal(other *Command) bool {
	floats := [...][2]float64{
		{c.Feedrate, other.Feedrate},
		{c.SpindleSpeed, other.SpindleSpeed},
		{c.DwellTime, other.DwellTime},
		{c.X, other.X}, {c.Y, other.Y}, {c.Z, other.Z},
		{c.I, other.I}, {c.J, other.J}, {c.K, other.K},
		{c.System.Value, other.System.Value},
	}
	for _, pair := range floats {
		if !sameFloat(pair[0], pair[1]) {
			return false
		}
	}

	a, b := *c, *other
	a.Feedrate, a.SpindleSpeed, a.DwellTime, a.System.Value = 0, 0, 0, 0
	b.Feedrate, b.SpindleSpeed, b.DwellTime, b.System.Value = 0, 0, 0, 0
	a.X, a.Y, a.Z, a.I, a.J, a.K = 0, 0, 0, 0, 0, 0
	b.X, b.Y, b.Z, b.I, b.J, b.K = 0, 0, 0, 0, 0, 0

	return a == b
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}

	return a == b
}

// String lists the set fields in execution order.
func (c *Command) String() string {
	parts := make([]string, 0, 8)
	add := func(format string, args ...interface{}) { parts = append(parts, fmt.Sprintf(format, args...)) }
	addFloat := func(label string, v float64) {
		if !math.IsNaN(v) {
			add("%s=%s", label, lexer.FormatValue(v))
		}
	}

	if c.IsSystemCommand {
		add("system=%s", c.System)
	}
	if c.FeedrateMode != FeedrateNone {
		add("feedrate-mode=%s", c.FeedrateMode)
	}
	addFloat("feedrate", c.Feedrate)
	addFloat("spindle-speed", c.SpindleSpeed)
	if c.PrepareTool {
		add("prepare-tool")
	}
	if c.ChangeTool {
		add("change-tool")
	}
	if c.Spindle != SpindleNone {
		add("spindle=%s", c.Spindle)
	}
	if c.Coolant != CoolantNone {
		add("coolant=%s", c.Coolant)
	}
	if c.Dwell {
		add("dwell")
	}
	if c.ArcPlane != PlaneNone {
		add("plane=%s", c.ArcPlane)
	}
	if c.Units != UnitsNone {
		add("units=%s", c.Units)
	}
	if c.Distance != DistanceNone {
		add("distance=%s", c.Distance)
	}
	if c.Reference != ReferenceNone {
		add("reference=%s", c.Reference)
	}
	if c.Offset != OffsetNone {
		add("offset=%s", c.Offset)
	}
	if c.AxisOffset != AxisOffsetNone {
		add("axis-offset=%s", c.AxisOffset)
	}
	if c.Motion != MotionNone {
		add("motion=%s", c.Motion)
	}
	if c.Stop != StopNone {
		add("stop=%s", c.Stop)
	}
	if c.ToolNumber >= 0 {
		add("tool=%d", c.ToolNumber)
	}
	if c.CoordinateSystem >= 0 {
		add("coordinate-system=%d", c.CoordinateSystem)
	}
	addFloat("dwell-time", c.DwellTime)
	addFloat("X", c.X)
	addFloat("Y", c.Y)
	addFloat("Z", c.Z)
	addFloat("I", c.I)
	addFloat("J", c.J)
	addFloat("K", c.K)

	return strings.Join(parts, " ")
}
