// SPDX-License-Identifier: MIT
package gcgp

// REF: http://www.linuxcnc.org/docs/2.4/html/gcode_overview.html#cap:Modal-Groups
//
// Every modal group has a zero "unset" member; at most one member may be written per block.

type (
	// MotionType is the motion modal group.
	MotionType int

	// DistanceMode is the distance modal group.
	DistanceMode int

	// LengthUnits is the units modal group.
	LengthUnits int

	// ArcPlaneMode is the plane selection modal group.
	ArcPlaneMode int

	// FeedrateMode is the feed rate modal group.
	FeedrateMode int

	// SpindleAction is the spindle turning modal group.
	SpindleAction int

	// CoolantAction is the coolant modal group.
	CoolantAction int

	// ReferencePositionAction selects a G28/G30 operation.
	ReferencePositionAction int

	// OffsetAction is derived from the L & P words of a G10 block.
	OffsetAction int

	// AxisOffsetAction selects a G92 operation.
	AxisOffsetAction int

	// StopAction is the stopping modal group.
	StopAction int
)

const (
	MotionNone   MotionType = iota
	MotionRapid             // G0
	MotionFeed              // G1
	MotionArcCW             // G2
	MotionArcCCW            // G3
)

const (
	DistanceNone     DistanceMode = iota
	DistanceAbsolute              // G90
	DistanceRelative              // G91
)

const (
	UnitsNone     LengthUnits = iota
	UnitsMetric               // G21
	UnitsImperial             // G20
)

const (
	PlaneNone ArcPlaneMode = iota
	PlaneXY                // G17
	PlaneXZ                // G18
	PlaneYZ                // G19
)

const (
	FeedrateNone               FeedrateMode = iota
	FeedrateInverseTime                     // G93
	FeedrateUnitsPerMinute                  // G94
	FeedrateUnitsPerRevolution              // G95, not implemented
)

const (
	SpindleNone             SpindleAction = iota
	SpindleClockwise                      // M3
	SpindleCounterClockwise               // M4
	SpindleStop                           // M5
)

const (
	CoolantNone  CoolantAction = iota
	CoolantMist                // M7
	CoolantFlood               // M8
	CoolantStop                // M9
)

const (
	ReferenceNone           ReferencePositionAction = iota
	ReferenceGoToPrimary                            // G28
	ReferenceSetPrimary                             // G28.1
	ReferenceGoToSecondary                          // G30
	ReferenceSetSecondary                           // G30.1
)

const (
	OffsetNone OffsetAction = iota
	// OffsetSetTool sets a tool offset to the given values (G10 L1).
	OffsetSetTool
	// OffsetSetToolToCurrentPosition computes the tool offset making the given values the current
	// position (G10 L10).
	OffsetSetToolToCurrentPosition
	// OffsetSetToolToCurrentPositionSkipOffset is OffsetSetToolToCurrentPosition ignoring the
	// G92 offset (G10 L11).
	OffsetSetToolToCurrentPositionSkipOffset
	// OffsetSetCoordinateSystem sets a coordinate system offset (G10 L2).
	OffsetSetCoordinateSystem
	// OffsetSetCoordinateSystemToCurrentPosition computes the coordinate system offset making the
	// given values the current position (G10 L20).
	OffsetSetCoordinateSystemToCurrentPosition
)

const (
	AxisOffsetNone  AxisOffsetAction = iota
	AxisOffsetSet                    // G92
	AxisOffsetClear                  // G92.1, G92.2, G92.3
)

const (
	StopNone         StopAction = iota
	StopPause                   // M0, not implemented
	StopOptionalStop            // M1, not implemented
	StopEndProgram              // M2, M30
)

var (
	motionNames     = [...]string{"none", "rapid", "feed", "arc-cw", "arc-ccw"}
	distanceNames   = [...]string{"none", "absolute", "relative"}
	unitsNames      = [...]string{"none", "metric", "imperial"}
	planeNames      = [...]string{"none", "XY", "XZ", "YZ"}
	feedrateNames   = [...]string{"none", "inverse-time", "units-per-minute", "units-per-revolution"}
	spindleNames    = [...]string{"none", "cw", "ccw", "stop"}
	coolantNames    = [...]string{"none", "mist", "flood", "stop"}
	referenceNames  = [...]string{"none", "go-to-primary", "set-primary", "go-to-secondary", "set-secondary"}
	offsetNames     = [...]string{"none", "set-tool", "set-tool-to-current", "set-tool-to-current-skip-offset", "set-coordinate-system", "set-coordinate-system-to-current"}
	axisOffsetNames = [...]string{"none", "set", "clear"}
	stopNames       = [...]string{"none", "pause", "optional-stop", "end-program"}
)

func name(names []string, index int) string {
	if index < 0 || index >= len(names) {
		return "invalid"
	}

	return names[index]
}

func (m MotionType) String() string              { return name(motionNames[:], int(m)) }
func (m DistanceMode) String() string            { return name(distanceNames[:], int(m)) }
func (m LengthUnits) String() string             { return name(unitsNames[:], int(m)) }
func (m ArcPlaneMode) String() string            { return name(planeNames[:], int(m)) }
func (m FeedrateMode) String() string            { return name(feedrateNames[:], int(m)) }
func (m SpindleAction) String() string           { return name(spindleNames[:], int(m)) }
func (m CoolantAction) String() string           { return name(coolantNames[:], int(m)) }
func (m ReferencePositionAction) String() string { return name(referenceNames[:], int(m)) }
func (m OffsetAction) String() string            { return name(offsetNames[:], int(m)) }
func (m AxisOffsetAction) String() string        { return name(axisOffsetNames[:], int(m)) }
func (m StopAction) String() string              { return name(stopNames[:], int(m)) }

// IsArc reports whether the motion is a G2/G3 arc.
func (m MotionType) IsArc() bool { return m == MotionArcCW || m == MotionArcCCW }
