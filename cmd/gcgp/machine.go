// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"gitlab.com/fisherprime/gcgp"
	"gitlab.com/fisherprime/gcgp/protocol"
	"gitlab.com/fisherprime/gcgp/types"
)

type (
	// machine simulates a controller; moves complete instantly & jogs never linger.
	machine struct {
		m sync.Mutex

		state    machineState
		feedrate float64
		spindle  float64
		position [3]float64
		relative bool
		imperial bool

		settings *protocol.Settings
		logger   logrus.FieldLogger
	}

	machineState int
)

const (
	stateIdle machineState = iota
	stateHold
	stateSleep
)

const mmPerInch = 25.4

var stateNames = [...]string{"Idle", "Hold:0", "Sleep"}

func (s machineState) String() string { return stateNames[s] }

func newMachine(logger logrus.FieldLogger) *machine {
	settings := protocol.NewSettings()
	_ = settings.SetDescription(0, "step pulse, usec")
	_ = settings.SetDescription(1, "step idle delay, msec")
	_ = settings.SetValue(0, 10)
	_ = settings.SetValue(1, 25)

	return &machine{
		feedrate: math.NaN(),
		settings: settings,
		logger:   logger,
	}
}

// Host exposes the machine to a protocol Driver.
func (mc *machine) Host() protocol.Host {
	return protocol.Host{
		ProcessCommand: mc.process,
		CycleStart:     func() { mc.transition(stateHold, stateIdle) },
		FeedHold:       func() { mc.transition(stateIdle, stateHold) },
		SoftReset:      mc.reset,
		IsIdle:         func() bool { return mc.is(stateIdle) },
		IsInAlarmState: func() bool { return mc.is(stateSleep) },
		GetFeedrate:    mc.currentFeedrate,
		StatusReport:   mc.status,
		SystemReport:   mc.report,
	}
}

func (mc *machine) is(state machineState) bool {
	mc.m.Lock()
	defer mc.m.Unlock()

	return mc.state == state
}

func (mc *machine) transition(from, to machineState) {
	mc.m.Lock()
	defer mc.m.Unlock()

	if mc.state == from {
		mc.state = to
	}
}

func (mc *machine) reset() {
	mc.m.Lock()
	defer mc.m.Unlock()

	mc.state = stateIdle
	mc.logger.Info("soft reset")
}

func (mc *machine) currentFeedrate() float64 {
	mc.m.Lock()
	defer mc.m.Unlock()

	return mc.feedrate
}

func (mc *machine) status() string {
	mc.m.Lock()
	defer mc.m.Unlock()

	feedrate := mc.feedrate
	if math.IsNaN(feedrate) {
		feedrate = 0
	}

	return fmt.Sprintf("<%s|MPos:%.3f,%.3f,%.3f|FS:%.0f,%.0f>",
		mc.state, mc.position[0], mc.position[1], mc.position[2], feedrate, mc.spindle)
}

// process applies an accepted command.
func (mc *machine) process(cmd *gcgp.Command) {
	mc.m.Lock()
	defer mc.m.Unlock()

	mc.logger.WithField("command", cmd.String()).Debug("processing")

	if cmd.IsSystemCommand {
		mc.system(cmd)
		return
	}

	if cmd.HasFeedrate() {
		mc.feedrate = cmd.Feedrate
	}
	if !math.IsNaN(cmd.SpindleSpeed) {
		mc.spindle = cmd.SpindleSpeed
	}
	if cmd.Spindle == gcgp.SpindleStop {
		mc.spindle = 0
	}

	switch cmd.Units {
	case gcgp.UnitsMetric:
		mc.imperial = false
	case gcgp.UnitsImperial:
		mc.imperial = true
	}
	switch cmd.Distance {
	case gcgp.DistanceAbsolute:
		mc.relative = false
	case gcgp.DistanceRelative:
		mc.relative = true
	}

	if cmd.Motion != gcgp.MotionNone {
		mc.move(cmd)
	}

	if cmd.Stop == gcgp.StopEndProgram {
		mc.relative, mc.imperial = false, false
		mc.spindle = 0
	}
}

// report answers `$$` & `$<n>` with settings lines; unknown slots are rejected.
func (mc *machine) report(cmd *gcgp.Command) (lines []string, err error) {
	sys := cmd.System

	switch {
	case sys.Letter == '$':
		return mc.settings.Lines(), nil
	case sys.Letter == 0 && sys.HasValue():
		if sys.Index >= protocol.MaxSettings {
			err = fmt.Errorf("%w: $%d", types.ErrGrblSystemCmdNotRecognizedOrSupported, sys.Index)
		}
		return
	case sys.Letter == 0:
		line, lErr := mc.settings.Line(sys.Index)
		if lErr != nil {
			return nil, lErr
		}
		return []string{line}, nil
	}

	return
}

// system handles `$` commands; the caller holds the lock.
func (mc *machine) system(cmd *gcgp.Command) {
	sys := cmd.System

	switch sys.Letter {
	case 0:
		if !sys.HasValue() {
			return
		}
		if err := mc.settings.SetValue(sys.Index, sys.Value); err != nil {
			mc.logger.Warn(err)
		}
	case 'S':
		mc.state = stateSleep
	case 'J':
		// Jog blocks leave the modal state untouched.
		mc.move(cmd)
	default:
		mc.logger.Debugf("ignored system command %s", sys)
	}
}

// move applies X, Y & Z; the caller holds the lock.
func (mc *machine) move(cmd *gcgp.Command) {
	scale := 1.0
	if mc.imperial {
		scale = mmPerInch
	}

	relative := mc.relative
	switch cmd.Distance {
	case gcgp.DistanceRelative:
		relative = true
	case gcgp.DistanceAbsolute:
		relative = false
	}

	for axis, value := range [...]float64{cmd.X, cmd.Y, cmd.Z} {
		if math.IsNaN(value) {
			continue
		}
		if relative {
			mc.position[axis] += value * scale
			continue
		}
		mc.position[axis] = value * scale
	}
}
