// SPDX-License-Identifier: MIT
package protocol

import (
	"math"

	"gitlab.com/fisherprime/gcgp"
)

type (
	// Host is the machine a [Driver] reports to.
	//
	// Every hook is optional; a nil hook is skipped & its query treated permissively.
	Host struct {
		// BufferIsFull applies backpressure, no line bytes are consumed while it holds.
		BufferIsFull func() bool

		// ProcessCommand receives every accepted command.
		//
		// The Command is reused by the Driver; copy it to retain it past the call.
		ProcessCommand func(cmd *gcgp.Command)

		CycleStart func()
		FeedHold   func()
		SoftReset  func()

		IsIdle         func() bool
		IsInAlarmState func() bool
		IsInJogState   func() bool

		// GetFeedrate yields the current feed rate, NaN when undefined.
		GetFeedrate func() float64

		// StatusReport renders the response to `?`.
		StatusReport func() string

		// SystemReport renders the lines a `$` command answers with, printed before `ok`.
		//
		// An error rejects the command before ProcessCommand sees it.
		SystemReport func(cmd *gcgp.Command) ([]string, error)
	}
)

func (h *Host) bufferIsFull() bool { return h.BufferIsFull != nil && h.BufferIsFull() }

func (h *Host) isIdle() bool { return h.IsIdle == nil || h.IsIdle() }

func (h *Host) isInAlarmOrJogState() bool {
	return (h.IsInAlarmState != nil && h.IsInAlarmState()) ||
		(h.IsInJogState != nil && h.IsInJogState())
}

func (h *Host) feedrateDefined() bool {
	return h.GetFeedrate == nil || !math.IsNaN(h.GetFeedrate())
}

func (h *Host) processCommand(cmd *gcgp.Command) {
	if h.ProcessCommand != nil {
		h.ProcessCommand(cmd)
	}
}

func (h *Host) systemReport(cmd *gcgp.Command) ([]string, error) {
	if h.SystemReport == nil {
		return nil, nil
	}

	return h.SystemReport(cmd)
}

func call(hook func()) {
	if hook != nil {
		hook()
	}
}
