// SPDX-License-Identifier: MIT
package protocol

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"gitlab.com/fisherprime/gcgp/lexer"
	"gitlab.com/fisherprime/gcgp/types"
)

type (
	// Settings is a fixed table of numbered `$<n>` values.
	Settings struct {
		m sync.RWMutex

		values       [MaxSettings]float64
		descriptions [MaxSettings]string
	}
)

const (
	// MaxSettings is the number of `$<n>` slots.
	MaxSettings = 16

	// MaxSettingDescriptionLength bounds a setting's description.
	MaxSettingDescriptionLength = 32
)

// NewSettings instantiates zeroed [Settings].
func NewSettings() *Settings { return new(Settings) }

// Value retrieves a setting, NaN when out of range.
func (s *Settings) Value(index int) float64 {
	if index < 0 || index >= MaxSettings {
		return math.NaN()
	}

	s.m.RLock()
	defer s.m.RUnlock()

	return s.values[index]
}

// Description retrieves a setting's description.
func (s *Settings) Description(index int) string {
	if index < 0 || index >= MaxSettings {
		return ""
	}

	s.m.RLock()
	defer s.m.RUnlock()

	return s.descriptions[index]
}

// SetValue writes a setting.
func (s *Settings) SetValue(index int, value float64) error {
	if index < 0 || index >= MaxSettings {
		return fmt.Errorf("%w: $%d", types.ErrGrblSystemCmdNotRecognizedOrSupported, index)
	}

	s.m.Lock()
	defer s.m.Unlock()
	s.values[index] = value

	return nil
}

// SetDescription describes a setting, truncating to MaxSettingDescriptionLength bytes.
func (s *Settings) SetDescription(index int, description string) error {
	if index < 0 || index >= MaxSettings {
		return fmt.Errorf("%w: $%d", types.ErrGrblSystemCmdNotRecognizedOrSupported, index)
	}
	if len(description) > MaxSettingDescriptionLength {
		description = description[:MaxSettingDescriptionLength]
	}

	s.m.Lock()
	defer s.m.Unlock()
	s.descriptions[index] = description

	return nil
}

// Line renders a single setting as `$<n>=<value> (<description>)`.
func (s *Settings) Line(index int) (line string, err error) {
	if index < 0 || index >= MaxSettings {
		return "", fmt.Errorf("%w: $%d", types.ErrGrblSystemCmdNotRecognizedOrSupported, index)
	}

	s.m.RLock()
	defer s.m.RUnlock()

	return s.line(index), nil
}

// Lines renders every setting, one per slot.
func (s *Settings) Lines() (lines []string) {
	s.m.RLock()
	defer s.m.RUnlock()

	lines = make([]string, 0, MaxSettings)
	for index := range s.values {
		lines = append(lines, s.line(index))
	}

	return
}

// line renders a slot; the caller holds the lock.
func (s *Settings) line(index int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "$%d=%s", index, lexer.FormatValue(s.values[index]))
	if s.descriptions[index] != "" {
		fmt.Fprintf(&b, " (%s)", s.descriptions[index])
	}

	return b.String()
}
