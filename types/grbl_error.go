// SPDX-License-Identifier: MIT
package types

import "fmt"

type (
	// GrblError is a protocol status code.
	//
	// Codes 1-38 match the official Grbl 1.1 error codes, 100+ are lexer & interpreter conditions
	// and 200+ mark recognized features that are not implemented.
	GrblError int
)

// Official Grbl error codes.
const (
	ErrNone GrblError = iota

	ErrGCodeCommandLetterNotFound
	ErrGCodeCommandValueInvalidOrMissing
	ErrGrblSystemCmdNotRecognizedOrSupported
	ErrNegativeValueForAnExpectedPositiveValue
	ErrHomingFailHomingNotEnabledInSettings
	ErrMinStepPulseMustBeGreaterThan3usec
	ErrEEPROMReadFailedDefaultValuesUsed
	ErrGrblSystemCmdOnlyValidWhenIdle
	ErrGCodeCommandsInvalidInAlarmOrJogState
	ErrSoftLimitsRequireHomingToBeEnabled
	ErrMaxCharactersPerLineExceeded
	ErrGrblSystemCmdSettingExceedsTheMaximumStepRate
	ErrSafetyDoorOpenedAndDoorStateInitiated
	ErrBuildInfoOrStartUpLineEEPROMLineLength
	ErrJogTargetExceedsMachineTravelIgnored
	ErrJogCmdMissingOrHasProhibitedGCode
	ErrLaserModeRequiresPWMOutput
)

const (
	ErrUnsupportedOrInvalidGCodeCommand GrblError = iota + 20
	ErrMoreThanOneGCodeCommandInAModalGroupInBlock
	ErrFeedRateHasNotYetBeenSetOrIsNone
	ErrGCodeCommandRequiresAnIntegerValue
	ErrMoreThanOneGCodeCommandUsingAxisWordsFound
	ErrRepeatedGCodeWordFoundInBlock
	ErrNoAxisWordsFoundInCommandBlock
	ErrLineNumberValueIsInvalid
	ErrGCodeCmdMissingARequiredValueWord
	ErrG59xWCSAreNotSupported
	ErrG53OnlyValidWithG0AndG1MotionModes
	ErrUnneededAxisWordsFoundInBlock
	ErrG2G3ArcsNeedAtLeastOneInPlaneAxisWord
	ErrMotionCommandTargetIsInvalid
	ErrArcRadiusValueIsInvalid
	ErrG2G3ArcsNeedAtLeastOneInPlaneOffsetWord
	ErrUnusedValueWordsFoundInBlock
	ErrG431OffsetNotAssignedToToolLengthAxis
	ErrToolNumberGreaterThanMaxSupportedValue
)

// Lexer & interpreter codes.
const (
	ErrGCodeUnsupportedCommand GrblError = iota + 100
	ErrGCodeUnsupportedGCommand
	ErrGCodeUnsupportedMCommand
	ErrGCodeFloatingPointValueNotAllowed
	ErrGCodeNegativeValueNotAllowed
	ErrGCodeNegativeValueAndZeroNotAllowed
	ErrGCodeMultipleModalCommandsInOneBlock
	ErrGCodeDwellTimeMissing
	ErrGCodeDwellTimeInvalid
	ErrGCodeLonelyParameter
	ErrGCodeMultiplyDefinedParameters
	ErrGCodeTooManyParameters
	ErrGCodeG10MissingParameter
)

// Not yet implemented.
const (
	ErrFeatureNotYetImplemented GrblError = iota + 200
	ErrTurningFeaturesNotYetImplemented
)

var grblErrorText = map[GrblError]string{
	ErrNone: "",

	ErrGCodeCommandLetterNotFound:                    "GCode Command letter was not found.",
	ErrGCodeCommandValueInvalidOrMissing:             "GCode Command value invalid or missing.",
	ErrGrblSystemCmdNotRecognizedOrSupported:         "Grbl '$' not recognized or supported.",
	ErrNegativeValueForAnExpectedPositiveValue:       "Negative value for an expected positive value.",
	ErrHomingFailHomingNotEnabledInSettings:          "Homing fail. Homing not enabled in settings.",
	ErrMinStepPulseMustBeGreaterThan3usec:            "Min step pulse must be greater than 3usec.",
	ErrEEPROMReadFailedDefaultValuesUsed:             "EEPROM read failed. Default values used.",
	ErrGrblSystemCmdOnlyValidWhenIdle:                "Grbl '$' command Only valid when Idle.",
	ErrGCodeCommandsInvalidInAlarmOrJogState:         "GCode commands invalid in alarm or jog state.",
	ErrSoftLimitsRequireHomingToBeEnabled:            "Soft limits require homing to be enabled.",
	ErrMaxCharactersPerLineExceeded:                  "Max characters per line exceeded. Ignored.",
	ErrGrblSystemCmdSettingExceedsTheMaximumStepRate: "Grbl '$' setting exceeds the maximum step rate.",
	ErrSafetyDoorOpenedAndDoorStateInitiated:         "Safety door opened and door state initiated.",
	ErrBuildInfoOrStartUpLineEEPROMLineLength:        "Build info or start-up line > EEPROM line length",
	ErrJogTargetExceedsMachineTravelIgnored:          "Jog target exceeds machine travel, ignored.",
	ErrJogCmdMissingOrHasProhibitedGCode:             "Jog Cmd missing '=' or has prohibited GCode.",
	ErrLaserModeRequiresPWMOutput:                    "Laser mode requires PWM output.",

	ErrUnsupportedOrInvalidGCodeCommand:            "Unsupported or invalid GCode command.",
	ErrMoreThanOneGCodeCommandInAModalGroupInBlock: "> 1 GCode command in a modal group in block.",
	ErrFeedRateHasNotYetBeenSetOrIsNone:            "Feed rate has not yet been set or is undefined.",
	ErrGCodeCommandRequiresAnIntegerValue:          "GCode command requires an integer value.",
	ErrMoreThanOneGCodeCommandUsingAxisWordsFound:  "> 1 GCode command using axis words found.",
	ErrRepeatedGCodeWordFoundInBlock:               "Repeated GCode word found in block.",
	ErrNoAxisWordsFoundInCommandBlock:              "No axis words found in command block.",
	ErrLineNumberValueIsInvalid:                    "Line number value is invalid.",
	ErrGCodeCmdMissingARequiredValueWord:           "GCode Cmd missing a required value word.",
	ErrG59xWCSAreNotSupported:                      "G59.x WCS are not supported.",
	ErrG53OnlyValidWithG0AndG1MotionModes:          "G53 only valid with G0 and G1 motion modes.",
	ErrUnneededAxisWordsFoundInBlock:               "Unneeded Axis words found in block.",
	ErrG2G3ArcsNeedAtLeastOneInPlaneAxisWord:       "G2/G3 arcs need >= 1 in-plane axis word.",
	ErrMotionCommandTargetIsInvalid:                "Motion command target is invalid.",
	ErrArcRadiusValueIsInvalid:                     "Arc radius value is invalid.",
	ErrG2G3ArcsNeedAtLeastOneInPlaneOffsetWord:     "G2/G3 arcs need >= 1 in-plane offset word.",
	ErrUnusedValueWordsFoundInBlock:                "Unused value words found in block.",
	ErrG431OffsetNotAssignedToToolLengthAxis:       "G43.1 offset not assigned to tool length axis.",
	ErrToolNumberGreaterThanMaxSupportedValue:      "Tool number greater than max value.",

	ErrGCodeUnsupportedCommand:              "Unsupported command letter encountered.",
	ErrGCodeUnsupportedGCommand:             "Unsupported G-Code encountered.",
	ErrGCodeUnsupportedMCommand:             "Unsupported M-Code encountered.",
	ErrGCodeFloatingPointValueNotAllowed:    "Floating point value not allowed in this word.",
	ErrGCodeNegativeValueNotAllowed:         "This argument must be >= 0",
	ErrGCodeNegativeValueAndZeroNotAllowed:  "This argument must be > 0",
	ErrGCodeMultipleModalCommandsInOneBlock: "Multiple modal commands encountered in one block.",
	ErrGCodeDwellTimeMissing:                "Dwell command is missing dwell time.",
	ErrGCodeDwellTimeInvalid:                "Dwell command was supplied with invalid dwell time.",
	ErrGCodeLonelyParameter:                 "Command contains a lonely parameter.",
	ErrGCodeMultiplyDefinedParameters:       "Command contains multiply defined parameters.",
	ErrGCodeTooManyParameters:               "Command contains more parameters than supported.",
	ErrGCodeG10MissingParameter:             "Command contains G10 but not enough parameters for it.",

	ErrFeatureNotYetImplemented:         "Feature not yet implemented.",
	ErrTurningFeaturesNotYetImplemented: "Turning features are not yet implemented.",
}

// Code obtains the numeric protocol code.
func (e GrblError) Code() int { return int(e) }

// Known reports whether the code is part of the error table.
func (e GrblError) Known() (ok bool) {
	_, ok = grblErrorText[e]
	return
}

// Error is the error interface implementation for GrblError, yielding the wire message.
func (e GrblError) Error() string {
	if msg, ok := grblErrorText[e]; ok {
		return msg
	}

	return fmt.Sprintf("Invalid error enum (%d)", int(e))
}
