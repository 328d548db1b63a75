package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02
	EV_ABS = 0x03
	EV_MSC = 0x04

	SYN_REPORT = 0
	MSC_SCAN   = 0x04

	REL_X     = 0x00
	REL_Y     = 0x01
	REL_WHEEL = 0x08

	ABS_X     = 0x00
	ABS_Y     = 0x01
	ABS_Z     = 0x02
	ABS_RX    = 0x03
	ABS_RY    = 0x04
	ABS_RZ    = 0x05
	ABS_HAT0X = 0x10
	ABS_HAT0Y = 0x11

	BTN_LEFT   = 0x110
	BTN_RIGHT  = 0x111
	BTN_MIDDLE = 0x112
	BTN_SIDE   = 0x113
	BTN_EXTRA  = 0x114

	BTN_SOUTH  = 0x130
	BTN_EAST   = 0x131
	BTN_NORTH  = 0x133
	BTN_WEST   = 0x134
	BTN_TL     = 0x136
	BTN_TR     = 0x137
	BTN_TL2    = 0x138
	BTN_TR2    = 0x139
	BTN_SELECT = 0x13a
	BTN_START  = 0x13b
	BTN_MODE   = 0x13c
	BTN_THUMBL = 0x13d
	BTN_THUMBR = 0x13e

	BTN_DPAD_UP    = 0x220
	BTN_DPAD_DOWN  = 0x221
	BTN_DPAD_LEFT  = 0x222
	BTN_DPAD_RIGHT = 0x223
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// State vector special IDs
const (
	NoneID     = 0
	DefaultID  = -1
	PreviousID = -2
	NextID     = -3
)

// Grid cell IDs
const (
	ActionStripMaxCells        = 16
	ActionStripDefaultNumCells = 10

	TopLeftCellID      = 100
	TopCentreCellID    = 101
	TopRightCellID     = 102
	CentreLeftCellID   = 103
	CentreCellID       = 104
	CentreRightCellID  = 105
	BottomLeftCellID   = 106
	BottomCentreCellID = 107
	BottomRightCellID  = 108
)

// Engine defaults
const (
	eventChannelCapacity = 1000
	eventChannelDropOnce = 500

	defaultInputPollingIntervalMS      = 20
	minInputPollingIntervalMS          = 10
	defaultUIPollingIntervalMS         = 50
	defaultPredictionPollingIntervalMS = 250
	systemPollingIntervalMS            = 500

	defaultHoldTimeMS           = 500
	defaultAutoRepeatIntervalMS = 330
	defaultDirectionMode        = DirModeEightWay
	defaultWaitTimeMS           = 1000

	defaultKeyStrokeLengthMS   = 100
	defaultMouseClickLengthMS  = 100
	defaultUseScanCodes        = true
	defaultDisallowShiftDelete = true

	defaultMousePointerSpeed        = 1.0
	defaultMousePointerAcceleration = 10.0
	defaultStickDeadZoneFraction    = 0.25
	defaultTriggerDeadZoneFraction  = 0.1

	defaultMessageLoggingLevel = LoggingErrors

	defaultEnableWordPrediction             = true
	defaultLearnNewWords                    = false
	defaultWordPredictionInstalledLanguages = "enggb,True"

	defaultPredictionReadTimeoutMS = 500
)
