package mwsource

import "strings"

// Mode is the generator's frequency mode.
type Mode int8

const (
	ModeUnknown Mode = iota
	ModeCW
	ModeList
	ModeSweep
)

func (m Mode) String() string {
	switch m {
	case ModeCW:
		return "cw"
	case ModeList:
		return "list"
	case ModeSweep:
		return "sweep"
	default:
		return "unknown"
	}
}

// parseMode maps the ":FREQ:MODE?" reply token to a Mode. The instrument
// abbreviates sweep mode as "SWE".
func parseMode(token string) Mode {
	token = strings.ToLower(strings.TrimSpace(token))
	switch {
	case strings.Contains(token, "cw"):
		return ModeCW
	case strings.Contains(token, "list"):
		return ModeList
	case strings.Contains(token, "swe"):
		return ModeSweep
	default:
		return ModeUnknown
	}
}

// TriggerEdge selects the polarity of the external step trigger.
type TriggerEdge int8

const (
	Rising TriggerEdge = iota
	Falling
)

func (e TriggerEdge) String() string {
	if e == Falling {
		return "falling"
	}
	return "rising"
}

// polarity maps the edge to the instrument's slope token.
func (e TriggerEdge) polarity() string {
	if e == Falling {
		return "NEG"
	}
	return "POS"
}
