package mwsource

import (
	"github.com/rbeignon/go-rsbench/quantity"
)

// SweepRange describes a linear sweep as reported by the instrument.
type SweepRange struct {
	Start quantity.Quantity
	Stop  quantity.Quantity
	Step  quantity.Quantity
}

// FrequencyReading is the mode-tagged result of a frequency query. Only
// the field matching Mode is populated: CW for a single frequency, Sweep
// for a start/stop/step triple, List for the frequency table.
type FrequencyReading struct {
	Mode  Mode
	CW    quantity.Quantity
	Sweep SweepRange
	List  []quantity.Quantity
}

// PowerReading is the mode-tagged result of a power query. In CW and
// sweep mode Levels holds a single value. In list mode it holds the power
// table; when every entry is the same the instrument-side table is
// reported as that single value (documented device-driver quirk,
// preserved from the reference behavior).
type PowerReading struct {
	Mode   Mode
	Levels []quantity.Quantity
}

// Level returns the single power level and true when the reading holds
// exactly one value.
func (r PowerReading) Level() (quantity.Quantity, bool) {
	if len(r.Levels) == 1 {
		return r.Levels[0], true
	}
	return quantity.Quantity{}, false
}

// CWResult is the instrument state re-queried after SetCW. The values are
// what the instrument reports, never the requested values verbatim: the
// device may clamp or round.
type CWResult struct {
	Mode      Mode
	Frequency quantity.Quantity
	Power     quantity.Quantity
}

// ListResult is the instrument state re-queried after SetList.
type ListResult struct {
	Mode        Mode
	Frequencies []quantity.Quantity
	Power       PowerReading
}

// SweepResult is the instrument state re-queried after SetSweep.
type SweepResult struct {
	Mode  Mode
	Range SweepRange
	Power quantity.Quantity
}
