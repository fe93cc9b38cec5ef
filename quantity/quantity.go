// Package quantity provides an immutable physical-quantity value type used
// at every driver API boundary, so frequencies, powers, voltages, currents
// and durations always travel with their unit instead of as bare float64s.
//
// Conversion is a pure function of the unit pair: there is no process-wide
// unit registry and no mutable state. Units convert only within their
// family (frequency, power, voltage, current, time) by a linear scale
// factor. Power in dBm is logarithmic; it is stored and compared as-is and
// never rescaled.
package quantity

import (
	"fmt"
	"strconv"
)

// Unit identifies a supported measurement unit.
type Unit int8

const (
	// Frequency family.
	Hz Unit = iota
	KHz
	MHz
	GHz
	// Power family. Logarithmic; only converts to itself.
	DBm
	// Voltage family.
	V
	// Current family.
	A
	// Time family.
	S
	Ms
)

// Family groups units that convert into each other.
type Family int8

const (
	Frequency Family = iota
	Power
	Voltage
	Current
	Time
)

var unitSymbols = map[Unit]string{
	Hz:  "Hz",
	KHz: "kHz",
	MHz: "MHz",
	GHz: "GHz",
	DBm: "dBm",
	V:   "V",
	A:   "A",
	S:   "s",
	Ms:  "ms",
}

var familyNames = map[Family]string{
	Frequency: "frequency",
	Power:     "power",
	Voltage:   "voltage",
	Current:   "current",
	Time:      "time",
}

// scale holds the factor from each unit to its family base unit
// (Hz, dBm, V, A, s).
var scale = map[Unit]float64{
	Hz:  1,
	KHz: 1e3,
	MHz: 1e6,
	GHz: 1e9,
	DBm: 1,
	V:   1,
	A:   1,
	S:   1,
	Ms:  1e-3,
}

var families = map[Unit]Family{
	Hz:  Frequency,
	KHz: Frequency,
	MHz: Frequency,
	GHz: Frequency,
	DBm: Power,
	V:   Voltage,
	A:   Current,
	S:   Time,
	Ms:  Time,
}

// defaultPrecision is the family-appropriate number of decimals used by
// FormatDefault. Frequencies are commonly expressed in GHz with Hz
// resolution, hence 6 decimals.
var defaultPrecision = map[Family]int{
	Frequency: 6,
	Power:     2,
	Voltage:   2,
	Current:   2,
	Time:      3,
}

// String returns the unit symbol, e.g. "GHz".
func (u Unit) String() string {
	if s, ok := unitSymbols[u]; ok {
		return s
	}
	return "unit(" + strconv.Itoa(int(u)) + ")"
}

// Family returns the conversion family the unit belongs to.
func (u Unit) Family() Family {
	return families[u]
}

// String returns the family name, e.g. "frequency".
func (f Family) String() string {
	if s, ok := familyNames[f]; ok {
		return s
	}
	return "family(" + strconv.Itoa(int(f)) + ")"
}

// IncompatibleUnitError indicates a conversion between units of different
// families, e.g. frequency to voltage.
type IncompatibleUnitError struct {
	From Unit
	To   Unit
}

func (e *IncompatibleUnitError) Error() string {
	return fmt.Sprintf("quantity: cannot convert %s (%s) to %s (%s)",
		e.From, e.From.Family(), e.To, e.To.Family())
}

// Quantity is an immutable magnitude + unit pair.
//
// The zero value is 0 Hz.
type Quantity struct {
	magnitude float64
	unit      Unit
}

// New creates a Quantity with the given magnitude and unit.
func New(magnitude float64, unit Unit) Quantity {
	return Quantity{magnitude: magnitude, unit: unit}
}

// Convenience constructors for the units the drivers use most.

func Hertz(v float64) Quantity     { return New(v, Hz) }
func KiloHertz(v float64) Quantity { return New(v, KHz) }
func MegaHertz(v float64) Quantity { return New(v, MHz) }
func GigaHertz(v float64) Quantity { return New(v, GHz) }
func Dbm(v float64) Quantity       { return New(v, DBm) }
func Volts(v float64) Quantity     { return New(v, V) }
func Amperes(v float64) Quantity   { return New(v, A) }
func Seconds(v float64) Quantity   { return New(v, S) }
func Millis(v float64) Quantity    { return New(v, Ms) }

// Magnitude returns the numeric value in the quantity's own unit.
func (q Quantity) Magnitude() float64 { return q.magnitude }

// Unit returns the quantity's unit.
func (q Quantity) Unit() Unit { return q.unit }

// Family returns the quantity's conversion family.
func (q Quantity) Family() Family { return q.unit.Family() }

// ConvertTo returns the same physical quantity expressed in the target
// unit. It fails with *IncompatibleUnitError when the target belongs to a
// different family. Converting a quantity to its own unit is a no-op.
func (q Quantity) ConvertTo(target Unit) (Quantity, error) {
	if q.unit == target {
		return q, nil
	}
	if q.unit.Family() != target.Family() {
		return Quantity{}, &IncompatibleUnitError{From: q.unit, To: target}
	}

	base := q.magnitude * scale[q.unit]

	return Quantity{magnitude: base / scale[target], unit: target}, nil
}

// MustConvert is ConvertTo for unit pairs the caller knows are compatible.
// It panics on a family mismatch.
func (q Quantity) MustConvert(target Unit) Quantity {
	c, err := q.ConvertTo(target)
	if err != nil {
		panic(err)
	}

	return c
}

// Format renders the quantity as "<magnitude> <unit>" with the given
// number of decimals, e.g. Format(6) of 2.5 GHz is "2.500000 GHz".
func (q Quantity) Format(precision int) string {
	return strconv.FormatFloat(q.magnitude, 'f', precision, 64) + " " + q.unit.String()
}

// FormatDefault renders the quantity with its family's default precision:
// 6 decimals for frequency, 2 for power/voltage/current, 3 for time.
func (q Quantity) FormatDefault() string {
	return q.Format(defaultPrecision[q.Family()])
}

// String implements fmt.Stringer using the family default precision.
func (q Quantity) String() string {
	return q.FormatDefault()
}

// Equal reports whether q and other represent the same physical quantity
// within tolerance tol, expressed in q's unit. Quantities of different
// families are never equal.
func (q Quantity) Equal(other Quantity, tol float64) bool {
	c, err := other.ConvertTo(q.unit)
	if err != nil {
		return false
	}
	diff := q.magnitude - c.magnitude
	if diff < 0 {
		diff = -diff
	}

	return diff <= tol
}
