package powersupply

import (
	"fmt"

	"github.com/rbeignon/go-rsbench/quantity"
)

// NumChannels is the number of output channels on the supported models.
const NumChannels = 3

// Limits holds the fixed hardware maximum of one channel. The minimum is
// always zero.
type Limits struct {
	Voltage quantity.Quantity
	Current quantity.Quantity
}

// channelLimits returns the per-channel limit table for a model. Limits
// are a property of the hardware, not runtime-configurable.
//
// Every channel of the HMP2030 delivers 0-32 V and 0-5 A.
func channelLimits(model string) [NumChannels]Limits {
	hmp2030 := Limits{
		Voltage: quantity.Volts(32),
		Current: quantity.Amperes(5),
	}

	// Only the HMP2030 has been characterized; unknown HMP models fall
	// back to its limits, which are the most restrictive of the family.
	return [NumChannels]Limits{hmp2030, hmp2030, hmp2030}
}

// InvalidChannelError indicates a channel number outside 1..NumChannels.
type InvalidChannelError struct {
	Channel int
}

func (e *InvalidChannelError) Error() string {
	return fmt.Sprintf("powersupply: channel %d out of range [1, %d]", e.Channel, NumChannels)
}

// OutOfRangeError indicates a set-point outside the channel's fixed
// hardware limits. No command was sent to the instrument.
type OutOfRangeError struct {
	Channel int
	Min     quantity.Quantity
	Max     quantity.Quantity
	Value   quantity.Quantity
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("powersupply: channel %d value %s out of range [%s, %s]",
		e.Channel, e.Value, e.Min, e.Max)
}
