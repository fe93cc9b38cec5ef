package powersupply_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbeignon/go-rsbench/logger"
	"github.com/rbeignon/go-rsbench/powersupply"
	"github.com/rbeignon/go-rsbench/quantity"
	"github.com/rbeignon/go-rsbench/scpi"
)

func TestMain(m *testing.M) {
	logger.SetLevel(logger.ErrorLevel)
	os.Exit(m.Run())
}

func openTestSupply(t *testing.T) (*powersupply.Session, *fakeSupply) {
	t.Helper()

	f := newFakeSupply()
	s, err := powersupply.Open("sim://hmp", scpi.WithDialFunc(f.inst.DialFunc()))
	require.NoError(t, err)

	// Drop the open handshake from the command log.
	f.inst.Reset()

	return s, f
}

func TestOpenRemoteMode(t *testing.T) {
	require := require.New(t)

	f := newFakeSupply()
	s, err := powersupply.Open("sim://hmp", scpi.WithDialFunc(f.inst.DialFunc()))
	require.NoError(err)

	require.Equal("HMP2030", s.Model())
	// Remote control is engaged right after the reset handshake.
	require.Equal(1, f.inst.CountWrites("SYST:REM"))
}

func TestLimits(t *testing.T) {
	require := require.New(t)

	s, _ := openTestSupply(t)

	for channel := 1; channel <= powersupply.NumChannels; channel++ {
		limits, err := s.Limits(channel)
		require.NoError(err)
		require.True(limits.Voltage.Equal(quantity.Volts(32), 1e-9))
		require.True(limits.Current.Equal(quantity.Amperes(5), 1e-9))
	}

	_, err := s.Limits(0)
	var invalid *powersupply.InvalidChannelError
	require.ErrorAs(err, &invalid)
	require.Equal(0, invalid.Channel)
}

func TestSetVoltage(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	require.NoError(s.SetVoltage(2, quantity.Volts(12.5)))
	require.Equal(1, f.inst.CountWrites("INST OUT2"))
	require.Equal(1, f.inst.CountWrites("VOLT 12.500"))

	v, err := s.Voltage(2)
	require.NoError(err)
	require.True(v.Equal(quantity.Volts(12.5), 1e-9))
	// The channel was already selected: no second selection command.
	require.Equal(1, f.inst.CountWrites("INST OUT2"))
}

func TestSetVoltageOutOfRange(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	tests := []struct {
		name  string
		value quantity.Quantity
	}{
		{"above max", quantity.Volts(40)},
		{"negative", quantity.Volts(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.SetVoltage(1, tt.value)

			var oor *powersupply.OutOfRangeError
			require.ErrorAs(err, &oor)
			require.Equal(1, oor.Channel)
			require.True(oor.Max.Equal(quantity.Volts(32), 1e-9))
			require.True(oor.Value.Equal(tt.value, 1e-9))

			// Validation precedes any transport traffic: the instrument
			// state is untouched.
			require.Empty(f.inst.Writes())
			require.Empty(f.inst.Queries())
		})
	}
}

func TestSetCurrentOutOfRange(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	err := s.SetCurrent(3, quantity.Amperes(6))

	var oor *powersupply.OutOfRangeError
	require.ErrorAs(err, &oor)
	require.True(oor.Max.Equal(quantity.Amperes(5), 1e-9))
	require.Empty(f.inst.Writes())
}

func TestSetVoltageWrongUnitFamily(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	err := s.SetVoltage(1, quantity.Dbm(-10))

	var incompatible *quantity.IncompatibleUnitError
	require.ErrorAs(err, &incompatible)
	require.Empty(f.inst.Writes())
}

func TestInvalidChannel(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	var invalid *powersupply.InvalidChannelError
	require.ErrorAs(s.SetVoltage(0, quantity.Volts(1)), &invalid)
	require.ErrorAs(s.SetCurrent(4, quantity.Amperes(1)), &invalid)

	_, err := s.MeasureVoltage(4)
	require.ErrorAs(err, &invalid)

	_, err = s.RegulationStatus(-1)
	require.ErrorAs(err, &invalid)

	require.Empty(f.inst.Writes())
}

func TestMeasure(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	require.NoError(s.SetVoltage(1, quantity.Volts(5)))
	require.NoError(s.SetCurrent(1, quantity.Amperes(0.5)))

	v, err := s.MeasureVoltage(1)
	require.NoError(err)
	require.True(v.Equal(quantity.Volts(5), 1e-9))
	require.Equal(quantity.V, v.Unit())

	c, err := s.MeasureCurrent(1)
	require.NoError(err)
	require.True(c.Equal(quantity.Amperes(0.5), 1e-9))
	require.Equal(quantity.A, c.Unit())

	// All four operations targeted channel 1: one selection in total.
	require.Equal(1, f.inst.CountWrites("INST OUT1"))
}

func TestChannelSelectionSwitches(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	require.NoError(s.SetVoltage(1, quantity.Volts(1)))
	require.NoError(s.SetVoltage(2, quantity.Volts(2)))
	require.NoError(s.SetVoltage(1, quantity.Volts(3)))

	// Re-targeting a different channel re-selects; the shared register
	// holds one channel at a time.
	require.Equal(2, f.inst.CountWrites("INST OUT1"))
	require.Equal(1, f.inst.CountWrites("INST OUT2"))
	require.Equal(1, s.SelectedChannel())
}

func TestRegulationStatus(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	f.setConstantCurrent(2, true)

	reg, err := s.RegulationStatus(2)
	require.NoError(err)
	require.Equal(powersupply.ConstantCurrent, reg)
	require.Equal("CC", reg.String())

	reg, err = s.RegulationStatus(1)
	require.NoError(err)
	require.Equal(powersupply.ConstantVoltage, reg)

	// The condition register is addressed by channel number; no
	// selection round trip is issued.
	require.Empty(f.inst.Writes())
}

func TestOutputSwitching(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	require.NoError(s.SetOn(1))
	require.True(f.output(1))

	require.NoError(s.SetOff(1))
	require.False(f.output(1))

	require.NoError(s.SetOn(2))
	require.NoError(s.SetOn(3))

	require.NoError(s.AllOff())
	for channel := 1; channel <= powersupply.NumChannels; channel++ {
		require.False(f.output(channel), "channel %d still on", channel)
	}
	require.Equal(4, f.inst.CountWrites("OUTP OFF"))
}

func TestOverVoltageProtection(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	require.NoError(s.SetOverVoltageProtection(1, quantity.Volts(30)))
	require.Equal(1, f.inst.CountWrites("VOLT:PROT 30.000"))
}

func TestOverCurrentProtection(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	require.NoError(s.SetOverCurrentProtection(2, quantity.Amperes(1.5)))

	// Enabling the electronic fuse is a fixed side effect of current
	// protection.
	require.Equal(1, f.inst.CountWrites("FUSE ON"))
	require.Equal(1, f.inst.CountWrites("CURR 1.500"))
}

func TestBeepAndErrorRegister(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	require.NoError(s.Beep())
	require.Equal([]string{"SYST:BEEP"}, f.inst.Writes())
	require.Empty(f.inst.Queries(), "beep is single-shot, not confirmed")

	reply, err := s.NextError()
	require.NoError(err)
	require.Equal(`0,"No error"`, reply)
}

func TestCloseDeEnergizesAllChannels(t *testing.T) {
	require := require.New(t)

	s, f := openTestSupply(t)

	require.NoError(s.SetOn(1))
	require.NoError(s.SetOn(3))

	require.NoError(s.Close())

	for channel := 1; channel <= powersupply.NumChannels; channel++ {
		require.False(f.output(channel))
	}
	require.True(f.inst.Closed())
}
