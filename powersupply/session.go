package powersupply

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbeignon/go-rsbench/quantity"
	"github.com/rbeignon/go-rsbench/scpi"
)

// Regulation reports which limit a channel is regulating against.
type Regulation int8

const (
	// ConstantVoltage: the channel holds its voltage set-point, current
	// below the limit.
	ConstantVoltage Regulation = iota
	// ConstantCurrent: the channel is limited by its current set-point.
	ConstantCurrent
)

func (r Regulation) String() string {
	if r == ConstantCurrent {
		return "CC"
	}
	return "CV"
}

// Session is an open session against a multi-channel DC power supply.
// It is not safe for concurrent use.
type Session struct {
	*scpi.Session

	limits [NumChannels]Limits

	// selected mirrors the instrument's shared channel-selection
	// register; 0 means unknown.
	selected int
}

// Open opens a session against a power supply at the given address. After
// the identify/clear/reset handshake the instrument is switched to remote
// control.
func Open(address string, opts ...scpi.SessionOption) (*Session, error) {
	base, err := scpi.Open(address, opts...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		Session: base,
		limits:  channelLimits(base.Model()),
	}

	if err := s.CommandWait("SYST:REM"); err != nil {
		_ = base.Close()
		return nil, err
	}

	return s, nil
}

// Close switches every channel off before releasing the transport. A
// failed de-energization does not prevent the transport from being
// released; its error is still surfaced.
func (s *Session) Close() error {
	offErr := s.AllOff()

	return errors.Join(offErr, s.Session.Close())
}

// Limits returns the fixed hardware limits of a channel.
func (s *Session) Limits(channel int) (Limits, error) {
	if channel < 1 || channel > NumChannels {
		return Limits{}, &InvalidChannelError{Channel: channel}
	}

	return s.limits[channel-1], nil
}

// SelectedChannel returns the channel the driver believes is selected on
// the instrument, or 0 when unknown.
func (s *Session) SelectedChannel() int { return s.selected }

// selectChannel points the instrument's shared selection register at the
// channel. Skipped when the register already holds it.
func (s *Session) selectChannel(channel int) error {
	if channel < 1 || channel > NumChannels {
		return &InvalidChannelError{Channel: channel}
	}
	if s.selected == channel {
		return nil
	}

	if err := s.CommandWait(fmt.Sprintf("INST OUT%d", channel)); err != nil {
		return err
	}
	s.selected = channel

	return nil
}

// SetVoltage sets the voltage set-point of a channel. The value is
// validated against the channel's fixed limit before any command is sent.
func (s *Session) SetVoltage(channel int, value quantity.Quantity) error {
	return s.setPoint(channel, value, quantity.V, "VOLT")
}

// SetCurrent sets the current set-point of a channel. The value is
// validated against the channel's fixed limit before any command is sent.
func (s *Session) SetCurrent(channel int, value quantity.Quantity) error {
	return s.setPoint(channel, value, quantity.A, "CURR")
}

func (s *Session) setPoint(channel int, value quantity.Quantity, unit quantity.Unit, verb string) error {
	if channel < 1 || channel > NumChannels {
		return &InvalidChannelError{Channel: channel}
	}

	v, err := value.ConvertTo(unit)
	if err != nil {
		return err
	}

	max := s.limits[channel-1].Voltage
	if unit == quantity.A {
		max = s.limits[channel-1].Current
	}
	if v.Magnitude() < 0 || v.Magnitude() > max.Magnitude() {
		return &OutOfRangeError{
			Channel: channel,
			Min:     quantity.New(0, unit),
			Max:     max,
			Value:   v,
		}
	}

	if err := s.selectChannel(channel); err != nil {
		return err
	}

	return s.CommandWait(fmt.Sprintf("%s %.3f", verb, v.Magnitude()))
}

// MeasureVoltage reads the measured (not set-point) output voltage of a
// channel.
func (s *Session) MeasureVoltage(channel int) (quantity.Quantity, error) {
	if err := s.selectChannel(channel); err != nil {
		return quantity.Quantity{}, err
	}

	v, err := s.QueryFloat("MEAS:VOLT?")
	if err != nil {
		return quantity.Quantity{}, err
	}

	return quantity.Volts(v), nil
}

// MeasureCurrent reads the measured (not set-point) output current of a
// channel.
func (s *Session) MeasureCurrent(channel int) (quantity.Quantity, error) {
	if err := s.selectChannel(channel); err != nil {
		return quantity.Quantity{}, err
	}

	v, err := s.QueryFloat("MEAS:CURR?")
	if err != nil {
		return quantity.Quantity{}, err
	}

	return quantity.Amperes(v), nil
}

// Voltage reads the voltage set-point of a channel.
func (s *Session) Voltage(channel int) (quantity.Quantity, error) {
	if err := s.selectChannel(channel); err != nil {
		return quantity.Quantity{}, err
	}

	v, err := s.QueryFloat("VOLT?")
	if err != nil {
		return quantity.Quantity{}, err
	}

	return quantity.Volts(v), nil
}

// Current reads the current set-point of a channel.
func (s *Session) Current(channel int) (quantity.Quantity, error) {
	if err := s.selectChannel(channel); err != nil {
		return quantity.Quantity{}, err
	}

	v, err := s.QueryFloat("CURR?")
	if err != nil {
		return quantity.Quantity{}, err
	}

	return quantity.Amperes(v), nil
}

// RegulationStatus reports whether a channel is regulating in constant
// current or constant voltage. The condition register is addressed by
// channel number, so no selection round trip is needed.
func (s *Session) RegulationStatus(channel int) (Regulation, error) {
	if channel < 1 || channel > NumChannels {
		return ConstantVoltage, &InvalidChannelError{Channel: channel}
	}

	cc, err := s.QueryBool(fmt.Sprintf("STAT:QUES:INST:ISUM%d:COND?", channel))
	if err != nil {
		return ConstantVoltage, err
	}
	if cc {
		return ConstantCurrent, nil
	}

	return ConstantVoltage, nil
}

// SetOn switches the output of a channel on.
func (s *Session) SetOn(channel int) error {
	if err := s.selectChannel(channel); err != nil {
		return err
	}

	return s.CommandWait("OUTP ON")
}

// SetOff switches the output of a channel off.
func (s *Session) SetOff(channel int) error {
	if err := s.selectChannel(channel); err != nil {
		return err
	}

	return s.CommandWait("OUTP OFF")
}

// AllOff switches every channel off. Best-effort: a failing channel does
// not stop the others from being switched off; all errors are surfaced.
func (s *Session) AllOff() error {
	var errs []error
	for channel := 1; channel <= NumChannels; channel++ {
		if err := s.SetOff(channel); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// SetOverVoltageProtection sets the over-voltage protection threshold of
// a channel.
func (s *Session) SetOverVoltageProtection(channel int, max quantity.Quantity) error {
	v, err := max.ConvertTo(quantity.V)
	if err != nil {
		return err
	}

	if err := s.selectChannel(channel); err != nil {
		return err
	}

	return s.CommandWait(fmt.Sprintf("VOLT:PROT %.3f", v.Magnitude()))
}

// SetOverCurrentProtection caps the channel current at max. Enabling the
// electronic fuse is a fixed side effect; the fuse is never switched back
// off by the driver.
func (s *Session) SetOverCurrentProtection(channel int, max quantity.Quantity) error {
	v, err := max.ConvertTo(quantity.A)
	if err != nil {
		return err
	}

	if err := s.selectChannel(channel); err != nil {
		return err
	}

	if err := s.CommandWait("FUSE ON"); err != nil {
		return err
	}

	return s.CommandWait(fmt.Sprintf("CURR %.3f", v.Magnitude()))
}

// Beep emits an acoustic signal on the instrument. Single-shot, not
// confirmed.
func (s *Session) Beep() error {
	return s.Write("SYST:BEEP")
}

// NextError pops the oldest entry from the instrument's error register.
// The reply is of the form `0,"No error"` when the register is empty.
func (s *Session) NextError() (string, error) {
	reply, err := s.Query("SYST:ERR?")
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(reply), nil
}
