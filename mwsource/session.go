package mwsource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbeignon/go-rsbench/quantity"
	"github.com/rbeignon/go-rsbench/scpi"
)

// listBuffer is the named list the driver always operates on.
const listBuffer = `"My_list"`

// SweepConfig carries the optional parameters of SetSweep. Start, stop
// and step must be given together or not at all; Power may accompany
// either form.
type SweepConfig struct {
	Start *quantity.Quantity
	Stop  *quantity.Quantity
	Step  *quantity.Quantity
	Power *quantity.Quantity
}

// Session is an open session against a microwave source. It is not safe
// for concurrent use.
type Session struct {
	*scpi.Session
}

// Open opens a session against a microwave source at the given address.
// The instrument is identified, status-cleared and reset.
func Open(address string, opts ...scpi.SessionOption) (*Session, error) {
	base, err := scpi.Open(address, opts...)
	if err != nil {
		return nil, err
	}

	return &Session{Session: base}, nil
}

// Close forces the output off before releasing the transport. A failed
// de-energization does not prevent the transport from being released; its
// error is still surfaced.
func (s *Session) Close() error {
	offErr := s.Off()

	return errors.Join(offErr, s.Session.Close())
}

// Status queries the current mode and output state. Two round trips; the
// result is never cached.
func (s *Session) Status() (Mode, bool, error) {
	running, err := s.QueryBool("OUTP:STAT?")
	if err != nil {
		return ModeUnknown, false, err
	}

	token, err := s.Query(":FREQ:MODE?")
	if err != nil {
		return ModeUnknown, false, err
	}

	return parseMode(token), running, nil
}

// Off switches off the microwave output. A no-op when the output is
// already stopped, so repeated calls issue a single disable command.
func (s *Session) Off() error {
	_, running, err := s.Status()
	if err != nil {
		return err
	}
	if !running {
		return nil
	}

	return s.CommandWait("OUTP:STAT OFF")
}

// CWOn switches on the output in CW mode. A no-op when already running in
// CW; output in any other mode is stopped first, because mode switches
// are only legal while stopped.
func (s *Session) CWOn() error {
	mode, running, err := s.Status()
	if err != nil {
		return err
	}
	if running {
		if mode == ModeCW {
			return nil
		}
		if err := s.Off(); err != nil {
			return err
		}
	}

	if mode != ModeCW {
		if err := s.CommandWait(":FREQ:MODE CW"); err != nil {
			return err
		}
	}

	return s.CommandWait(":OUTP:STAT ON")
}

// SetCW configures CW mode, optionally setting frequency and/or power
// (nil leaves the instrument value untouched). The returned values are
// re-queried from the instrument, which may clamp or round the requested
// ones.
func (s *Session) SetCW(frequency, power *quantity.Quantity) (CWResult, error) {
	// Unit validation happens before any command is sent.
	var freqGHz, powDBm quantity.Quantity
	var err error
	if frequency != nil {
		if freqGHz, err = frequency.ConvertTo(quantity.GHz); err != nil {
			return CWResult{}, err
		}
	}
	if power != nil {
		if powDBm, err = power.ConvertTo(quantity.DBm); err != nil {
			return CWResult{}, err
		}
	}

	mode, running, err := s.Status()
	if err != nil {
		return CWResult{}, err
	}
	if running {
		if err := s.Off(); err != nil {
			return CWResult{}, err
		}
	}

	if mode != ModeCW {
		if err := s.CommandWait(":FREQ:MODE CW"); err != nil {
			return CWResult{}, err
		}
	}

	if frequency != nil {
		if err := s.CommandWait(":FREQ " + freqGHz.FormatDefault()); err != nil {
			return CWResult{}, err
		}
	}
	if power != nil {
		if err := s.CommandWait(fmt.Sprintf(":POW %.2f", powDBm.Magnitude())); err != nil {
			return CWResult{}, err
		}
	}

	mode, _, err = s.Status()
	if err != nil {
		return CWResult{}, err
	}

	freq, err := s.QueryFloat(":FREQ?")
	if err != nil {
		return CWResult{}, err
	}
	pow, err := s.QueryFloat(":POW?")
	if err != nil {
		return CWResult{}, err
	}

	return CWResult{
		Mode:      mode,
		Frequency: quantity.Hertz(freq),
		Power:     quantity.Dbm(pow),
	}, nil
}

// ListOn switches on the output in list mode. A no-op when already
// running in list mode.
func (s *Session) ListOn() error {
	mode, running, err := s.Status()
	if err != nil {
		return err
	}
	if running {
		if mode == ModeList {
			return nil
		}
		if err := s.Off(); err != nil {
			return err
		}
	}

	if mode != ModeList {
		if err := s.CommandWait(":FREQ:MODE LIST"); err != nil {
			return err
		}
		if err := s.CommandWait(":LIST:SEL " + listBuffer); err != nil {
			return err
		}
	}

	return s.CommandWait(":OUTP:STAT ON")
}

// SetList configures list mode and optionally loads the frequency/power
// tables. Both tables must be given for either to be written; powers may
// be a single value, broadcast to every frequency, or one value per
// frequency — any other length fails with ErrLengthMismatch before any
// command is sent.
//
// List stepping is fixed to one point per external trigger event
// (LIST:MODE STEP with an external trigger source).
func (s *Session) SetList(frequencies, powers []quantity.Quantity) (ListResult, error) {
	writeTables := len(frequencies) > 0 && len(powers) > 0

	var freqGHz, powDBm []quantity.Quantity
	if writeTables {
		if len(powers) == 1 {
			// Broadcast the single power to every frequency.
			broadcast := make([]quantity.Quantity, len(frequencies))
			for i := range broadcast {
				broadcast[i] = powers[0]
			}
			powers = broadcast
		}
		if len(frequencies) != len(powers) {
			return ListResult{}, fmt.Errorf("%w: %d frequencies, %d powers",
				ErrLengthMismatch, len(frequencies), len(powers))
		}

		// Validate every entry before the first command goes out.
		freqGHz = make([]quantity.Quantity, len(frequencies))
		powDBm = make([]quantity.Quantity, len(powers))
		for i, f := range frequencies {
			g, err := f.ConvertTo(quantity.GHz)
			if err != nil {
				return ListResult{}, err
			}
			freqGHz[i] = g
		}
		for i, p := range powers {
			d, err := p.ConvertTo(quantity.DBm)
			if err != nil {
				return ListResult{}, err
			}
			powDBm[i] = d
		}
	}

	_, running, err := s.Status()
	if err != nil {
		return ListResult{}, err
	}
	if running {
		if err := s.Off(); err != nil {
			return ListResult{}, err
		}
	}

	if writeTables {
		if err := s.CommandWait(":LIST:SEL " + listBuffer); err != nil {
			return ListResult{}, err
		}

		freqParts := make([]string, len(freqGHz))
		for i, g := range freqGHz {
			freqParts[i] = g.FormatDefault()
		}
		if err := s.CommandWait("LIST:FREQ " + strings.Join(freqParts, ", ")); err != nil {
			return ListResult{}, err
		}

		powParts := make([]string, len(powDBm))
		for i, d := range powDBm {
			powParts[i] = fmt.Sprintf("%.2f", d.Magnitude())
		}
		if err := s.CommandWait("LIST:POW " + strings.Join(powParts, ", ")); err != nil {
			return ListResult{}, err
		}
	}

	if err := s.CommandWait(":FREQ:MODE LIST"); err != nil {
		return ListResult{}, err
	}
	// Trigger each value in the list separately, from the external input.
	if err := s.CommandWait("LIST:MODE STEP"); err != nil {
		return ListResult{}, err
	}
	if err := s.CommandWait("LIST:TRIG:SOUR EXT"); err != nil {
		return ListResult{}, err
	}

	mode, _, err := s.Status()
	if err != nil {
		return ListResult{}, err
	}
	freqReading, err := s.Frequency()
	if err != nil {
		return ListResult{}, err
	}
	powReading, err := s.Power()
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Mode:        mode,
		Frequencies: freqReading.List,
		Power:       powReading,
	}, nil
}

// ResetListPosition resets the list playback to its first entry. This is
// a single-shot action with no observable completion, so it is not
// confirmed.
func (s *Session) ResetListPosition() error {
	return s.Write(":LIST:RES")
}

// SweepOn switches on the output in sweep mode. A no-op when already
// running in sweep mode.
func (s *Session) SweepOn() error {
	mode, running, err := s.Status()
	if err != nil {
		return err
	}
	if running {
		if mode == ModeSweep {
			return nil
		}
		if err := s.Off(); err != nil {
			return err
		}
	}

	if mode != ModeSweep {
		if err := s.CommandWait(":FREQ:MODE SWEEP"); err != nil {
			return err
		}
	}

	return s.CommandWait(":OUTP:STAT ON")
}

// SetSweep configures a linear stepped sweep. Start, stop and step must
// be given together or not at all (ErrPartialSweep otherwise, before any
// command is sent).
//
// The start frequency written to the instrument is start−step: the
// device emits its first sweep point at start_register+step, so the
// adjustment makes the first emitted point equal the requested start.
// This is intentional device behavior, not an off-by-one bug.
func (s *Session) SetSweep(cfg SweepConfig) (SweepResult, error) {
	given := 0
	for _, q := range []*quantity.Quantity{cfg.Start, cfg.Stop, cfg.Step} {
		if q != nil {
			given++
		}
	}
	if given != 0 && given != 3 {
		return SweepResult{}, ErrPartialSweep
	}

	var startGHz, stopGHz, stepGHz, powDBm quantity.Quantity
	var err error
	if given == 3 {
		if startGHz, err = cfg.Start.ConvertTo(quantity.GHz); err != nil {
			return SweepResult{}, err
		}
		if stopGHz, err = cfg.Stop.ConvertTo(quantity.GHz); err != nil {
			return SweepResult{}, err
		}
		if stepGHz, err = cfg.Step.ConvertTo(quantity.GHz); err != nil {
			return SweepResult{}, err
		}
	}
	if cfg.Power != nil {
		if powDBm, err = cfg.Power.ConvertTo(quantity.DBm); err != nil {
			return SweepResult{}, err
		}
	}

	mode, running, err := s.Status()
	if err != nil {
		return SweepResult{}, err
	}
	if running {
		if err := s.Off(); err != nil {
			return SweepResult{}, err
		}
	}

	if mode != ModeSweep {
		if err := s.CommandWait(":FREQ:MODE SWEEP"); err != nil {
			return SweepResult{}, err
		}
	}

	if given == 3 {
		if err := s.CommandWait(":SWE:MODE STEP"); err != nil {
			return SweepResult{}, err
		}
		if err := s.CommandWait(":SWE:SPAC LIN"); err != nil {
			return SweepResult{}, err
		}

		startReg := quantity.GigaHertz(startGHz.Magnitude() - stepGHz.Magnitude())
		if err := s.CommandWait(":FREQ:START " + startReg.FormatDefault()); err != nil {
			return SweepResult{}, err
		}
		if err := s.CommandWait(":FREQ:STOP " + stopGHz.FormatDefault()); err != nil {
			return SweepResult{}, err
		}
		if err := s.CommandWait(":SWE:STEP:LIN " + stepGHz.FormatDefault()); err != nil {
			return SweepResult{}, err
		}
	}

	if cfg.Power != nil {
		if err := s.CommandWait(fmt.Sprintf(":POW %.2f", powDBm.Magnitude())); err != nil {
			return SweepResult{}, err
		}
	}

	if err := s.CommandWait("TRIG:FSW:SOUR EXT"); err != nil {
		return SweepResult{}, err
	}

	mode, _, err = s.Status()
	if err != nil {
		return SweepResult{}, err
	}
	freqReading, err := s.Frequency()
	if err != nil {
		return SweepResult{}, err
	}
	powReading, err := s.Power()
	if err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{Mode: mode, Range: freqReading.Sweep}
	if level, ok := powReading.Level(); ok {
		result.Power = level
	}

	return result, nil
}

// ResetSweepPosition resets the sweep to its starting point. Single-shot,
// not confirmed.
func (s *Session) ResetSweepPosition() error {
	return s.Write(":ABOR:SWE")
}

// SetExternalTrigger sets the edge of the external step trigger used by
// list and sweep mode. Trigger polarity is only settable while stopped,
// so a running output is turned off first.
func (s *Session) SetExternalTrigger(edge TriggerEdge) error {
	if edge != Rising && edge != Falling {
		return fmt.Errorf("%w: %d", ErrUnknownTriggerEdge, edge)
	}

	_, running, err := s.Status()
	if err != nil {
		return err
	}
	if running {
		if err := s.Off(); err != nil {
			return err
		}
	}

	return s.CommandWait(":TRIG1:SLOP " + edge.polarity())
}

// ExternalTrigger queries the edge of the external step trigger.
func (s *Session) ExternalTrigger() (TriggerEdge, error) {
	token, err := s.Query(":TRIG1:SLOP?")
	if err != nil {
		return Rising, err
	}
	if strings.Contains(strings.ToUpper(token), "POS") {
		return Rising, nil
	}

	return Falling, nil
}

// Frequency queries the configured frequency. The reading's shape depends
// on the current mode: a single value in CW, a start/stop/step triple in
// sweep, the frequency table in list mode.
func (s *Session) Frequency() (FrequencyReading, error) {
	mode, _, err := s.Status()
	if err != nil {
		return FrequencyReading{}, err
	}

	switch mode {
	case ModeCW:
		f, err := s.QueryFloat(":FREQ?")
		if err != nil {
			return FrequencyReading{}, err
		}
		return FrequencyReading{Mode: mode, CW: quantity.Hertz(f)}, nil

	case ModeSweep:
		start, err := s.QueryFloat(":FREQ:STAR?")
		if err != nil {
			return FrequencyReading{}, err
		}
		stop, err := s.QueryFloat(":FREQ:STOP?")
		if err != nil {
			return FrequencyReading{}, err
		}
		step, err := s.QueryFloat(":SWE:STEP?")
		if err != nil {
			return FrequencyReading{}, err
		}
		// The start register holds start−step (see SetSweep); report the
		// first emitted point.
		return FrequencyReading{Mode: mode, Sweep: SweepRange{
			Start: quantity.Hertz(start + step),
			Stop:  quantity.Hertz(stop),
			Step:  quantity.Hertz(step),
		}}, nil

	case ModeList:
		values, err := s.QueryFloats(":LIST:FREQ?")
		if err != nil {
			return FrequencyReading{}, err
		}
		list := make([]quantity.Quantity, len(values))
		for i, v := range values {
			list[i] = quantity.Hertz(v)
		}
		return FrequencyReading{Mode: mode, List: list}, nil

	default:
		return FrequencyReading{}, fmt.Errorf("mwsource: cannot read frequency in unknown mode")
	}
}

// Power queries the configured power. A single value in CW and sweep
// mode; in list mode the power table, collapsed to a single value when
// every entry is equal (documented reference-behavior quirk).
func (s *Session) Power() (PowerReading, error) {
	mode, _, err := s.Status()
	if err != nil {
		return PowerReading{}, err
	}

	switch mode {
	case ModeCW, ModeSweep:
		p, err := s.QueryFloat(":POW?")
		if err != nil {
			return PowerReading{}, err
		}
		return PowerReading{Mode: mode, Levels: []quantity.Quantity{quantity.Dbm(p)}}, nil

	case ModeList:
		values, err := s.QueryFloats("LIST:POW?")
		if err != nil {
			return PowerReading{}, err
		}
		if allEqual(values) {
			values = values[:1]
		}
		levels := make([]quantity.Quantity, len(values))
		for i, v := range values {
			levels[i] = quantity.Dbm(v)
		}
		return PowerReading{Mode: mode, Levels: levels}, nil

	default:
		return PowerReading{}, fmt.Errorf("mwsource: cannot read power in unknown mode")
	}
}

func allEqual(values []float64) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
