package powersupply_test

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rbeignon/go-rsbench/scpi/scpitest"
)

// fakeSupply simulates the SCPI surface of an HMP2030: the shared
// channel-selection register, per-channel set-points and output states,
// and the per-channel regulation condition registers.
type fakeSupply struct {
	inst *scpitest.Instrument

	mu       sync.Mutex
	selected int
	volts    [4]float64 // indexed by channel, [0] unused
	currents [4]float64
	outputs  [4]bool
	cc       [4]bool // constant-current condition per channel
}

func newFakeSupply() *fakeSupply {
	f := &fakeSupply{selected: 1}
	f.inst = scpitest.New(f.query)
	f.inst.WriteHook = f.apply
	return f
}

func (f *fakeSupply) apply(cmd string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case cmd == "*RST":
		f.selected = 1
		f.volts = [4]float64{}
		f.currents = [4]float64{}
		f.outputs = [4]bool{}
	case strings.HasPrefix(cmd, "INST OUT"):
		n, _ := strconv.Atoi(strings.TrimPrefix(cmd, "INST OUT"))
		f.selected = n
	case strings.HasPrefix(cmd, "VOLT:PROT "):
	case strings.HasPrefix(cmd, "VOLT "):
		f.volts[f.selected], _ = strconv.ParseFloat(strings.TrimPrefix(cmd, "VOLT "), 64)
	case strings.HasPrefix(cmd, "CURR "):
		f.currents[f.selected], _ = strconv.ParseFloat(strings.TrimPrefix(cmd, "CURR "), 64)
	case cmd == "OUTP ON":
		f.outputs[f.selected] = true
	case cmd == "OUTP OFF":
		f.outputs[f.selected] = false
	}
}

func (f *fakeSupply) query(cmd string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch cmd {
	case "*IDN?":
		return "ROHDE&SCHWARZ,HMP2030,101060,2.62"
	case "*OPC?":
		return "1"
	case "INST:NSEL?":
		return strconv.Itoa(f.selected)
	case "MEAS:VOLT?":
		// Perfect regulation: the measured value tracks the set-point.
		return fmt.Sprintf("%.3f", f.volts[f.selected])
	case "MEAS:CURR?":
		return fmt.Sprintf("%.3f", f.currents[f.selected])
	case "VOLT?":
		return fmt.Sprintf("%.3f", f.volts[f.selected])
	case "CURR?":
		return fmt.Sprintf("%.3f", f.currents[f.selected])
	case "SYST:ERR?":
		return `0,"No error"`
	}

	if strings.HasPrefix(cmd, "STAT:QUES:INST:ISUM") {
		n, _ := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(cmd, "STAT:QUES:INST:ISUM"), ":COND?"))
		if n >= 1 && n <= 3 && f.cc[n] {
			return "1"
		}
		return "0"
	}

	return "0"
}

func (f *fakeSupply) setConstantCurrent(channel int, cc bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cc[channel] = cc
}

func (f *fakeSupply) output(channel int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.outputs[channel]
}
