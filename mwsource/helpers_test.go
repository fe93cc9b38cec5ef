package mwsource_test

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rbeignon/go-rsbench/scpi/scpitest"
)

// fakeSource simulates the SCPI surface of an SMB100A signal generator:
// mode and output registers, CW frequency/power, the named list buffer
// and the sweep range registers. Commands arrive through the instrument's
// write hook, queries are answered from the state.
type fakeSource struct {
	inst *scpitest.Instrument

	mu      sync.Mutex
	mode    string // instrument token: "CW", "LIST", "SWE"
	running bool
	freqHz  float64
	powDBm  float64
	listHz  []float64
	listDBm []float64
	startHz float64 // sweep start register, holds start-step as written
	stopHz  float64
	stepHz  float64
	slope   string
}

func newFakeSource() *fakeSource {
	f := &fakeSource{}
	f.reset()
	f.inst = scpitest.New(f.query)
	f.inst.WriteHook = f.apply
	return f
}

func (f *fakeSource) reset() {
	f.mode = "CW"
	f.running = false
	f.freqHz = 1e9
	f.powDBm = -30
	f.listHz = nil
	f.listDBm = nil
	f.startHz, f.stopHz, f.stepHz = 0, 0, 0
	f.slope = "POS"
}

func (f *fakeSource) apply(cmd string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	arg := func(prefix string) string { return strings.TrimSpace(strings.TrimPrefix(cmd, prefix)) }

	switch {
	case cmd == "*RST":
		f.reset()
	case cmd == "*CLS", cmd == "*WAI":
	case cmd == "OUTP:STAT OFF":
		f.running = false
	case cmd == ":OUTP:STAT ON":
		f.running = true
	case strings.HasPrefix(cmd, ":FREQ:MODE "):
		switch arg(":FREQ:MODE ") {
		case "CW":
			f.mode = "CW"
		case "LIST":
			f.mode = "LIST"
		case "SWEEP":
			f.mode = "SWE"
		}
	case strings.HasPrefix(cmd, ":FREQ:START "):
		f.startHz = parseFreqHz(arg(":FREQ:START "))
	case strings.HasPrefix(cmd, ":FREQ:STOP "):
		f.stopHz = parseFreqHz(arg(":FREQ:STOP "))
	case strings.HasPrefix(cmd, ":SWE:STEP:LIN "):
		f.stepHz = parseFreqHz(arg(":SWE:STEP:LIN "))
	case strings.HasPrefix(cmd, ":FREQ "):
		f.freqHz = parseFreqHz(arg(":FREQ "))
	case strings.HasPrefix(cmd, ":POW "):
		f.powDBm, _ = strconv.ParseFloat(arg(":POW "), 64)
	case strings.HasPrefix(cmd, "LIST:FREQ "):
		f.listHz = nil
		for _, part := range strings.Split(arg("LIST:FREQ "), ",") {
			f.listHz = append(f.listHz, parseFreqHz(strings.TrimSpace(part)))
		}
	case strings.HasPrefix(cmd, "LIST:POW "):
		f.listDBm = nil
		for _, part := range strings.Split(arg("LIST:POW "), ",") {
			v, _ := strconv.ParseFloat(strings.TrimSpace(part), 64)
			f.listDBm = append(f.listDBm, v)
		}
	case strings.HasPrefix(cmd, ":TRIG1:SLOP "):
		f.slope = arg(":TRIG1:SLOP ")
	}
}

func (f *fakeSource) query(cmd string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch cmd {
	case "*IDN?":
		return "VENDOR,SMB100A,12345,1.0"
	case "*OPC?":
		return "1"
	case "OUTP:STAT?":
		if f.running {
			return "1"
		}
		return "0"
	case ":FREQ:MODE?":
		return f.mode
	case ":FREQ?":
		return formatHz(f.freqHz)
	case ":POW?":
		return fmt.Sprintf("%.2f", f.powDBm)
	case ":LIST:FREQ?":
		return joinHz(f.listHz)
	case "LIST:POW?":
		parts := make([]string, len(f.listDBm))
		for i, v := range f.listDBm {
			parts[i] = fmt.Sprintf("%.2f", v)
		}
		return strings.Join(parts, ",")
	case ":FREQ:STAR?":
		return formatHz(f.startHz)
	case ":FREQ:STOP?":
		return formatHz(f.stopHz)
	case ":SWE:STEP?":
		return formatHz(f.stepHz)
	case ":TRIG1:SLOP?":
		return f.slope
	default:
		return "0"
	}
}

// parseFreqHz parses the driver's "<magnitude> <unit>" frequency argument.
func parseFreqHz(s string) float64 {
	fields := strings.Fields(s)
	v, _ := strconv.ParseFloat(fields[0], 64)
	if len(fields) < 2 {
		return v
	}
	switch fields[1] {
	case "GHz":
		return v * 1e9
	case "MHz":
		return v * 1e6
	case "kHz":
		return v * 1e3
	default:
		return v
	}
}

func formatHz(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinHz(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatHz(v)
	}
	return strings.Join(parts, ",")
}
