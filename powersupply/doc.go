// Package powersupply drives Rohde & Schwarz HMP-family multi-channel DC
// power supplies (tested command set: HMP2030) over an SCPI session.
//
// The instrument has a single channel-selection register shared by every
// channel-targeted command: "INST OUT<n>" selects a channel, and the
// following VOLT/CURR/OUTP commands apply to it. The driver models that
// register explicitly on the session and re-selects only when the target
// channel differs from the one last selected, so the one-at-a-time
// addressing constraint stays visible and testable.
//
// Voltage and current set-points are validated against the fixed
// per-channel hardware limits before any command is sent; an out-of-range
// value leaves the instrument untouched.
package powersupply
