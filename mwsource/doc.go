// Package mwsource drives Rohde & Schwarz microwave signal generators of
// the SMA/SMB families (tested command set: SMB100A, SMA100B) over an
// SCPI session.
//
// The generator runs in one of three modes: continuous wave (a single
// fixed frequency and power), list (a named table of frequency/power
// pairs stepped by an external trigger), or sweep (a linear
// start/stop/step ramp). The instrument itself is the single source of
// truth for its mode and output state: the driver re-queries both before
// every decision instead of caching them, because front-panel or other
// remote access can change them out-of-band.
//
// Mode switches are only legal while the output is stopped, so every
// configuration operation turns the output off first when it is running.
package mwsource
